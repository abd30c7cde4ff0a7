package config

import (
	"encoding/json"
	"io/ioutil"
	"os"

	"github.com/inconshreveable/log15"
)

var log = log15.New("module", "config")

const configFileName = "ddknode.config.json"

// Constants groups every consensus-relevant tunable the core pipeline
// reads at admission and verification time. Unlike the rest of Config
// these are not node-operator preferences: changing one without
// coordinating the whole network is a fork.
type Constants struct {
	// MaxTxsPerBlock caps the number of transactions a single block may
	// carry.
	MaxTxsPerBlock int `json:"maxTxsPerBlock"`

	// MaxSharedTxs caps how many pool transactions getTransactions will
	// ever return in one call, regardless of the caller's requested limit.
	MaxSharedTxs int `json:"maxSharedTxs"`

	// MaxPayloadLength caps a block's total serialized transaction payload
	// size in bytes.
	MaxPayloadLength int `json:"maxPayloadLength"`

	// BlockSlotWindow bounds both the lastNBlockIds anti-replay ring's
	// capacity and the tolerance, in slots, between a block's claimed slot
	// and the verifier's current slot.
	BlockSlotWindow int `json:"blockSlotWindow"`

	// TransactionQueueExpire is the number of seconds a conflicted-queue
	// entry is allowed to live before the sweeper declines it.
	TransactionQueueExpire int64 `json:"TRANSACTION_QUEUE_EXPIRE"`

	// MasterNodeMigratedBlock is the historical migration height at or
	// below which legacy compatibility gates (disabled signature checks,
	// tolerated payload-sum mismatches) still apply. Never remove the
	// checks that test against this — they affect acceptance of blocks
	// already committed to the chain.
	MasterNodeMigratedBlock uint64 `json:"MASTER_NODE_MIGRATED_BLOCK"`

	// ActiveDelegates is the size of the forging round's delegate set.
	ActiveDelegates int `json:"activeDelegates"`

	// EpochTime is the unix timestamp origin all block/transaction slot
	// arithmetic is relative to.
	EpochTime int64 `json:"epochTime"`

	// SlotDuration is the width, in seconds, of a single forging slot.
	SlotDuration int64 `json:"slotDuration"`
}

// DefaultConstants mirrors the network's genesis parameters. A node that
// fails to load a config file falls back to these rather than refusing to
// start, matching how go-vite's own GlobalConfig tolerates a missing file.
var DefaultConstants = Constants{
	MaxTxsPerBlock:           25,
	MaxSharedTxs:             1000,
	MaxPayloadLength:         8 * 1024 * 1024,
	BlockSlotWindow:          5,
	TransactionQueueExpire:   10,
	MasterNodeMigratedBlock:  0,
	ActiveDelegates:          101,
	EpochTime:                1464109200,
	SlotDuration:             10,
}

type Config struct {
	Constants `json:"Constants"`

	// DataDir is where the node persists chain and wallet state.
	DataDir string `json:"DataDir"`
}

var GlobalConfig *Config

func init() {
	GlobalConfig = &Config{Constants: DefaultConstants}

	if _, err := os.Stat(configFileName); err != nil {
		log.Info("config file not found, using defaults", "file", configFileName)
		return
	}

	text, err := ioutil.ReadFile(configFileName)
	if err != nil {
		log.Error("config file read error", "err", err)
		return
	}

	if err := json.Unmarshal(text, GlobalConfig); err != nil {
		log.Error("config file unmarshal error", "err", err)
	}
}
