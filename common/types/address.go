package types

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
)

// AddressPrefix is the fixed textual prefix of every account address.
const AddressPrefix = "DDK"

// Address is an account address in this chain's "DDK<decimal>" textual
// form. Unlike Hash it is not a fixed-size byte array: the decimal
// encoding spec.md §6 mandates has no fixed width, so Address is the
// formatted string itself.
type Address string

// PubkeyToAddress derives an account's address from its public key per
// spec.md §6: addr(publicKey) = "DDK" + decimal(lo64_le(SHA256(publicKey))),
// where lo64_le takes the digest's first 8 bytes and reads them reversed
// (little-endian) as an unsigned integer. Several core components
// (ConflictDetector's dependent-set lookup, AccountSessions, the Verifier)
// derive addresses on the fly, so this one function is the single source
// of truth — any change here is a hard fork.
func PubkeyToAddress(publicKey []byte) Address {
	digest := sha256.Sum256(publicKey)
	return Uint64ToAddress(lo64LE(digest[:8]))
}

// Uint64ToAddress formats a raw account id as the textual address used
// throughout the core.
func Uint64ToAddress(id uint64) Address {
	return Address(AddressPrefix + strconv.FormatUint(id, 10))
}

// AddressToUint64 recovers the raw account id from its textual form.
func AddressToUint64(addr Address) (uint64, error) {
	s := string(addr)
	if !strings.HasPrefix(s, AddressPrefix) {
		return 0, fmt.Errorf("address %q: missing %q prefix", addr, AddressPrefix)
	}
	return strconv.ParseUint(s[len(AddressPrefix):], 10, 64)
}

// IsValidAddress reports whether addr has the canonical "DDK<decimal>"
// shape. It does not confirm the address was derived from a real public
// key — that is a property of the signature, verified by the
// TransactionLogic collaborator, not of the string's shape.
func IsValidAddress(addr Address) bool {
	_, err := AddressToUint64(addr)
	return err == nil
}

func (addr Address) String() string {
	return string(addr)
}

func (addr Address) IsZero() bool {
	return addr == ""
}

// lo64LE reads 8 bytes as little-endian (byte 0 is least significant) and
// returns the resulting unsigned integer, matching spec.md's "reversed and
// interpreted as a big-unsigned integer" phrasing.
func lo64LE(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
