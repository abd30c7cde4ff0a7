package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashSize is the length in bytes of a transaction or block id.
const HashSize = 32

// Hash is a SHA-256 digest, addressed by value throughout the core so it can
// be used as a map key without boxing.
type Hash [HashSize]byte

// ZeroHash is the zero-valued Hash, used as a sentinel for "no previous
// block" and similar absent-reference cases.
var ZeroHash = Hash{}

func BytesToHash(b []byte) (Hash, error) {
	var h Hash
	err := h.SetBytes(b)
	return h, err
}

func HexToHash(hexStr string) (Hash, error) {
	if len(hexStr) != 2*HashSize {
		return Hash{}, fmt.Errorf("error hex hash size %v", len(hexStr))
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return Hash{}, err
	}
	return BytesToHash(b)
}

func (h *Hash) SetBytes(b []byte) error {
	if len(b) != HashSize {
		return fmt.Errorf("error hash size %v", len(b))
	}
	copy(h[:], b)
	return nil
}

func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return h.Hex()
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// Less gives Hash a byte-lexicographic strict order, used as the final
// tie-break in types.CompareTransactions.
func (h Hash) Less(other Hash) bool {
	for i := range h {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// DataHash computes the canonical SHA-256 digest of data. The core uses it
// for every consensus-visible id (transaction id, block payload hash); the
// algorithm is fixed by the wire format, not swappable for a faster or
// trendier hash — see DESIGN.md.
func DataHash(data ...[]byte) Hash {
	d := sha256.New()
	for _, item := range data {
		d.Write(item)
	}
	var h Hash
	copy(h[:], d.Sum(nil))
	return h
}

func (h *Hash) UnmarshalJSON(input []byte) error {
	s := string(input)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		*h = ZeroHash
		return nil
	}
	hash, err := HexToHash(s)
	if err != nil {
		return err
	}
	*h = hash
	return nil
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}
