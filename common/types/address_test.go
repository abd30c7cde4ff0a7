package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPubkeyToAddressDeterministic(t *testing.T) {
	pub := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	a1 := PubkeyToAddress(pub)
	a2 := PubkeyToAddress(pub)

	assert.Equal(t, a1, a2)
	assert.True(t, IsValidAddress(a1))
}

func TestPubkeyToAddressPrefix(t *testing.T) {
	addr := PubkeyToAddress([]byte("some-public-key"))
	assert.True(t, len(addr.String()) > len(AddressPrefix))
	assert.Equal(t, AddressPrefix, addr.String()[:len(AddressPrefix)])
}

func TestAddressUint64RoundTrip(t *testing.T) {
	addr := Uint64ToAddress(123456789)
	id, err := AddressToUint64(addr)
	assert.NoError(t, err)
	assert.Equal(t, uint64(123456789), id)
}

func TestIsValidAddressRejectsMalformed(t *testing.T) {
	assert.False(t, IsValidAddress(Address("not-an-address")))
	assert.False(t, IsValidAddress(Address("vite_deadbeef")))
	assert.True(t, IsValidAddress(Uint64ToAddress(0)))
}

func TestLo64LEMatchesManualComputation(t *testing.T) {
	// bytes [1,0,0,0,0,0,0,0] reversed is [0,0,0,0,0,0,0,1] read big-endian == 1
	assert.Equal(t, uint64(1), lo64LE([]byte{1, 0, 0, 0, 0, 0, 0, 0}))
	// bytes [0,...,0,1] reversed is [1,0,...,0] == 1<<56
	assert.Equal(t, uint64(1)<<56, lo64LE([]byte{0, 0, 0, 0, 0, 0, 0, 1}))
}
