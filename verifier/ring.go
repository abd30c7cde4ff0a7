package verifier

import "github.com/ddkcore/ddknode/common/types"

// blockIDRing is the fixed-capacity lastNBlockIds anti-replay window: a
// block id must not repeat any entry currently held here. Grounded on the
// monitor package's ring buffer (mutex-guarded slice + write cursor), here
// specialized to types.Hash so lookups don't need a type assertion.
type blockIDRing struct {
	ids  []types.Hash
	i    int
	size int
}

func newBlockIDRing(n int) *blockIDRing {
	return &blockIDRing{ids: make([]types.Hash, n)}
}

// add appends id, overwriting the oldest entry once the ring is full.
func (r *blockIDRing) add(id types.Hash) {
	if len(r.ids) == 0 {
		return
	}
	r.ids[r.i] = id
	r.i = r.nextI(r.i)
	if r.size < len(r.ids) {
		r.size++
	}
}

// contains reports whether id is currently held in the ring.
func (r *blockIDRing) contains(id types.Hash) bool {
	for _, h := range r.ids[:r.size] {
		if h == id {
			return true
		}
	}
	return false
}

// all returns held ids in insertion order (oldest first).
func (r *blockIDRing) all() []types.Hash {
	out := make([]types.Hash, r.size)
	j := r.i
	for n := r.size - 1; n >= 0; n-- {
		j = r.lastI(j)
		out[n] = r.ids[j]
	}
	return out
}

func (r *blockIDRing) lastI(i int) int {
	if i == 0 {
		return len(r.ids) - 1
	}
	return i - 1
}

func (r *blockIDRing) nextI(i int) int {
	i++
	if i >= len(r.ids) {
		return 0
	}
	return i
}
