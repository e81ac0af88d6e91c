package graph

import (
	"slices"
	"strconv"
	"strings"
)

// Freshly minted ids carry one of two prefixes so that confirmed ids and
// synthetic preview ids never come from the same sequence.
const (
	keyPrefix     = "New"
	previewPrefix = "pvw_"
)

func isSyntheticKey(id string) bool { return strings.HasPrefix(id, previewPrefix) }

// keyPool tracks ids released by deletion so they can be handed out again
// before fresh ones are minted.
type keyPool struct {
	free map[string]bool
}

func newKeyPool() keyPool {
	return keyPool{free: make(map[string]bool)}
}

func (p *keyPool) release(id string) {
	if id != "" {
		p.free[id] = true
	}
}

func (p *keyPool) forget(id string) {
	delete(p.free, id)
}

func (p *keyPool) len() int { return len(p.free) }

// sorted returns the pooled ids in natural order.
func (p *keyPool) sorted() []string {
	keys := make([]string, 0, len(p.free))
	for k := range p.free {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// take returns the smallest pooled id that accept allows and that is not in
// use. Stale entries it passes are dropped; refused ones stay pooled. It
// returns false when the pool has nothing usable.
func (p *keyPool) take(accept, inUse func(string) bool) (string, bool) {
	for _, k := range p.sorted() {
		if !accept(k) {
			continue
		}
		delete(p.free, k)
		if !inUse(k) {
			return k, true
		}
	}
	return "", false
}

// allocate hands out a recycled id or mints New<n>, starting n at count and
// skipping ids that are live or pooled. Recycled synthetic ids are left for
// previews.
func (p *keyPool) allocate(count int, inUse func(string) bool) string {
	if k, ok := p.take(func(k string) bool { return !isSyntheticKey(k) }, inUse); ok {
		return k
	}
	return p.mint(keyPrefix, count, inUse)
}

// allocatePreview hands out a recycled id of either kind or mints pvw_<n>.
// Ids in reserved are never handed out.
func (p *keyPool) allocatePreview(count int, inUse func(string) bool, reserved map[string]bool) string {
	busy := func(k string) bool { return reserved[k] || inUse(k) }
	if k, ok := p.take(func(k string) bool { return !reserved[k] }, busy); ok {
		return k
	}
	return p.mint(previewPrefix, count, busy)
}

func (p *keyPool) mint(prefix string, count int, inUse func(string) bool) string {
	for n := count; ; n++ {
		k := prefix + strconv.Itoa(n)
		if !inUse(k) && !p.free[k] {
			return k
		}
	}
}

// compareKeys orders ids by their non-numeric prefix, then by the value of
// a trailing number, so that New9 sorts before New10.
func compareKeys(a, b string) int {
	pa, na, oka := splitKey(a)
	pb, nb, okb := splitKey(b)
	if c := strings.Compare(pa, pb); c != 0 {
		return c
	}
	switch {
	case oka && okb && na != nb:
		if na < nb {
			return -1
		}
		return 1
	case oka != okb:
		if !oka {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func splitKey(s string) (prefix string, n int, ok bool) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) || len(s)-i > 18 {
		return s, 0, false
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, 0, false
	}
	return s[:i], n, true
}
