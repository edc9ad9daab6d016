package sketch

// memo caches one derived value against an owner's revision counter.
// Every structural mutation of the owner bumps the revision, so a stale
// value is never returned regardless of which mutation path ran.
type memo[T any] struct {
	val   T
	rev   uint64
	valid bool
}

// get returns the cached value for rev, computing it if needed.
func (m *memo[T]) get(rev uint64, compute func() T) T {
	if !m.valid || m.rev != rev {
		m.val = compute()
		m.rev = rev
		m.valid = true
	}
	return m.val
}

// fresh reports whether the cached value is current for rev.
func (m *memo[T]) fresh(rev uint64) bool {
	return m.valid && m.rev == rev
}

// peek returns the cached value without checking freshness.
func (m *memo[T]) peek() T {
	return m.val
}

// set stores v as current for rev.
func (m *memo[T]) set(rev uint64, v T) {
	m.val = v
	m.rev = rev
	m.valid = true
}
