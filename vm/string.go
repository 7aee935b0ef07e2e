package vm

// Str is the C4 component for the mutable string type. It is indexed by
// Unicode scalar value position, never by byte offset: spec §8 requires
// (string-length "🐶") = 1, which a []byte/UTF-8 backing cannot give without
// an auxiliary scalar index. Storing []rune directly makes every index
// operation O(1) at the cost of 4 bytes per scalar, the same trade-off
// go/token and most toy Scheme runtimes in the retrieval pack's domain make.
type Str struct {
	runes []rune
}

// NewString builds a Str from a Go string.
func NewString(s string) *Str {
	return &Str{runes: []rune(s)}
}

// NewStringFromRunes takes ownership of runes without copying.
func NewStringFromRunes(runes []rune) *Str {
	return &Str{runes: runes}
}

// MakeString allocates a string of the given length filled with fill.
func MakeString(length int, fill rune) *Str {
	runes := make([]rune, length)
	for i := range runes {
		runes[i] = fill
	}
	return &Str{runes: runes}
}

// Len returns the number of Unicode scalar values in the string.
func (s *Str) Len() int { return len(s.runes) }

// Get returns the scalar at idx and true, or 0 and false if out of range.
func (s *Str) Get(idx int) (rune, bool) {
	if idx < 0 || idx >= len(s.runes) {
		return 0, false
	}
	return s.runes[idx], true
}

// Set mutates the scalar at idx in place. The caller must have already
// range-checked idx.
func (s *Str) Set(idx int, r rune) { s.runes[idx] = r }

// Fill overwrites every scalar with r.
func (s *Str) Fill(r rune) {
	for i := range s.runes {
		s.runes[i] = r
	}
}

// Slice returns a freshly allocated Str holding runes [start, end).
func (s *Str) Slice(start, end int) *Str {
	out := make([]rune, end-start)
	copy(out, s.runes[start:end])
	return &Str{runes: out}
}

// Runes exposes the backing slice for read-only iteration.
func (s *Str) Runes() []rune { return s.runes }

// String renders the Go string value (used by display/write, not by
// Scheme-level string comparisons which walk Runes() directly).
func (s *Str) String() string { return string(s.runes) }
