package vm

// Vector is the C4 component for the mutable, length-indexed #(...) type.
// A VCell carries a *Vector by handle, exactly as spec §3 describes: every
// copy of that VCell shares the same backing array, so vector-set! made
// through any alias is visible through every other alias. Go's garbage
// collector keeps the backing array alive for as long as any VCell
// references the handle, which is the reference-counting behavior spec §3
// asks for without needing an explicit refcount field.
type Vector struct {
	cells []VCell
}

// NewVector allocates a vector with the given initial contents. The slice
// is taken by reference, not copied, so callers must not reuse it.
func NewVector(cells []VCell) *Vector {
	return &Vector{cells: cells}
}

// MakeVector allocates a vector of the given length filled with fill.
func MakeVector(length int, fill VCell) *Vector {
	cells := make([]VCell, length)
	for i := range cells {
		cells[i] = fill
	}
	return &Vector{cells: cells}
}

// Len returns the vector's length.
func (v *Vector) Len() int { return len(v.cells) }

// Get returns the element at idx and true, or the zero VCell and false if
// idx is out of range.
func (v *Vector) Get(idx int) (VCell, bool) {
	if idx < 0 || idx >= len(v.cells) {
		return VCell{}, false
	}
	return v.cells[idx], true
}

// Set mutates the element at idx in place. The caller must have already
// range-checked idx.
func (v *Vector) Set(idx int, val VCell) { v.cells[idx] = val }

// Fill overwrites every element with val.
func (v *Vector) Fill(val VCell) {
	for i := range v.cells {
		v.cells[i] = val
	}
}

// Cells exposes the backing slice for read-only iteration (vector->list,
// equal?, display).
func (v *Vector) Cells() []VCell { return v.cells }
