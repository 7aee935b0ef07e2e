package vm

// Heap is the C2 component: storage for every value that must be reached
// through an address rather than copied by value (pairs, vectors, strings,
// symbols, procedures, and interned numbers). It is grounded on the
// teacher's single contiguous Image ([]Cell) in db47h/ngaro/vm/image.go,
// generalized from a flat integer memory to a slice of tagged VCells, and
// on marwood/src/vm/builtin.rs's heap.put/heap.get contract.
type Heap struct {
	cells []VCell
	// free holds addresses reclaimed by the last collection, ready for reuse.
	free []int

	symbolNames map[int]string
	symbolAddr  map[string]int

	// fixnumCache interns small exact integers so eq? is cheap for them,
	// mirroring spec §4.1's "Interns ... Number::Fixnum where trivially
	// possible".
	fixnumCache map[int64]int

	gcThreshold int
}

const defaultGCThreshold = 4096

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{
		symbolNames: make(map[int]string),
		symbolAddr:  make(map[string]int),
		fixnumCache: make(map[int64]int),
		gcThreshold: defaultGCThreshold,
	}
}

// Put allocates v on the heap and returns a Ptr cell addressing it, unless
// v is a scalar/immediate variant that does not need heap storage (Bool,
// Char, Void, Undefined, Nil, Ptr, Argc, registers), in which case v is
// returned unchanged (spec §4.1).
func (h *Heap) Put(v VCell) VCell {
	if !v.needsHeap() {
		return v
	}
	if v.kind == KNil {
		return v
	}
	if v.kind == KNumber && v.num.kind == Fixnum && v.num.i.IsInt64() {
		n := v.num.i.Int64()
		if addr, ok := h.fixnumCache[n]; ok {
			return PtrCell(addr)
		}
		addr := h.alloc(v)
		h.fixnumCache[n] = addr
		return PtrCell(addr)
	}
	addr := h.alloc(v)
	return PtrCell(addr)
}

func (h *Heap) alloc(v VCell) int {
	if n := len(h.free); n > 0 {
		addr := h.free[n-1]
		h.free = h.free[:n-1]
		h.cells[addr] = v
		return addr
	}
	h.cells = append(h.cells, v)
	return len(h.cells) - 1
}

// Get resolves v: if v is a Ptr, the addressed cell is loaded and returned;
// otherwise v is returned unchanged. Heap.Put never stores a chained Ptr,
// so this always terminates in one step.
func (h *Heap) Get(v VCell) VCell {
	if v.kind == KPtr {
		return h.cells[v.addr]
	}
	return v
}

// At loads the cell at addr directly.
func (h *Heap) At(addr int) VCell { return h.cells[addr] }

// SetAt mutates the cell at addr in place. Callers guarantee addr holds a
// pair, vector, or string handle (spec §4.1's get_mut contract).
func (h *Heap) SetAt(addr int, v VCell) { h.cells[addr] = v }

// InternSymbol returns the canonical Symbol cell for name, allocating a new
// heap slot the first time name is seen (component C5).
func (h *Heap) InternSymbol(name string) VCell {
	if addr, ok := h.symbolAddr[name]; ok {
		return symbolCell(addr)
	}
	addr := h.alloc(VCell{})
	cell := symbolCell(addr)
	h.cells[addr] = cell
	h.symbolAddr[name] = addr
	h.symbolNames[addr] = name
	return cell
}

// SymbolName returns the name interned at addr, or "" if addr does not
// hold a symbol.
func (h *Heap) SymbolName(addr int) string { return h.symbolNames[addr] }

// Len reports the number of heap slots, including slots freed by Collect
// and not yet reused.
func (h *Heap) Len() int { return len(h.cells) }
