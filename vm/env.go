package vm

// GlobalEnv is the C6 component: a mapping from a symbol's canonical heap
// address to a mutable binding slot. define allocates a slot if one is not
// already present; set! requires the slot to already exist. Grounded on
// marwood/src/vm/builtin.rs's `self.globenv.get_binding(...)` /
// `put_slot(...)` pair, which load_builtin uses to install every native
// procedure into the same table user `define`s land in.
type GlobalEnv struct {
	slots []VCell
	index map[int]int // symbol heap address -> slot index
}

// NewGlobalEnv creates an empty global environment.
func NewGlobalEnv() *GlobalEnv {
	return &GlobalEnv{index: make(map[int]int)}
}

// Define binds symAddr to v, allocating a new slot if symAddr has never
// been bound before, or overwriting the existing slot otherwise. Returns
// the slot index, which compiled code may cache to get O(1) access on
// subsequent PUSH_GLOBAL/POP_GLOBAL of the same symbol.
func (g *GlobalEnv) Define(symAddr int, v VCell) int {
	if slot, ok := g.index[symAddr]; ok {
		g.slots[slot] = v
		return slot
	}
	slot := len(g.slots)
	g.slots = append(g.slots, v)
	g.index[symAddr] = slot
	return slot
}

// Set stores v into the existing binding for symAddr. Returns
// errUnbound(name) if no binding exists yet.
func (g *GlobalEnv) Set(symAddr int, name string, v VCell) error {
	slot, ok := g.index[symAddr]
	if !ok {
		return errUnbound(name)
	}
	g.slots[slot] = v
	return nil
}

// Lookup returns the value bound to symAddr, or errUnbound(name) if there
// is no binding.
func (g *GlobalEnv) Lookup(symAddr int, name string) (VCell, error) {
	slot, ok := g.index[symAddr]
	if !ok {
		return VCell{}, errUnbound(name)
	}
	return g.slots[slot], nil
}

// Slot returns the slot index bound to symAddr and whether it exists.
func (g *GlobalEnv) Slot(symAddr int) (int, bool) {
	slot, ok := g.index[symAddr]
	return slot, ok
}

// SlotValue returns the value at a previously resolved slot index.
func (g *GlobalEnv) SlotValue(slot int) VCell { return g.slots[slot] }

// SetSlot stores v at a previously resolved slot index.
func (g *GlobalEnv) SetSlot(slot int, v VCell) { g.slots[slot] = v }

// Slots exposes every bound value, used as GC roots.
func (g *GlobalEnv) Slots() []VCell { return g.slots }
