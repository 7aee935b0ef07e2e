package vm

// Stack is the C7 component: a single contiguous LIFO of VCells used both
// for operand evaluation and, via the Argc sentinel and the saved-register
// cells, for the call convention of spec §4.2. Grounded on the teacher's
// data/address stacks in db47h/ngaro/vm/run.go, generalized from two
// fixed-size Cell arrays to one growable []VCell, since Scheme's calling
// convention (spec §4.2) keeps arguments, the Argc sentinel, and saved
// frame registers all on one stack rather than ngaro's separate data and
// return stacks.
type Stack struct {
	cells []VCell
}

// NewStack creates an empty operand stack.
func NewStack() *Stack { return &Stack{} }

// Push pushes v on top of the stack.
func (s *Stack) Push(v VCell) { s.cells = append(s.cells, v) }

// Pop removes and returns the top of the stack, or errStackUnderflow if
// empty.
func (s *Stack) Pop() (VCell, error) {
	n := len(s.cells)
	if n == 0 {
		return VCell{}, errStackUnderflow()
	}
	v := s.cells[n-1]
	s.cells = s.cells[:n-1]
	return v, nil
}

// Peek returns the top of the stack without removing it.
func (s *Stack) Peek() (VCell, error) {
	n := len(s.cells)
	if n == 0 {
		return VCell{}, errStackUnderflow()
	}
	return s.cells[n-1], nil
}

// At returns the cell at absolute index idx (0 is the bottom of the
// stack), used for bp-relative local access.
func (s *Stack) At(idx int) VCell { return s.cells[idx] }

// SetAt mutates the cell at absolute index idx, used for POP_LOCAL.
func (s *Stack) SetAt(idx int, v VCell) { s.cells[idx] = v }

// Len reports the current stack depth.
func (s *Stack) Len() int { return len(s.cells) }

// Truncate shrinks the stack to depth n, discarding everything above it.
// Used both by RET (to drop a callee's frame) and by the top-level error
// handler (spec §7: "the stack is cleared back to its pre-call depth").
func (s *Stack) Truncate(n int) { s.cells = s.cells[:n] }

// RemoveAt deletes the cell at absolute index idx, shifting everything
// above it down by one. Used by CALL/TCALL to pull the callee value out
// from beneath its arguments once the dispatcher has identified it,
// restoring the exact "Argc(n) then n arguments" shape spec §4.2 requires
// built-ins to see.
func (s *Stack) RemoveAt(idx int) {
	s.cells = append(s.cells[:idx], s.cells[idx+1:]...)
}

// PopArgc pops the argument-count sentinel and returns its value. Returns
// errStackUnderflow if the stack is empty or errHeapCorruption if the top
// cell is not an Argc sentinel, which indicates a compiler or dispatcher
// bug rather than a user-reachable error.
func (s *Stack) PopArgc() (int, error) {
	v, err := s.Pop()
	if err != nil {
		return 0, err
	}
	if v.kind != KArgc {
		return 0, errHeapCorruption("expected argc sentinel, found kind %d", v.kind)
	}
	return v.addr, nil
}

// Cells exposes the backing slice for use as GC roots. Callers must treat
// it as read-only.
func (s *Stack) Cells() []VCell { return s.cells }
