package vm

// registerBuiltins installs every native procedure of spec §4.3 and
// SPEC_FULL.md §12.2's full catalog, split by data type the way
// marwood/src/vm/builtin.rs groups its own load_builtin calls (numeric,
// pair/list, string, character, vector, equality, and type-predicate
// sections one after another).
func (v *VM) registerBuiltins() {
	v.registerNumberBuiltins()
	v.registerPairBuiltins()
	v.registerVectorBuiltins()
	v.registerStringBuiltins()
	v.registerCharBuiltins()
	v.registerEqualityBuiltins()
	v.registerPredicateBuiltins()
	v.registerHigherOrderBuiltins()
}
