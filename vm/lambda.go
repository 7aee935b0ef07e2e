package vm

// Lambda is a compiled procedure template: an entry point into a Code
// object's instruction stream plus the arity contract the compiler
// recorded for it. It carries no captured environment; a Lambda produced
// for a body with free variables is only ever installed into a Closure.
type Lambda struct {
	Name    string
	Entry   int
	MinArgs int
	// MaxArgs < 0 means unbounded (a rest-style procedure).
	MaxArgs int
	// NumCaptures is the number of free-variable slots the body expects
	// to find via PUSH_CAPTURE.
	NumCaptures int
}

func (l *Lambda) acceptsArgc(n int) bool {
	if n < l.MinArgs {
		return false
	}
	return l.MaxArgs < 0 || n <= l.MaxArgs
}

func (l *Lambda) displayName() string {
	if l.Name == "" {
		return "#<lambda>"
	}
	return "#<lambda " + l.Name + ">"
}

// Closure pairs a Lambda template with the values of its free variables,
// captured by MAKE_CLOSURE at the point the closure was created.
type Closure struct {
	Template *Lambda
	Captures []VCell
}

func (c *Closure) acceptsArgc(n int) bool { return c.Template.acceptsArgc(n) }

func (c *Closure) displayName() string {
	if c.Template.Name == "" {
		return "#<closure>"
	}
	return "#<closure " + c.Template.Name + ">"
}
