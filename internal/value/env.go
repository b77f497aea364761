package value

// Env is a persistent (structurally-shared) stack of frames mapping
// names to values. Binding a name never mutates an existing frame; it
// returns a new child Env pointing at the parent. That makes a
// Closure's captured-environment snapshot free to take (just keep the
// *Env pointer) and automatically immune to later mutation of the
// defining scope (§3's invariant), which is the "persistent mapping,
// structural sharing for O(1) capture" approach the spec's design
// notes (§9) call out as the natural implementation.
type Env struct {
	vars   map[string]*cell
	parent *Env
}

// cell is a mutable box, used only so `let rec` can pre-bind a name to
// an empty slot before the closure that fills it exists.
type cell struct{ v Value }

func NewEnv() *Env {
	return &Env{vars: map[string]*cell{}}
}

// Child returns a new environment with one additional frame on top of
// e; e itself is untouched.
func (e *Env) Child() *Env {
	return &Env{vars: map[string]*cell{}, parent: e}
}

// Bind returns a new environment extending e with name -> v.
func (e *Env) Bind(name string, v Value) *Env {
	child := e.Child()
	child.vars[name] = &cell{v: v}
	return child
}

// BindRec returns the extended environment plus the cell to fill in
// once the recursive value (typically a Closure) has been built.
func (e *Env) BindRec(name string) (*Env, func(Value)) {
	child := e.Child()
	c := &cell{}
	child.vars[name] = c
	return child, func(v Value) { c.v = v }
}

// Lookup searches innermost-first.
func (e *Env) Lookup(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if c, ok := env.vars[name]; ok {
			return c.v, true
		}
	}
	return nil, false
}

// Names returns every name visible from e, innermost shadowing
// outermost, used by the evaluator to build "did you mean" fuzzy
// suggestions for UndefinedVariable errors.
func (e *Env) Names() []string {
	seen := map[string]bool{}
	var names []string
	for env := e; env != nil; env = env.parent {
		for k := range env.vars {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	return names
}
