package checker

// TypeEnv mirrors value.Env's persistent-frame shape (§9: "implementers
// should treat type environments symmetrically to value environments"),
// specialized to Type instead of runtime Value.
type TypeEnv struct {
	vars   map[string]Type
	parent *TypeEnv
}

func NewTypeEnv() *TypeEnv {
	return &TypeEnv{vars: map[string]Type{}}
}

func (e *TypeEnv) Bind(name string, t Type) *TypeEnv {
	return &TypeEnv{vars: map[string]Type{name: t}, parent: e}
}

func (e *TypeEnv) Lookup(name string) (Type, bool) {
	for env := e; env != nil; env = env.parent {
		if t, ok := env.vars[name]; ok {
			return t, true
		}
	}
	return Type{}, false
}

func (e *TypeEnv) Names() []string {
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
