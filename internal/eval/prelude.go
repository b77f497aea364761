package eval

import (
	"github.com/hyperpolymath/betlang/internal/cerr"
	"github.com/hyperpolymath/betlang/internal/token"
	"github.com/hyperpolymath/betlang/internal/value"
)

// buildPrelude wires the distribution constructors and Monte
// Carlo/Markov helpers the SPEC_FULL.md domain stack adds on top of
// the core language (§4.3 erases Sample/Observe/Infer to their
// arguments in the tree-walker; these NativeFns are what makes Sample
// meaningful at all for a program run through `betlang eval` rather
// than compiled to JS).
func buildPrelude(ev *Evaluator) *value.Env {
	env := value.NewEnv()

	bind := func(name string, arity int, fn func(args []value.Value) (value.Value, error)) {
		env = env.Bind(name, &value.NativeFn{Name: name, Arity: arity, Fn: fn})
	}

	bind("normal", 2, func(args []value.Value) (value.Value, error) {
		mean, err := asFloat(args[0])
		if err != nil {
			return nil, cerr.NewRuntime("normal: mean must be numeric", nil)
		}
		stddev, err := asFloat(args[1])
		if err != nil {
			return nil, cerr.NewRuntime("normal: stddev must be numeric", nil)
		}
		src := ev.Source
		return &value.Distribution{
			Name:   "normal",
			Params: args,
			Sampler: func() value.Value {
				return value.Float(src.sampleNormal(mean, stddev))
			},
		}, nil
	})

	bind("uniform", 2, func(args []value.Value) (value.Value, error) {
		lo, err := asFloat(args[0])
		if err != nil {
			return nil, cerr.NewRuntime("uniform: lo must be numeric", nil)
		}
		hi, err := asFloat(args[1])
		if err != nil {
			return nil, cerr.NewRuntime("uniform: hi must be numeric", nil)
		}
		src := ev.Source
		return &value.Distribution{
			Name:   "uniform",
			Params: args,
			Sampler: func() value.Value {
				return value.Float(src.sampleUniform(lo, hi))
			},
		}, nil
	})

	bind("bernoulli", 1, func(args []value.Value) (value.Value, error) {
		p, err := asFloat(args[0])
		if err != nil {
			return nil, cerr.NewRuntime("bernoulli: p must be numeric", nil)
		}
		src := ev.Source
		return &value.Distribution{
			Name:   "bernoulli",
			Params: args,
			Sampler: func() value.Value {
				return value.Int(src.sampleBernoulli(p))
			},
		}, nil
	})

	bind("beta", 2, func(args []value.Value) (value.Value, error) {
		a, err := asFloat(args[0])
		if err != nil {
			return nil, cerr.NewRuntime("beta: alpha must be numeric", nil)
		}
		b, err := asFloat(args[1])
		if err != nil {
			return nil, cerr.NewRuntime("beta: beta must be numeric", nil)
		}
		src := ev.Source
		return &value.Distribution{
			Name:   "beta",
			Params: args,
			Sampler: func() value.Value {
				return value.Float(src.sampleBeta(a, b))
			},
		}, nil
	})

	bind("exponential", 1, func(args []value.Value) (value.Value, error) {
		rate, err := asFloat(args[0])
		if err != nil {
			return nil, cerr.NewRuntime("exponential: rate must be numeric", nil)
		}
		src := ev.Source
		return &value.Distribution{
			Name:   "exponential",
			Params: args,
			Sampler: func() value.Value {
				return value.Float(src.sampleExponential(rate))
			},
		}, nil
	})

	bind("poisson", 1, func(args []value.Value) (value.Value, error) {
		lambda, err := asFloat(args[0])
		if err != nil {
			return nil, cerr.NewRuntime("poisson: lambda must be numeric", nil)
		}
		src := ev.Source
		return &value.Distribution{
			Name:   "poisson",
			Params: args,
			Sampler: func() value.Value {
				return value.Int(src.samplePoisson(lambda))
			},
		}, nil
	})

	// monte_carlo(n, trial): runs the zero-argument closure `trial` n
	// times and collects the results, the evaluator-side counterpart of
	// the JS backend's __bet_monte_carlo.
	bind("monte_carlo", 2, func(args []value.Value) (value.Value, error) {
		n, ok := args[0].(value.Int)
		if !ok {
			return nil, cerr.NewRuntime("monte_carlo: n must be an integer", nil)
		}
		results := make([]value.Value, 0, n)
		for i := int64(0); i < int64(n); i++ {
			v, err := ev.apply(args[1], nil, token.DummySpan)
			if err != nil {
				return nil, err
			}
			results = append(results, v)
		}
		return &value.List{Elems: results}, nil
	})

	bind("mc_mean", 1, func(args []value.Value) (value.Value, error) {
		lst, ok := args[0].(*value.List)
		if !ok {
			return nil, cerr.NewRuntime("mc_mean: argument must be a list", nil)
		}
		return value.Float(mean(lst.Elems)), nil
	})

	bind("mc_variance", 1, func(args []value.Value) (value.Value, error) {
		lst, ok := args[0].(*value.List)
		if !ok {
			return nil, cerr.NewRuntime("mc_variance: argument must be a list", nil)
		}
		return value.Float(variance(lst.Elems)), nil
	})

	// markov_step(state, transition): applies `transition` (a closure
	// state -> next state, typically itself sampling internally) once.
	bind("markov_step", 2, func(args []value.Value) (value.Value, error) {
		return ev.apply(args[1], []value.Value{args[0]}, token.DummySpan)
	})

	// markov_chain(n, state0, transition): iterates `transition` n
	// times from state0, returning the full visited-state history.
	bind("markov_chain", 3, func(args []value.Value) (value.Value, error) {
		n, ok := args[0].(value.Int)
		if !ok {
			return nil, cerr.NewRuntime("markov_chain: n must be an integer", nil)
		}
		state := args[1]
		history := make([]value.Value, 0, int64(n)+1)
		history = append(history, state)
		for i := int64(0); i < int64(n); i++ {
			next, err := ev.apply(args[2], []value.Value{state}, token.DummySpan)
			if err != nil {
				return nil, err
			}
			state = next
			history = append(history, state)
		}
		return &value.List{Elems: history}, nil
	})

	// uncertain(centre, stddev): wraps a scalar as a normal
	// distribution centred on it, the evaluator-side stand-in for the
	// JS backend's __BetUncertain error-propagating wrapper.
	bind("uncertain", 2, func(args []value.Value) (value.Value, error) {
		centre, err := asFloat(args[0])
		if err != nil {
			return nil, cerr.NewRuntime("uncertain: centre must be numeric", nil)
		}
		stddev, err := asFloat(args[1])
		if err != nil {
			return nil, cerr.NewRuntime("uncertain: stddev must be numeric", nil)
		}
		src := ev.Source
		return &value.Distribution{
			Name:   "uncertain",
			Params: args,
			Sampler: func() value.Value {
				return value.Float(src.sampleNormal(centre, stddev))
			},
		}, nil
	})

	return env
}

func mean(vs []value.Value) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		f, _ := asFloat(v)
		sum += f
	}
	return sum / float64(len(vs))
}

func variance(vs []value.Value) float64 {
	if len(vs) == 0 {
		return 0
	}
	m := mean(vs)
	sum := 0.0
	for _, v := range vs {
		f, _ := asFloat(v)
		d := f - m
		sum += d * d
	}
	return sum / float64(len(vs))
}
