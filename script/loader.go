package script

import (
	"io"

	"github.com/marcelocantos/rulemk"
	"github.com/marcelocantos/rulemk/cheaders"
)

// Options configures optional behavior of Load/LoadFile beyond the bare
// rulefile grammar.
type Options struct {
	// AutoHeaderDeps, when true, chains cheaders.Resolver onto every rule's
	// own resolver so that C/C++ object rules pick up compiler-discovered
	// header dependencies (via the rule's own CC/CFLAGS env entries) in
	// addition to the rulefile's declared prereqs — the same composition
	// the original's extend_depends_by_compiler does from inside a rule's
	// own deps() callback, not as a separately registered rule.
	AutoHeaderDeps bool
}

// Load parses a rulefile from r and registers every rule it declares into
// ctx, the way the teacher's graph.go walks a parsed File and populates a
// Graph — except this loader only ever calls Context.Deps/Action/Task, so
// resolution and execution remain entirely the core's job.
//
// Top-level VarAssign statements are applied to ctx.GetEnv() in file
// order, before any rule's resolver/action runs (they only affect the
// env snapshot captured when a target is first resolved).
func Load(r io.Reader, ctx *rulemk.Context) error {
	return LoadWithOptions(r, ctx, Options{})
}

// LoadWithOptions is Load plus Options (currently: automatic C/C++ header
// discovery via cheaders).
func LoadWithOptions(r io.Reader, ctx *rulemk.Context, opts Options) error {
	f, err := Parse(r)
	if err != nil {
		return err
	}
	return LoadFile(f, ctx, opts)
}

// LoadFile registers an already-parsed File's statements into ctx.
func LoadFile(f *File, ctx *rulemk.Context, opts Options) error {
	env := ctx.GetEnv()

	for _, stmt := range f.Stmts {
		switch s := stmt.(type) {
		case VarAssign:
			applyAssign(env, s)
		case Rule:
			if err := registerRule(ctx, s, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyAssign(env *rulemk.Env, s VarAssign) {
	if s.Append {
		env.AppendString(s.Name, s.Value)
		return
	}
	env.Set(s.Name, s.Value)
}

func registerRule(ctx *rulemk.Context, r Rule, opts Options) error {
	name := "script:" + r.Target

	if len(r.Depends) > 0 || opts.AutoHeaderDeps {
		deps := append([]string(nil), r.Depends...)
		resolver := func(env *rulemk.Env, depends *[]string, bindings map[string]string) error {
			for _, d := range deps {
				*depends = append(*depends, expand(env, d))
			}
			if opts.AutoHeaderDeps {
				return cheaders.Resolver(envCC(env), envCFlags(env))(env, depends, bindings)
			}
			return nil
		}
		if err := ctx.Deps(r.Target, resolver); err != nil {
			return err
		}
	}

	if len(r.Recipe) > 0 {
		recipe := append([]string(nil), r.Recipe...)
		action := func(env *rulemk.Env, depends []string, bindings map[string]string) error {
			return runRecipe(env, recipe, r.Target, depends, bindings)
		}
		if r.IsTask {
			return ctx.Task(r.Target, name, action)
		}
		return ctx.Action(r.Target, name, action)
	}

	return nil
}

// envCC and envCFlags read the current rule's compiler and flags from env,
// defaulting to CC="cc" and no CFLAGS when the entries are missing or not
// of the expected type.
func envCC(env *rulemk.Env) string {
	if v := env.GetOr("CC", "cc"); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "cc"
}

func envCFlags(env *rulemk.Env) []string {
	if v := env.GetOr("CFLAGS", nil); v != nil {
		if s, ok := v.([]string); ok {
			return s
		}
	}
	return nil
}
