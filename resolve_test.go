// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package rulemk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildScenarioContext registers the rule set from spec.md's §8 concrete
// scenario (S1/S2): test_{name} depends on test_{name}.o and {name}.o and
// tags CFLAGS with -DRUN_TEST; {name}.o depends on {name}.c; {name}.c sets
// env['haha']; clean is a task with no deps.
func buildScenarioContext(t *testing.T) *Context {
	t.Helper()
	root := NewEnv(map[string]Value{"CC": "cc", "CFLAGS": []string{"-Wall"}})
	ctx := NewContext(root)
	// build-file mutations: CC='gcc', CFLAGS += '-O2'
	ctx.GetEnv().Set("CC", "gcc")
	ctx.GetEnv().AppendString("CFLAGS", "-O2")

	require.NoError(t, ctx.Deps("test_{name}", func(env *Env, depends *[]string, b map[string]string) error {
		name := b["name"]
		*depends = append(*depends, "test_"+name+".o", name+".o")
		env.AppendString("CFLAGS", "-DRUN_TEST")
		return nil
	}))
	require.NoError(t, ctx.Action("test_{name}", "testAction", noopAction))

	require.NoError(t, ctx.Deps("{name}.o", func(env *Env, depends *[]string, b map[string]string) error {
		*depends = append(*depends, b["name"]+".c")
		return nil
	}))
	require.NoError(t, ctx.Action("{name}.o", "objAction", noopAction))

	require.NoError(t, ctx.Deps("{name}.c", func(env *Env, depends *[]string, b map[string]string) error {
		env.Set("haha", "haha")
		return nil
	}))

	require.NoError(t, ctx.Task("clean", "clean", noopAction))

	return ctx
}

func TestResolveScenarioOrderAndDeps(t *testing.T) {
	ctx := buildScenarioContext(t)
	m, err := Resolve("test_asdf", ctx.Table(), ctx.GetEnv())
	require.NoError(t, err)

	assert.Equal(t, []string{"test_asdf", "test_asdf.o", "asdf.o", "test_asdf.c", "asdf.c"}, m.Order())

	wantDeps := map[string][]string{
		"test_asdf":   {"test_asdf.o", "asdf.o"},
		"test_asdf.o": {"test_asdf.c"},
		"asdf.o":      {"asdf.c"},
		"test_asdf.c": nil,
		"asdf.c":      nil,
	}
	for target, want := range wantDeps {
		entry, ok := m.Get(target)
		require.True(t, ok, "missing entry for %q", target)
		assert.Equal(t, want, entry.Depends, "deps for %q", target)
	}
}

func TestResolveScenarioEnvIsolation(t *testing.T) {
	ctx := buildScenarioContext(t)
	m, err := Resolve("test_asdf", ctx.Table(), ctx.GetEnv())
	require.NoError(t, err)

	testAsdf, ok := m.Get("test_asdf")
	require.True(t, ok)
	cflags, err := testAsdf.Env.Get("CFLAGS")
	require.NoError(t, err)
	assert.Equal(t, []string{"-Wall", "-O2", "-DRUN_TEST"}, cflags)

	asdfC, ok := m.Get("asdf.c")
	require.True(t, ok)
	haha, err := asdfC.Env.Get("haha")
	require.NoError(t, err)
	assert.Equal(t, "haha", haha)

	// Parent (context working env) is unaffected by resolver mutations.
	parentCflags, err := ctx.GetEnv().Get("CFLAGS")
	require.NoError(t, err)
	assert.Equal(t, []string{"-Wall", "-O2"}, parentCflags)
}

func TestResolveEveryDepIsInResult(t *testing.T) {
	ctx := buildScenarioContext(t)
	m, err := Resolve("test_asdf", ctx.Table(), ctx.GetEnv())
	require.NoError(t, err)

	for _, target := range m.Order() {
		entry, _ := m.Get(target)
		for _, dep := range entry.Depends {
			_, ok := m.Get(dep)
			assert.True(t, ok, "dep %q of %q missing from result", dep, target)
		}
	}
}

func TestResolveMultipleActionsError(t *testing.T) {
	ctx := NewContext(NewEnv(nil))
	require.NoError(t, ctx.Action("x", "a1", noopAction))
	require.NoError(t, ctx.Deps("{name}", noopResolver))
	require.NoError(t, ctx.Action("{name}", "a2", noopAction))

	_, err := Resolve("x", ctx.Table(), ctx.GetEnv())
	require.Error(t, err)
	assert.IsType(t, &MultipleActionsError{}, err)
}

func TestResolveFailedWrapsResolverError(t *testing.T) {
	boom := errBoom{}
	ctx := NewContext(NewEnv(nil))
	require.NoError(t, ctx.Deps("x", func(env *Env, depends *[]string, b map[string]string) error {
		return boom
	}))

	_, err := Resolve("x", ctx.Table(), ctx.GetEnv())
	require.Error(t, err)
	var rfe *ResolveFailedError
	require.ErrorAs(t, err, &rfe)
	assert.Equal(t, "x", rfe.Target)
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
