package cheaders

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcelocantos/rulemk"
)

func TestParseMakeDepsBasic(t *testing.T) {
	out, err := ParseMakeDeps("foo.o: foo.c foo.h \\\n  bar.h\n")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"foo.o": {"foo.c", "foo.h", "bar.h"}}, out)
}

func TestParseMakeDepsTargetColonNoSpaceBeforeColon(t *testing.T) {
	// "dummy: a b" with no space between the target and the colon, as cc
	// -MM -MT dummy emits.
	out, err := ParseMakeDeps("dummy:a.c a.h\n")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"dummy": {"a.c", "a.h"}}, out)
}

func TestParseMakeDepsTargetColonSpaceBeforeColon(t *testing.T) {
	// A space between the target and the colon, so the colon lands in its
	// own word and the parser must strip it from remain[0].
	out, err := ParseMakeDeps("dummy : a.c a.h\n")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"dummy": {"a.c", "a.h"}}, out)
}

func TestParseMakeDepsEscapedSpaceStaysInOneWord(t *testing.T) {
	out, err := ParseMakeDeps(`dummy: My\ File.h` + "\n")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"dummy": {"My File.h"}}, out)
}

func TestParseMakeDepsMultipleTargetsOnSeparateLines(t *testing.T) {
	out, err := ParseMakeDeps("a.o: a.c a.h\nb.o: b.c\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.c", "a.h"}, out["a.o"])
	assert.Equal(t, []string{"b.c"}, out["b.o"])
}

func TestParseMakeDepsMalformedLineWithoutColonErrors(t *testing.T) {
	_, err := ParseMakeDeps("foo bar\n")
	assert.Error(t, err)
}

func TestIsSource(t *testing.T) {
	for _, name := range []string{"foo.c", "foo.cc", "foo.cpp", "foo.h", "foo.hpp", "FOO.C"} {
		assert.True(t, IsSource(name), "expected %q to be a source file", name)
	}
	for _, name := range []string{"foo.o", "foo.go", "foo"} {
		assert.False(t, IsSource(name), "expected %q not to be a source file", name)
	}
}

// writeAged writes content to path and sets its mtime to mtime, so tests
// can construct a cache that is older or newer than its inputs without
// racing the filesystem clock.
func writeAged(t *testing.T, path string, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestGetDepsUsesFreshCacheWithoutInvokingCompiler(t *testing.T) {
	t.Chdir(t.TempDir())

	old := time.Now().Add(-time.Hour)
	fresh := time.Now()

	writeAged(t, "src.c", "int main() {}", old)
	writeAged(t, "hdr.h", "", old)
	writeAged(t, cacheFilename("src.c"), "hdr.h\n", fresh)

	// A compiler name that does not exist: if GetDeps ever shells out
	// instead of trusting the cache, this fails with an exec error.
	deps, err := GetDeps("rulemk-definitely-not-a-real-compiler", nil, "src.c")
	require.NoError(t, err)
	assert.Equal(t, []string{"hdr.h"}, deps)
}

func TestGetDepsStaleCacheIsNotEnough(t *testing.T) {
	t.Chdir(t.TempDir())

	old := time.Now().Add(-time.Hour)
	newer := time.Now()

	writeAged(t, cacheFilename("src.c"), "hdr.h\n", old)
	writeAged(t, "src.c", "int main() {}", newer) // source touched after caching
	writeAged(t, "hdr.h", "", old)

	_, err := GetDeps("rulemk-definitely-not-a-real-compiler", nil, "src.c")
	require.Error(t, err, "a stale cache must fall through to the compiler, which doesn't exist here")
}

func TestResolverExtendsDependsFromCachedHeaders(t *testing.T) {
	t.Chdir(t.TempDir())

	old := time.Now().Add(-time.Hour)
	fresh := time.Now()
	writeAged(t, "main.c", "", old)
	writeAged(t, "util.h", "", old)
	writeAged(t, cacheFilename("main.c"), "util.h\n", fresh)

	resolver := Resolver("rulemk-definitely-not-a-real-compiler", nil)
	depends := []string{"main.c"}
	err := resolver(rulemk.NewEnv(nil), &depends, map[string]string{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.c", "util.h"}, depends)
}

func TestResolverIgnoresNonSourceDepends(t *testing.T) {
	t.Chdir(t.TempDir())

	resolver := Resolver("rulemk-definitely-not-a-real-compiler", nil)
	depends := []string{"other.o", "README.md"}
	err := resolver(rulemk.NewEnv(nil), &depends, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, []string{"other.o", "README.md"}, depends)
}
