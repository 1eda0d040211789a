// Package cheaders discovers C/C++ header dependencies by invoking the
// compiler with -MM and caching the result on disk, a straight port of
// original_source/plsmake/helpers.py's get_deps_with_cxx/
// get_deps_with_cache/set_deps_cache. It is not imported by the core; it
// supplies an optional rulemk.ResolverFunc for build scripts that want
// automatic header discovery.
package cheaders

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/marcelocantos/rulemk"
)

// CacheDir is where discovered dependency lists are cached, mirroring the
// original's CACHE_DIR = '.plscache'.
const CacheDir = ".rulemk-deps"

var sourceSuffixes = []string{
	".c", ".cc", ".cpp", ".cxx", ".c++",
	".h", ".hh", ".hpp", ".hxx",
}

// IsSource reports whether filename looks like a C/C++ source or header.
func IsSource(filename string) bool {
	lower := strings.ToLower(filename)
	for _, suf := range sourceSuffixes {
		if strings.HasSuffix(lower, suf) {
			return true
		}
	}
	return false
}

func cacheFilename(sourcefile string) string {
	return filepath.Join(CacheDir, sourcefile) + ".deps"
}

// GetDeps returns sourcefile's header dependencies, consulting the
// on-disk cache first and falling back to invoking the compiler.
func GetDeps(cc string, cflags []string, sourcefile string) ([]string, error) {
	if deps, ok := getCached(sourcefile); ok {
		return deps, nil
	}
	deps, err := getWithCompiler(cc, cflags, sourcefile)
	if err != nil {
		return nil, err
	}
	if err := setCache(sourcefile, deps); err != nil {
		return nil, err
	}
	return deps, nil
}

func getWithCompiler(cc string, cflags []string, sourcefile string) ([]string, error) {
	args := append([]string{"-MM", "-MT", "dummy"}, cflags...)
	args = append(args, sourcefile)
	out, err := exec.Command(cc, args...).Output()
	if err != nil {
		return nil, errors.Wrapf(err, "cheaders: running %q -MM on %q", cc, sourcefile)
	}
	rules, err := ParseMakeDeps(string(out))
	if err != nil {
		return nil, err
	}
	deps := rules["dummy"]
	out2 := make([]string, len(deps))
	for i, d := range deps {
		out2[i] = filepath.Clean(d)
	}
	return out2, nil
}

func fileTime(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, false
	}
	return info.ModTime().UnixNano(), true
}

func getCached(sourcefile string) ([]string, bool) {
	cacheFile := cacheFilename(sourcefile)
	if err := os.MkdirAll(filepath.Dir(cacheFile), 0o755); err != nil {
		return nil, false
	}

	data, err := os.ReadFile(cacheFile)
	if err != nil {
		return nil, false
	}
	deps := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(deps) == 1 && deps[0] == "" {
		deps = nil
	}

	cacheTime, ok := fileTime(cacheFile)
	if !ok {
		return nil, false
	}

	check := append([]string{sourcefile}, deps...)
	for _, dep := range check {
		t, ok := fileTime(dep)
		if !ok || t > cacheTime {
			return nil, false
		}
	}
	return deps, true
}

func setCache(sourcefile string, deps []string) error {
	cacheFile := cacheFilename(sourcefile)
	if err := os.MkdirAll(filepath.Dir(cacheFile), 0o755); err != nil {
		return errors.Wrapf(err, "cheaders: creating cache dir for %q", sourcefile)
	}
	content := strings.Join(deps, "\n") + "\n"
	if err := os.WriteFile(cacheFile, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "cheaders: writing cache for %q", sourcefile)
	}
	return nil
}

// Resolver returns a rulemk.ResolverFunc that extends depends with the
// compiler-discovered headers of every source-like dependency already
// appended by an earlier resolver in the same rule chain (mirroring the
// original's extend_depends_by_compiler, which runs after a rule's own
// deps() callback has populated the list).
func Resolver(cc string, cflags []string) rulemk.ResolverFunc {
	return func(env *rulemk.Env, depends *[]string, bindings map[string]string) error {
		seen := make(map[string]struct{}, len(*depends))
		for _, d := range *depends {
			seen[d] = struct{}{}
		}
		srcs := make([]string, 0, len(*depends))
		for _, d := range *depends {
			if IsSource(d) {
				srcs = append(srcs, d)
			}
		}
		for _, src := range srcs {
			extra, err := GetDeps(cc, cflags, src)
			if err != nil {
				return err
			}
			for _, dep := range extra {
				if _, ok := seen[dep]; ok {
					continue
				}
				seen[dep] = struct{}{}
				*depends = append(*depends, dep)
			}
		}
		return nil
	}
}
