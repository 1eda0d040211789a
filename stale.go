package rulemk

import "os"

func fileExists(target string) bool {
	info, err := os.Stat(target)
	return err == nil && !info.IsDir()
}

// fileNewer reports whether a's mtime is strictly after b's. A missing a
// is never newer; a missing b counts as older than any existing a.
func fileNewer(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return true
	}
	return ai.ModTime().After(bi.ModTime())
}

// ShouldBuild decides whether target must rebuild, given the resolution
// map and whether an unconditional rebuild was requested (§4.5):
//
//   - the target file doesn't exist; or
//   - alwaysMake is set and the entry has any dep or an action (a leaf
//     no-action entry is never force-rebuilt); or
//   - any dep whose own action is not a task has a newer mtime than target.
//
// Tasks are never timestamp sources.
func ShouldBuild(target string, m *ResolutionMap, alwaysMake bool) bool {
	if !fileExists(target) {
		return true
	}

	entry, ok := m.Get(target)
	if !ok {
		return true
	}

	if alwaysMake {
		return len(entry.Depends) > 0 || entry.Action != nil
	}

	for _, dep := range entry.Depends {
		depEntry, ok := m.Get(dep)
		if !ok {
			continue
		}
		if depEntry.Action != nil && depEntry.Action.IsTask {
			continue
		}
		if fileNewer(dep, target) {
			return true
		}
	}
	return false
}
