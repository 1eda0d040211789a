package rulemk

import "github.com/cockroachdb/errors"

// ResolutionEntry is the resolver's per-target record: the ordered list of
// dependency targets, the env frame resolvers ran against, the single
// bound action (nil if none matched), and the bindings that action's rule
// captured.
type ResolutionEntry struct {
	Depends  []string
	Env      *Env
	Action   *Action
	Bindings map[string]string
}

// ResolutionMap is the insertion-ordered (BFS) output of Resolve: a target
// appears exactly once, in the order it was first discovered.
type ResolutionMap struct {
	order   []string
	entries map[string]*ResolutionEntry
}

func newResolutionMap() *ResolutionMap {
	return &ResolutionMap{entries: make(map[string]*ResolutionEntry)}
}

// Get returns the entry for target and whether it is present.
func (m *ResolutionMap) Get(target string) (*ResolutionEntry, bool) {
	e, ok := m.entries[target]
	return e, ok
}

// Order returns the resolution (BFS) order the targets were discovered in.
// This is not the execution order.
func (m *ResolutionMap) Order() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *ResolutionMap) set(target string, e *ResolutionEntry) {
	if _, exists := m.entries[target]; !exists {
		m.order = append(m.order, target)
	}
	m.entries[target] = e
}

type queueItem struct {
	target string
	env    *Env
}

// Resolve expands target into a ResolutionMap against table, the
// registered rule bindings, starting resolution from a child of topEnv.
// For each popped (target, env) pair, every rule in declaration order whose
// pattern matches target has its resolver callback invoked (if any, in
// order) and its action recorded (at most one action may match per
// target). Each newly discovered dependency is enqueued with its own child
// of the current frame's env, so resolver-performed env mutations
// propagate downward only.
func Resolve(target string, table []RuleBinding, topEnv *Env) (*ResolutionMap, error) {
	result := newResolutionMap()
	pending := []queueItem{{target: target, env: topEnv.MakeChild()}}
	inQueue := map[string]struct{}{target: {}}

	for len(pending) > 0 {
		item := pending[0]
		pending = pending[1:]
		delete(inQueue, item.target)

		if _, already := result.entries[item.target]; already {
			continue
		}

		var depends []string
		var action *Action
		var bindings map[string]string

		for _, rb := range table {
			matched, ok := rb.Rule.Match(item.target)
			if !ok {
				continue
			}
			if rb.Resolver != nil {
				if err := rb.Resolver(item.env, &depends, matched); err != nil {
					return nil, errors.Wrapf(&ResolveFailedError{
						Target: item.target,
						Rule:   rb.Rule.Template,
						Cause:  err,
					}, "rulemk.Resolve")
				}
			}
			if rb.Action != nil {
				if action != nil {
					return nil, &MultipleActionsError{Target: item.target}
				}
				action = rb.Action
				bindings = matched
			}
		}
		if bindings == nil {
			bindings = map[string]string{}
		}

		result.set(item.target, &ResolutionEntry{
			Depends:  depends,
			Env:      item.env,
			Action:   action,
			Bindings: bindings,
		})

		for _, dep := range depends {
			if _, done := result.entries[dep]; done {
				continue
			}
			if _, queued := inQueue[dep]; queued {
				continue
			}
			pending = append(pending, queueItem{target: dep, env: item.env.MakeChild()})
			inQueue[dep] = struct{}{}
		}
	}

	return result, nil
}
