package rulemk

import (
	"github.com/cockroachdb/errors"

	"github.com/marcelocantos/rulemk/logx"
)

// ExecOption configures Execute/ExecuteParallel. The core's only
// configurable behavior is where progress is logged to; everything else
// (logging pipeline, CLI flags) is an external collaborator.
type ExecOption func(*execConfig)

type execConfig struct {
	log *logx.Logger
}

// WithLogger attaches a logx.Logger that receives per-target progress
// events. Without one, Execute/ExecuteParallel run silently.
func WithLogger(l *logx.Logger) ExecOption {
	return func(c *execConfig) { c.log = l }
}

func newExecConfig(opts []ExecOption) *execConfig {
	c := &execConfig{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute performs a post-order DFS over target's dependency graph,
// running each target's action step (runTargetAction) exactly once. The
// visited set guards against diamond re-execution and silently collapses
// declared cycles, per spec §4.6/§1's Non-goals.
func Execute(target string, m *ResolutionMap, alwaysMake bool, opts ...ExecOption) error {
	cfg := newExecConfig(opts)
	visited := make(map[string]struct{})
	return executeDFS(target, m, alwaysMake, visited, cfg)
}

func executeDFS(target string, m *ResolutionMap, alwaysMake bool, visited map[string]struct{}, cfg *execConfig) error {
	if _, seen := visited[target]; seen {
		return nil
	}
	visited[target] = struct{}{}

	entry, ok := m.Get(target)
	if !ok {
		return errors.Newf("rulemk.Execute: %q is not in the resolution map", target)
	}

	for _, dep := range entry.Depends {
		if err := executeDFS(dep, m, alwaysMake, visited, cfg); err != nil {
			return err
		}
	}

	return runTargetAction(target, m, alwaysMake, cfg)
}

// runTargetAction is the per-target action step (§4.8): rebuild if stale,
// then, for non-task actions, verify the target is no longer stale
// afterward.
func runTargetAction(target string, m *ResolutionMap, alwaysMake bool, cfg *execConfig) error {
	log := bindLog(cfg, target)
	log.Info("execute.begin")

	entry, ok := m.Get(target)
	if !ok {
		return errors.Newf("rulemk.runTargetAction: %q is not in the resolution map", target)
	}

	if ShouldBuild(target, m, alwaysMake) {
		if entry.Action == nil {
			log.Error("execute.no_action")
			return &NoActionError{Target: target}
		}

		log.Info("execute.action", "action", entry.Action.Name)
		if err := entry.Action.Fn(entry.Env, entry.Depends, entry.Bindings); err != nil {
			log.Error("execute.exception", "err", err)
			return errors.Wrapf(&ActionFailedError{Target: target, Cause: err}, "rulemk.runTargetAction")
		}
	}

	if (entry.Action == nil || !entry.Action.IsTask) && ShouldBuild(target, m, false) {
		log.Error("execute.no_result")
		return &ActionNoResultError{Target: target}
	}

	log.Info("execute.finish")
	return nil
}

func bindLog(cfg *execConfig, target string) *logx.Logger {
	if cfg == nil || cfg.log == nil {
		return silentLogger
	}
	return cfg.log.Bind(target)
}

// silentLogger discards everything; used when no logger was configured so
// runTargetAction doesn't need a nil check at every call site.
var silentLogger = logx.NewWithOutput(discard{})

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
