package rulemk

import "sync/atomic"

// ExecuteParallel schedules target's dependency graph over a fixed pool of
// jobs worker goroutines, dispatching a target as soon as every dependency
// it needs has completed, and cancelling not-yet-started work on the first
// failure (§4.7).
//
// Unlike the original's ThreadPoolExecutor + concurrent.futures.wait
// design, the single-writer property spec §9 calls out is made structural
// here: a fixed pool of worker goroutines reads targets from a task
// channel and reports {target, err} back over a results channel to one
// driver goroutine (the caller's own goroutine), which is the sole owner
// of the waiting/revWaiting/pending/inFlight bookkeeping.
func ExecuteParallel(target string, m *ResolutionMap, jobs int, alwaysMake bool, opts ...ExecOption) error {
	if jobs < 1 {
		jobs = 1
	}
	cfg := newExecConfig(opts)

	sched := newScheduler(m)
	if err := sched.addTarget(target); err != nil {
		return err
	}
	if len(sched.pending) == 0 && len(sched.waiting) == 0 {
		return nil
	}

	type result struct {
		target string
		err    error
	}

	tasks := make(chan string, len(sched.order))
	results := make(chan result, len(sched.order))

	var stop atomic.Bool
	for i := 0; i < jobs; i++ {
		go func() {
			for t := range tasks {
				if stop.Load() {
					results <- result{target: t}
					continue
				}
				err := runTargetAction(t, m, alwaysMake, cfg)
				results <- result{target: t, err: err}
			}
		}()
	}

	var firstErr error
	cancelled := false
	inFlight := 0

	submit := func() {
		for _, t := range sched.pending {
			tasks <- t
			inFlight++
		}
		sched.pending = sched.pending[:0]
	}

	submit()
	for inFlight > 0 {
		r := <-results
		inFlight--

		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			cancelled = true
			stop.Store(true)
			continue
		}
		if cancelled {
			continue
		}

		sched.done(r.target)
		submit()
	}

	close(tasks)

	if firstErr != nil {
		return firstErr
	}
	return nil
}

// scheduler is the driver's private bookkeeping, exactly the
// waiting/rev_waiting/pending triple spec §4.7 describes, plus an order
// slice so the task channel can be pre-sized.
type scheduler struct {
	m          *ResolutionMap
	waiting    map[string]map[string]struct{} // target -> outstanding deps
	revWaiting map[string]map[string]struct{} // dep -> dependents waiting on it
	pending    []string
	known      map[string]struct{}
	order      []string
}

func newScheduler(m *ResolutionMap) *scheduler {
	return &scheduler{
		m:          m,
		waiting:    make(map[string]map[string]struct{}),
		revWaiting: make(map[string]map[string]struct{}),
		known:      make(map[string]struct{}),
	}
}

// addTarget registers target and (recursively) all its dependencies,
// short-circuiting if target is already known.
func (s *scheduler) addTarget(target string) error {
	if _, known := s.known[target]; known {
		return nil
	}
	s.known[target] = struct{}{}
	s.order = append(s.order, target)

	entry, ok := s.m.Get(target)
	if !ok {
		return &NoActionError{Target: target}
	}

	outstanding := make(map[string]struct{}, len(entry.Depends))
	for _, dep := range entry.Depends {
		outstanding[dep] = struct{}{}
		if s.revWaiting[dep] == nil {
			s.revWaiting[dep] = make(map[string]struct{})
		}
		s.revWaiting[dep][target] = struct{}{}
		if err := s.addTarget(dep); err != nil {
			return err
		}
	}
	s.waiting[target] = outstanding
	s.checkReady(target)
	return nil
}

func (s *scheduler) checkReady(target string) {
	if len(s.waiting[target]) == 0 {
		delete(s.waiting, target)
		s.pending = append(s.pending, target)
	}
}

// done wakes every target waiting on target, moving any whose outstanding
// set became empty into pending.
func (s *scheduler) done(target string) {
	for consumer := range s.revWaiting[target] {
		delete(s.waiting[consumer], target)
		s.checkReady(consumer)
	}
	delete(s.revWaiting, target)
}
