package rulemk

// ResolverFunc appends targets to depends (and may mutate env) given the
// bindings captured by a rule match.
type ResolverFunc func(env *Env, depends *[]string, bindings map[string]string) error

// ActionFunc produces target's output (or performs a side effect for
// tasks) given the same bindings.
type ActionFunc func(env *Env, depends []string, bindings map[string]string) error

// Action bundles an action callback with its is_task flag and a name for
// logging (Go has no functools.update_wrapper equivalent, so the name is
// captured explicitly at bind time instead of introspected).
type Action struct {
	Fn     ActionFunc
	IsTask bool
	Name   string
}

// binding is the pair of slots a Context maintains per rule: at most one
// resolver callback and at most one action.
type binding struct {
	rule     Rule
	resolver ResolverFunc
	action   *Action
}

// RuleBinding is the read-only view of one Context entry, as consumed by
// Resolve. Context.Table() produces a slice of these in registration
// order.
type RuleBinding struct {
	Rule     Rule
	Resolver ResolverFunc
	Action   *Action
}

// Context is the registry a build-script loader writes rule bindings into.
// It holds one working Env (a child of the env it was constructed with)
// and an insertion-ordered rule table. Loading is single-threaded, so
// Context carries no internal locking.
type Context struct {
	env   *Env
	order []string
	rules map[string]*binding
}

// NewContext returns a Context whose working env is a child of init.
func NewContext(init *Env) *Context {
	return &Context{
		env:   init.MakeChild(),
		rules: make(map[string]*binding),
	}
}

// GetEnv returns the working env for mutation by the build script.
func (c *Context) GetEnv() *Env {
	return c.env
}

func (c *Context) slot(pattern string) (*binding, error) {
	if b, ok := c.rules[pattern]; ok {
		return b, nil
	}
	r, err := NewRule(pattern)
	if err != nil {
		return nil, err
	}
	b := &binding{rule: r}
	c.rules[pattern] = b
	c.order = append(c.order, pattern)
	return b, nil
}

// Deps binds fn to the resolver slot of Rule(pattern). Re-binding an
// already-filled resolver slot is a hard error.
func (c *Context) Deps(pattern string, fn ResolverFunc) error {
	b, err := c.slot(pattern)
	if err != nil {
		return err
	}
	if b.resolver != nil {
		return &DuplicatedRuleError{Pattern: pattern}
	}
	b.resolver = fn
	return nil
}

// Action binds fn to the non-task action slot of Rule(pattern).
func (c *Context) Action(pattern string, name string, fn ActionFunc) error {
	return c.setAction(pattern, name, fn, false)
}

// Task binds fn to the task action slot of Rule(pattern).
func (c *Context) Task(pattern string, name string, fn ActionFunc) error {
	return c.setAction(pattern, name, fn, true)
}

func (c *Context) setAction(pattern, name string, fn ActionFunc, isTask bool) error {
	b, err := c.slot(pattern)
	if err != nil {
		return err
	}
	if b.action != nil {
		return &DuplicatedRuleError{Pattern: pattern}
	}
	b.action = &Action{Fn: fn, IsTask: isTask, Name: name}
	return nil
}

// Table returns the registered rule bindings in registration order, ready
// to pass to Resolve.
func (c *Context) Table() []RuleBinding {
	out := make([]RuleBinding, 0, len(c.order))
	for _, pattern := range c.order {
		b := c.rules[pattern]
		out = append(out, RuleBinding{Rule: b.rule, Resolver: b.resolver, Action: b.action})
	}
	return out
}
