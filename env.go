package rulemk

import "reflect"

// Value is anything an Env may hold: a string, a []string, a
// map[string]string, or user data implementing Cloner.
type Value = any

// Cloner lets a caller-supplied value type opt into the env's
// copy-on-read contract, the Go analogue of the original's
// isinstance(v, (MutableSequence, MutableMapping, MutableSet)) check.
type Cloner interface {
	CloneEnvValue() Value
}

// Env is a scoped, parent-chained key/value store. A get that resolves
// through the parent and finds a mutable container takes a shallow copy
// into the local scope before returning it, so mutations performed by the
// caller are isolated from the parent (§4.2).
type Env struct {
	local   map[string]Value
	removed map[string]struct{}
	parent  *Env
}

// NewEnv returns a root Env, optionally seeded with initial values.
func NewEnv(init map[string]Value) *Env {
	e := &Env{
		local:   make(map[string]Value, len(init)),
		removed: make(map[string]struct{}),
	}
	for k, v := range init {
		e.local[k] = v
	}
	return e
}

// MakeChild returns a fresh Env whose parent is e.
func (e *Env) MakeChild() *Env {
	return &Env{
		local:   make(map[string]Value),
		removed: make(map[string]struct{}),
		parent:  e,
	}
}

// Set writes a value to the local scope, clearing any tombstone for key.
func (e *Env) Set(key string, v Value) {
	e.local[key] = v
	delete(e.removed, key)
}

// Get looks up key: locally first, then the parent chain. A tombstoned key
// always fails even if the parent still has it. A parent-resolved mutable
// value is copied into local scope before being returned.
func (e *Env) Get(key string) (Value, error) {
	if _, tomb := e.removed[key]; tomb {
		return nil, &NotFoundError{Key: key}
	}
	if v, ok := e.local[key]; ok {
		return v, nil
	}
	if e.parent == nil {
		return nil, &NotFoundError{Key: key}
	}
	v, err := e.parent.Get(key)
	if err != nil {
		return nil, err
	}
	v = cloneIfMutable(v)
	e.local[key] = v
	return v, nil
}

// GetOr returns the value for key, or def if the lookup fails.
func (e *Env) GetOr(key string, def Value) Value {
	v, err := e.Get(key)
	if err != nil {
		return def
	}
	return v
}

// Delete tombstones key: subsequent lookups fail regardless of the parent.
func (e *Env) Delete(key string) {
	e.removed[key] = struct{}{}
	delete(e.local, key)
}

// Items yields every visible key/value: local entries first, then any
// parent entry whose key is neither tombstoned nor locally shadowed.
func (e *Env) Items() map[string]Value {
	out := make(map[string]Value, len(e.local))
	for k, v := range e.local {
		out[k] = v
	}
	if e.parent != nil {
		for k, v := range e.parent.Items() {
			if _, tomb := e.removed[k]; tomb {
				continue
			}
			if _, local := e.local[k]; local {
				continue
			}
			out[k] = v
		}
	}
	return out
}

// LocalDelta describes one entry reported by LocalItems: Removed is true
// for a tombstone, in which case Value is nil.
type LocalDelta struct {
	Key     string
	Value   Value
	Removed bool
}

// LocalItems yields local entries whose value differs from the parent's
// resolved value for that key, then every tombstone (reported with
// Removed=true).
func (e *Env) LocalItems() []LocalDelta {
	var out []LocalDelta
	for k, v := range e.local {
		if e.parent != nil {
			if pv, err := e.parent.Get(k); err == nil && equalValue(pv, v) {
				continue
			}
		}
		out = append(out, LocalDelta{Key: k, Value: v})
	}
	for k := range e.removed {
		out = append(out, LocalDelta{Key: k, Removed: true})
	}
	return out
}

func cloneIfMutable(v Value) Value {
	switch t := v.(type) {
	case []string:
		cp := make([]string, len(t))
		copy(cp, t)
		return cp
	case map[string]string:
		cp := make(map[string]string, len(t))
		for k, v := range t {
			cp[k] = v
		}
		return cp
	case Cloner:
		return t.CloneEnvValue()
	default:
		return v
	}
}

func equalValue(a, b Value) bool {
	as, aok := a.([]string)
	bs, bok := b.([]string)
	if aok && bok {
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
		return true
	}
	am, amok := a.(map[string]string)
	bm, bmok := b.(map[string]string)
	if amok && bmok {
		if len(am) != len(bm) {
			return false
		}
		for k, v := range am {
			if bm[k] != v {
				return false
			}
		}
		return true
	}
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}

// isComparable reports whether v's dynamic type is safe to use with ==,
// guarding LocalItems against a panic when a Cloner's concrete type is
// itself a slice, map, or func.
func isComparable(v Value) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

// AppendString appends values to a []string held at key, treating a
// missing key as an empty slice. Used by build-script loaders and tests to
// mutate list-valued env entries the way `env['CFLAGS'] += [...]` does in
// the original.
func (e *Env) AppendString(key string, values ...string) {
	cur, _ := e.Get(key)
	list, _ := cur.([]string)
	list = append(append([]string{}, list...), values...)
	e.Set(key, list)
}
