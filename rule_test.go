package rulemk

import "testing"

func TestNewRuleZeroParams(t *testing.T) {
	r, err := NewRule("foo.o")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Params) != 0 {
		t.Fatalf("expected zero params, got %v", r.Params)
	}
	if _, ok := r.Match("foo.o"); !ok {
		t.Error("expected exact literal match")
	}
	if _, ok := r.Match("bar.o"); ok {
		t.Error("expected no match for different literal")
	}
}

func TestRuleMatch(t *testing.T) {
	tests := []struct {
		pattern  string
		target   string
		match    bool
		captures map[string]string
	}{
		{"build/{name}.o", "build/foo.o", true, map[string]string{"name": "foo"}},
		{"build/{name}.o", "build/bar.o", true, map[string]string{"name": "bar"}},
		{"build/{name}.o", "build/.o", false, nil}, // captures reject empty strings
		{"build/{name}.o", "src/foo.o", false, nil},
		{"build/{config}/{name}.o", "build/debug/foo.o", true, map[string]string{"config": "debug", "name": "foo"}},
		{"build/{name}.o", "build/a/b.o", false, nil}, // captures reject path separators
	}

	for _, tt := range tests {
		r, err := NewRule(tt.pattern)
		if err != nil {
			t.Fatalf("NewRule(%q): %v", tt.pattern, err)
		}
		caps, ok := r.Match(tt.target)
		if ok != tt.match {
			t.Errorf("Rule(%q).Match(%q): match = %v, want %v", tt.pattern, tt.target, ok, tt.match)
			continue
		}
		for k, v := range tt.captures {
			if caps[k] != v {
				t.Errorf("Rule(%q).Match(%q): capture[%q] = %q, want %q", tt.pattern, tt.target, k, caps[k], v)
			}
		}
	}
}

func TestRuleEqualityByTemplate(t *testing.T) {
	r1, _ := NewRule("build/{name}.o")
	r2, _ := NewRule("build/{name}.o")
	// Rule embeds slice fields, so it isn't comparable with ==; equality is
	// defined by Template alone (rule.go's doc comment).
	if r1.Template != r2.Template {
		t.Error("rules with identical templates should compare equal")
	}
}

func TestNewRuleInvalidParamName(t *testing.T) {
	_, err := NewRule("build/{1bad}.o")
	if err == nil {
		t.Fatal("expected InvalidRuleError for a non-identifier parameter name")
	}
	if _, ok := err.(*InvalidRuleError); !ok {
		t.Errorf("expected *InvalidRuleError, got %T", err)
	}
}
