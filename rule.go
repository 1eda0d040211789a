package rulemk

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// identRe matches a bare {name} placeholder's inner identifier.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// placeholderRe splits a template on {name} placeholders.
var placeholderRe = regexp.MustCompile(`\{([^{}]*)\}`)

// captureClass is the alphabet a parameter capture may match: non-empty,
// no path separators.
const captureClass = `[A-Za-z0-9_-]+`

// Rule is an immutable pattern binding a target template to a matcher.
// Two rules are equal iff their Template strings are equal.
type Rule struct {
	Template string
	Words    []string // literal segments between placeholders, len(Words) == len(Params)+1
	Params   []string // placeholder names in order

	re *regexp.Regexp
}

// NewRule compiles a template such as "test_{name}.o" into a Rule.
// Every placeholder name must be identifier-like
// ([A-Za-z_][A-Za-z0-9_]*); malformed braces that don't parse as a
// placeholder are treated as literal text, matching the original's
// regex-split behavior.
func NewRule(template string) (Rule, error) {
	words := placeholderRe.Split(template, -1)
	matches := placeholderRe.FindAllStringSubmatch(template, -1)

	params := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if !identRe.MatchString(name) {
			return Rule{}, &InvalidRuleError{Pattern: template, Reason: "invalid parameter name " + name}
		}
		params = append(params, name)
	}

	if len(words) != len(params)+1 {
		return Rule{}, &InvalidRuleError{Pattern: template, Reason: "malformed placeholder braces"}
	}

	var sb strings.Builder
	sb.WriteByte('^')
	for i, w := range words {
		sb.WriteString(regexp.QuoteMeta(w))
		if i < len(params) {
			sb.WriteString("(" + captureClass + ")")
		}
	}
	sb.WriteByte('$')

	re, err := regexp.Compile(sb.String())
	if err != nil {
		return Rule{}, errors.Wrapf(&InvalidRuleError{Pattern: template, Reason: "compiling matcher"}, "rule.NewRule")
	}

	return Rule{Template: template, Words: words, Params: params, re: re}, nil
}

// Match reports whether target satisfies the rule's pattern, returning the
// captured parameter bindings, keyed by parameter name, when it does.
func (r Rule) Match(target string) (map[string]string, bool) {
	groups := r.re.FindStringSubmatch(target)
	if groups == nil {
		return nil, false
	}
	bindings := make(map[string]string, len(r.Params))
	for i, name := range r.Params {
		bindings[name] = groups[i+1]
	}
	return bindings, true
}

func (r Rule) String() string {
	return r.Template
}
