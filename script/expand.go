package script

import (
	"fmt"
	"strings"

	"github.com/marcelocantos/rulemk"
)

// expand substitutes $name and ${name} references against env, the same
// scanning shape as the teacher's Vars.Expand (marcelocantos-mk/vars.go)
// trimmed down: no $[func args] call syntax, since Context has no
// counterpart for it. $$ is a literal $. List-valued entries are joined
// with spaces.
func expand(env *rulemk.Env, s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != '$' {
			b.WriteByte(s[i])
			i++
			continue
		}
		i++
		if i >= len(s) {
			b.WriteByte('$')
			break
		}

		switch {
		case s[i] == '$':
			b.WriteByte('$')
			i++

		case s[i] == '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				b.WriteString("${")
				i++
				continue
			}
			name := s[i+1 : i+end]
			b.WriteString(lookup(env, name))
			i += end + 1

		default:
			start := i
			for i < len(s) && isNameByte(s[i]) {
				i++
			}
			if i == start {
				b.WriteByte('$')
				continue
			}
			b.WriteString(lookup(env, s[start:i]))
		}
	}
	return b.String()
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func lookup(env *rulemk.Env, name string) string {
	v, err := env.Get(name)
	if err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, " ")
	default:
		return fmt.Sprint(t)
	}
}
