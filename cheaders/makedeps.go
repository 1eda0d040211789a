package cheaders

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ParseMakeDeps parses `cc -MM` output (Makefile-fragment syntax: targets,
// a colon, and backslash-continued, whitespace-separated dependency
// words) into a map from target to its dependency list. A direct port of
// original_source/plsmake/helpers.py's _split_gen/_split/parse_make_deps.
func ParseMakeDeps(s string) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, line := range splitMakeLines(s) {
		if len(line) == 0 {
			continue
		}
		target := line[0]
		remain := line[1:]

		if idx := strings.Index(target, ":"); idx >= 0 {
			rest := target[idx+1:]
			target = target[:idx]
			if rest != "" {
				remain = append([]string{rest}, remain...)
			}
		} else {
			if len(remain) == 0 || !strings.HasPrefix(remain[0], ":") {
				return nil, errors.Newf("cheaders: malformed make-deps line: %v", line)
			}
			remain[0] = strings.TrimPrefix(remain[0], ":")
			if remain[0] == "" {
				remain = remain[1:]
			}
		}

		target = strings.TrimSpace(target)
		out[target] = append(out[target], remain...)
	}
	return out, nil
}

const (
	wordBreak = iota
	lineBreak
)

// splitMakeLines tokenizes a make-deps fragment into logical lines of
// words, honoring backslash line continuation and backslash-escaped
// whitespace, mirroring helpers.py's character-at-a-time _split_gen/_split
// generator pair.
func splitMakeLines(s string) [][]string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var lines [][]string
	var line []string
	var word strings.Builder

	pushWord := func() {
		if word.Len() > 0 {
			line = append(line, word.String())
			word.Reset()
		}
	}
	pushLine := func() {
		pushWord()
		if len(line) > 0 {
			lines = append(lines, line)
			line = nil
		}
	}

	escaping := false
	for _, ch := range s {
		switch {
		case escaping:
			escaping = false
			if ch != '\n' {
				word.WriteRune(ch)
			}
		case ch == '\\':
			escaping = true
		case ch == '\n':
			pushLine()
		case ch == ' ' || ch == '\t':
			pushWord()
		default:
			word.WriteRune(ch)
		}
	}
	pushLine()
	return lines
}
