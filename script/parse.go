// Copyright 2026 The mk Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// assignRe-equivalent check done manually below; grounded on the teacher's
// line-oriented scanning style in parse.go rather than its regex table,
// since the rulefile grammar here is much smaller.

// Parse reads a rulefile in the form:
//
//	NAME = value
//	NAME += value
//	target: dep1 dep2
//		recipe line
//		recipe line
//	!task: dep1
//		recipe line
//
// Recipe lines are any line beginning with a tab or at least two spaces
// immediately following a rule header; a blank line or a new header ends
// the current rule's recipe.
func Parse(r io.Reader) (*File, error) {
	scanner := bufio.NewScanner(r)
	f := &File{}

	var current *Rule
	lineNo := 0

	flush := func() {
		if current != nil {
			f.Stmts = append(f.Stmts, *current)
			current = nil
		}
	}

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		if strings.TrimSpace(raw) == "" || strings.HasPrefix(strings.TrimSpace(raw), "#") {
			flush()
			continue
		}

		if current != nil && (strings.HasPrefix(raw, "\t") || strings.HasPrefix(raw, "  ")) {
			current.Recipe = append(current.Recipe, strings.TrimSpace(raw))
			continue
		}

		flush()

		line := strings.TrimSpace(raw)

		if name, value, isAssign, isAppend := parseAssign(line); isAssign {
			f.Stmts = append(f.Stmts, VarAssign{Name: name, Append: isAppend, Value: value, Line: lineNo})
			continue
		}

		idx := strings.Index(line, ":")
		if idx < 0 {
			return nil, fmt.Errorf("script: line %d: expected rule header or assignment: %q", lineNo, raw)
		}

		target := strings.TrimSpace(line[:idx])
		isTask := strings.HasPrefix(target, "!")
		if isTask {
			target = strings.TrimPrefix(target, "!")
		}

		depsField := strings.TrimSpace(line[idx+1:])
		var deps []string
		if depsField != "" {
			deps = strings.Fields(depsField)
		}

		current = &Rule{Target: target, Depends: deps, IsTask: isTask, Line: lineNo}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return f, nil
}

func parseAssign(line string) (name, value string, isAssign, isAppend bool) {
	for _, op := range []string{"+=", "="} {
		idx := strings.Index(line, op)
		if idx <= 0 {
			continue
		}
		name = strings.TrimSpace(line[:idx])
		if !isValidName(name) {
			continue
		}
		value = strings.TrimSpace(line[idx+len(op):])
		return name, value, true, op == "+="
	}
	return "", "", false, false
}

func isValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
