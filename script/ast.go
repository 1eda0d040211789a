// Package script implements a minimal textual rulefile loader: a trimmed
// descendant of the teacher's mkfile AST/parser
// (marcelocantos-mk/ast.go, parse.go, graph.go), scoped down to the
// statements a rulemk.Context actually understands. Configs, includes,
// loops, conditionals, and user-defined functions have no counterpart in
// rulemk.Context and are not supported.
package script

// Stmt is a parsed rulefile statement.
type Stmt interface{ stmt() }

// VarAssign is a top-level variable assignment: name = value or
// name += value. Values are plain strings; list-valued env entries are
// built by repeated += lines, one word per line.
type VarAssign struct {
	Name   string
	Append bool
	Value  string
	Line   int
}

// Rule is a parsed "targets: prereqs" header plus its recipe lines. A
// leading "!" on the target marks it a task (no file output expected).
type Rule struct {
	Target  string
	Depends []string
	Recipe  []string
	IsTask  bool
	Line    int
}

func (VarAssign) stmt() {}
func (Rule) stmt()      {}

// File is a fully parsed rulefile.
type File struct {
	Stmts []Stmt
}
