// Package schema creates the destination tables before a load.
//
// The builtin script is portable DDL for every supported sink. A custom
// script can be supplied instead; it is split on ';' and run statement by
// statement, so it must not contain procedural bodies.
package schema

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
)

// Builtin selects the embedded schema instead of a file path.
const Builtin = "builtin"

//go:embed cp_dsstox.sql
var builtinSQL string

// Execer runs a single statement.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) error
}

// BuiltinScript returns the embedded DDL.
func BuiltinScript() string {
	return builtinSQL
}

// Load returns the script named by source: "builtin" or a file path.
func Load(source string) (string, error) {
	if source == Builtin {
		return builtinSQL, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("read schema %s: %w", source, err)
	}
	return string(data), nil
}

// Apply runs every statement of script in order and stops at the first error.
func Apply(ctx context.Context, db Execer, script string) (int, error) {
	stmts := SplitStatements(script)
	for i, stmt := range stmts {
		if err := db.Exec(ctx, stmt); err != nil {
			return i, fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return len(stmts), nil
}

// SplitStatements strips "--" line comments and splits on ';'.
// Empty statements are dropped.
func SplitStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if i := strings.Index(line, "--"); i >= 0 {
			line = line[:i]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var stmts []string
	for _, part := range strings.Split(b.String(), ";") {
		if s := strings.TrimSpace(part); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
