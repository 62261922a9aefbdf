// Package params substitutes positional ($1, $2, ...) and named ($name)
// parameter placeholders in statement text with their bound values,
// producing an executable "valued" statement.
package params

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
)

var (
	positionalRe = regexp.MustCompile(`\$(\d+)`)
	namedRe      = regexp.MustCompile(`\$\w+`)
)

// FormatValue renders a bound value as statement text. Strings are
// wrapped in single quotes; embedded quotes are not escaped, which is a
// known limitation of the valued output.
func FormatValue(v any) string {
	switch t := v.(type) {
	case string:
		return "'" + t + "'"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return "NULL"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// SubstitutePositional replaces every $<n> placeholder with the value at
// position n-1 of args. Out-of-range or malformed indices leave the
// placeholder unchanged and log a warning; substitution never fails.
func SubstitutePositional(statement string, args []any) string {
	return positionalRe.ReplaceAllStringFunc(statement, func(match string) string {
		index, err := strconv.Atoi(match[1:])
		if err != nil {
			slog.Error("invalid positional placeholder", "placeholder", match)
			return match
		}
		if index < 1 || index > len(args) {
			slog.Warn("positional argument index out of range", "index", index, "args", len(args))
			return match
		}
		return FormatValue(args[index-1])
	})
}

// SubstituteNamed replaces every $<word> placeholder with its value from
// args. Keys in args carry the leading sigil (e.g. "$name"). Unknown
// placeholders are left unchanged with a warning.
func SubstituteNamed(statement string, args map[string]any) string {
	return namedRe.ReplaceAllStringFunc(statement, func(match string) string {
		value, ok := args[match]
		if !ok {
			slog.Warn("named argument not found", "placeholder", match)
			return match
		}
		return FormatValue(value)
	})
}
