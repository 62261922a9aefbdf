// Package template derives normalized grouping keys from statement text
// by replacing literal values with generic placeholders. Statements that
// differ only in literals collapse to the same template.
package template

import (
	"strings"
)

// Template holds the default Templater behavior: pattern-based scanning
// with the default reserved-keyword set.
func Template(statement string) string {
	return defaultTemplater.Template(statement)
}

var defaultTemplater = New()

// Templater rewrites literal values in statement text to placeholders.
// The zero options produce the pattern-based scanner and default
// keywords.
type Templater struct {
	scanner  Scanner
	keywords KeywordSet
}

// Option configures a Templater.
type Option func(*Templater)

// WithScanner swaps the value scanner, e.g. for a grammar-based
// implementation.
func WithScanner(s Scanner) Option {
	return func(t *Templater) { t.scanner = s }
}

// WithKeywords replaces the reserved-keyword set used by the
// parenthesis heuristic.
func WithKeywords(ks KeywordSet) Option {
	return func(t *Templater) { t.keywords = ks }
}

// New creates a Templater.
func New(opts ...Option) *Templater {
	t := &Templater{
		scanner:  NewScanner(),
		keywords: DefaultKeywords(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Template replaces literal values with placeholders: scalar values
// become `?`, IN-lists become `IN [?, ?, ...]`. Existing `$` placeholders
// and reserved-keyword parentheses are left untouched. The transform is
// idempotent.
func (t *Templater) Template(statement string) string {
	matches := t.scanner.Scan(statement)
	if len(matches) == 0 {
		return statement
	}

	var b strings.Builder
	b.Grow(len(statement))
	lastEnd := 0

	for _, m := range matches {
		b.WriteString(statement[lastEnd:m.Start])

		// Already-parameterized values stay as they are.
		if strings.HasPrefix(m.Value, "$") {
			b.WriteString(statement[m.Start:m.End])
			lastEnd = m.End
			continue
		}

		op := strings.TrimSpace(m.Operator)
		if strings.EqualFold(op, "in") {
			lastEnd = t.templateInList(&b, statement, m)
			continue
		}

		if inner, ok := unwrapParens(m.Value); ok && t.keywords.Contains(inner) {
			// Structural syntax, not a literal; keep the fragment.
			b.WriteString(statement[m.Start:m.End])
			lastEnd = m.End
			continue
		}

		b.WriteString(m.Field)
		b.WriteString(" ")
		b.WriteString(op)
		b.WriteString(" ?")
		lastEnd = m.End
	}

	b.WriteString(statement[lastEnd:])
	return b.String()
}

// templateInList replaces a complete bracketed array or parenthesized
// list with the IN placeholder and returns the adjusted cursor. A bare
// identifier after IN denotes a variable, not a literal list, and is
// kept verbatim.
func (t *Templater) templateInList(b *strings.Builder, statement string, m Match) int {
	var closer byte
	switch {
	case strings.HasPrefix(m.Value, "["):
		closer = ']'
	case strings.HasPrefix(m.Value, "("):
		closer = ')'
	default:
		b.WriteString(statement[m.Start:m.End])
		return m.End
	}

	end := m.End
	if idx := strings.IndexByte(statement[m.ValueStart:], closer); idx >= 0 {
		end = m.ValueStart + idx + 1
	}

	b.WriteString(m.Field)
	b.WriteString(" IN [?, ?, ...]")
	return end
}

// unwrapParens strips one pair of surrounding parentheses, returning the
// trimmed inner text.
func unwrapParens(value string) (string, bool) {
	if len(value) < 2 || value[0] != '(' || value[len(value)-1] != ')' {
		return value, false
	}
	return strings.TrimSpace(value[1 : len(value)-1]), true
}
