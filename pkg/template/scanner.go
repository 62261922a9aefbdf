package template

import (
	"regexp"
)

// Match is a field/operator/value triple located in statement text.
// Offsets index into the scanned string; ValueStart marks where the
// value begins so the builder can extend truncated list values.
type Match struct {
	Field      string
	Operator   string
	Value      string
	Start      int
	End        int
	ValueStart int
}

// Scanner locates field/operator/value triples in statement text, in
// document order and non-overlapping. The default implementation is
// pattern-based; a grammar-based parser can be swapped in through
// WithScanner without touching callers.
type Scanner interface {
	Scan(statement string) []Match
}

// Pattern pieces: a quoted string with no embedded quote of the same
// kind, a bracketed array, a parenthesized list, or a bare token with no
// whitespace, comma, or quote.
const (
	identifierPattern = `([A-Za-z0-9_.]+)`
	operatorPattern   = `(==|>=|<=|=|>|<|(?i:\s+in\s+|\s+like\s+))`
	valuePattern      = `('[^']*'|"[^"]*"|\[[^\]]*\]|\([^)]+\)|[^'",\s]+)`
)

var matchRe = regexp.MustCompile(identifierPattern + `\s*` + operatorPattern + `\s*` + valuePattern)

type regexScanner struct{}

// NewScanner returns the pattern-based Scanner.
func NewScanner() Scanner {
	return regexScanner{}
}

func (regexScanner) Scan(statement string) []Match {
	indices := matchRe.FindAllStringSubmatchIndex(statement, -1)
	if len(indices) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(indices))
	for _, idx := range indices {
		matches = append(matches, Match{
			Field:      statement[idx[2]:idx[3]],
			Operator:   statement[idx[4]:idx[5]],
			Value:      statement[idx[6]:idx[7]],
			Start:      idx[0],
			End:        idx[1],
			ValueStart: idx[6],
		})
	}
	return matches
}
