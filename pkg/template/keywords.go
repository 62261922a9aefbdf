package template

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeywordSet is an immutable, case-insensitive set of reserved words.
// A parenthesized value whose inner text is a member is treated as
// structural syntax rather than a literal.
type KeywordSet struct {
	members map[string]struct{}
}

// NewKeywordSet builds a set from the given words.
func NewKeywordSet(words ...string) KeywordSet {
	members := make(map[string]struct{}, len(words))
	for _, w := range words {
		members[strings.ToUpper(w)] = struct{}{}
	}
	return KeywordSet{members: members}
}

// Contains reports case-insensitive membership.
func (k KeywordSet) Contains(word string) bool {
	_, ok := k.members[strings.ToUpper(word)]
	return ok
}

// With returns a new set extended by the given words.
func (k KeywordSet) With(words ...string) KeywordSet {
	members := make(map[string]struct{}, len(k.members)+len(words))
	for w := range k.members {
		members[w] = struct{}{}
	}
	for _, w := range words {
		members[strings.ToUpper(w)] = struct{}{}
	}
	return KeywordSet{members: members}
}

var defaultKeywords = []string{
	"ALL", "AND", "ANY", "AS", "ASC", "BETWEEN", "BY", "CASE", "CAST",
	"CURRENT_DATE", "CURRENT_TIME", "CURRENT_TIMESTAMP", "DEFAULT",
	"DELETE", "DESC", "DISTINCT", "ELSE", "END", "EXISTS", "FALSE",
	"FROM", "GROUP", "HAVING", "IN", "INSERT", "INTO", "IS", "JOIN",
	"LIKE", "LIMIT", "MISSING", "NOT", "NULL", "OFFSET", "ON", "OR",
	"ORDER", "SELECT", "SET", "THEN", "TRUE", "UPDATE", "VALUES",
	"WHEN", "WHERE",
}

// DefaultKeywords returns the built-in reserved-word set.
func DefaultKeywords() KeywordSet {
	return NewKeywordSet(defaultKeywords...)
}

type keywordFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadKeywords reads a YAML file of the form `keywords: [WORD, ...]` and
// returns the default set extended by its entries, so dialect-specific
// words can be added without replacing the built-ins.
func LoadKeywords(path string) (KeywordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return KeywordSet{}, fmt.Errorf("failed to read keywords file: %w", err)
	}

	var file keywordFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return KeywordSet{}, fmt.Errorf("failed to parse keywords file: %w", err)
	}

	return DefaultKeywords().With(file.Keywords...), nil
}
