// Package vocab normalizes freeform creature text against a configured,
// ordered vocabulary of canonical tokens.
package vocab

import (
	"strings"

	"github.com/mgt2e/docmigrate/pkg/textcase"
)

// Joiners used when writing normalized creature fields back.
const (
	BehaviourJoiner = " "
	TraitJoiner     = ","
)

// Vocabulary is an ordered, immutable set of canonical tokens.
type Vocabulary struct {
	tokens []string
}

// New returns a Vocabulary holding tokens in the given order. Empty tokens
// are ignored and repeated tokens are kept once.
func New(tokens ...string) Vocabulary {
	seen := make(map[string]struct{}, len(tokens))
	v := Vocabulary{tokens: make([]string, 0, len(tokens))}
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		v.tokens = append(v.tokens, t)
	}
	return v
}

// Tokens returns a copy of the vocabulary in iteration order.
func (v Vocabulary) Tokens() []string {
	return append([]string(nil), v.tokens...)
}

// Len returns the number of tokens in the vocabulary.
func (v Vocabulary) Len() int {
	return len(v.tokens)
}

// Normalize returns every vocabulary token that occurs, ignoring case, as a
// substring of text, in vocabulary order and joined with joiner.
//
// Matches may overlap: text holding "carrionEater" yields both
// carrionEater and eater.
func Normalize(text string, v Vocabulary, joiner string) string {
	s := textcase.Lower(text)
	var out []string
	for _, t := range v.tokens {
		if strings.Contains(s, textcase.Lower(t)) {
			out = append(out, t)
		}
	}
	return strings.Join(out, joiner)
}
