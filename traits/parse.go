// Package traits turns legacy freeform weapon trait text into the canonical,
// comma separated list of trait tokens.
package traits

import (
	"strconv"
	"strings"

	"github.com/mgt2e/docmigrate/pkg/textcase"
)

// Canonical weapon trait tokens.
const (
	Bulky       = "bulky"
	VeryBulky   = "veryBulky"
	ZeroG       = "zeroG"
	Stun        = "stun"
	Scope       = "scope"
	Destructive = "destructive"
	LaserSight  = "laserSight"
	Smart       = "smart"
	Radiation   = "radiation"
	LoPen       = "loPen"
	AP          = "ap"
	Blast       = "blast"
	Auto        = "auto"
)

// Separator joins tokens in the canonical form.
const Separator = ", "

var (
	bareTags  = []string{Stun, Scope, Destructive, LaserSight, Smart, Radiation}
	valueTags = []string{AP, Blast, Auto}
)

// Parse returns the canonical form of a freeform trait string, e.g.
// "Bulky, Zero-G, AP 3, Blast 9" becomes "bulky, zeroG, ap 3, blast 9".
//
// Tokens are emitted in a fixed order: bulk, zero-g, bare tags, lo-pen,
// then the tags that carry a value. A tag that needs a value but has no
// positive numeral next to it is dropped, except an exact loPen token,
// which is already canonical. Parse never fails.
func Parse(text string) string {
	s := textcase.Lower(text)
	var out []string

	switch {
	case strings.Contains(s, "very bulky"), strings.Contains(s, "verybulky"):
		out = append(out, VeryBulky)
	case strings.Contains(s, "bulky"):
		out = append(out, Bulky)
	}

	if strings.Contains(s, "zerog") || strings.Contains(s, "zero-g") {
		out = append(out, ZeroG)
	}

	for _, tag := range bareTags {
		if strings.Contains(s, textcase.Lower(tag)) {
			out = append(out, tag)
		}
	}

	switch {
	case hasToken(text, LoPen):
		out = append(out, LoPen)
	case strings.Contains(s, "lopen"):
		if _, ok := positive(Value(s, "lopen")); ok {
			out = append(out, LoPen)
		}
	case strings.Contains(s, "lo-pen"):
		if _, ok := positive(Value(s, "lo-pen")); ok {
			out = append(out, LoPen)
		}
	}

	for _, tag := range valueTags {
		if !strings.Contains(s, tag) {
			continue
		}
		if n, ok := positive(Value(s, tag)); ok {
			out = append(out, tag+" "+strconv.Itoa(n))
		}
	}

	return strings.Join(out, Separator)
}

// hasToken reports whether the comma separated list text holds tok exactly.
// The canonical loPen token carries no numeral, so it is recognised as is.
func hasToken(text, tok string) bool {
	for _, t := range strings.Split(text, ",") {
		if strings.TrimSpace(t) == tok {
			return true
		}
	}
	return false
}
