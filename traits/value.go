package traits

import (
	"strconv"
	"strings"

	"github.com/mgt2e/docmigrate/pkg/textcase"
)

// Value returns the numeral written next to an occurrence of anchor in
// text, e.g. "3" for anchor "ap" in "AP 3, Auto 2". Spaces, an opening
// parenthesis, a plus sign or a colon may sit between the anchor and the
// digits. Occurrences are tried left to right; ok is false when none of
// them is followed by a numeral.
func Value(text, anchor string) (numeral string, ok bool) {
	s := textcase.Lower(text)
	anchor = textcase.Lower(anchor)
	if anchor == "" {
		return "", false
	}

	for from := 0; from < len(s); {
		i := strings.Index(s[from:], anchor)
		if i < 0 {
			break
		}
		start := from + i + len(anchor)
		if n := numeralAt(s, start); n != "" {
			return n, true
		}
		from = from + i + 1
	}
	return "", false
}

func numeralAt(s string, i int) string {
	for i < len(s) && isSeparator(s[i]) {
		i++
	}
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	return s[i:j]
}

func isSeparator(c byte) bool {
	switch c {
	case ' ', '\t', '(', '+', ':':
		return true
	}
	return false
}

// positive parses a numeral returned by Value. Anything that is not a
// positive integer is reported as absent.
func positive(numeral string, ok bool) (int, bool) {
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(numeral)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
