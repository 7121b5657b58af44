package parser

import (
	"strings"

	"github.com/wippyai/mci-runtime/errors"
)

// splitWord cuts s at its first space. Leading spaces of the remainder are
// dropped.
func splitWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " ")
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], strings.TrimLeft(s[i+1:], " ")
	}
	return s, ""
}

// nextToken reads one token from s. A token starting with a double quote
// runs to the next quote, which must be followed by a space or the end of
// input; any other token runs to the next space.
func nextToken(s string, path []string) (tok, rest string, err error) {
	s = strings.TrimLeft(s, " ")
	if s == "" {
		return "", "", nil
	}
	if s[0] != '"' {
		tok, rest = splitWord(s)
		return tok, rest, nil
	}

	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return "", "", errors.Syntax(errors.KindNoClosingQuote, path, s)
	}
	tok = s[1 : end+1]
	rest = s[end+2:]
	if rest != "" && rest[0] != ' ' {
		return "", "", errors.Syntax(errors.KindExtraCharacters, path, s)
	}
	return tok, strings.TrimLeft(rest, " "), nil
}

// hasKeyword reports whether s starts with kw, ignoring case, followed by
// the end of input or a space.
func hasKeyword(s, kw string) bool {
	if len(s) < len(kw) || !strings.EqualFold(s[:len(kw)], kw) {
		return false
	}
	return len(s) == len(kw) || s[len(kw)] == ' '
}
