package names

import "strings"

// Tokenize splits a full name on spaces, keeping quoted nicknames such as
// «El Chino» or "Pepe Luis" together as one token. A quote only opens at the
// start of the string or right after a space, so apostrophes inside surnames
// (O'Brien) do not.
func Tokenize(full string) []string {
	var (
		tokens  []string
		current strings.Builder
		closing rune
		prev    rune = ' '
	)
	flush := func() {
		if token := strings.TrimSpace(current.String()); token != "" {
			tokens = append(tokens, token)
		}
		current.Reset()
	}

	for _, r := range strings.TrimSpace(full) {
		switch {
		case closing == 0 && prev == ' ' && isOpeningQuote(r):
			closing = closingQuote(r)
			current.WriteRune(r)
		case closing != 0 && (r == closing || (closing == '”' && r == '"')):
			current.WriteRune(r)
			closing = 0
		case r == ' ' && closing == 0:
			flush()
		default:
			current.WriteRune(r)
		}
		prev = r
	}
	flush()
	return tokens
}

func isOpeningQuote(r rune) bool {
	switch r {
	case '"', '\'', '«', '“':
		return true
	}
	return false
}

func closingQuote(open rune) rune {
	switch open {
	case '«':
		return '»'
	case '“':
		return '”'
	default:
		return open
	}
}

var quoteStripper = strings.NewReplacer(`"`, "", "'", "", "«", "", "»", "", "“", "", "”", "")

// cleanToken removes quote characters and surrounding space.
func cleanToken(token string) string {
	return strings.TrimSpace(quoteStripper.Replace(token))
}
