package gardensync

import "regexp"

// gameKeyPattern matches exactly 8 hex characters that are not part of a longer
// word. Word characters are Unicode-aware so a key glued to kana does not count.
var gameKeyPattern = regexp.MustCompile(`(?:^|[^\p{L}\p{N}\p{M}_])([0-9a-fA-F]{8})(?:[^\p{L}\p{N}\p{M}_]|$)`)

// ExtractGameKey returns the first game key in author, or in body when the
// author field has none.
func ExtractGameKey(author string, body string) (string, bool) {
	if m := gameKeyPattern.FindStringSubmatch(author); m != nil {
		return m[1], true
	}
	if body == "" {
		return "", false
	}
	if m := gameKeyPattern.FindStringSubmatch(body); m != nil {
		return m[1], true
	}
	return "", false
}
