package gardensync

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
)

var ErrDecode = errors.New("text is neither UTF-8 nor Shift_JIS")

// decodeText reads thread files written either as UTF-8 or as CP932, the
// encoding older boards still serve. CP932 is only tried when the whole file
// is not valid UTF-8.
func decodeText(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	s := string(out)
	// the decoder substitutes U+FFFD for invalid sequences instead of failing
	if strings.ContainsRune(s, utf8.RuneError) {
		return "", ErrDecode
	}
	return s, nil
}
