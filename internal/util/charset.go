package util

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// DecodeName turns raw archive name bytes into a string. Valid UTF-8 is used
// as is. Otherwise each fallback is tried in order and the first one whose
// output is clean (no replacement characters, no C1 controls) wins. When none
// is clean the first fallback's output is returned anyway, so decoding never
// fails.
func DecodeName(b []byte, fallbacks ...encoding.Encoding) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var first string
	for i, enc := range fallbacks {
		if enc == nil {
			continue
		}
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil {
			continue
		}
		s := string(out)
		if clean(s) {
			return s
		}
		if i == 0 || first == "" {
			first = s
		}
	}
	if first != "" {
		return first
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

func clean(s string) bool {
	for _, r := range s {
		if r == utf8.RuneError || (r >= 0x80 && r <= 0x9F) {
			return false
		}
	}
	return true
}
