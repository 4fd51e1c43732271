package arcindex

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// naturalPad is the width digit runs are padded to before comparison.
const naturalPad = 30

var digitRun = regexp.MustCompile(`\d+`)

// NaturalKey returns the comparison key of s: every run of ASCII digits is
// left-padded with zeros to 30 characters and the result is case folded.
// Runs longer than 30 digits are kept whole.
func NaturalKey(s string) string {
	return naturalKey(s, cases.Fold())
}

func naturalKey(s string, fold cases.Caser) string {
	padded := digitRun.ReplaceAllStringFunc(s, func(run string) string {
		if len(run) >= naturalPad {
			return run
		}
		return strings.Repeat("0", naturalPad-len(run)) + run
	})
	return fold.String(padded)
}

// CompareNatural orders a and b by their natural keys. Strings with equal
// keys are ordered bytewise so the result is a total order.
func CompareNatural(a, b string) int {
	if c := strings.Compare(NaturalKey(a), NaturalKey(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// NaturalLess reports whether a sorts before b.
func NaturalLess(a, b string) bool { return CompareNatural(a, b) < 0 }

// SortMembers orders files in place by the natural order of FilePath, so
// "page2.jpg" comes before "page10.jpg".
func SortMembers(files []MemberFile) {
	fold := cases.Fold()
	keys := make(map[string]string, len(files))
	for _, f := range files {
		if _, ok := keys[f.FilePath]; !ok {
			keys[f.FilePath] = naturalKey(f.FilePath, fold)
		}
	}
	slices.SortStableFunc(files, func(a, b MemberFile) int {
		if c := strings.Compare(keys[a.FilePath], keys[b.FilePath]); c != 0 {
			return c
		}
		return strings.Compare(a.FilePath, b.FilePath)
	})
}
