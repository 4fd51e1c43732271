package arcindex

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortMembersNatural(t *testing.T) {
	names := []string{"page10.jpg", "page2.jpg", "page1.jpg", "Page3.jpg", "cover.jpg", "extra/page1.jpg"}
	files := make([]MemberFile, len(names))
	for i, n := range names {
		files[i] = newMember(n, 0, 0, 0, Uncompressed)
	}
	SortMembers(files)

	var got []string
	for _, f := range files {
		got = append(got, f.FilePath)
	}
	assert.Equal(t, []string{"cover.jpg", "extra/page1.jpg", "page1.jpg", "page2.jpg", "Page3.jpg", "page10.jpg"}, got)
}

func TestNaturalKey(t *testing.T) {
	assert.Equal(t, "page"+strings.Repeat("0", 29)+"2.jpg", NaturalKey("Page2.JPG"))
	long := strings.Repeat("9", 31)
	assert.Equal(t, "v"+long, NaturalKey("v"+long), "runs over the pad width are kept")
}

func TestCompareNaturalTies(t *testing.T) {
	// equal keys fall back to bytewise order
	assert.Negative(t, CompareNatural("A.jpg", "a.jpg"))
	assert.Positive(t, CompareNatural("a.jpg", "A.jpg"))
	assert.Negative(t, CompareNatural("page02", "page2"))
	assert.Zero(t, CompareNatural("same", "same"))
	assert.True(t, NaturalLess("ch9", "ch10"))
}

func TestCompareNaturalTotalOrder(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	alphabet := []rune("aAbB0129._-")
	gen := func() string {
		n := r.IntN(8)
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(alphabet[r.IntN(len(alphabet))])
		}
		return b.String()
	}
	words := make([]string, 300)
	for i := range words {
		words[i] = gen()
	}
	for i := 0; i < 2000; i++ {
		a, b := words[r.IntN(len(words))], words[r.IntN(len(words))]
		ab, ba := CompareNatural(a, b), CompareNatural(b, a)
		assert.Equal(t, -ab, ba, "antisymmetry for %q %q", a, b)
		if ab == 0 {
			assert.Equal(t, a, b)
		}
	}

	sorted := slices.Clone(words)
	slices.SortFunc(sorted, CompareNatural)
	for i := 1; i < len(sorted); i++ {
		assert.LessOrEqual(t, CompareNatural(sorted[i-1], sorted[i]), 0)
	}
}
