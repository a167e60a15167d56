package revision

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/zulandar/isotrack/internal/models"
)

// NormalizeCode trims surrounding whitespace from a client revision code.
func NormalizeCode(code string) string {
	return strings.TrimSpace(code)
}

// CompareCodes orders two revision codes. Lettered codes such as "A" or
// "1a" compare lexicographically and rank below every integer code; integer
// codes compare numerically. Numerically equal codes such as "01" and
// "1" fall back to the lexicographic order so the result is total.
func CompareCodes(a, b string) int {
	a, b = NormalizeCode(a), NormalizeCode(b)
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr != nil:
		return 1
	case aErr != nil && bErr == nil:
		return -1
	case aErr == nil && bErr == nil:
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

// SortByCode orders revisions by ascending revision code.
func SortByCode(revs []models.Revision) {
	slices.SortStableFunc(revs, func(x, y models.Revision) int {
		return CompareCodes(x.Code, y.Code)
	})
}
