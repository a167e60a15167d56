package rows

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"2006/01/02",
}

// ExcelDate converts a spreadsheet date cell to a UTC calendar date. It
// accepts ISO and dd/mm/yyyy strings, time.Time values and serial day numbers
// counted from 1899-12-30. Empty cells, zero, serials outside 1..100000 and
// dates outside 1900..2100 yield nil.
func ExcelDate(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return dateOnly(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return dateOnly(d)
			}
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return serialDate(n)
	default:
		n, ok := number(v)
		if !ok {
			return nil
		}
		return serialDate(n)
	}
}

func serialDate(n float64) *time.Time {
	if !finite(n) || n < 1 || n > 100000 {
		return nil
	}
	return dateOnly(excelEpoch.Add(time.Duration(n * float64(24*time.Hour))))
}

func dateOnly(t time.Time) *time.Time {
	if t.Year() < 1900 || t.Year() > 2100 {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// ParseNPS reads a nominal pipe size such as 6, "6", `6"`, "3/4" or "1-1/2".
// Empty or unreadable values yield nil.
func ParseNPS(v any) *float64 {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
		s = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(s), "in"))
		if s == "" {
			return nil
		}
		if f, ok := fraction(s); ok {
			return &f
		}
		return decimal(s)
	}
	return decimal(v)
}

// fraction parses "a/b", "w a/b" and "w-a/b".
func fraction(s string) (float64, bool) {
	if !strings.Contains(s, "/") {
		return 0, false
	}
	whole := 0.0
	frac := s
	if i := strings.IndexAny(s, " -"); i > 0 {
		w, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			return 0, false
		}
		whole, frac = w, strings.TrimSpace(s[i+1:])
	}
	num, den, ok := strings.Cut(frac, "/")
	if !ok {
		return 0, false
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0, false
	}
	f := whole + n/d
	return f, finite(f)
}

// str renders a cell as trimmed text. Whole numbers print without a decimal
// point so a revision typed as 2 in a spreadsheet reads "2".
func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return str(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return ""
	}
}

// number reads a numeric cell. Strings accept a decimal comma. NaN and
// infinities are rejected.
func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, finite(t)
	case float32:
		return float64(t), finite(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, finite(f)
	default:
		return 0, false
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func decimal(v any) *float64 {
	f, ok := number(v)
	if !ok {
		return nil
	}
	return &f
}

// integer reads a whole-number cell; values outside the int64 range read
// as 0.
func integer(v any) int {
	f, ok := number(v)
	if !ok || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0
	}
	return int(f)
}

// flag is true for true, 1 and "1" (and "true", "si", "x").
func flag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "si", "sí", "x":
			return true
		}
		return false
	default:
		f, ok := number(v)
		return ok && f == 1
	}
}
