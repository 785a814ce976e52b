package normalize

import (
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"

	"RahkaranSync/internal/model"
)

// Options controls the best-effort behavior of the normalizer. A malformed
// date must not block the rest of a batch, so by default it falls back to
// today instead of failing.
type Options struct {
	DefaultBadDatesToToday bool
	Location               *time.Location
}

func DefaultOptions() Options {
	loc, err := time.LoadLocation("Asia/Tehran")
	if err != nil {
		loc = time.UTC
	}
	return Options{DefaultBadDatesToToday: true, Location: loc}
}

var digitMap = map[rune]rune{
	// Persian digits
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
	// Arabic-Indic digits
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
}

// Digits converts Persian and Arabic-Indic digits to ASCII.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if d, ok := digitMap[r]; ok {
			b.WriteRune(d)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Text standardizes statement text: ASCII digits, unified Persian letters
// (Arabic yeh/kaf variants), tatweel stripped, whitespace collapsed.
func Text(s string) string {
	s = Digits(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case 'ي', 'ئ':
			b.WriteRune('ی')
		case 'ك':
			b.WriteRune('ک')
		case 'ة':
			b.WriteRune('ه')
		case 'ـ': // tatweel
		case '‌': // zero-width non-joiner
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// OnlyDigits strips everything but ASCII digits (after digit conversion).
// Used for account-number matching against scanned statement text.
func OnlyDigits(s string) string {
	s = Digits(s)
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var gregorianLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"2006.01.02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Date parses a statement date that may be Jalali ("1403/05/12", "14030512")
// or Gregorian. Years in the 1100-1599 range are treated as Jalali. Returns
// ok=false when nothing parses; the caller decides the fallback.
func Date(raw string, opts Options) (time.Time, bool) {
	raw = strings.TrimSpace(Digits(raw))
	if raw == "" {
		return time.Time{}, false
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	if y, m, d, ok := splitYMD(raw); ok {
		if y >= 1100 && y < 1600 {
			if m >= 1 && m <= 12 && d >= 1 && d <= 31 {
				pt := ptime.Date(y, ptime.Month(m), d, 0, 0, 0, 0, loc)
				return pt.Time(), true
			}
			return time.Time{}, false
		}
	}

	for _, layout := range gregorianLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateOrToday is the batch-friendly wrapper around Date.
func DateOrToday(raw string, opts Options) time.Time {
	if t, ok := Date(raw, opts); ok {
		return t
	}
	if opts.DefaultBadDatesToToday {
		loc := opts.Location
		if loc == nil {
			loc = time.UTC
		}
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	}
	return time.Time{}
}

func splitYMD(raw string) (y, m, d int, ok bool) {
	for _, sep := range []string{"/", "-", "."} {
		parts := strings.Split(raw, sep)
		if len(parts) == 3 {
			y, okY := atoi(parts[0])
			m, okM := atoi(parts[1])
			d, okD := atoi(parts[2])
			if okY && okM && okD {
				return y, m, d, true
			}
		}
	}
	// compact form: 14030512
	if len(raw) == 8 {
		y, okY := atoi(raw[:4])
		m, okM := atoi(raw[4:6])
		d, okD := atoi(raw[6:8])
		if okY && okM && okD {
			return y, m, d, true
		}
	}
	return 0, 0, 0, false
}

func atoi(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// Transaction returns a normalized copy: cleaned description and guess,
// ASCII digits in tracking code, best-effort date kept as-is when already
// parsed upstream.
func Transaction(t model.Transaction, opts Options) model.Transaction {
	t.RawDescription = Text(t.RawDescription)
	t.CounterpartyGuess = Text(t.CounterpartyGuess)
	t.TrackingCode = strings.TrimSpace(Digits(t.TrackingCode))
	t.Time = strings.TrimSpace(Digits(t.Time))
	if t.Date.IsZero() {
		t.Date = DateOrToday("", opts)
	}
	return t
}
