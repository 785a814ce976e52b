package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ptime "github.com/yaa110/go-persian-calendar"
)

func TestDigits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"persian digits", "۱۲۳۴۵۶۷۸۹۰", "1234567890"},
		{"arabic indic digits", "٣٤٥", "345"},
		{"mixed with text", "کارمزد ۵۰۰۰ ریال", "کارمزد 5000 ریال"},
		{"ascii untouched", "tracking 42", "tracking 42"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Digits(tt.in))
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"arabic yeh to persian", "علي", "علی"},
		{"arabic kaf to persian", "كريم", "کریم"},
		{"teh marbuta", "شركة", "شرکه"},
		{"tatweel stripped", "بـانـک", "بانک"},
		{"whitespace collapsed", "  واریز   وجه \t نقد ", "واریز وجه نقد"},
		{"digits converted", "حواله ۱۲۳", "حواله 123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestOnlyDigits(t *testing.T) {
	assert.Equal(t, "0104813180001", OnlyDigits("حساب ۰۱۰۴۸۱۳۱۸۰۰۰۱ بانک"))
	assert.Equal(t, "", OnlyDigits("بدون شماره"))
	assert.Equal(t, "12345", OnlyDigits("a1b2c3d4e5"))
}

func TestDateJalali(t *testing.T) {
	opts := Options{Location: time.UTC}

	tests := []struct {
		name string
		in   string
		y    int
		m    int
		d    int
	}{
		{"slash separated", "1403/05/12", 1403, 5, 12},
		{"dash separated", "1403-05-12", 1403, 5, 12},
		{"persian digits", "۱۴۰۳/۰۵/۱۲", 1403, 5, 12},
		{"compact eight digit", "14030512", 1403, 5, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Date(tt.in, opts)
			require.True(t, ok)
			want := ptime.Date(tt.y, ptime.Month(tt.m), tt.d, 0, 0, 0, 0, time.UTC).Time()
			assert.Equal(t, want.Year(), got.Year())
			assert.Equal(t, want.Month(), got.Month())
			assert.Equal(t, want.Day(), got.Day())
		})
	}
}

func TestDateGregorian(t *testing.T) {
	opts := Options{Location: time.UTC}
	got, ok := Date("2024-08-02", opts)
	require.True(t, ok)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.August, got.Month())
	assert.Equal(t, 2, got.Day())
}

func TestDateRejectsGarbage(t *testing.T) {
	opts := Options{Location: time.UTC}
	for _, in := range []string{"", "not a date", "1403/13/40", "99/99"} {
		_, ok := Date(in, opts)
		assert.False(t, ok, "input %q should not parse", in)
	}
}

func TestDateOrTodayFallback(t *testing.T) {
	opts := Options{DefaultBadDatesToToday: true, Location: time.UTC}
	got := DateOrToday("garbage", opts)
	now := time.Now().UTC()
	assert.Equal(t, now.Year(), got.Year())
	assert.Equal(t, now.YearDay(), got.YearDay())

	strict := Options{DefaultBadDatesToToday: false, Location: time.UTC}
	assert.True(t, DateOrToday("garbage", strict).IsZero())
}
