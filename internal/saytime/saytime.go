// Package saytime renders clock times as spoken Chinese phrases.
package saytime

import (
	"fmt"
	"strings"
	"time"
)

var digits = []rune("零一二三四五六七八九十")

// Number spells n, 0 through 99, in Chinese numerals.
func Number(n int) (string, error) {
	switch {
	case n < 0 || n >= 100:
		return "", fmt.Errorf("saytime: %d out of range 0-99", n)
	case n <= 10:
		return string(digits[n]), nil
	case n < 20:
		return string([]rune{digits[10], digits[n-10]}), nil
	case n%10 == 0:
		return string([]rune{digits[n/10], digits[10]}), nil
	default:
		return string([]rune{digits[n/10], digits[10], digits[n%10]}), nil
	}
}

// Phrase renders hour and minute on a twelve-hour clock, for example
// "兩點半" for 14:30 or "十點零五分" for 10:05.
func Phrase(hour, minute int) (string, error) {
	if hour < 0 || hour > 23 {
		return "", fmt.Errorf("saytime: hour %d out of range", hour)
	}
	if minute < 0 || minute > 59 {
		return "", fmt.Errorf("saytime: minute %d out of range", minute)
	}

	hour %= 12
	if hour == 0 {
		hour = 12
	}

	var b strings.Builder
	if hour == 2 {
		b.WriteString("兩")
	} else {
		h, _ := Number(hour)
		b.WriteString(h)
	}
	b.WriteString("點")

	switch {
	case minute == 0:
		b.WriteString("整")
	case minute == 30:
		b.WriteString("半")
	default:
		if minute < 10 {
			b.WriteString("零")
		}
		m, _ := Number(minute)
		b.WriteString(m)
		b.WriteString("分")
	}
	return b.String(), nil
}

// At renders the wall-clock time of t.
func At(t time.Time) string {
	s, _ := Phrase(t.Hour(), t.Minute())
	return s
}
