// Package cpf validates Brazilian individual taxpayer numbers (CPF) and keeps
// ordered tallies of them.
package cpf

import (
	"strings"
)

// Length is the number of digits in a CPF, check digits included.
const Length = 11

// Normalize strips everything except the ASCII digits 0-9.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Valid reports whether s reduces to a CPF with correct check digits.
//
// Separators are ignored, so "529.982.247-25" and "52998224725" are both
// valid. Sequences of one repeated digit pass the checksum but are rejected.
func Valid(s string) bool {
	digits := Normalize(s)
	if len(digits) != Length || allSame(digits) {
		return false
	}

	d1, d2 := CheckDigits(digits[:9])
	return d1 == int(digits[9]-'0') && d2 == int(digits[10]-'0')
}

// CheckDigits computes the two check digits for a 9-digit CPF base.
// It returns -1, -1 when base is not exactly nine ASCII digits.
func CheckDigits(base string) (int, int) {
	if len(base) != 9 || Normalize(base) != base {
		return -1, -1
	}

	d1 := checkDigit(base, 10)
	d2 := checkDigit(base+string(rune('0'+d1)), 11)
	return d1, d2
}

// checkDigit weights the digits from startWeight down to 2.
func checkDigit(digits string, startWeight int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (startWeight - i)
	}
	if rest := sum % 11; rest >= 2 {
		return 11 - rest
	}
	return 0
}

// Format renders a CPF as 000.000.000-00. Inputs that do not reduce to
// eleven digits are returned unchanged.
func Format(s string) string {
	d := Normalize(s)
	if len(d) != Length {
		return s
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
