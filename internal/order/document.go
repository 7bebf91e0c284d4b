package order

import "regexp"

// FallbackCPF is a checksum-valid generic CPF sent when the buyer gives none.
// It only exists to pass provider-side validation; it identifies nobody.
const FallbackCPF = "52998224725"

var nonDigits = regexp.MustCompile(`[^\d]`)

func digitsOnly(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// SanitizeDocument strips formatting from a CPF. Anything that is not exactly
// 11 digits is replaced by FallbackCPF and reported with ok=false.
func SanitizeDocument(doc string) (sanitized string, ok bool) {
	d := digitsOnly(doc)
	if len(d) != 11 {
		return FallbackCPF, false
	}
	return d, true
}

// ValidCPF checks the two CPF check digits.
func ValidCPF(doc string) bool {
	d := digitsOnly(doc)
	if len(d) != 11 {
		return false
	}
	allSame := true
	for i := 1; i < 11; i++ {
		if d[i] != d[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	check := func(n int) byte {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (n + 1 - i)
		}
		r := (sum * 10) % 11
		if r == 10 {
			r = 0
		}
		return byte(r) + '0'
	}
	return check(9) == d[9] && check(10) == d[10]
}
