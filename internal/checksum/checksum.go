// Package checksum implements check-digit validation for the identifier
// formats veil detects: payment cards (Luhn), Polish PESEL, NIP and REGON
// numbers, Polish ID cards, and IBANs (ISO 13616 mod-97).
//
// All validators are pure functions. Separators (spaces, hyphens, dots)
// are stripped before validation, so "44 0514 0145 8" and "44051401458"
// always produce the same verdict.
package checksum

import "strings"

// Luhn reports whether the digits in s form a valid payment card number
// per the Luhn algorithm (ISO/IEC 7812). Card numbers must have 13-19
// digits after separator stripping.
func Luhn(s string) bool {
	digits := stripNonDigits(s)
	n := len(digits)
	if n < 13 || n > 19 {
		return false
	}
	sum := 0
	alt := false
	for i := n - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}

var peselWeights = [10]int{1, 3, 7, 9, 1, 3, 7, 9, 1, 3}

// PESEL reports whether s is a structurally valid PESEL number: exactly
// 11 digits whose weighted control sum matches the final digit. The
// embedded birth date is not re-derived; only the control digit is checked.
func PESEL(s string) bool {
	digits := stripNonDigits(s)
	if len(digits) != 11 {
		return false
	}
	sum := 0
	for i, w := range peselWeights {
		sum += int(digits[i]-'0') * w
	}
	control := (10 - (sum % 10)) % 10
	return control == int(digits[10]-'0')
}

var nipWeights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

// NIP reports whether s is a valid 10-digit Polish tax identifier.
// A weighted sum remainder of 10 has no valid check digit and is rejected.
func NIP(s string) bool {
	digits := stripNonDigits(s)
	if len(digits) != 10 {
		return false
	}
	sum := 0
	for i, w := range nipWeights {
		sum += int(digits[i]-'0') * w
	}
	control := sum % 11
	if control == 10 {
		return false
	}
	return control == int(digits[9]-'0')
}

var (
	regon9Weights  = [8]int{8, 9, 2, 3, 4, 5, 6, 7}
	regon14Weights = [13]int{2, 3, 4, 5, 6, 7, 8, 9, 2, 3, 4, 5, 6}
)

// REGON reports whether s is a valid 9- or 14-digit business registry
// number. A 14-digit REGON embeds a 9-digit REGON as its prefix, which
// must itself be valid.
func REGON(s string) bool {
	digits := stripNonDigits(s)
	switch len(digits) {
	case 9:
		sum := 0
		for i, w := range regon9Weights {
			sum += int(digits[i]-'0') * w
		}
		control := sum % 11
		if control == 10 {
			control = 0
		}
		return control == int(digits[8]-'0')
	case 14:
		if !REGON(digits[:9]) {
			return false
		}
		sum := 0
		for i, w := range regon14Weights {
			sum += int(digits[i]-'0') * w
		}
		control := sum % 11
		if control == 10 {
			control = 0
		}
		return control == int(digits[13]-'0')
	default:
		return false
	}
}

var idCardWeights = [8]int{7, 3, 1, 7, 3, 1, 7, 3}

// idCardPositions are the character positions that contribute to the
// control sum; position 3 holds the check digit itself.
var idCardPositions = [8]int{0, 1, 2, 4, 5, 6, 7, 8}

// IDCard reports whether s is a valid Polish ID card number: three
// letters followed by six digits, where the first digit is the check
// digit. Letters are valued A=10 through Z=35.
func IDCard(s string) bool {
	norm := stripNonAlnumUpper(s)
	if len(norm) != 9 {
		return false
	}
	for i := 0; i < 3; i++ {
		if norm[i] < 'A' || norm[i] > 'Z' {
			return false
		}
	}
	for i := 3; i < 9; i++ {
		if norm[i] < '0' || norm[i] > '9' {
			return false
		}
	}
	sum := 0
	for i, pos := range idCardPositions {
		sum += charValue(norm[pos]) * idCardWeights[i]
	}
	return sum%10 == int(norm[3]-'0')
}

// IBAN reports whether s is a valid IBAN: 15-34 alphanumeric characters
// whose mod-97 checksum equals 1. Polish IBANs must be exactly 28
// characters. The mod is computed over 7-digit chunks so the running
// value never exceeds the int64 range.
func IBAN(s string) bool {
	norm := stripNonAlnumUpper(s)
	if len(norm) < 15 || len(norm) > 34 {
		return false
	}
	if strings.HasPrefix(norm, "PL") && len(norm) != 28 {
		return false
	}
	rearranged := norm[4:] + norm[:4]

	// Expand letters to their two-digit values, then fold the resulting
	// digit string mod 97 in 7-digit chunks to keep the running value small.
	var digits []byte
	for i := 0; i < len(rearranged); i++ {
		c := rearranged[i]
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c >= 'A' && c <= 'Z':
			v := 10 + int(c-'A')
			digits = append(digits, byte('0'+v/10), byte('0'+v%10))
		default:
			return false
		}
	}

	remainder := 0
	for len(digits) > 0 {
		take := len(digits)
		if take > 7 {
			take = 7
		}
		for _, d := range digits[:take] {
			remainder = remainder*10 + int(d-'0')
		}
		remainder %= 97
		digits = digits[take:]
	}
	return remainder == 1
}

// charValue maps '0'-'9' to 0-9 and 'A'-'Z' to 10-35.
func charValue(c byte) int {
	if c >= '0' && c <= '9' {
		return int(c - '0')
	}
	return 10 + int(c-'A')
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func stripNonAlnumUpper(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'Z':
			b.WriteByte(c)
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		}
	}
	return b.String()
}
