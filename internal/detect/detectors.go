package detect

import (
	"regexp"
	"strings"

	"github.com/veilware/veil/internal/checksum"
)

// Dictionaries optionally gate the name heuristics. When a set is
// non-empty, candidates must match it (higher precision); empty sets keep
// every lexical match (higher recall). The precision/recall trade-off is
// the caller's call.
type Dictionaries struct {
	FirstNames map[string]struct{}
	Surnames   map[string]struct{}
}

// Thresholds configure the generic numeric/alphanumeric fallback
// detectors.
type Thresholds struct {
	MinNumericLength      int
	PreserveSmallIntegers bool
	SmallIntegerMax       int
	AlphanumMinLength     int
}

func detectIBAN(text string) []Candidate {
	var out []Candidate
	for _, loc := range reIBAN.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		if checksum.IBAN(raw) {
			out = append(out, newCandidate(loc[0], loc[1], raw, CategoryIBAN))
		}
	}
	return out
}

func detectCard(text string) []Candidate {
	var out []Candidate
	for _, loc := range reCard.FindAllStringIndex(text, -1) {
		if !digitBoundary(text, loc[0], loc[1]) {
			continue
		}
		raw := text[loc[0]:loc[1]]
		if checksum.Luhn(raw) {
			out = append(out, newCandidate(loc[0], loc[1], raw, CategoryCard))
		}
	}
	return out
}

func detectPESEL(text string) []Candidate {
	var out []Candidate
	for _, loc := range rePESEL.FindAllStringIndex(text, -1) {
		if !digitBoundary(text, loc[0], loc[1]) {
			continue
		}
		raw := text[loc[0]:loc[1]]
		if checksum.PESEL(raw) {
			out = append(out, newCandidate(loc[0], loc[1], raw, CategoryPESEL))
		}
	}
	return out
}

func detectNIP(text string) []Candidate {
	var out []Candidate
	for _, loc := range reNIP.FindAllStringIndex(text, -1) {
		if !digitBoundary(text, loc[0], loc[1]) {
			continue
		}
		raw := text[loc[0]:loc[1]]
		if checksum.NIP(raw) {
			out = append(out, newCandidate(loc[0], loc[1], raw, CategoryNIP))
		}
	}
	return out
}

func detectREGON(text string) []Candidate {
	var out []Candidate
	for _, re := range []*regexp.Regexp{reREGON14, reREGON9} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if !digitBoundary(text, loc[0], loc[1]) {
				continue
			}
			raw := text[loc[0]:loc[1]]
			if checksum.REGON(raw) {
				out = append(out, newCandidate(loc[0], loc[1], raw, CategoryREGON))
			}
		}
	}
	return out
}

func detectIDCard(text string) []Candidate {
	var out []Candidate
	for _, loc := range reIDCard.FindAllStringIndex(text, -1) {
		raw := text[loc[0]:loc[1]]
		if checksum.IDCard(raw) {
			out = append(out, newCandidate(loc[0], loc[1], raw, CategoryIDCard))
		}
	}
	return out
}

func detectPostalCode(text string) []Candidate {
	var out []Candidate
	for _, loc := range rePostal.FindAllStringIndex(text, -1) {
		out = append(out, newCandidate(loc[0], loc[1], text[loc[0]:loc[1]], CategoryPostalCode))
	}
	return out
}

func detectUUID(text string) []Candidate {
	var out []Candidate
	for _, loc := range reUUID.FindAllStringIndex(text, -1) {
		out = append(out, newCandidate(loc[0], loc[1], text[loc[0]:loc[1]], CategoryUUID))
	}
	return out
}

func detectTransactionIDs(text string) []Candidate {
	var out []Candidate
	for _, m := range reTransactionKeyword.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		if start < 0 {
			continue
		}
		out = append(out, newCandidate(start, end, text[start:end], CategoryTransactionID))
	}
	for _, loc := range reLongHex.FindAllStringIndex(text, -1) {
		if !hexBoundary(text, loc[0], loc[1]) {
			continue
		}
		out = append(out, newCandidate(loc[0], loc[1], text[loc[0]:loc[1]], CategoryTransactionID))
	}
	return out
}

func detectAddresses(text string) []Candidate {
	var out []Candidate
	for _, loc := range reAddress.FindAllStringIndex(text, -1) {
		out = append(out, newCandidate(loc[0], loc[1], text[loc[0]:loc[1]], CategoryAddress))
	}
	return out
}

func detectPhones(text string) []Candidate {
	var out []Candidate
	for _, m := range rePhoneKeyword.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		out = append(out, newCandidate(start, end, text[start:end], CategoryPhone))
	}
	for _, loc := range rePhoneGeneral.FindAllStringIndex(text, -1) {
		if !digitBoundary(text, loc[0], loc[1]) {
			continue
		}
		out = append(out, newCandidate(loc[0], loc[1], text[loc[0]:loc[1]], CategoryPhone))
	}
	return out
}

func detectNames(text string, dicts Dictionaries) []Candidate {
	var out []Candidate

	for _, m := range reFullName.FindAllStringSubmatchIndex(text, -1) {
		first := text[m[2]:m[3]]
		last := text[m[4]:m[5]]
		if !inDict(dicts.FirstNames, first) || !surnameInDict(dicts.Surnames, last) {
			continue
		}
		out = append(out, newCandidate(m[0], m[1], text[m[0]:m[1]], CategoryName))
	}

	for _, m := range reInitialSurname.FindAllStringSubmatchIndex(text, -1) {
		last := text[m[4]:m[5]]
		if !surnameInDict(dicts.Surnames, last) {
			continue
		}
		out = append(out, newCandidate(m[0], m[1], text[m[0]:m[1]], CategoryName))
	}

	for _, m := range reHonorificName.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[2]:m[3]]
		if !inDict(dicts.FirstNames, name) {
			continue
		}
		out = append(out, newCandidate(m[0], m[1], text[m[0]:m[1]], CategoryName))
	}

	return out
}

// detectGenericNumbers is the numeric fallback: decimal numbers,
// punctuated numeric groups, and plain integers that no stricter category
// claimed. Thresholds govern which tokens are kept.
func detectGenericNumbers(text string, claimed []Candidate, th Thresholds) []Candidate {
	var out []Candidate
	for _, re := range []*regexp.Regexp{reDecimalNumber, reFormattedNumber, reInteger} {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			cand := newCandidate(loc[0], loc[1], text[loc[0]:loc[1]], CategoryGenericNumber)
			if overlapsAny(cand, claimed) || overlapsAny(cand, out) {
				continue
			}
			digits := countDigits(cand.Value)
			if th.PreserveSmallIntegers && digits < th.MinNumericLength {
				if v, ok := smallIntValue(cand.Value); ok && v <= th.SmallIntegerMax {
					continue
				}
			}
			if digits < th.MinNumericLength {
				continue
			}
			out = append(out, cand)
		}
	}
	return out
}

// detectAlphanumIDs is the alphanumeric fallback: tokens mixing letters
// and digits, at least th.AlphanumMinLength long, outside claimed spans.
func detectAlphanumIDs(text string, claimed []Candidate, th Thresholds) []Candidate {
	var out []Candidate
	for _, loc := range reAlphanumFallback.FindAllStringIndex(text, -1) {
		cand := newCandidate(loc[0], loc[1], text[loc[0]:loc[1]], CategoryAlphanumID)
		if cand.Len() < th.AlphanumMinLength {
			continue
		}
		if !mixesLettersAndDigits(cand.Value) {
			continue
		}
		if overlapsAny(cand, claimed) || overlapsAny(cand, out) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// inDict reports whether name is in the dictionary; an empty dictionary
// accepts everything (ungated mode).
func inDict(dict map[string]struct{}, name string) bool {
	if len(dict) == 0 {
		return true
	}
	_, ok := dict[capitalize(name)]
	return ok
}

// surnameInDict matches a surname against the dictionary, also trying the
// first segment of a hyphenated surname and the opposite-gender suffix
// variant ("-ska" entries match "-ski" forms and vice versa).
func surnameInDict(dict map[string]struct{}, surname string) bool {
	if len(dict) == 0 {
		return true
	}
	candidates := []string{capitalize(surname)}
	if head, _, found := strings.Cut(surname, "-"); found {
		candidates = append(candidates, capitalize(head))
	}
	for _, c := range candidates {
		if _, ok := dict[c]; ok {
			return true
		}
		if v, ok := genderVariant(c); ok {
			if _, ok := dict[v]; ok {
				return true
			}
		}
	}
	return false
}

// genderVariant swaps the adjectival surname suffix between feminine and
// masculine forms (Kowalska <-> Kowalski).
func genderVariant(surname string) (string, bool) {
	for _, suffix := range []string{"ska", "cka", "dzka", "zka"} {
		if strings.HasSuffix(surname, suffix) {
			return surname[:len(surname)-1] + "i", true
		}
	}
	for _, suffix := range []string{"ski", "cki", "dzki", "zki"} {
		if strings.HasSuffix(surname, suffix) {
			return surname[:len(surname)-1] + "a", true
		}
	}
	return "", false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return strings.ToUpper(string(runes[0])) + strings.ToLower(string(runes[1:]))
}

// digitBoundary reports whether the span is not embedded in a longer
// digit run (the RE2 substitute for (?<!\d) ... (?!\d)).
func digitBoundary(text string, start, end int) bool {
	if start > 0 && isDigit(text[start-1]) {
		return false
	}
	if end < len(text) && isDigit(text[end]) {
		return false
	}
	return true
}

// hexBoundary is digitBoundary for hexadecimal runs.
func hexBoundary(text string, start, end int) bool {
	if start > 0 && isHex(text[start-1]) {
		return false
	}
	if end < len(text) && isHex(text[end]) {
		return false
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			n++
		}
	}
	return n
}

// smallIntValue parses s as a plain non-negative integer; punctuated
// tokens are not small integers.
func smallIntValue(s string) (int, bool) {
	if s == "" || len(s) > 9 {
		return 0, false
	}
	v := 0
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
		v = v*10 + int(s[i]-'0')
	}
	return v, true
}

func mixesLettersAndDigits(s string) bool {
	hasLetter, hasDigit := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isDigit(c):
			hasDigit = true
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			hasLetter = true
		}
	}
	return hasLetter && hasDigit
}

func overlapsAny(c Candidate, existing []Candidate) bool {
	for _, e := range existing {
		if c.Overlaps(e) {
			return true
		}
	}
	return false
}
