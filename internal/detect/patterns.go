package detect

import "regexp"

// plUpper / plLower are the Polish letter classes used by the name and
// address patterns.
const (
	plUpper = "A-ZĄĆĘŁŃÓŚŻŹ"
	plLower = "a-ząćęłńóśżź"
)

// Candidate patterns. Go's regexp (RE2) has no lookaround, so patterns
// that the source language guarded with (?<!\d)/(?!\d) are matched wide
// here and trimmed by the boundary checks in detectors.go.
var (
	// Two letters, two check digits, then at least 11 more alphanumeric
	// characters with optional single separators. Uppercase only; a
	// case-insensitive class would greedily swallow following words.
	reIBAN = regexp.MustCompile(`\b[A-Z]{2}\d{2}(?:[ -]?[A-Z0-9]){11,}\b`)

	// Card numbers: 13-19 digits, first digit 2-6 to cut false positives,
	// optional single space/hyphen separators. Luhn-gated afterwards.
	reCard = regexp.MustCompile(`[2-6](?:[ -]?\d){12,18}`)

	// 11 digits with optional separators; PESEL-checksum-gated.
	rePESEL = regexp.MustCompile(`\d(?:[ -]?\d){10}`)

	// 10 digits in 3-3-2-2 grouping; NIP-checksum-gated.
	reNIP = regexp.MustCompile(`\d{3}[ -]?\d{3}[ -]?\d{2}[ -]?\d{2}`)

	// REGON: bare 9- or 14-digit runs; checksum-gated.
	reREGON9  = regexp.MustCompile(`\d{9}`)
	reREGON14 = regexp.MustCompile(`\d{14}`)

	// Polish ID card: 3 letters, optional single space, 6 digits.
	reIDCard = regexp.MustCompile(`\b[A-Za-z]{3} ?\d{6}\b`)

	// Postal code NN-NNN.
	rePostal = regexp.MustCompile(`\b\d{2}-\d{3}\b`)

	// UUID v1-v5.
	reUUID = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}\b`)

	// Transaction/reference IDs following trigger keywords; group 1 is the
	// token itself.
	reTransactionKeyword = regexp.MustCompile(`(?i)\b(?:id|identyfikator|transakcj[a-ząęio]*|nr|numer|reference|ref)\s*[:#]?\s*([A-Z0-9]{8,}|[0-9a-f]{16,})`)

	// Standalone long hex tokens, 16-64 characters; hex-boundary-checked.
	reLongHex = regexp.MustCompile(`[0-9a-fA-F]{16,64}`)

	// Address line: street-type keyword, street name (Polish letters,
	// hyphens, optional Roman numeral), house/apartment number, optional
	// ", NN-NNN City" suffix. Case folding is scoped to the keyword so
	// the city stays anchored to capitalized words.
	reAddress = regexp.MustCompile(
		`\b(?i:ul\.|ulica|al\.|aleja|pl\.|plac|os\.|osiedle|rynek|rondo|bulwar|skwer|droga|deptak)` +
			`\s+[` + plUpper + plLower + `][` + plUpper + plLower + `. -]{0,60}?(?:\b(?:I{1,3}|IV|V|VI{1,3}|IX|X)\b\s*)?` +
			`\d+[A-Za-z]?(?:\s*/\s*\d+[A-Za-z]?)?(?:\s*(?:m\.|lok\.)\s*\d+[A-Za-z]?)?` +
			`(?:\s*,\s*\d{2}-\d{3}\s+[` + plUpper + `][` + plLower + `]+(?:[- ][` + plUpper + `][` + plLower + `]+)*)?`)

	// Name heuristics over the capitalized-word lexical class.
	reFullName = regexp.MustCompile(
		`\b([` + plUpper + `][` + plLower + `]+)` +
			`\s+([` + plUpper + `][` + plLower + `]+(?:-[` + plUpper + `][` + plLower + `]+)?)\b`)
	reInitialSurname = regexp.MustCompile(
		`\b([` + plUpper + `])\.\s*([` + plUpper + `][` + plLower + `]+(?:-[` + plUpper + `][` + plLower + `]+)?)\b`)
	reHonorificName = regexp.MustCompile(
		`\b(?i:pan|pani)\s+([` + plUpper + `][` + plLower + `]+)\b`)

	// Polish phone shapes: optional +48, landline 2-3-2-2 with optional
	// parenthesised area code, or mobile 3-3-3. Digit-boundary-checked.
	// Near a keyword the group separators may be omitted; standalone
	// matches require them (or the +48 prefix) so bare 9-digit runs fall
	// through to the generic number pass.
	phoneKeywordBody = `(?:\+\s*48[ \-.]?)?(?:\(\s*\d{2}\s*\)[ \-.]?\d{3}[ \-.]?\d{2}[ \-.]?\d{2}|\d{2}[ \-.]?\d{3}[ \-.]?\d{2}[ \-.]?\d{2}|\d{3}[ \-.]?\d{3}[ \-.]?\d{3})`
	phoneBareBody    = `\+\s*48[ \-.]?\d{9}|(?:\+\s*48[ \-.]?)?(?:\(\s*\d{2}\s*\)[ \-.]?\d{3}[ \-.]?\d{2}[ \-.]?\d{2}|\d{2}[ \-.]\d{3}[ \-.]\d{2}[ \-.]\d{2}|\d{3}[ \-.]\d{3}[ \-.]\d{3})`

	rePhoneKeyword = regexp.MustCompile(`(?i)\b(?:tel(?:efon)?u?\.?|kom\.?|mobile|kontakt(?:\s+tel\.)?)\s*[:\-]?\s*(` + phoneKeywordBody + `)`)
	rePhoneGeneral = regexp.MustCompile(phoneBareBody)

	// Generic numeric fallbacks, used only for spans no stricter category
	// claimed.
	reDecimalNumber    = regexp.MustCompile(`\d+\.\d+`)
	reFormattedNumber  = regexp.MustCompile(`\d[\d\-./_,]*\d`)
	reInteger          = regexp.MustCompile(`\d+`)
	reAlphanumFallback = regexp.MustCompile(`\b[A-Za-z0-9]{4,}\b`)
)
