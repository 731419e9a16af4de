// Package faker generates plausible replacement values for detected PII
// so anonymized documents stay readable. Values are formatted like the
// originals (valid check digits included) but carry no real data.
//
// A Generator owns its own seeded randomness instead of touching the
// process-wide source, so concurrent or repeated runs are reproducible
// and never interfere with each other. The same original always maps to
// the same replacement within one Generator, preserving cross-references
// inside a document.
package faker

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"github.com/veilware/veil/internal/detect"
)

var firstNamesMale = []string{
	"Jan", "Andrzej", "Krzysztof", "Stanisław", "Tomasz", "Paweł",
	"Józef", "Marcin", "Marek", "Michał", "Piotr", "Kamil",
	"Adam", "Łukasz", "Zbigniew", "Ryszard", "Dariusz", "Henryk",
}

var firstNamesFemale = []string{
	"Anna", "Maria", "Katarzyna", "Małgorzata", "Agnieszka", "Barbara",
	"Ewa", "Krystyna", "Elżbieta", "Zofia", "Janina", "Teresa",
	"Magdalena", "Monika", "Joanna", "Beata", "Dorota", "Renata",
}

var lastNames = []string{
	"Nowak", "Kowalski", "Wiśniewski", "Wójcik", "Kowalczyk", "Kamiński",
	"Lewandowski", "Zieliński", "Szymański", "Woźniak", "Dąbrowski",
	"Kozłowski", "Jankowski", "Mazur", "Kwiatkowski", "Krawczyk",
	"Piotrowski", "Grabowski", "Nowakowski", "Pawłowski", "Michalski",
}

var cities = []string{
	"Warszawa", "Kraków", "Łódź", "Wrocław", "Poznań", "Gdańsk",
	"Szczecin", "Bydgoszcz", "Lublin", "Białystok", "Katowice",
	"Gdynia", "Częstochowa", "Radom", "Sosnowiec", "Toruń",
}

var streetTypes = []string{"ul.", "al.", "pl.", "os."}

var streetNames = []string{
	"Marszałkowska", "Królewska", "Piękna", "Złota", "Mokotowska",
	"Powstańców", "Słowackiego", "Mickiewicza", "Kościuszki", "Sienkiewicza",
}

var mobilePrefixes = []string{
	"501", "502", "503", "505", "510", "511", "530", "531",
	"570", "571", "600", "601", "602", "605", "608", "609",
}

var emailDomains = []string{"example.pl", "test.com.pl", "demo.pl", "sample.org.pl"}

type cacheKey struct {
	category detect.Category
	original string
}

// Generator produces fake replacement values. Safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	cache map[cacheKey]string
}

// New returns a Generator seeded deterministically: the same seed and
// the same sequence of requests always yield the same replacements.
func New(seed int64) *Generator {
	return &Generator{
		rng:   rand.New(rand.NewSource(seed)),
		cache: make(map[cacheKey]string),
	}
}

// Replacement returns a fake value for the given category and original.
// Repeated calls with the same pair return the cached value. Categories
// without a fake generator fall back to the category placeholder tag.
func (g *Generator) Replacement(cat detect.Category, original string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := cacheKey{category: cat, original: original}
	if v, ok := g.cache[key]; ok {
		return v
	}

	v := g.generate(cat, original)
	g.cache[key] = v
	return v
}

func (g *Generator) generate(cat detect.Category, original string) string {
	switch cat {
	case detect.CategoryName, detect.CategoryPerson:
		return g.fakeName(original)
	case detect.CategoryPESEL:
		return g.fakePESEL()
	case detect.CategoryNIP:
		return g.fakeNIP()
	case detect.CategoryREGON:
		return g.fakeREGON()
	case detect.CategoryIBAN:
		return g.fakeIBAN()
	case detect.CategoryCard:
		return g.fakeCard()
	case detect.CategoryIDCard:
		return g.fakeIDCard()
	case detect.CategoryPhone:
		return g.fakePhone(original)
	case detect.CategoryAddress:
		return g.fakeAddress()
	case detect.CategoryPostalCode:
		return g.fakePostal()
	case detect.CategoryLocation:
		return cities[g.rng.Intn(len(cities))]
	case detect.CategoryEmail:
		return g.fakeEmail()
	case detect.CategoryUUID:
		return g.fakeUUID()
	case detect.CategoryTransactionID:
		return g.fakeHex(len(original))
	case detect.CategoryGenericNumber, detect.CategoryAlphanumID:
		return g.reshape(original)
	default:
		return cat.Placeholder()
	}
}

// fakeName picks a gender-matched first name: Polish feminine first
// names end in "a".
func (g *Generator) fakeName(original string) string {
	first := strings.Fields(original)
	feminine := len(first) > 0 && strings.HasSuffix(strings.ToLower(first[0]), "a")

	var given string
	if feminine {
		given = firstNamesFemale[g.rng.Intn(len(firstNamesFemale))]
	} else {
		given = firstNamesMale[g.rng.Intn(len(firstNamesMale))]
	}
	surname := lastNames[g.rng.Intn(len(lastNames))]
	if feminine {
		surname = feminineSurname(surname)
	}
	return given + " " + surname
}

func feminineSurname(s string) string {
	if strings.HasSuffix(s, "ki") {
		return s[:len(s)-1] + "a"
	}
	return s
}

var peselWeights = [10]int{1, 3, 7, 9, 1, 3, 7, 9, 1, 3}

// fakePESEL builds an 11-digit value with a plausible embedded birth
// date and a correct control digit.
func (g *Generator) fakePESEL() string {
	body := fmt.Sprintf("%02d%02d%02d%03d%d",
		50+g.rng.Intn(50), // year
		1+g.rng.Intn(12),  // month
		1+g.rng.Intn(28),  // day
		100+g.rng.Intn(900),
		g.rng.Intn(10))
	sum := 0
	for i, w := range peselWeights {
		sum += int(body[i]-'0') * w
	}
	return body + string(byte('0'+(10-sum%10)%10))
}

var nipWeights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

// fakeNIP emits the common XXX-XXX-XX-XX formatting. Bodies whose
// weighted sum leaves remainder 10 have no valid control digit and are
// redrawn.
func (g *Generator) fakeNIP() string {
	for {
		body := make([]byte, 9)
		body[0] = byte('1' + g.rng.Intn(9))
		for i := 1; i < 9; i++ {
			body[i] = byte('0' + g.rng.Intn(10))
		}
		sum := 0
		for i, w := range nipWeights {
			sum += int(body[i]-'0') * w
		}
		if sum%11 == 10 {
			continue
		}
		digits := string(body) + string(byte('0'+sum%11))
		return digits[0:3] + "-" + digits[3:6] + "-" + digits[6:8] + "-" + digits[8:10]
	}
}

var regon9Weights = [8]int{8, 9, 2, 3, 4, 5, 6, 7}

func (g *Generator) fakeREGON() string {
	body := make([]byte, 8)
	body[0] = byte('1' + g.rng.Intn(9))
	for i := 1; i < 8; i++ {
		body[i] = byte('0' + g.rng.Intn(10))
	}
	sum := 0
	for i, w := range regon9Weights {
		sum += int(body[i]-'0') * w
	}
	control := sum % 11
	if control == 10 {
		control = 0
	}
	return string(body) + string(byte('0'+control))
}

// fakeIBAN builds a Polish IBAN: 24 random BBAN digits plus check digits
// derived from the standard mod-97 rearrangement, 28 characters total.
func (g *Generator) fakeIBAN() string {
	bban := make([]byte, 24)
	for i := range bban {
		bban[i] = byte('0' + g.rng.Intn(10))
	}
	// "PL00" rearranged to the tail expands to digits 25 21 00.
	check := 98 - mod97(string(bban)+"252100")
	return fmt.Sprintf("PL%02d%s", check, bban)
}

func mod97(digits string) int {
	r := 0
	for i := 0; i < len(digits); i++ {
		r = (r*10 + int(digits[i]-'0')) % 97
	}
	return r
}

// fakeCard emits a Luhn-valid 16-digit number grouped in fours.
func (g *Generator) fakeCard() string {
	body := make([]byte, 15)
	body[0] = byte('2' + g.rng.Intn(5))
	for i := 1; i < 15; i++ {
		body[i] = byte('0' + g.rng.Intn(10))
	}
	// The check digit sits at even distance zero from the right; every
	// second digit left of it doubles.
	sum := 0
	alt := true
	for i := 14; i >= 0; i-- {
		d := int(body[i] - '0')
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	digits := string(body) + string(byte('0'+(10-sum%10)%10))
	return digits[0:4] + " " + digits[4:8] + " " + digits[8:12] + " " + digits[12:16]
}

var idCardWeights = [8]int{7, 3, 1, 7, 3, 1, 7, 3}

// fakeIDCard emits three letters and six digits with the control digit
// in the fourth position.
func (g *Generator) fakeIDCard() string {
	chars := make([]byte, 9)
	for i := 0; i < 3; i++ {
		chars[i] = byte('A' + g.rng.Intn(26))
	}
	for i := 4; i < 9; i++ {
		chars[i] = byte('0' + g.rng.Intn(10))
	}
	positions := [8]int{0, 1, 2, 4, 5, 6, 7, 8}
	sum := 0
	for i, pos := range positions {
		v := int(chars[pos] - '0')
		if chars[pos] >= 'A' {
			v = 10 + int(chars[pos]-'A')
		}
		sum += v * idCardWeights[i]
	}
	chars[3] = byte('0' + sum%10)
	return string(chars)
}

func (g *Generator) fakePhone(original string) string {
	prefix := mobilePrefixes[g.rng.Intn(len(mobilePrefixes))]
	rest := fmt.Sprintf("%03d %03d", 100+g.rng.Intn(900), 100+g.rng.Intn(900))
	if strings.Contains(original, "+48") {
		return "+48 " + prefix + " " + rest
	}
	return prefix + " " + rest
}

func (g *Generator) fakeAddress() string {
	street := streetTypes[g.rng.Intn(len(streetTypes))] + " " +
		streetNames[g.rng.Intn(len(streetNames))] + " " +
		fmt.Sprint(1+g.rng.Intn(200))
	if g.rng.Intn(10) < 3 {
		street += "/" + fmt.Sprint(1+g.rng.Intn(50))
	}
	return street
}

func (g *Generator) fakePostal() string {
	return fmt.Sprintf("%02d-%03d", 10+g.rng.Intn(90), 100+g.rng.Intn(900))
}

func (g *Generator) fakeEmail() string {
	user := make([]byte, 8)
	for i := range user {
		user[i] = byte('a' + g.rng.Intn(26))
	}
	return string(user) + "@" + emailDomains[g.rng.Intn(len(emailDomains))]
}

func (g *Generator) fakeUUID() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// rand.Rand.Read never fails.
		return uuid.Nil.String()
	}
	return id.String()
}

func (g *Generator) fakeHex(n int) string {
	if n < 8 {
		n = 8
	}
	const hexDigits = "0123456789abcdef"
	out := make([]byte, n)
	for i := range out {
		out[i] = hexDigits[g.rng.Intn(len(hexDigits))]
	}
	return string(out)
}

// reshape replaces each digit and letter of the original with a random
// character of the same class, keeping separators and case in place.
func (g *Generator) reshape(original string) string {
	out := make([]rune, 0, len(original))
	firstDigit := true
	for _, r := range original {
		switch {
		case unicode.IsDigit(r):
			if firstDigit {
				out = append(out, rune('1'+g.rng.Intn(9)))
				firstDigit = false
			} else {
				out = append(out, rune('0'+g.rng.Intn(10)))
			}
		case r >= 'A' && r <= 'Z':
			out = append(out, rune('A'+g.rng.Intn(26)))
		case r >= 'a' && r <= 'z':
			out = append(out, rune('a'+g.rng.Intn(26)))
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
