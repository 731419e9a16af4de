// Package detect finds candidate PII spans in free-form text and resolves
// them into one non-overlapping, ordered selection.
//
// Detection is split into three sources: code-level detectors for the
// structural and heuristic categories (checksum-gated identifiers, phones,
// addresses, names), YAML-configured recognizers merged Presidio-style on
// top of the embedded defaults, and an optional external entity recognizer
// whose spans are merged under the same priority rules.
package detect

// Category identifies the kind of entity a span was matched as.
type Category string

// Built-in categories. External recognizers and custom YAML recognizers
// may introduce further categories; those resolve with DefaultPriority
// unless the recognizer sets its own.
const (
	CategoryIBAN          Category = "IBAN"
	CategoryCard          Category = "CARD_NUMBER"
	CategoryUUID          Category = "UUID"
	CategoryPESEL         Category = "PESEL"
	CategoryNIP           Category = "NIP"
	CategoryREGON         Category = "REGON"
	CategoryIDCard        Category = "ID_CARD"
	CategoryEmail         Category = "EMAIL"
	CategoryPhone         Category = "PHONE"
	CategoryAddress       Category = "ADDRESS"
	CategoryPostalCode    Category = "POSTAL_CODE"
	CategoryTransactionID Category = "TRANSACTION_ID"
	CategoryIPAddress     Category = "IP_ADDRESS"
	CategoryGenericNumber Category = "LONG_NUMBER"
	CategoryAlphanumID    Category = "ALPHANUM_ID"
	CategoryPerson        Category = "PERSON"
	CategoryOrganization  Category = "ORG"
	CategoryLocation      Category = "LOCATION"
	CategoryName          Category = "NAME"
)

// DefaultPriority is assigned to categories absent from the priority
// table (custom YAML recognizers without an explicit priority).
const DefaultPriority = 45

// categoryPriorities is the sole tie-break authority for overlap
// resolution. Detector registration order never matters: two candidates
// with equal priority and length fall back to this table's ordering,
// then to start offset.
var categoryPriorities = map[Category]int{
	CategoryIBAN:          100,
	CategoryCard:          95,
	CategoryUUID:          90,
	CategoryPESEL:         85,
	CategoryNIP:           80,
	CategoryREGON:         78,
	CategoryIDCard:        75,
	CategoryEmail:         73,
	CategoryPhone:         72,
	CategoryAddress:       70,
	CategoryPostalCode:    65,
	CategoryTransactionID: 60,
	CategoryIPAddress:     58,
	CategoryGenericNumber: 55,
	CategoryAlphanumID:    50,
	CategoryPerson:        40,
	CategoryOrganization:  38,
	CategoryLocation:      36,
	CategoryName:          10,
}

// defaultPlaceholders maps each built-in category to its bracketed
// placeholder tag.
var defaultPlaceholders = map[Category]string{
	CategoryIBAN:          "[IBAN]",
	CategoryCard:          "[CARD_NUMBER]",
	CategoryUUID:          "[UUID]",
	CategoryPESEL:         "[PESEL]",
	CategoryNIP:           "[NIP]",
	CategoryREGON:         "[REGON]",
	CategoryIDCard:        "[ID_CARD]",
	CategoryEmail:         "[EMAIL]",
	CategoryPhone:         "[PHONE]",
	CategoryAddress:       "[ADDRESS]",
	CategoryPostalCode:    "[POSTAL_CODE]",
	CategoryTransactionID: "[TRANSACTION_ID]",
	CategoryIPAddress:     "[IP_ADDRESS]",
	CategoryGenericNumber: "[LONG_NUMBER]",
	CategoryAlphanumID:    "[ALPHANUM_ID]",
	CategoryPerson:        "[PERSON]",
	CategoryOrganization:  "[ORG]",
	CategoryLocation:      "[LOCATION]",
	CategoryName:          "[NAME]",
}

// PlaceholderUnknown is used for categories without a registered placeholder.
const PlaceholderUnknown = "[REDACTED]"

// Priority returns the category's fixed priority; higher wins overlap
// resolution.
func (c Category) Priority() int {
	if p, ok := categoryPriorities[c]; ok {
		return p
	}
	return DefaultPriority
}

// Placeholder returns the category's default placeholder tag.
func (c Category) Placeholder() string {
	if p, ok := defaultPlaceholders[c]; ok {
		return p
	}
	return PlaceholderUnknown
}

// externalCategories maps entity tags commonly produced by NER
// collaborators (spaCy / Presidio style) onto veil categories.
var externalCategories = map[string]Category{
	"PERSON":       CategoryPerson,
	"PER":          CategoryPerson,
	"ORG":          CategoryOrganization,
	"ORGANIZATION": CategoryOrganization,
	"GPE":          CategoryLocation,
	"LOC":          CategoryLocation,
	"LOCATION":     CategoryLocation,
}

// MapExternalCategory translates an external recognizer's entity tag
// into a veil category. Unknown tags pass through as-is so custom
// recognizer taxonomies still resolve (at DefaultPriority).
func MapExternalCategory(tag string) Category {
	if c, ok := externalCategories[tag]; ok {
		return c
	}
	return Category(tag)
}
