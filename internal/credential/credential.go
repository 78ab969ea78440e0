// Package credential performs local, shape-only validation of provider API
// keys so that malformed keys are reported before any network call would
// fail remotely with an opaque 401.
package credential

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	// MinLength is the minimum accepted trimmed key length.
	MinLength = 40
	// LongWarningLength is the length above which a key is flagged as unusually long.
	LongWarningLength = 100

	prefixLength = 7
	suffixLength = 4
)

// Key types reported in Details.
const (
	TypeProject  = "project"
	TypeStandard = "standard"
	TypeInvalid  = "invalid"
)

// Recognized prefixes, longest first so that the most specific one is stripped.
var prefixes = []string{"sk-proj-", "sk-pro-", "sk-"}

var validChars = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Structure holds the structural-validity flags of a key.
type Structure struct {
	HasPrefix          bool `json:"hasPrefix"`
	HasValidLength     bool `json:"hasValidLength"`
	ContainsValidChars bool `json:"containsValidChars"`
}

// Details is the diagnostic breakdown of a key. It never holds the full key.
type Details struct {
	Length         int       `json:"length"`
	OriginalLength int       `json:"originalLength"`
	Prefix         string    `json:"prefix"`
	Suffix         string    `json:"suffix"`
	Type           string    `json:"type"`
	ContainsSpaces bool      `json:"containsSpaces"`
	HasWhitespace  bool      `json:"hasWhitespace"`
	WasTrimmed     bool      `json:"wasTrimmed"`
	HasValidChars  bool      `json:"hasValidChars"`
	Structure      Structure `json:"structure"`
}

// String renders the details in a form safe for logs.
func (d Details) String() string {
	return fmt.Sprintf("type=%s length=%d prefix=%s suffix=%s", d.Type, d.Length, d.Prefix, d.Suffix)
}

// Result is the verdict for a single key.
type Result struct {
	Valid    bool     `json:"valid"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
	Details  Details  `json:"details"`
}

// Validate checks the shape of raw and returns the verdict. A key is valid if
// and only if no issues were found; warnings never affect validity.
func Validate(raw string) Result {
	res := Result{
		Issues:   []string{},
		Warnings: []string{},
	}

	trimmed := strings.TrimSpace(raw)
	res.Details = describe(raw, trimmed)

	if raw == "" {
		res.Issues = append(res.Issues, "API key is empty")
		return res
	}

	if res.Details.WasTrimmed {
		res.Issues = append(res.Issues, "API key contains leading or trailing whitespace")
	}
	if strings.Contains(trimmed, " ") {
		res.Issues = append(res.Issues, "API key contains spaces")
	} else if strings.IndexFunc(trimmed, unicode.IsSpace) >= 0 {
		res.Issues = append(res.Issues, "API key contains whitespace characters")
	}

	if len(trimmed) < MinLength {
		res.Issues = append(res.Issues, fmt.Sprintf(
			"API key length (%d) is too short. Expected at least %d characters", len(trimmed), MinLength))
	}

	prefix, ok := matchPrefix(trimmed)
	if !ok {
		res.Issues = append(res.Issues, "API key must start with sk-, sk-pro-, or sk-proj-")
	} else if !validChars.MatchString(strings.TrimPrefix(trimmed, prefix)) {
		res.Issues = append(res.Issues, "API key contains invalid characters")
	}

	if len(trimmed) > LongWarningLength {
		res.Warnings = append(res.Warnings, "API key is unusually long")
	}

	res.Valid = len(res.Issues) == 0
	return res
}

// IsValid is shorthand for Validate(raw).Valid.
func IsValid(raw string) bool {
	return Validate(raw).Valid
}

func describe(raw, trimmed string) Details {
	prefix, hasPrefix := matchPrefix(trimmed)
	rest := strings.TrimPrefix(trimmed, prefix)
	validRest := rest != "" && validChars.MatchString(rest)

	d := Details{
		Length:         len(trimmed),
		OriginalLength: len(raw),
		ContainsSpaces: strings.Contains(raw, " "),
		HasWhitespace:  strings.IndexFunc(raw, unicode.IsSpace) >= 0,
		WasTrimmed:     trimmed != raw,
		HasValidChars:  validRest,
		Structure: Structure{
			HasPrefix:          hasPrefix,
			HasValidLength:     len(trimmed) >= MinLength,
			ContainsValidChars: validRest,
		},
	}

	if len(trimmed) >= prefixLength {
		d.Prefix = trimmed[:prefixLength]
	}
	if len(trimmed) >= prefixLength+suffixLength {
		d.Suffix = trimmed[len(trimmed)-suffixLength:]
	}

	switch {
	case trimmed == "":
		d.Type = TypeInvalid
	case strings.HasPrefix(trimmed, "sk-pro-"), strings.HasPrefix(trimmed, "sk-proj-"):
		d.Type = TypeProject
	default:
		d.Type = TypeStandard
	}
	return d
}

func matchPrefix(key string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return p, true
		}
	}
	return "", false
}
