package generation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Category is the content category hint passed to the provider.
type Category string

// Known categories. Other values are accepted as free-form hints.
const (
	CategoryGeneral     Category = "general"
	CategoryFood        Category = "food"
	CategoryTravel      Category = "travel"
	CategoryPhotography Category = "photography"
	CategoryFashion     Category = "fashion"
	CategoryFitness     Category = "fitness"
	CategoryBusiness    Category = "business"
	CategoryLifestyle   Category = "lifestyle"
	CategoryNature      Category = "nature"
	CategoryTechnology  Category = "technology"
)

// Mood is the tone hint passed to the provider.
type Mood string

// Known moods. Other values are accepted as free-form hints.
const (
	MoodCasual        Mood = "casual"
	MoodProfessional  Mood = "professional"
	MoodFunny         Mood = "funny"
	MoodInspirational Mood = "inspirational"
	MoodRomantic      Mood = "romantic"
	MoodInformative   Mood = "informative"
	MoodExcited       Mood = "excited"
)

// Defaults applied by Normalize.
const (
	DefaultCategory = CategoryGeneral
	DefaultMood     = MoodCasual
	DefaultLanguage = "en"
)

// Validation messages returned to callers.
const (
	MsgMissingInput    = "Please provide either a location or keyword"
	MsgInvalidLanguage = "Language code must be at least 2 characters"
	MsgLanguageTooLong = "Language code must be at most 8 characters"
)

// RawRequest is caller input as received at the boundary.
type RawRequest struct {
	Location string `json:"location"`
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
	Mood     string `json:"mood"`
	Language string `json:"language"`
}

// GenerationRequest is a normalized request. Location and Keyword are never
// both empty.
type GenerationRequest struct {
	Location string
	Keyword  string
	Category Category
	Mood     Mood
	Language string `validate:"min=2,max=8"`
}

var validate = validator.New()

// Normalize trims every field, applies defaults and validates the result.
// Location-only and keyword-only requests are both accepted.
func Normalize(raw RawRequest) (GenerationRequest, error) {
	req := GenerationRequest{
		Location: strings.TrimSpace(raw.Location),
		Keyword:  strings.TrimSpace(raw.Keyword),
		Category: Category(strings.ToLower(strings.TrimSpace(raw.Category))),
		Mood:     Mood(strings.ToLower(strings.TrimSpace(raw.Mood))),
		Language: strings.ToLower(strings.TrimSpace(raw.Language)),
	}

	if req.Location == "" && req.Keyword == "" {
		return GenerationRequest{}, &ValidationError{Field: "input", Message: MsgMissingInput}
	}

	if req.Category == "" {
		req.Category = DefaultCategory
	}
	if req.Mood == "" {
		req.Mood = DefaultMood
	}
	if req.Language == "" {
		req.Language = DefaultLanguage
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msg := MsgInvalidLanguage
			if len(verrs) > 0 && verrs[0].Tag() == "max" {
				msg = MsgLanguageTooLong
			}
			return GenerationRequest{}, &ValidationError{Field: "language", Message: msg}
		}
		return GenerationRequest{}, err
	}

	return req, nil
}

// NormalizeCategory trims and lower-cases a category, falling back to the default.
func NormalizeCategory(raw string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if c == "" {
		return DefaultCategory
	}
	return c
}

// ImageMode selects what is produced from an uploaded image.
type ImageMode string

const (
	ImageModeContent ImageMode = "content"
	ImageModeOCR     ImageMode = "ocr"
)

// MsgInvalidMode is returned for an unknown image mode.
const MsgInvalidMode = "Mode must be either content or ocr"

// ParseImageMode normalizes raw, defaulting to content mode.
func ParseImageMode(raw string) (ImageMode, error) {
	switch m := ImageMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ImageModeContent, nil
	case ImageModeContent, ImageModeOCR:
		return m, nil
	default:
		return "", &ValidationError{Field: "mode", Message: MsgInvalidMode}
	}
}
