package parse

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/phrazzld/caption-api/internal/generation"
)

// Accepted enum values in location_data.
var (
	locationTypes       = []string{"address", "city", "region", "other"}
	locationConfidences = []string{"high", "medium", "low"}
)

// Metadata defaults used when the provider omits them.
const (
	DefaultOrientation = "horizontal"
	DefaultOCRLanguage = "unknown"
	DefaultTextDensity = "sparse"
)

// OCRParser reads text extraction results. The JSON object must carry a
// "text" string and a "blocks" array; anything else yields the default.
type OCRParser struct{}

var _ Parser[generation.OCRResult] = OCRParser{}

// Default returns an empty extraction with no location found.
func (OCRParser) Default() generation.OCRResult {
	return generation.OCRResult{
		Text:   "",
		Blocks: []generation.TextBlock{},
		Metadata: generation.OCRMetadata{
			Orientation: DefaultOrientation,
			Language:    DefaultOCRLanguage,
			TextDensity: DefaultTextDensity,
		},
		LocationData: generation.LocationData{Found: false},
		Fallback:     true,
	}
}

// Parse implements Parser.
func (p OCRParser) Parse(raw string) generation.OCRResult {
	res, err := p.Strict(raw)
	if err != nil {
		return p.Default()
	}
	return res
}

type ocrPayload struct {
	Text         *string         `json:"text"`
	Blocks       json.RawMessage `json:"blocks"`
	Metadata     *ocrMetadata    `json:"metadata"`
	LocationData *ocrLocation    `json:"location_data"`
}

type ocrMetadata struct {
	Orientation string `json:"orientation"`
	Language    string `json:"language"`
	TextDensity string `json:"text_density"`
}

type ocrLocation struct {
	Found      bool    `json:"found"`
	Type       *string `json:"type"`
	Value      *string `json:"value"`
	Confidence *string `json:"confidence"`
}

// Strict parses raw and reports ErrUnparseable instead of substituting the default.
func (p OCRParser) Strict(raw string) (generation.OCRResult, error) {
	s := StripCodeFences(raw)

	var payload ocrPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return generation.OCRResult{}, ErrUnparseable
	}
	if payload.Text == nil {
		return generation.OCRResult{}, ErrUnparseable
	}

	blocksRaw := bytes.TrimSpace(payload.Blocks)
	if len(blocksRaw) == 0 || blocksRaw[0] != '[' {
		return generation.OCRResult{}, ErrUnparseable
	}
	var blocks []generation.TextBlock
	if err := json.Unmarshal(blocksRaw, &blocks); err != nil {
		return generation.OCRResult{}, ErrUnparseable
	}
	if blocks == nil {
		blocks = []generation.TextBlock{}
	}

	res := p.Default()
	res.Fallback = false
	res.Text = *payload.Text
	res.Blocks = blocks

	if m := payload.Metadata; m != nil {
		if m.Orientation != "" {
			res.Metadata.Orientation = m.Orientation
		}
		if m.Language != "" {
			res.Metadata.Language = m.Language
		}
		if m.TextDensity != "" {
			res.Metadata.TextDensity = m.TextDensity
		}
	}

	if loc := payload.LocationData; loc != nil {
		res.LocationData = generation.LocationData{
			Found:      loc.Found,
			Type:       oneOf(loc.Type, locationTypes),
			Value:      nonEmpty(loc.Value),
			Confidence: oneOf(loc.Confidence, locationConfidences),
		}
	}

	return res, nil
}

func oneOf(v *string, allowed []string) *string {
	if v == nil {
		return nil
	}
	s := strings.ToLower(strings.TrimSpace(*v))
	if !slices.Contains(allowed, s) {
		return nil
	}
	return &s
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
