package parse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/phrazzld/caption-api/internal/generation"
)

var (
	captionSection  = regexp.MustCompile(`(?is)CAPTION:\s*(.*?)\s*(?:HASHTAGS:|$)`)
	hashtagsSection = regexp.MustCompile(`(?is)HASHTAGS:(.*)$`)
)

// CaptionParser reads caption results. It accepts a JSON object with
// "caption" and "hashtags" fields, or free text with CAPTION: and HASHTAGS:
// section markers.
type CaptionParser struct{}

var _ Parser[generation.GenerationResult] = CaptionParser{}

// Default returns an empty caption with no hashtags.
func (CaptionParser) Default() generation.GenerationResult {
	return generation.GenerationResult{
		Caption:  "",
		Hashtags: []string{},
		Fallback: true,
	}
}

// Parse implements Parser.
func (p CaptionParser) Parse(raw string) generation.GenerationResult {
	res, err := p.Strict(raw)
	if err != nil {
		return p.Default()
	}
	return res
}

// Strict parses raw and reports ErrUnparseable instead of substituting the default.
func (CaptionParser) Strict(raw string) (generation.GenerationResult, error) {
	s := StripCodeFences(raw)

	if res, ok := parseCaptionJSON(s); ok {
		return res, nil
	}
	if res, ok := parseCaptionText(s); ok {
		return res, nil
	}
	return generation.GenerationResult{}, ErrUnparseable
}

type captionPayload struct {
	Caption  *string         `json:"caption"`
	Hashtags json.RawMessage `json:"hashtags"`
}

func parseCaptionJSON(s string) (generation.GenerationResult, bool) {
	if !strings.HasPrefix(s, "{") {
		return generation.GenerationResult{}, false
	}

	var payload captionPayload
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return generation.GenerationResult{}, false
	}
	if payload.Caption == nil || strings.TrimSpace(*payload.Caption) == "" {
		return generation.GenerationResult{}, false
	}

	var tags []string
	if len(payload.Hashtags) == 0 || json.Unmarshal(payload.Hashtags, &tags) != nil || tags == nil {
		return generation.GenerationResult{}, false
	}

	return generation.GenerationResult{
		Caption:  strings.TrimSpace(*payload.Caption),
		Hashtags: NormalizeHashtags(tags),
	}, true
}

func parseCaptionText(s string) (generation.GenerationResult, bool) {
	m := captionSection.FindStringSubmatch(s)
	if m == nil {
		return generation.GenerationResult{}, false
	}
	caption := strings.TrimSpace(m[1])
	if caption == "" {
		return generation.GenerationResult{}, false
	}

	hashtags := []string{}
	if h := hashtagsSection.FindStringSubmatch(s); h != nil {
		hashtags = ExtractHashtags(h[1])
	}

	return generation.GenerationResult{
		Caption:  caption,
		Hashtags: hashtags,
	}, true
}
