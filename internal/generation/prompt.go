package generation

import (
	"fmt"
	"strings"
)

// Sampling settings per call type.
const (
	CaptionTemperature   float32 = 0.7
	CaptionMaxTokens             = 500
	VisionMaxTokens              = 1000
	OCRTemperature       float32 = 0.2
	TranslateTemperature float32 = 0.3
	TranslateMaxTokens           = 1000
)

var languageNames = map[string]string{
	"en": "English",
	"zh": "Chinese",
	"hi": "Hindi",
	"es": "Spanish",
	"ar": "Arabic",
	"fr": "French",
	"bn": "Bengali",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
}

// LookupLanguage returns the English name of a known ISO-639-1 code.
func LookupLanguage(code string) (string, bool) {
	name, ok := languageNames[strings.ToLower(code)]
	return name, ok
}

// LanguageName returns the English name of an ISO-639-1 code, defaulting to English.
func LanguageName(code string) string {
	if name, ok := LookupLanguage(code); ok {
		return name
	}
	return "English"
}

// CaptionSystemPrompt instructs the model to answer with a caption JSON object.
const CaptionSystemPrompt = `You are a creative social media content writer. Generate engaging captions and relevant hashtags.
You must respond with a valid JSON object containing exactly these fields:
{
  "caption": "Your engaging caption text here (do not include any hashtags in the caption)",
  "hashtags": ["tag1", "tag2", "tag3"]
}

Important rules:
1. Keep the caption concise and engaging
2. Do NOT include hashtags in the caption text
3. Include 5-7 relevant hashtags as separate words without # symbols
4. Do not include any other text or formatting in your response
5. Ensure the response is a valid JSON object`

// OCRPrompt asks the model to extract text and location hints from an image.
const OCRPrompt = `Extract and analyze all text in this image. Identify any location information such as addresses, cities, or geographical references. Return the results in JSON format with the following structure:

{
  "text": "all text combined",
  "blocks": [{"content": "text block", "position": "description of location"}],
  "location_data": {
    "found": boolean,
    "type": "address|city|region|other",
    "value": "extracted location",
    "confidence": "high|medium|low"
  }
}`

// BuildCaptionPrompt renders the user prompt for a normalized request.
func BuildCaptionPrompt(req GenerationRequest) string {
	var b strings.Builder
	switch {
	case req.Keyword != "" && req.Location != "":
		fmt.Fprintf(&b, "Generate a social media caption about %s at %s. ", req.Keyword, req.Location)
	case req.Location != "":
		fmt.Fprintf(&b, "Generate a social media caption about %s. ", req.Location)
	default:
		fmt.Fprintf(&b, "Generate a social media caption about %s. ", req.Keyword)
	}
	fmt.Fprintf(&b, "The content should be in the %s category with a %s tone. ", req.Category, req.Mood)
	fmt.Fprintf(&b, "Include relevant hashtags. The response should be in %s language.", LanguageName(req.Language))
	return b.String()
}

// CategoryGuidance returns extra instructions for a category.
func CategoryGuidance(c Category) string {
	switch c {
	case CategoryFood:
		return "Focus on culinary experiences, local cuisine, dining atmosphere, and foodie culture. Include popular food and culinary hashtags."
	case CategoryPhotography:
		return "Focus on photography opportunities, visual spots, lighting conditions, and artistic elements. Include popular photography and visual arts hashtags."
	case CategoryTravel:
		return "Focus on travel experiences, destination highlights, adventure opportunities, and cultural aspects. Include popular travel and destination hashtags."
	default:
		return "Focus on general appeal and broad reach."
	}
}

// BuildImagePrompt renders the prompt used to caption an uploaded image. The
// answer is expected in the CAPTION:/HASHTAGS: text format.
func BuildImagePrompt(c Category) string {
	return fmt.Sprintf(`Generate engaging social media content for this %s image. %s Include:
1. A captivating caption (2-3 sentences)
2. 8-10 relevant hashtags

Format the response as:
CAPTION:
[your caption]

HASHTAGS:
[your hashtags]`, c, CategoryGuidance(c))
}

// BuildTranslateSystemPrompt renders the system prompt for a translation.
func BuildTranslateSystemPrompt(targetLanguage string) string {
	return fmt.Sprintf("You are a professional translator. Translate the following text to %s. "+
		"Maintain the same tone and style, including any emojis or special characters. "+
		"Only respond with the translated text, nothing else.", targetLanguage)
}
