package generation

// GenerationResult is the structured caption output. Hashtags carry no
// leading '#' and contain no duplicates.
type GenerationResult struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
	Mood     Mood     `json:"mood,omitempty"`
	// Fallback is set when the provider output could not be parsed and the
	// documented default was substituted.
	Fallback bool `json:"-"`
}

// LocationData is the location information extracted during OCR. Type,
// Value and Confidence are nil when unknown.
type LocationData struct {
	Found      bool    `json:"found"`
	Type       *string `json:"type"`
	Value      *string `json:"value"`
	Confidence *string `json:"confidence"`
}

// TextBlock is one block of text recognized in an image.
type TextBlock struct {
	Content  string `json:"content"`
	Position string `json:"position"`
}

// OCRMetadata describes the layout of recognized text.
type OCRMetadata struct {
	Orientation string `json:"orientation"`
	Language    string `json:"language"`
	TextDensity string `json:"text_density"`
}

// OCRResult is the structured output of text extraction.
type OCRResult struct {
	Text         string       `json:"text"`
	Blocks       []TextBlock  `json:"blocks"`
	Metadata     OCRMetadata  `json:"metadata"`
	LocationData LocationData `json:"location_data"`
	Fallback     bool         `json:"-"`
}

// GPSData holds coordinates read from image EXIF metadata.
type GPSData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
