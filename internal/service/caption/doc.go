// Package caption implements the caption generation use cases.
//
// A Service validates caller input, builds the prompt, calls the configured
// generation.Provider under the retry policy, parses the raw answer into a
// typed result and classifies any failure. It holds no mutable state and is
// safe for concurrent use.
//
// Use cases:
//   - Generate: caption and hashtags from a location and/or keyword
//   - GenerateFromImage: caption or OCR from an uploaded image, with EXIF GPS
//   - Translate: caption translation into a target language
//   - TestKey: local and remote diagnosis of the provider credential
//
// Every error returned by a Service is a *classify.ClassifiedError.
package caption
