// Package parse extracts structured results from raw provider output.
//
// Parsers never fail: malformed output yields the parser's documented default
// value, flagged with Fallback so callers can decide whether to retry.
package parse

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnparseable is returned by strict parsing when output matches no accepted shape.
var ErrUnparseable = errors.New("unable to parse provider output")

// Parser turns raw provider output into a result of type T.
type Parser[T any] interface {
	// Parse always returns a well-typed value, substituting Default on malformed input.
	Parse(raw string) T
	// Default is the value returned for malformed input.
	Default() T
}

// StripCodeFences removes a surrounding markdown code fence, which models
// often add around JSON answers.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an info string such as "json".
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{M}\p{N}_]+`)

// ExtractHashtags returns every hash-prefixed word in s, without the '#'.
func ExtractHashtags(s string) []string {
	matches := hashtagPattern.FindAllString(s, -1)
	return NormalizeHashtags(matches)
}

// NormalizeHashtags strips leading '#' characters and inner whitespace, drops
// empty entries and removes case-insensitive duplicates, keeping the first
// occurrence. The result is never nil.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(strings.TrimLeft(strings.TrimSpace(tag), "#")), "")
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
