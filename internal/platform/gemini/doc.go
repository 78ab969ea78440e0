// Package gemini implements the generation.Provider boundary over Google's
// Gemini API using the google.golang.org/genai client.
//
// Like the OpenAI gateway it makes exactly one GenerateContent call per
// Complete invocation. Upstream failures are converted to
// generation.ProviderError values so that they classify the same way as
// OpenAI failures.
package gemini
