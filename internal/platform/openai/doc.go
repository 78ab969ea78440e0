// Package openai implements the generation.Provider boundary over the OpenAI
// REST API. Each call issues exactly one HTTP request; retrying is left to the
// caller.
//
// The configured key is shape-checked with the credential package when the
// client is built, and a malformed key fails every call locally with an AUTH
// classified error instead of reaching the network.
package openai
