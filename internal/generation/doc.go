// Package generation holds the domain values of caption generation: the
// normalized request, the structured results, the prompts sent to the
// provider, and the Provider boundary that gateway implementations satisfy.
//
// Request normalization lives here so that every entry point (HTTP handlers,
// the operator CLI) produces identical GenerationRequest values before any
// network call is made.
package generation
