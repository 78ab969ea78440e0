// Package classify maps low-level failures (HTTP status codes, error messages,
// typed provider errors) into the small taxonomy of user-facing error kinds
// reported at the API boundary.
//
// All call sites funnel through Classify or FromError; nothing else in the
// application inspects provider error text.
package classify
