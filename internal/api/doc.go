// Package api handles incoming HTTP requests, request validation and
// response formatting. It acts as an adapter between HTTP clients and the
// caption service, translating classified service errors into the JSON
// error envelope.
package api
