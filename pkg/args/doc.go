// Package args decodes a flat key/value argument set from a request's
// URI query string and body (URL-encoded or multipart).
package args
