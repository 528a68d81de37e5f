// Package httputil renders the runtime's wire contract: JSON response
// bodies, the fixed error documents, and JSONP wrapping.
package httputil

import (
	"encoding/json"

	"github.com/neakor/hemera/pkg/rest"
)

// ContentTypeJSON is the content type of every committed response body,
// including JSONP-wrapped ones.
const ContentTypeJSON = "application/json"

// Fixed error document messages.
const (
	MessageServerError        = "A server error has occurred."
	MessageServiceUnavailable = "Requested service has been disabled."
	PrefixNotFound            = "No such service provided: "
	PrefixBadRequest          = "Invalid request: "
)

// errorDocument is the fixed error body for 4xx/5xx/503 conditions.
// Field order is part of the contract.
type errorDocument struct {
	HTTPStatus string `json:"http_status"`
	Exception  string `json:"exception"`
}

// ErrorDocument renders `{"http_status":"<NAME>","exception":"<msg>"}`
// for a failure status.
func ErrorDocument(status rest.Status, message string) []byte {
	body, err := json.Marshal(errorDocument{
		HTTPStatus: status.Name(),
		Exception:  message,
	})
	if err != nil {
		// Marshaling two strings cannot fail; keep the contract anyway.
		return []byte(`{"http_status":"` + status.Name() + `"}`)
	}
	return body
}

// WrapJSONP wraps a JSON body as `callback(json)`. The callback name is
// caller-controlled and intentionally not validated or escaped, matching
// conventional JSONP semantics.
func WrapJSONP(callback string, body []byte) []byte {
	wrapped := make([]byte, 0, len(callback)+len(body)+2)
	wrapped = append(wrapped, callback...)
	wrapped = append(wrapped, '(')
	wrapped = append(wrapped, body...)
	wrapped = append(wrapped, ')')
	return wrapped
}
