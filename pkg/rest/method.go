package rest

import (
	"fmt"
	"strings"
)

// Method is the closed enumeration of HTTP methods a processor can be
// registered for.
type Method int

// Supported methods.
const (
	GET Method = iota
	POST
	PUT
	DELETE
)

// ParseMethod maps an HTTP method token to the enumeration. An unknown
// method is a client error, not a routing miss.
func ParseMethod(s string) (Method, error) {
	switch strings.ToUpper(s) {
	case "GET":
		return GET, nil
	case "POST":
		return POST, nil
	case "PUT":
		return PUT, nil
	case "DELETE":
		return DELETE, nil
	default:
		return 0, fmt.Errorf("unsupported HTTP method %q", s)
	}
}

// String returns the method token.
func (m Method) String() string {
	switch m {
	case GET:
		return "GET"
	case POST:
		return "POST"
	case PUT:
		return "PUT"
	case DELETE:
		return "DELETE"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}
