package rest

import (
	"fmt"
	"net/http"
)

// Status is an HTTP status code with a canonical name used in the wire
// contract's error documents.
type Status int

// Statuses produced by the dispatch core and commonly returned by
// processors.
const (
	StatusOK                  Status = http.StatusOK
	StatusCreated             Status = http.StatusCreated
	StatusAccepted            Status = http.StatusAccepted
	StatusNoContent           Status = http.StatusNoContent
	StatusTemporaryRedirect   Status = http.StatusTemporaryRedirect
	StatusBadRequest          Status = http.StatusBadRequest
	StatusUnauthorized        Status = http.StatusUnauthorized
	StatusForbidden           Status = http.StatusForbidden
	StatusNotFound            Status = http.StatusNotFound
	StatusInternalServerError Status = http.StatusInternalServerError
	StatusServiceUnavailable  Status = http.StatusServiceUnavailable
)

var statusNames = map[Status]string{
	StatusOK:                  "C200_OK",
	StatusCreated:             "C201_Created",
	StatusAccepted:            "C202_Accepted",
	StatusNoContent:           "C204_NoContent",
	StatusTemporaryRedirect:   "C307_TemporaryRedirect",
	StatusBadRequest:          "C400_BadRequest",
	StatusUnauthorized:        "C401_Unauthorized",
	StatusForbidden:           "C403_Forbidden",
	StatusNotFound:            "C404_NotFound",
	StatusInternalServerError: "C500_InternalServerError",
	StatusServiceUnavailable:  "C503_ServiceUnavailable",
}

// Code returns the numeric status code.
func (s Status) Code() int {
	return int(s)
}

// Name returns the canonical status name, e.g. "C404_NotFound".
func (s Status) Name() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	text := http.StatusText(int(s))
	if text == "" {
		return fmt.Sprintf("C%d", int(s))
	}
	return fmt.Sprintf("C%d_%s", int(s), strippedStatusText(text))
}

// strippedStatusText removes spaces and dashes from a status text so the
// generated name matches the CNNN_CamelCase convention.
func strippedStatusText(text string) string {
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '-' || c == '\'' {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
