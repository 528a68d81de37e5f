package httputil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neakor/hemera/pkg/rest"
)

func TestErrorDocument(t *testing.T) {
	t.Parallel()

	t.Run("service unavailable document is exact", func(t *testing.T) {
		t.Parallel()
		body := ErrorDocument(rest.StatusServiceUnavailable, MessageServiceUnavailable)
		assert.Equal(t,
			`{"http_status":"C503_ServiceUnavailable","exception":"Requested service has been disabled."}`,
			string(body))
	})

	t.Run("not found document carries the failing URI", func(t *testing.T) {
		t.Parallel()
		body := ErrorDocument(rest.StatusNotFound, PrefixNotFound+"/nope?q=1")
		assert.Equal(t,
			`{"http_status":"C404_NotFound","exception":"No such service provided: /nope?q=1"}`,
			string(body))
	})

	t.Run("server error document leaks no detail", func(t *testing.T) {
		t.Parallel()
		body := ErrorDocument(rest.StatusInternalServerError, MessageServerError)
		assert.Equal(t,
			`{"http_status":"C500_InternalServerError","exception":"A server error has occurred."}`,
			string(body))
	})
}

func TestWrapJSONP(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `foo({"x":1})`, string(WrapJSONP("foo", []byte(`{"x":1}`))))
	// The callback name is caller-controlled and passed through as-is.
	assert.Equal(t, `a.b({})`, string(WrapJSONP("a.b", []byte(`{}`))))
}
