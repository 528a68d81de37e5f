package rest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	t.Parallel()

	t.Run("known methods", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			in   string
			want Method
		}{
			{"GET", GET},
			{"get", GET},
			{"POST", POST},
			{"PUT", PUT},
			{"DELETE", DELETE},
		}
		for _, tt := range tests {
			m, err := ParseMethod(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		}
	})

	t.Run("unknown method is an error", func(t *testing.T) {
		t.Parallel()
		_, err := ParseMethod("PATCH")
		assert.Error(t, err)
		_, err = ParseMethod("")
		assert.Error(t, err)
	})
}

func TestStatusName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "C200_OK", StatusOK.Name())
	assert.Equal(t, "C307_TemporaryRedirect", StatusTemporaryRedirect.Name())
	assert.Equal(t, "C400_BadRequest", StatusBadRequest.Name())
	assert.Equal(t, "C404_NotFound", StatusNotFound.Name())
	assert.Equal(t, "C500_InternalServerError", StatusInternalServerError.Name())
	assert.Equal(t, "C503_ServiceUnavailable", StatusServiceUnavailable.Name())

	// Codes outside the named set still get a stable name.
	assert.Equal(t, "C418_Imateapot", Status(418).Name())
	assert.Equal(t, "C599", Status(599).Name())
}

func TestSplitPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"/users/42/avatar", []string{"users", "42", "avatar"}},
		{"/users//42/", []string{"users", "42"}},
		{"/", []string{}},
		{"", []string{}},
		{"/search?q=x", []string{"search"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitPath(tt.in), "input %q", tt.in)
	}
}

// stubResource satisfies Resource for registry tests.
type stubResource struct{ name string }

func (s *stubResource) Processor([]string, Method) Processor { return nil }

func TestPathRegistry(t *testing.T) {
	t.Parallel()

	t.Run("resolves exact patterns", func(t *testing.T) {
		t.Parallel()
		registry := NewPathRegistry()
		users := &stubResource{name: "users"}
		require.NoError(t, registry.Add("/users", users))

		assert.Same(t, users, registry.Resolve([]string{"users"}, GET))
		assert.Nil(t, registry.Resolve([]string{"orders"}, GET))
	})

	t.Run("placeholders match any segment", func(t *testing.T) {
		t.Parallel()
		registry := NewPathRegistry()
		user := &stubResource{name: "user"}
		require.NoError(t, registry.Add("/users/{id}", user))

		assert.Same(t, user, registry.Resolve([]string{"users", "42"}, GET))
		assert.Nil(t, registry.Resolve([]string{"users"}, GET), "segment count must match")
		assert.Nil(t, registry.Resolve([]string{"users", "42", "x"}, GET))
	})

	t.Run("literal match beats placeholder", func(t *testing.T) {
		t.Parallel()
		registry := NewPathRegistry()
		byID := &stubResource{name: "byID"}
		self := &stubResource{name: "self"}
		require.NoError(t, registry.Add("/users/{id}", byID))
		require.NoError(t, registry.Add("/users/self", self))

		assert.Same(t, self, registry.Resolve([]string{"users", "self"}, GET))
		assert.Same(t, byID, registry.Resolve([]string{"users", "42"}, GET))
	})

	t.Run("duplicate pattern is rejected", func(t *testing.T) {
		t.Parallel()
		registry := NewPathRegistry()
		require.NoError(t, registry.Add("/users/{id}", &stubResource{}))
		assert.Error(t, registry.Add("/users/{name}", &stubResource{}), "placeholders are equivalent")
		assert.Error(t, registry.Add("/users/{id}", &stubResource{}))
	})

	t.Run("rejects nil resource and empty pattern", func(t *testing.T) {
		t.Parallel()
		registry := NewPathRegistry()
		assert.Error(t, registry.Add("/users", nil))
		assert.Error(t, registry.Add("/", &stubResource{}))
	})
}
