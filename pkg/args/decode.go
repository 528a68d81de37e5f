package args

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// Decode produces one merged argument set from a request's raw query
// string and, when body is non-nil, its entity body. URI arguments are
// decoded first and body arguments overwrite them on key collision:
// bodies are considered more specific than URIs, so body wins.
//
// contentType is the request's Content-Type header value, including
// parameters; it selects between multipart and URL-encoded body decoding
// and carries the declared charset (default UTF-8).
func Decode(rawQuery string, body io.Reader, contentType string) (Arguments, error) {
	arguments := make(Arguments)
	decodePairs(arguments, rawQuery)

	if body == nil {
		return arguments, nil
	}

	mediaType, params := parseContentType(contentType)
	if strings.Contains(mediaType, "multipart") {
		if err := decodeMultipart(arguments, body, params["boundary"]); err != nil {
			return nil, err
		}
		return arguments, nil
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if len(raw) == 0 {
		return arguments, nil
	}
	text, err := decodeCharset(raw, params["charset"])
	if err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	decodePairs(arguments, text)
	return arguments, nil
}

// parseContentType splits a Content-Type value into its media type and
// parameters, tolerating a malformed or empty value.
func parseContentType(contentType string) (string, map[string]string) {
	if contentType == "" {
		return "", nil
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType)), nil
	}
	return mediaType, params
}

// decodePairs decodes s as &-separated key=value pairs into dst. A pair
// with a missing name or missing value is a partial token from the query
// syntax and is skipped rather than failing the whole parse, as is a
// pair that cannot be percent-unescaped.
func decodePairs(dst Arguments, s string) {
	for _, pair := range strings.Split(s, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" || value == "" {
			continue
		}
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		dst.SetText(decodedKey, decodedValue)
	}
}

// decodeCharset converts raw bytes in the named IANA charset to a UTF-8
// string. An empty or UTF-8 name is the identity conversion.
func decodeCharset(raw []byte, charset string) (string, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(raw), nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return "", fmt.Errorf("unsupported charset %q", charset)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode charset %q: %w", charset, err)
	}
	return string(decoded), nil
}

// errMissingBoundary reports a multipart body whose content type carries
// no boundary parameter.
var errMissingBoundary = errors.New("multipart body without boundary parameter")
