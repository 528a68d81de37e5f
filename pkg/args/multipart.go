package args

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
)

// decodeMultipart streams a multipart body part by part into dst without
// materializing the whole body. Parts without a filename are plain form
// fields and are stored as text, decoded per the part's declared
// charset; file-bearing parts are stored as raw bytes. Parts are
// processed in stream order, so a reused field name keeps the later
// part's value. Any I/O failure aborts the whole decode: a partial
// argument set is not usable.
func decodeMultipart(dst Arguments, body io.Reader, boundary string) error {
	if boundary == "" {
		return errMissingBoundary
	}

	reader := multipart.NewReader(body, boundary)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read multipart part: %w", err)
		}

		name := part.FormName()
		if name == "" {
			// Not a form-data part; nothing to store it under.
			_ = part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return fmt.Errorf("read multipart part %q: %w", name, err)
		}

		if part.FileName() != "" {
			dst.SetBinary(name, data)
			continue
		}

		_, params := parseContentType(part.Header.Get("Content-Type"))
		text, err := decodeCharset(data, params["charset"])
		if err != nil {
			return fmt.Errorf("decode multipart field %q: %w", name, err)
		}
		dst.SetText(name, text)
	}
}
