package args

// Value is a single decoded argument: either a text field or a raw
// binary payload (a file-bearing multipart part).
type Value struct {
	Text   string
	Data   []byte
	Binary bool
}

// TextValue wraps a text argument.
func TextValue(s string) Value {
	return Value{Text: s}
}

// BinaryValue wraps a raw byte payload.
func BinaryValue(data []byte) Value {
	return Value{Data: data, Binary: true}
}

// Arguments maps argument names to values. Keys are unique; when the
// same name is decoded more than once the last write wins, which is how
// body arguments take precedence over URI arguments of the same name.
type Arguments map[string]Value

// Text returns the text value for key. The second return is false if the
// key is absent or holds a binary payload.
func (a Arguments) Text(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v.Binary {
		return "", false
	}
	return v.Text, true
}

// Bytes returns the binary payload for key. The second return is false
// if the key is absent or holds a text value.
func (a Arguments) Bytes(key string) ([]byte, bool) {
	v, ok := a[key]
	if !ok || !v.Binary {
		return nil, false
	}
	return v.Data, true
}

// SetText stores a text argument, overwriting any previous value.
func (a Arguments) SetText(key, value string) {
	a[key] = TextValue(value)
}

// SetBinary stores a binary argument, overwriting any previous value.
func (a Arguments) SetBinary(key string, data []byte) {
	a[key] = BinaryValue(data)
}
