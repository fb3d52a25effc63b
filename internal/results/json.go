package results

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalJSON writes records as a compact JSON array of objects. Keys keep
// record order and strings are not HTML-escaped, so the same records always
// produce the same bytes.
func MarshalJSON(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeRecord(&buf, rec); err != nil {
			return nil, fmt.Errorf("record[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalIndent is MarshalJSON with two-space indentation.
func MarshalIndent(records []Record) ([]byte, error) {
	compact, err := MarshalJSON(records)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// MarshalStrings writes a JSON array of strings, used for store listings.
func MarshalStrings(items []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, s := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalString(s)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler so a Record can be embedded in
// other encoded structures.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeRecord(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRecord(buf *bytes.Buffer, rec Record) error {
	buf.WriteByte('{')
	for i, f := range rec {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(f.Name)
		if err != nil {
			return fmt.Errorf("key %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		switch v := f.Value.(type) {
		case String:
			b, err := marshalString(string(v))
			if err != nil {
				return fmt.Errorf("value for key %q: %w", f.Name, err)
			}
			buf.Write(b)
		case Number:
			buf.WriteString(string(v))
		default:
			return fmt.Errorf("value for key %q: unsupported type %T", f.Name, f.Value)
		}
	}
	buf.WriteByte('}')
	return nil
}

// marshalString encodes s as a JSON string without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	// json.Encoder adds a trailing newline
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
