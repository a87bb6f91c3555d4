// Package canonical produces the deterministic payload serialization that
// confirmation tokens and audit snapshots are bound to.
//
// Output is compact JSON with object keys in ascending order, "," and ":" as
// the only separators, no HTML escaping and every string NFC normalized, so
// two payloads that differ only in field order or Unicode composition encode
// to the same bytes. Floats are rejected: a token must bind an exact value.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// Marshal returns the canonical encoding of payload.
func Marshal(payload map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, payload); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MustMarshal is Marshal for payloads built from known-good literals.
func MustMarshal(payload map[string]any) string {
	s, err := Marshal(payload)
	if err != nil {
		panic(err)
	}
	return s
}

// Decode parses a canonical payload back into a generic map.
func Decode(s string) (map[string]any, error) {
	out := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode canonical payload: %w", err)
	}
	return out, nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		return writeString(buf, val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case int32:
		fmt.Fprintf(buf, "%d", val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case json.Number:
		if _, err := val.Int64(); err != nil {
			return fmt.Errorf("non-integer number %q in canonical payload", val)
		}
		buf.WriteString(val.String())
	case float32, float64:
		return fmt.Errorf("floats are not allowed in canonical payloads: %v", val)
	case map[string]any:
		return writeObject(buf, val)
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return writeValue(buf, items)
	default:
		return fmt.Errorf("unsupported type %T in canonical payload", v)
	}
	return nil
}

func writeObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, obj[k]); err != nil {
			return fmt.Errorf("%q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// Encode appends a newline.
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}
