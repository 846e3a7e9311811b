// Package manifest builds the canonical projection of a finished document
// tree, the structural and semantic content hashes over it, and the export
// manifest consumed by rendering collaborators. Everything here serializes
// with sorted object keys and no incidental whitespace, the foundation of
// the determinism contract.
package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tsawler/docforge/fault"
)

// CanonicalJSON serializes a projection value with sorted object keys and
// compact separators. Only the projection vocabulary is accepted: nil,
// bool, int, float64, string, []any, and map[string]any.
func CanonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool, int, int64, float64, string:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("canonical json: unsupported type %T", v)
	}
	return nil
}

// HashProjection hashes the canonical UTF-8 bytes of a projection and
// returns the prefixed digest. A serialization failure is a PARSE error.
func HashProjection(v any) (string, error) {
	b, err := CanonicalJSON(v)
	if err != nil {
		return "", fault.ParseErr(fault.CodeStructuralHashFailure,
			"projection serialization failed",
			map[string]any{"cause": err.Error()})
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
