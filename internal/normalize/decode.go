package normalize

import (
	"encoding/json"
	"strings"

	"github.com/backstage-cms/uploadcare-media/pkg/errors"
)

// Decode collapses string-encoded JSON until a native container is reached.
// It returns the decoded value and the number of unwrap passes performed.
// Intermediate decodes may yield another string (values were sometimes
// encoded several times over); a string that is not valid JSON, or that
// decodes to a non-container scalar, is a boundary and stays as-is.
func Decode(value any) (any, int) {
	current := value
	decodes := 0
	for {
		s, ok := current.(string)
		if !ok {
			return current, decodes
		}
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return current, decodes
		}

		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
			return current, decodes
		}

		switch next := parsed.(type) {
		case map[string]any, []any:
			return parsed, decodes + 1
		case string:
			if next == s {
				return current, decodes
			}
			current = next
			decodes++
		default:
			return current, decodes
		}
	}
}

// DecodeStored parses a raw value column and collapses any residual string
// encoding. The top level must resolve to a container; anything else is
// malformed and the row is skipped by callers.
func DecodeStored(raw string) (any, int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, 0, errors.New(errors.CodeValidation, "value is empty")
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, 0, errors.Wrap(errors.CodeValidation, err, "value is not valid JSON")
	}

	decoded, decodes := Decode(parsed)
	switch decoded.(type) {
	case map[string]any, []any:
		return decoded, decodes, nil
	default:
		return nil, decodes, errors.New(errors.CodeValidation, "value does not decode to a container")
	}
}

// EncodeStored serializes a rewritten tree back into the value column form.
func EncodeStored(node any) (string, error) {
	data, err := json.Marshal(node)
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, err, "encoding rewritten value")
	}
	return string(data), nil
}
