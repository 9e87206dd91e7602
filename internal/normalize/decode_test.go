package normalize

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/backstage-cms/uploadcare-media/pkg/errors"
)

func TestDecodeTerminatesAtEachDepth(t *testing.T) {
	want := []any{"a", "b"}

	for k := 1; k <= 5; k++ {
		encoded, err := json.Marshal(want)
		if err != nil {
			t.Fatalf("marshal container: %v", err)
		}
		payload := string(encoded)
		for i := 1; i < k; i++ {
			wrapped, err := json.Marshal(payload)
			if err != nil {
				t.Fatalf("marshal wrap %d: %v", i, err)
			}
			payload = string(wrapped)
		}

		decoded, decodes := Decode(payload)
		if decodes != k {
			t.Errorf("depth %d: expected %d unwraps, got %d", k, k, decodes)
		}
		if !reflect.DeepEqual(decoded, want) {
			t.Errorf("depth %d: unexpected result %v", k, decoded)
		}
	}
}

func TestDecodeStopsAtBoundaries(t *testing.T) {
	if decoded, n := Decode([]any{"native"}); n != 0 || !reflect.DeepEqual(decoded, []any{"native"}) {
		t.Errorf("native container should short-circuit, got %v after %d decodes", decoded, n)
	}

	if decoded, n := Decode("not json at all"); n != 0 || decoded != "not json at all" {
		t.Errorf("non-JSON string should stay put, got %v after %d decodes", decoded, n)
	}

	// "5" parses as a number, but a non-container scalar is a boundary.
	if decoded, n := Decode("5"); n != 0 || decoded != "5" {
		t.Errorf("numeric-looking string should stay put, got %v after %d decodes", decoded, n)
	}

	if decoded, n := Decode(nil); n != 0 || decoded != nil {
		t.Errorf("nil should short-circuit, got %v after %d decodes", decoded, n)
	}
}

func TestDecodeStored(t *testing.T) {
	decoded, decodes, err := DecodeStored(`{"rows":[]}`)
	if err != nil {
		t.Fatalf("decode stored: %v", err)
	}
	if decodes != 0 {
		t.Errorf("expected zero extra decodes, got %d", decodes)
	}
	if _, ok := decoded.(map[string]any); !ok {
		t.Errorf("expected map, got %T", decoded)
	}

	if _, _, err := DecodeStored("{broken"); !errors.IsCode(err, errors.CodeValidation) {
		t.Errorf("expected validation error for invalid JSON, got %v", err)
	}
	if _, _, err := DecodeStored(`"just a string"`); !errors.IsCode(err, errors.CodeValidation) {
		t.Errorf("expected validation error for scalar top level, got %v", err)
	}
	if _, _, err := DecodeStored("  "); !errors.IsCode(err, errors.CodeValidation) {
		t.Errorf("expected validation error for empty value, got %v", err)
	}
}

func TestEncodeStoredRoundTrip(t *testing.T) {
	raw, err := EncodeStored(map[string]any{"rows": []any{"01JX3B3V5W8YQ2M4N6P8R9ST0V"}})
	if err != nil {
		t.Fatalf("encode stored: %v", err)
	}
	decoded, _, err := DecodeStored(raw)
	if err != nil {
		t.Fatalf("decode stored: %v", err)
	}
	rows := decoded.(map[string]any)["rows"].([]any)
	if len(rows) != 1 || rows[0] != "01JX3B3V5W8YQ2M4N6P8R9ST0V" {
		t.Errorf("unexpected round trip result %v", decoded)
	}
}
