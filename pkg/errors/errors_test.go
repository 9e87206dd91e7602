package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "fetch media")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("expected code %s, got %s", CodeDependency, err.Code())
	}
}

func TestAsFindsTypedError(t *testing.T) {
	inner := New(CodeNoNaturalKey, "bare string reference")
	wrapped := Wrap(CodeInternal, inner, "resolution failed")

	typed := As(wrapped)
	if typed == nil {
		t.Fatalf("expected typed error")
	}
	if typed.Code() != CodeInternal {
		t.Fatalf("expected outermost code, got %s", typed.Code())
	}
}

func TestIsCode(t *testing.T) {
	err := New(CodeMalformedDescriptor, "missing uuid")
	if !IsCode(err, CodeMalformedDescriptor) {
		t.Fatalf("expected IsCode to match")
	}
	if IsCode(err, CodeCreationConflict) {
		t.Fatalf("did not expect IsCode to match a different code")
	}
	if IsCode(nil, CodeInternal) {
		t.Fatalf("nil error should never match")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestResolutionCodesHaveMetadata(t *testing.T) {
	for _, code := range []Code{CodeMalformedDescriptor, CodeNoNaturalKey, CodeCreationConflict} {
		meta := MetadataFor(code)
		if meta.PublicMessage == "" {
			t.Fatalf("expected public message for %s", code)
		}
	}
}
