package uploadcare

import "testing"

func TestIsULID(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"01JX3B3V5W8YQ2M4N6P8R9ST0V", true},
		{"01jx3b3v5w8yq2m4n6p8r9st0v", true},
		{"22395775-7f6c-4395-9559-9fbb1e73624c", false},
		{"short", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsULID(tc.value); got != tc.want {
			t.Errorf("IsULID(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestExtractUUIDFromAnyURLShape(t *testing.T) {
	cases := []struct {
		value string
		want  string
	}{
		{"22395775-7f6c-4395-9559-9fbb1e73624c", "22395775-7f6c-4395-9559-9fbb1e73624c"},
		{"https://ucarecdn.com/22395775-7f6c-4395-9559-9fbb1e73624c/", "22395775-7f6c-4395-9559-9fbb1e73624c"},
		{"https://cdn.example.com/files/22395775-7F6C-4395-9559-9FBB1E73624C/-/resize/800x/", "22395775-7f6c-4395-9559-9fbb1e73624c"},
		{"https://example.com/no-uuid-here/", ""},
		{"plain text", ""},
	}
	for _, tc := range cases {
		if got := ExtractUUID(tc.value); got != tc.want {
			t.Errorf("ExtractUUID(%q) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestURLModifiersPreservesTransformSegments(t *testing.T) {
	url := "https://ucarecdn.com/22395775-7f6c-4395-9559-9fbb1e73624c/-/crop/300x300/center/"
	got := URLModifiers(url, "22395775-7f6c-4395-9559-9fbb1e73624c")
	want := "-/crop/300x300/center/"
	if got != want {
		t.Fatalf("URLModifiers = %q, want %q", got, want)
	}

	if got := URLModifiers("https://ucarecdn.com/22395775-7f6c-4395-9559-9fbb1e73624c/", "22395775-7f6c-4395-9559-9fbb1e73624c"); got != "" {
		t.Fatalf("expected empty modifiers, got %q", got)
	}
}

func TestURLMeta(t *testing.T) {
	meta := URLMeta("https://ucarecdn.com/22395775-7f6c-4395-9559-9fbb1e73624c/-/resize/800x/")
	if meta == nil {
		t.Fatal("expected meta for cdn url")
	}
	if meta["uuid"] != "22395775-7f6c-4395-9559-9fbb1e73624c" {
		t.Errorf("unexpected uuid %v", meta["uuid"])
	}
	if meta["cdnUrlModifiers"] != "-/resize/800x/" {
		t.Errorf("unexpected modifiers %v", meta["cdnUrlModifiers"])
	}

	bare := URLMeta("22395775-7f6c-4395-9559-9fbb1e73624c")
	if _, ok := bare["cdnUrl"]; ok {
		t.Error("bare uuid should not carry a cdnUrl")
	}

	if meta := URLMeta("not a reference"); meta != nil {
		t.Errorf("expected nil meta, got %v", meta)
	}
}
