package normalize

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/backstage-cms/uploadcare-media/internal/uploadcare"
)

const (
	ulidOne   = "01JX3B3V5W8YQ2M4N6P8R9ST0V"
	ulidTwo   = "01JX3B3V5W8YQ2M4N6P8R9ST1W"
	ulidThree = "01JX3B3V5W8YQ2M4N6P8R9ST2X"

	uuidOne   = "22395775-7f6c-4395-9559-9fbb1e73624c"
	uuidTwo   = "3f8a1c2d-4e5b-4678-9a0b-1c2d3e4f5a6b"
	uuidThree = "9d8c7b6a-5f4e-4d3c-8b2a-190807060504"
)

// stubResolver maps upload UUIDs to media ULIDs from a fixed table. Unknown
// ULIDs and UUIDs resolve to nil, mirroring the lookup-only policy for bare
// identifiers.
type stubResolver struct {
	byUUID map[string]string
}

func (s *stubResolver) ResolveIdentifier(_ context.Context, value string) (*ResolvedMedia, error) {
	if uploadcare.IsULID(value) {
		for _, ulid := range s.byUUID {
			if ulid == value {
				return &ResolvedMedia{ULID: value}, nil
			}
		}
		return nil, nil
	}
	uuid := uploadcare.ExtractUUID(value)
	if uuid == "" {
		return nil, nil
	}
	if ulid, ok := s.byUUID[uuid]; ok {
		return &ResolvedMedia{ULID: ulid, Meta: uploadcare.URLMeta(value)}, nil
	}
	return nil, nil
}

func (s *stubResolver) ResolveDescriptor(_ context.Context, node map[string]any) (*ResolvedMedia, error) {
	d, err := uploadcare.ParseDescriptor(node)
	if err != nil {
		return nil, nil
	}
	ulid, ok := s.byUUID[d.UUID]
	if !ok {
		// Descriptors may create; the stub mints a deterministic id.
		ulid = fmt.Sprintf("01JX3B3V5W8YQ2M4N6P8RCRE%02d", len(s.byUUID))
		s.byUUID[d.UUID] = ulid
	}
	return &ResolvedMedia{ULID: ulid, Meta: d.Meta()}, nil
}

func descriptor(uuid string) map[string]any {
	return map[string]any{
		"uuid":   uuid,
		"cdnUrl": "https://ucarecdn.com/" + uuid + "/",
	}
}

func TestRewritePreservesDescriptorOrder(t *testing.T) {
	resolver := &stubResolver{byUUID: map[string]string{
		uuidOne:   ulidOne,
		uuidTwo:   ulidTwo,
		uuidThree: ulidThree,
	}}
	rewriter := NewRewriter(resolver)

	node := []any{descriptor(uuidOne), descriptor(uuidTwo), descriptor(uuidThree)}
	rewritten, mutated := rewriter.Rewrite(context.Background(), node)
	if !mutated {
		t.Fatal("descriptor list must always mutate")
	}

	want := []any{ulidOne, ulidTwo, ulidThree}
	if !reflect.DeepEqual(rewritten, want) {
		t.Fatalf("unexpected rewrite %v", rewritten)
	}

	refs := rewriter.Refs()
	if len(refs) != 3 {
		t.Fatalf("expected 3 refs, got %d", len(refs))
	}
	for i, ref := range refs {
		if ref.Position != i {
			t.Errorf("ref %d has position %d", i, ref.Position)
		}
		if ref.MediaULID != want[i] {
			t.Errorf("ref %d points at %s, want %s", i, ref.MediaULID, want[i])
		}
	}
}

func TestRewriteIdempotence(t *testing.T) {
	resolver := &stubResolver{byUUID: map[string]string{
		uuidOne: ulidOne,
		uuidTwo: ulidTwo,
	}}

	node := map[string]any{
		"rows": []any{
			map[string]any{"image": []any{descriptor(uuidOne)}},
			map[string]any{"gallery": []any{descriptor(uuidTwo), descriptor(uuidOne)}},
		},
	}

	first := NewRewriter(resolver)
	onceNode, mutated := first.Rewrite(context.Background(), node)
	if !mutated {
		t.Fatal("first pass should mutate")
	}

	second := NewRewriter(resolver)
	twiceNode, mutated := second.Rewrite(context.Background(), onceNode)
	if mutated {
		t.Fatal("second pass should be a no-op")
	}
	if !reflect.DeepEqual(onceNode, twiceNode) {
		t.Fatalf("rewrite is not idempotent:\nfirst:  %v\nsecond: %v", onceNode, twiceNode)
	}

	firstRefs := stripMeta(first.Refs())
	secondRefs := stripMeta(second.Refs())
	if !reflect.DeepEqual(firstRefs, secondRefs) {
		t.Fatalf("relationship sets differ:\nfirst:  %v\nsecond: %v", firstRefs, secondRefs)
	}
}

func TestRewriteSingleDescriptorObjectIdempotence(t *testing.T) {
	resolver := &stubResolver{byUUID: map[string]string{
		uuidOne: ulidOne,
	}}

	node := map[string]any{"image": descriptor(uuidOne)}

	first := NewRewriter(resolver)
	onceNode, mutated := first.Rewrite(context.Background(), node)
	if !mutated {
		t.Fatal("first pass should mutate")
	}

	once, ok := onceNode.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", onceNode)
	}
	if !reflect.DeepEqual(once["image"], []any{ulidOne}) {
		t.Fatalf("single descriptor should rewrite to a one-element identifier list, got %v", once["image"])
	}
	if len(first.Refs()) != 1 {
		t.Fatalf("expected 1 ref, got %d", len(first.Refs()))
	}

	second := NewRewriter(resolver)
	twiceNode, mutated := second.Rewrite(context.Background(), onceNode)
	if mutated {
		t.Fatal("second pass should be a no-op")
	}
	if !reflect.DeepEqual(onceNode, twiceNode) {
		t.Fatalf("rewrite is not idempotent:\nfirst:  %v\nsecond: %v", onceNode, twiceNode)
	}
	if len(second.Refs()) != 1 {
		t.Fatalf("second pass must re-accumulate the relationship, got %d refs", len(second.Refs()))
	}
}

func TestRewriteDropsUnresolvableDescriptorObject(t *testing.T) {
	resolver := &stubResolver{byUUID: map[string]string{}}

	rewriter := NewRewriter(resolver)
	node := map[string]any{"image": map[string]any{"cdnUrl": "https://ucarecdn.com/not-a-uuid/"}}
	rewritten, mutated := rewriter.Rewrite(context.Background(), node)
	if !mutated {
		t.Fatal("expected mutation")
	}
	out := rewritten.(map[string]any)
	if !reflect.DeepEqual(out["image"], []any{}) {
		t.Fatalf("failed descriptor should leave an empty list, got %v", out["image"])
	}
	if rewriter.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", rewriter.Dropped())
	}
	if len(rewriter.Refs()) != 0 {
		t.Fatalf("expected no refs, got %d", len(rewriter.Refs()))
	}
}

func TestRewriteDropsDanglingIdentifiers(t *testing.T) {
	resolver := &stubResolver{byUUID: map[string]string{uuidOne: ulidOne}}
	rewriter := NewRewriter(resolver)

	stale := "01JX3B3V5W8YQ2M4N6P8R9ZZZZ"
	rewritten, mutated := rewriter.Rewrite(context.Background(), []any{ulidOne, stale})
	if !mutated {
		t.Fatal("dropping a stale identifier must mark mutation")
	}
	if !reflect.DeepEqual(rewritten, []any{ulidOne}) {
		t.Fatalf("unexpected rewrite %v", rewritten)
	}
	if len(rewriter.Refs()) != 1 || rewriter.Refs()[0].MediaULID != ulidOne {
		t.Fatalf("unexpected refs %v", rewriter.Refs())
	}
	if rewriter.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", rewriter.Dropped())
	}
}

func TestRewriteNestedBuilderValue(t *testing.T) {
	resolver := &stubResolver{byUUID: map[string]string{uuidOne: ulidOne}}
	rewriter := NewRewriter(resolver)

	node := map[string]any{
		"rows": []any{
			map[string]any{"image": []any{descriptor(uuidOne)}},
		},
	}
	rewritten, mutated := rewriter.Rewrite(context.Background(), node)
	if !mutated {
		t.Fatal("expected mutation")
	}

	want := map[string]any{
		"rows": []any{
			map[string]any{"image": []any{ulidOne}},
		},
	}
	if !reflect.DeepEqual(rewritten, want) {
		t.Fatalf("unexpected rewrite %v", rewritten)
	}

	refs := rewriter.Refs()
	if len(refs) != 1 || refs[0].Position != 0 {
		t.Fatalf("unexpected refs %v", refs)
	}
	if refs[0].Meta["uuid"] != uuidOne {
		t.Fatalf("meta should carry the original descriptor, got %v", refs[0].Meta)
	}
}

func TestRewriteCollapsesNestedStringEncoding(t *testing.T) {
	resolver := &stubResolver{byUUID: map[string]string{uuidOne: ulidOne}}
	rewriter := NewRewriter(resolver)

	// The file list was stored as a JSON string inside the outer map.
	node := map[string]any{
		"image": `[{"uuid":"` + uuidOne + `","cdnUrl":"https://ucarecdn.com/` + uuidOne + `/"}]`,
	}
	rewritten, mutated := rewriter.Rewrite(context.Background(), node)
	if !mutated {
		t.Fatal("expected mutation")
	}

	want := map[string]any{"image": []any{ulidOne}}
	if !reflect.DeepEqual(rewritten, want) {
		t.Fatalf("unexpected rewrite %v", rewritten)
	}
	if rewriter.Decodes() != 1 {
		t.Fatalf("expected 1 collapsed encoding layer, got %d", rewriter.Decodes())
	}
}

func TestRewriteDropsUnresolvableDescriptorElements(t *testing.T) {
	resolver := &stubResolver{byUUID: map[string]string{uuidOne: ulidOne}}
	rewriter := NewRewriter(resolver)

	node := []any{
		descriptor(uuidOne),
		map[string]any{"uuid": "not-a-uuid"},
	}
	rewritten, mutated := rewriter.Rewrite(context.Background(), node)
	if !mutated {
		t.Fatal("expected mutation")
	}
	if !reflect.DeepEqual(rewritten, []any{ulidOne}) {
		t.Fatalf("bad element should be dropped, got %v", rewritten)
	}
	if rewriter.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", rewriter.Dropped())
	}
}

func TestRewriteLeavesPlainContentAlone(t *testing.T) {
	rewriter := NewRewriter(&stubResolver{byUUID: map[string]string{}})

	node := map[string]any{
		"title": "hello",
		"tags":  []any{"a", "b"},
		"count": float64(3),
	}
	rewritten, mutated := rewriter.Rewrite(context.Background(), node)
	if mutated {
		t.Fatalf("plain content should not mutate, got %v", rewritten)
	}
	if len(rewriter.Refs()) != 0 {
		t.Fatalf("expected no refs, got %v", rewriter.Refs())
	}
}

func stripMeta(refs []Ref) []Ref {
	out := make([]Ref, len(refs))
	for i, ref := range refs {
		out[i] = Ref{MediaULID: ref.MediaULID, Position: ref.Position}
	}
	return out
}
