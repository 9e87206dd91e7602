package normalize

import "github.com/backstage-cms/uploadcare-media/internal/uploadcare"

// Kind is the closed set of shapes a decoded JSON node can take.
type Kind int

const (
	// KindScalar is any leaf that carries no file reference.
	KindScalar Kind = iota
	// KindContainer is a map or list with no recognizable file markers,
	// recursed into element by element.
	KindContainer
	// KindDescriptorObject is a single raw widget payload.
	KindDescriptorObject
	// KindRawDescriptorList is a list whose first element is a widget payload.
	KindRawDescriptorList
	// KindIdentifierList is a list whose first element is a ULID, UUID, or
	// CDN URL string referencing already-normalized state.
	KindIdentifierList
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindContainer:
		return "container"
	case KindDescriptorObject:
		return "descriptor_object"
	case KindRawDescriptorList:
		return "raw_descriptor_list"
	case KindIdentifierList:
		return "identifier_list"
	default:
		return "unknown"
	}
}

// Classify decides how a decoded node should be handled. The decision looks
// only at the node's own shape; callers re-classify after any string decode
// at that position.
//
// When a list's first element satisfies both the descriptor and identifier
// predicates, the descriptor reading wins: descriptor objects carry strictly
// more reconstructable information than a bare identifier.
func Classify(node any) Kind {
	switch v := node.(type) {
	case []any:
		if len(v) == 0 {
			return KindContainer
		}
		switch first := v[0].(type) {
		case map[string]any:
			if uploadcare.LooksLikeDescriptor(first) {
				return KindRawDescriptorList
			}
			return KindContainer
		case string:
			if isIdentifier(first) {
				return KindIdentifierList
			}
			return KindContainer
		default:
			return KindContainer
		}
	case map[string]any:
		if uploadcare.LooksLikeDescriptor(v) {
			return KindDescriptorObject
		}
		return KindContainer
	default:
		return KindScalar
	}
}

func isIdentifier(value string) bool {
	return uploadcare.IsULID(value) ||
		uploadcare.ExtractUUID(value) != ""
}
