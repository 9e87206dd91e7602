package normalize

import (
	"context"
	"sort"
)

// ResolvedMedia is the outcome of resolving one file reference.
type ResolvedMedia struct {
	ULID string
	Meta map[string]any
}

// Ref is one accumulated relationship entry for the synchronizer, ordered by
// the position the reference occupied in the rewritten tree.
type Ref struct {
	MediaULID string
	Position  int
	Meta      map[string]any
}

// Resolver maps file references to media rows. A (nil, nil) return means the
// reference could not be matched and the element is dropped.
type Resolver interface {
	// ResolveIdentifier handles bare strings: ULIDs, UUIDs, CDN URLs.
	// Lookup only, never creates.
	ResolveIdentifier(ctx context.Context, value string) (*ResolvedMedia, error)
	// ResolveDescriptor handles raw widget payloads and may create the
	// media row when the natural key is new.
	ResolveDescriptor(ctx context.Context, node map[string]any) (*ResolvedMedia, error)
}

// Rewriter walks one decoded field value, replacing embedded file references
// with media ULIDs and accumulating the relationship list as an explicit
// fold. One Rewriter handles exactly one top-level value.
type Rewriter struct {
	resolver Resolver
	refs     []Ref
	position int
	dropped  int
	decodes  int
}

func NewRewriter(resolver Resolver) *Rewriter {
	return &Rewriter{resolver: resolver}
}

// Refs returns the accumulated relationship entries in position order.
func (r *Rewriter) Refs() []Ref { return r.refs }

// Dropped returns how many references could not be resolved and were removed.
func (r *Rewriter) Dropped() int { return r.dropped }

// Decodes returns how many nested string-encoding layers were collapsed.
func (r *Rewriter) Decodes() int { return r.decodes }

// Rewrite returns the rewritten node and whether anything changed beneath it.
// Resolution failures never abort the traversal; the failing element is
// dropped and counted so one bad reference cannot block a large tree.
func (r *Rewriter) Rewrite(ctx context.Context, node any) (any, bool) {
	switch Classify(node) {
	case KindRawDescriptorList:
		return r.rewriteDescriptorList(ctx, node.([]any)), true
	case KindDescriptorObject:
		return r.rewriteDescriptorObject(ctx, node.(map[string]any)), true
	case KindIdentifierList:
		return r.rewriteIdentifierList(ctx, node.([]any))
	case KindContainer:
		switch v := node.(type) {
		case []any:
			return r.rewriteListContainer(ctx, v)
		case map[string]any:
			return r.rewriteMapContainer(ctx, v)
		}
		return node, false
	default:
		return r.rewriteScalar(ctx, node)
	}
}

func (r *Rewriter) rewriteDescriptorList(ctx context.Context, list []any) []any {
	out := make([]any, 0, len(list))
	for _, element := range list {
		resolved := r.resolveElement(ctx, element)
		if resolved == nil {
			r.dropped++
			continue
		}
		r.accumulate(resolved)
		out = append(out, resolved.ULID)
	}
	return out
}

// A single descriptor object still rewrites to a list so the canonical shape
// is always an array of identifiers; a later pass then classifies it as an
// identifier list and re-accumulates the same relationship.
func (r *Rewriter) rewriteDescriptorObject(ctx context.Context, node map[string]any) any {
	resolved, err := r.resolver.ResolveDescriptor(ctx, node)
	if err != nil || resolved == nil {
		r.dropped++
		return []any{}
	}
	r.accumulate(resolved)
	return []any{resolved.ULID}
}

func (r *Rewriter) rewriteIdentifierList(ctx context.Context, list []any) (any, bool) {
	out := make([]any, 0, len(list))
	mutated := false
	for _, element := range list {
		value, ok := element.(string)
		if !ok {
			mutated = true
			r.dropped++
			continue
		}
		resolved, err := r.resolver.ResolveIdentifier(ctx, value)
		if err != nil || resolved == nil {
			mutated = true
			r.dropped++
			continue
		}
		if resolved.ULID != value {
			mutated = true
		}
		r.accumulate(resolved)
		out = append(out, resolved.ULID)
	}
	return out, mutated
}

func (r *Rewriter) rewriteListContainer(ctx context.Context, list []any) (any, bool) {
	mutated := false
	out := make([]any, len(list))
	for i, element := range list {
		rewritten, changed := r.Rewrite(ctx, element)
		if changed {
			mutated = true
			out[i] = rewritten
		} else {
			out[i] = element
		}
	}
	return out, mutated
}

func (r *Rewriter) rewriteMapContainer(ctx context.Context, node map[string]any) (any, bool) {
	// Keys are visited in sorted order so position assignment is stable
	// across runs of the same value.
	keys := make([]string, 0, len(node))
	for key := range node {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	mutated := false
	out := make(map[string]any, len(node))
	for _, key := range keys {
		rewritten, changed := r.Rewrite(ctx, node[key])
		if changed {
			mutated = true
			out[key] = rewritten
		} else {
			out[key] = node[key]
		}
	}
	return out, mutated
}

func (r *Rewriter) rewriteScalar(ctx context.Context, node any) (any, bool) {
	s, ok := node.(string)
	if !ok {
		return node, false
	}
	decoded, n := Decode(s)
	if n == 0 {
		return node, false
	}
	r.decodes += n
	rewritten, _ := r.Rewrite(ctx, decoded)
	return rewritten, true
}

func (r *Rewriter) resolveElement(ctx context.Context, element any) *ResolvedMedia {
	switch v := element.(type) {
	case map[string]any:
		resolved, err := r.resolver.ResolveDescriptor(ctx, v)
		if err != nil {
			return nil
		}
		return resolved
	case string:
		resolved, err := r.resolver.ResolveIdentifier(ctx, v)
		if err != nil {
			return nil
		}
		return resolved
	default:
		return nil
	}
}

func (r *Rewriter) accumulate(resolved *ResolvedMedia) {
	r.refs = append(r.refs, Ref{
		MediaULID: resolved.ULID,
		Position:  r.position,
		Meta:      resolved.Meta,
	})
	r.position++
}
