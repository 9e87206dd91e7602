package uploadcare

import (
	"path"
	"strings"

	guuid "github.com/google/uuid"

	"github.com/backstage-cms/uploadcare-media/pkg/errors"
)

const (
	// DefaultMimeType is assigned when a descriptor carries no mime information.
	DefaultMimeType = "application/octet-stream"
	// DefaultFilename is assigned when a descriptor carries no original name.
	DefaultFilename = "unknown"
)

// Descriptor is the parsed form of the JSON object the upload widget emits
// for one file.
type Descriptor struct {
	UUID             string
	CDNURL           string
	CDNURLModifiers  string
	OriginalFilename string
	MimeType         string
	Extension        string
	Size             int64
	Width            *int
	Height           *int
	Raw              map[string]any
}

// Meta returns the per-usage relationship meta for this descriptor, which is
// the raw widget payload itself.
func (d *Descriptor) Meta() map[string]any {
	return d.Raw
}

// LooksLikeDescriptor reports whether node carries the minimal file markers,
// either directly or nested one level under fileInfo.
func LooksLikeDescriptor(node map[string]any) bool {
	if node == nil {
		return false
	}
	if _, ok := node["uuid"]; ok {
		return true
	}
	if _, ok := node["cdnUrl"]; ok {
		return true
	}
	if info, ok := node["fileInfo"].(map[string]any); ok {
		if _, ok := info["uuid"]; ok {
			return true
		}
	}
	return false
}

// ParseDescriptor validates and extracts the fields of a raw widget payload.
// The upload UUID is the natural key; a payload without one is rejected with
// a typed error so callers can apply their drop policy.
func ParseDescriptor(node map[string]any) (*Descriptor, error) {
	if node == nil {
		return nil, errors.New(errors.CodeMalformedDescriptor, "descriptor is not an object")
	}

	body := node
	if info, ok := node["fileInfo"].(map[string]any); ok {
		if _, hasUUID := info["uuid"]; hasUUID {
			body = info
		}
	}

	rawUUID := stringField(body, "uuid")
	cdnURL := stringField(body, "cdnUrl")
	if rawUUID == "" && cdnURL != "" {
		rawUUID = ExtractUUID(cdnURL)
	}
	if rawUUID == "" {
		return nil, errors.New(errors.CodeNoNaturalKey, "descriptor has no uuid")
	}

	parsed, err := guuid.Parse(rawUUID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeMalformedDescriptor, err, "descriptor uuid is invalid")
	}
	id := parsed.String()

	d := &Descriptor{
		UUID:             id,
		CDNURL:           cdnURL,
		CDNURLModifiers:  URLModifiers(cdnURL, id),
		OriginalFilename: stringField(body, "originalFilename"),
		MimeType:         stringField(body, "mimeType"),
		Raw:              node,
	}
	if d.OriginalFilename == "" {
		d.OriginalFilename = stringField(body, "name")
	}
	if d.OriginalFilename == "" {
		d.OriginalFilename = DefaultFilename
	}
	if d.MimeType == "" {
		d.MimeType = DefaultMimeType
	}
	d.Size = intField(body, "size")

	if info := detailInfo(body); info != nil {
		if w, ok := optionalInt(info, "width"); ok {
			d.Width = &w
		}
		if h, ok := optionalInt(info, "height"); ok {
			d.Height = &h
		}
		if format := stringField(info, "format"); format != "" {
			d.Extension = strings.ToLower(format)
		}
	}
	if d.Extension == "" {
		d.Extension = strings.TrimPrefix(path.Ext(d.OriginalFilename), ".")
	}

	return d, nil
}

// detailInfo returns whichever format-specific sub-object is present.
func detailInfo(body map[string]any) map[string]any {
	for _, key := range []string{"imageInfo", "videoInfo", "contentInfo"} {
		if info, ok := body[key].(map[string]any); ok {
			return info
		}
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func intField(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

func optionalInt(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}
