package media

import (
	"mime"
	"strings"

	"github.com/backstage-cms/uploadcare-media/internal/uploadcare"
)

// resolveMimeType normalizes the descriptor's mime type, falling back to an
// extension lookup when the widget sent nothing usable.
func resolveMimeType(d *uploadcare.Descriptor) string {
	if clean := normalizeMimeType(d.MimeType); clean != "" && clean != uploadcare.DefaultMimeType {
		return clean
	}
	if d.Extension != "" {
		if byExt := mime.TypeByExtension("." + d.Extension); byExt != "" {
			if clean := normalizeMimeType(byExt); clean != "" {
				return clean
			}
		}
	}
	return uploadcare.DefaultMimeType
}

func normalizeMimeType(value string) string {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil || mediaType == "" {
		return ""
	}
	return strings.ToLower(mediaType)
}
