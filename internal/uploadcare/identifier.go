package uploadcare

import (
	"regexp"
	"strings"
)

var (
	ulidPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Za-hjkmnp-tv-z]{26}$`)
	uuidPattern = regexp.MustCompile(`(?i)[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`)
)

// IsULID reports whether value looks like a 26-character ULID primary key.
func IsULID(value string) bool {
	return ulidPattern.MatchString(value)
}

// IsUUID reports whether value is exactly one upload UUID.
func IsUUID(value string) bool {
	match := uuidPattern.FindString(value)
	return match != "" && len(match) == len(value)
}

// IsURL reports whether value looks like an http(s) URL.
func IsURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

// ExtractUUID returns the first UUID-shaped substring found anywhere in value,
// or "" when none is present. CDN URL path templates vary across accounts, so
// the scan does not assume a fixed position.
func ExtractUUID(value string) string {
	return strings.ToLower(uuidPattern.FindString(value))
}

// URLModifiers returns the transformation path segments that follow the UUID
// in a CDN URL. Modifiers encode per-usage crop/resize settings and must be
// preserved alongside the media reference.
func URLModifiers(rawURL, uuid string) string {
	if rawURL == "" || uuid == "" {
		return ""
	}
	idx := strings.Index(strings.ToLower(rawURL), uuid)
	if idx < 0 {
		return ""
	}
	rest := rawURL[idx+len(uuid):]
	rest = strings.TrimPrefix(rest, "/")
	return rest
}

// URLMeta builds the per-usage relationship meta for a bare CDN URL or UUID
// string reference.
func URLMeta(value string) map[string]any {
	uuid := ExtractUUID(value)
	if uuid == "" {
		return nil
	}
	meta := map[string]any{"uuid": uuid}
	if IsURL(value) {
		meta["cdnUrl"] = value
		if mods := URLModifiers(value, uuid); mods != "" {
			meta["cdnUrlModifiers"] = mods
		}
	}
	return meta
}
