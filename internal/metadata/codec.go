package metadata

import (
	"net/url"
	"strings"
)

// Query keys carried on the metadata URI, in the order they are written.
const (
	KeyTitle       = "title"
	KeyDescription = "desc"
	KeyDate        = "date"
	KeyLocation    = "location"
	KeyImage       = "image"
)

// Values substituted for keys missing from a metadata URI.
const (
	DefaultTitle       = "Untitled Event"
	DefaultDescription = "No Description"
	DefaultDate        = "N/A"
	DefaultLocation    = "N/A"
	DefaultImage       = ""
)

// FallbackImage is shown by the presentation layer when an event has no image.
// The codec itself never substitutes it.
const FallbackImage = "fallback.jpg"

// DefaultBaseURI is the resource that listed events hang their metadata query off.
const DefaultBaseURI = "https://ipfs.io/ipfs/bafkreie7otemlkqhhemy2ul7z2bcgrdm3v4l4n7ewmyul7rnpt3nchqljy"

// EventMetadata is the human-facing description of an event.
type EventMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	ImageRef    string `json:"image"`
}

// Defaults returns the record every missing field resolves to.
func Defaults() EventMetadata {
	return EventMetadata{
		Title:       DefaultTitle,
		Description: DefaultDescription,
		Date:        DefaultDate,
		Location:    DefaultLocation,
		ImageRef:    DefaultImage,
	}
}

// HasTitle reports whether the title was supplied rather than defaulted.
func (m EventMetadata) HasTitle() bool {
	return m.Title != DefaultTitle
}

// Encode appends the metadata fields to baseURI as independently escaped query
// parameters. A non-empty imageRef replaces m.ImageRef. The query goes before
// any #fragment on baseURI.
func Encode(m EventMetadata, imageRef, baseURI string) string {
	if imageRef == "" {
		imageRef = m.ImageRef
	}
	pairs := [...][2]string{
		{KeyTitle, m.Title},
		{KeyDescription, m.Description},
		{KeyDate, m.Date},
		{KeyLocation, m.Location},
		{KeyImage, imageRef},
	}

	resource, fragment, hasFragment := strings.Cut(baseURI, "#")

	var b strings.Builder
	b.WriteString(resource)
	switch {
	case !strings.Contains(resource, "?"):
		b.WriteByte('?')
	case strings.HasSuffix(resource, "?"), strings.HasSuffix(resource, "&"):
	default:
		b.WriteByte('&')
	}
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	if hasFragment {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return b.String()
}

// Decode reads the metadata fields back out of uri. It never fails: a URI that
// is not absolute or cannot be parsed yields Defaults(), and any key that is
// missing or empty resolves to its default. A query pair with a malformed
// escape is skipped on its own, so only that field falls back.
func Decode(uri string) EventMetadata {
	out := Defaults()
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil || !u.IsAbs() {
		return out
	}
	q := u.Query()
	pick := func(key, def string) string {
		if v := q.Get(key); v != "" {
			return v
		}
		return def
	}
	out.Title = pick(KeyTitle, DefaultTitle)
	out.Description = pick(KeyDescription, DefaultDescription)
	out.Date = pick(KeyDate, DefaultDate)
	out.Location = pick(KeyLocation, DefaultLocation)
	out.ImageRef = pick(KeyImage, DefaultImage)
	return out
}
