package domain

import "strings"

const (
	KindImage   = "image"
	KindVideo   = "video"
	KindPDF     = "pdf"
	KindArchive = "archive"
	KindOther   = "other"
)

var knownKinds = map[string]struct{}{
	KindImage:   {},
	KindVideo:   {},
	KindPDF:     {},
	KindArchive: {},
	KindOther:   {},
}

// IsKnownKind returns true if the kind is one of the classified asset kinds.
func IsKnownKind(kind string) bool {
	_, ok := knownKinds[kind]
	return ok
}

var archiveContentTypes = map[string]bool{
	"application/zip":              true,
	"application/x-tar":            true,
	"application/gzip":             true,
	"application/x-7z-compressed":  true,
	"application/x-rar-compressed": true,
}

// KindFromContentType classifies an upload's content type into an asset kind.
// Unrecognized types fall into KindOther and still run the generic stages.
func KindFromContentType(contentType string) string {
	normalized := strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))

	switch {
	case strings.HasPrefix(normalized, "image/"):
		return KindImage
	case strings.HasPrefix(normalized, "video/"):
		return KindVideo
	case normalized == "application/pdf":
		return KindPDF
	case archiveContentTypes[normalized]:
		return KindArchive
	default:
		return KindOther
	}
}
