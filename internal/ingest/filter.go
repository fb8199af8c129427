package ingest

import (
	"mime"
	"path/filepath"
	"strings"
)

// acceptedTypePrefixes lists the media-type families the oracle can read.
var acceptedTypePrefixes = []string{"image/", "audio/", "video/", "text/"}

// acceptedExactTypes lists document types accepted outside those families.
var acceptedExactTypes = map[string]bool{
	"application/pdf":  true,
	"application/json": true,
	"application/rtf":  true,
}

// FilterTypes splits files into those with an accepted media type and the
// names of the rest. Files with an empty ContentType get one sniffed from
// the extension first.
func FilterTypes(files []File) (ok []File, rejected []string) {
	for _, f := range files {
		ct := f.ContentType
		if ct == "" {
			ct = mime.TypeByExtension(filepath.Ext(f.Name))
		}
		if i := strings.Index(ct, ";"); i >= 0 {
			ct = strings.TrimSpace(ct[:i])
		}
		if typeAccepted(ct) {
			f.ContentType = ct
			ok = append(ok, f)
			continue
		}
		rejected = append(rejected, f.Name)
	}
	return ok, rejected
}

func typeAccepted(ct string) bool {
	if acceptedExactTypes[ct] {
		return true
	}
	for _, p := range acceptedTypePrefixes {
		if strings.HasPrefix(ct, p) {
			return true
		}
	}
	return false
}
