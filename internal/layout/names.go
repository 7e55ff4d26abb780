package layout

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName makes value safe as a file or folder name. Runs of other
// characters become a single underscore; leading and trailing underscores
// are dropped. An empty result yields fallback.
func SanitizeName(value, fallback string) string {
	safe := strings.Trim(unsafeName.ReplaceAllString(value, "_"), "_")
	if safe == "" {
		return fallback
	}
	return safe
}

// CardFileName names the idx-th (1-based) card cut from source:
// "<base>_<idx>.<ext>".
func CardFileName(source string, idx int, ext string) string {
	return fmt.Sprintf("%s_%d.%s", SanitizeName(baseName(source), "card"), idx, strings.TrimPrefix(ext, "."))
}

// CardFolder returns a folder name for the cards cut from source.
func CardFolder(source string) string {
	return SanitizeName(baseName(source), "cards")
}

func baseName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
