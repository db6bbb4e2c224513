// Package content bundles the default slot catalogs, colors, and palettes.
package content

import (
	"embed"
	"io/fs"
	"os"
	"strings"
)

// FS contains catalogs/*.json and colors/*.json.
//
//go:embed catalogs/*.json colors/*.json
var FS embed.FS

// Open returns dir as a filesystem, or the embedded content when dir is
// blank.
func Open(dir string) fs.FS {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return FS
	}
	return os.DirFS(dir)
}
