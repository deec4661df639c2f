// Package tempname derives the remote name a local file is staged under.
package tempname

import (
	"path/filepath"

	"github.com/google/uuid"
)

// Generate returns {base}_{uuid}{ext} for the base name of fileName.
// Every call draws a fresh random UUID, so two runs on the same artifact
// never share a remote name.
func Generate(fileName string) string {
	name := filepath.Base(fileName)
	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	return base + "_" + uuid.NewString() + ext
}
