package procedure

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/justapithecus/decomp/failure"
)

// DefaultDataExtensions are the companion data file extensions used when
// none are configured.
var DefaultDataExtensions = []string{".csv"}

// FindDataFile returns the companion data file of artifact: the first
// regular file, in lexical order, in the artifact's directory whose
// extension matches one of exts (case-insensitive). The artifact itself
// is never returned.
func FindDataFile(artifact string, exts []string) (string, error) {
	dir := filepath.Dir(artifact)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", failure.LocalIO("read dir", dir, err)
	}

	wanted := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		wanted = append(wanted, ext)
	}

	self := filepath.Base(artifact)
	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name() == self {
			continue
		}
		if slices.Contains(wanted, strings.ToLower(filepath.Ext(entry.Name()))) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", failure.Precondition("find data file", artifact,
		fmt.Errorf("%w: no %s file in %s", ErrNoDataFile, strings.Join(wanted, "/"), dir))
}
