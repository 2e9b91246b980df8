// Package backup locates the local audio files played while the stream is unreachable.
package backup

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	zlog "github.com/rs/zerolog/log"
)

// Lister enumerates backup audio files in a single directory.
type Lister struct {
	dir        string
	extensions []string
}

// NewLister creates a lister for dir matching the given extensions.
// Extensions are compared case-insensitively; a missing leading dot is added.
func NewLister(dir string, extensions []string) *Lister {
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return &Lister{dir: dir, extensions: exts}
}

// Dir returns the scanned directory.
func (l *Lister) Dir() string {
	return l.dir
}

// List returns the matching files, grouped by extension in configured order
// and sorted by name within each group. An unreadable directory yields nil.
func (l *Lister) List() []string {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		zlog.Warn().Msgf("backup: cannot read directory: dir=%s error=%v", l.dir, err)
		return nil
	}

	groups := make(map[string][]string, len(l.extensions))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !l.matches(ext) {
			continue
		}
		groups[ext] = append(groups[ext], filepath.Join(l.dir, entry.Name()))
	}

	var files []string
	for _, ext := range l.extensions {
		g := groups[ext]
		sort.Strings(g)
		files = append(files, g...)
		// avoid emitting a group twice when the extension is listed twice
		delete(groups, ext)
	}

	zlog.Debug().Msgf("backup: listed files: dir=%s count=%d", l.dir, len(files))
	return files
}

func (l *Lister) matches(ext string) bool {
	for _, e := range l.extensions {
		if e == ext {
			return true
		}
	}
	return false
}
