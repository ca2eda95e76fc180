// Package archive builds recipe bundle walking on top of "archive/zip".
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"strings"
)

// WalkFunc is the type of the function called for each bundle entry visited
// by Walk. The bundle argument contains path to the bundle passed to Walk.
// The file argument is the zip.File structure for matched entry. If an error
// is returned, processing stops.
type WalkFunc func(bundle string, file *zip.File) error

// Walk walks all files in the bundle under "root", calling walkFn for each
// entry which carries one of the "exts" extensions (when "exts" is empty
// every file matches). Empty "root" walks the whole bundle, otherwise "root"
// names a directory or a single entry and matching is done on full path
// segments, so "docs" selects "docs/a.yaml" but never "docs-old/a.yaml".
// Entries with unsafe paths abort the walk to prevent Zip Slip attacks.
func Walk(bundle, root string, exts []string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(bundle)
	if err != nil {
		return err
	}
	defer r.Close()

	root = strings.Trim(strings.ReplaceAll(root, `\`, "/"), "/")
	prefix := root
	if len(prefix) > 0 {
		prefix += "/"
	}

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("bundle entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		normalized := strings.ReplaceAll(name, `\`, "/")
		if normalized != root && !strings.HasPrefix(normalized, prefix) {
			continue
		}
		if !hasExt(name, exts) {
			continue
		}
		if err := walkFn(bundle, f); err != nil {
			return err
		}
	}
	return nil
}

// hasExt reports whether name carries one of the extensions, ignoring case.
func hasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
