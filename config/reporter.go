package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/multierr"

	"cssg/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {

	r := &Report{entries: make(map[string]entry)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

// entry is a single future archive member: either raw data, or a path to a
// file or directory to read when the archive is written.
type entry struct {
	original string
	actual   string
	stamp    time.Time
	data     []byte
}

// Report accumulates everything requested for the debug report and writes
// the archive on Close. All methods are safe on a nil receiver so callers
// do not need to check whether a report was requested.
// NOTE: not safe for concurrent use.
type Report struct {
	entries map[string]entry
	file    *os.File
	// scratch directories holding copies made by StoreCopy, removed once
	// the archive is written
	tempDirs []string
}

// Close writes the archive and cleans up temporary copies.
func (r *Report) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	defer r.file.Close()

	err := r.finalize()
	for _, dir := range r.tempDirs {
		if er := os.RemoveAll(dir); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to remove temporary report copy '%s': %w", dir, er))
		}
	}
	return err
}

// Name returns the absolute path of the report file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store records a path to be archived later under the given name. The path
// is read when the archive is written, so the file must outlive the run;
// paths gone by then are quietly dropped.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}

	if old, exists := r.entries[name]; exists && old.original != path {
		// programming error, names must be unique per run
		panic(fmt.Sprintf("attempt to replace report entry [%s]: was %s, now %s", name, old.original, path))
	}

	e := entry{
		original: path,
		actual:   path,
	}
	if p, err := filepath.Abs(path); err == nil {
		e.actual = p
	}
	r.entries[name] = e
}

// StoreData records binary data to be archived later as a file under the
// given name.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}

	if _, exists := r.entries[name]; exists {
		// programming error, names must be unique per run
		panic(fmt.Sprintf("attempt to replace report data [%s]", name))
	}

	r.entries[name] = entry{
		data:  data,
		stamp: time.Now(),
	}
}

// StoreCopy snapshots a file or directory right now, so the archive gets the
// content as it was at the time of the call even if the original changes or
// disappears later. Repeated names are versioned with a timestamp rather
// than rejected, storing the same path several times is fine.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}

	e := entry{
		stamp:    time.Now(),
		original: path,
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	e.actual = absPath

	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, e.stamp.UnixNano())
	}

	dir, err := os.MkdirTemp("", misc.GetAppName()+"-r-")
	if err != nil {
		return err
	}
	r.tempDirs = append(r.tempDirs, dir)

	info, err := os.Stat(e.actual)
	if err != nil {
		return err
	}
	switch {
	case info.Mode().IsRegular():
		where, err := copyFile(dir, e.actual, info.ModTime())
		if err != nil {
			return err
		}
		e.actual = where
	case info.Mode().IsDir():
		if err := copyTree(dir, e.actual); err != nil {
			return err
		}
		e.actual = dir
	}

	r.entries[name] = e
	return nil
}

func copyFile(dir, src string, modTime time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, filepath.Base(src))

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}
	if err = out.Sync(); err != nil {
		return "", err
	}
	out.Close()

	// keep the original time so the archive reflects it
	if err := os.Chtimes(dst, modTime, modTime); err != nil {
		return "", err
	}
	return dst, nil
}

func copyTree(dir, src string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			// links, sockets and the like have no place in a report
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if _, err := copyFile(filepath.Dir(filepath.Join(dir, rel)), path, info.ModTime()); err != nil {
			return err
		}
		return nil
	})
}

// finalize writes the archive: MANIFEST first, then entries in manifest
// order. Stored paths that no longer exist are skipped.
func (r *Report) finalize() error {

	arc := zip.NewWriter(r.file)
	defer arc.Close()

	names, manifest := buildManifest(r.entries)
	if err := writeMember(arc, "MANIFEST", time.Now(), bytes.NewReader(manifest)); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]

		if len(e.data) > 0 {
			if err := writeMember(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}

		info, err := os.Stat(e.actual)
		if err != nil {
			continue
		}
		switch {
		case info.Mode().IsRegular():
			if err := writeFileMember(arc, name, e.actual, info.ModTime()); err != nil {
				return err
			}
		case info.Mode().IsDir():
			if err := writeTreeMember(arc, name, e.actual); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildManifest returns entry names sorted for stable archive layout and
// the manifest text describing them.
func buildManifest(entries map[string]entry) ([]string, []byte) {
	if len(entries) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	now := time.Now()

	var buf bytes.Buffer
	for _, name := range names {
		e := entries[name]
		if e.stamp.IsZero() {
			e.stamp = now
		}
		fmt.Fprintf(&buf, "%s\t%s\t%s : %s\n", e.stamp.UTC().Format(time.UnixDate), name, e.original, e.actual)
	}
	return names, buf.Bytes()
}

func writeMember(arc *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := arc.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func writeFileMember(arc *zip.Writer, name, path string, t time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeMember(arc, name, t, f)
}

func writeTreeMember(arc *zip.Writer, name, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		return writeFileMember(arc, filepath.ToSlash(filepath.Join(name, rel)), path, info.ModTime())
	})
}
