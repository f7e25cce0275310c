package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"pdfrst/misc"
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

type entryKind int

const (
	// file or directory read when report is closed, logs and results
	entryRef entryKind = iota
	// content captured at the time of the call
	entryData
)

func (k entryKind) String() string {
	if k == entryData {
		return "data"
	}
	return "ref"
}

type entry struct {
	kind   entryKind
	source string
	stamp  time.Time
	data   []byte
}

// Report accumulates everything needed to investigate a conversion run:
// effective configuration, logs, source documents, block dumps, font usage
// and produced output. Archive is written on Close. Not safe for concurrent
// use.
type Report struct {
	entries map[string]entry
	file    *os.File
}

// Close writes the archive. Nil report is valid and means no report has
// been requested, so callers never check.
func (r *Report) Close() (err error) {
	if r == nil || r.file == nil {
		return nil
	}
	defer func() {
		err = multierr.Append(err, r.file.Close())
	}()

	arc := zip.NewWriter(r.file)
	err = r.write(arc)
	return multierr.Append(err, arc.Close())
}

// Name returns absolute name of the archive.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store references file or directory which is read when report is closed.
// Storing different path under the same name is a programming error.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}
	if p, err := filepath.Abs(path); err == nil {
		path = p
	}
	if old, exists := r.entries[name]; exists && old.source != path {
		panic(fmt.Sprintf("report entry [%s] already refers to %s, now %s", name, old.source, path))
	}
	r.entries[name] = entry{kind: entryRef, source: path}
}

// StoreData puts data under requested name. Names must be unique.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}
	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("report entry [%s] already exists", name))
	}
	r.entries[name] = entry{kind: entryData, data: data, stamp: time.Now()}
}

// StoreCopy captures content of the file as it is now. Repeated names get
// numeric suffix.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("unable to copy %s into report: not a regular file", abs)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return err
	}

	r.entries[r.unique(name)] = entry{kind: entryData, source: abs, data: data, stamp: info.ModTime()}
	return nil
}

// StoreDocument adds conversion artifacts of a single document. Src is
// document path relative to the conversion source, output is produced file
// or split directory.
func (r *Report) StoreDocument(src string, blocks, fonts fmt.Stringer, output string) {
	if r == nil {
		return
	}
	name := filepath.ToSlash(src)
	r.StoreData(r.unique("blocks/"+name+".txt"), []byte(blocks.String()))
	r.StoreData(r.unique("fonts/"+name+".txt"), []byte(fonts.String()))
	r.Store(r.unique(path.Join("result", path.Dir(name), filepath.Base(output))), output)
}

func (r *Report) unique(name string) string {
	candidate := name
	for i := 2; ; i++ {
		if _, exists := r.entries[candidate]; !exists {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", name, i)
	}
}

// names returns entry names in natural order, so "doc2" goes before "doc10".
func (r *Report) names() []string {
	return slices.SortedFunc(maps.Keys(r.entries), func(a, b string) int {
		switch {
		case a == b:
			return 0
		case natural.Less(a, b):
			return -1
		}
		return 1
	})
}

func (r *Report) write(arc *zip.Writer) error {
	now := time.Now()
	names := r.names()

	manifest := new(bytes.Buffer)
	for _, name := range names {
		e := r.entries[name]
		stamp := e.stamp
		if stamp.IsZero() {
			stamp = now
		}
		fmt.Fprintf(manifest, "%s\t%s\t%s\t%s\n", stamp.UTC().Format(time.RFC3339), e.kind, name, e.source)
	}
	if err := saveFile(arc, "MANIFEST", now, manifest); err != nil {
		return err
	}

	for _, name := range names {
		e := r.entries[name]
		if e.kind == entryData {
			if err := saveFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}

		info, err := os.Stat(e.source)
		if err != nil {
			// referenced output may not have been produced
			continue
		}
		switch {
		case info.Mode().IsRegular():
			err = saveRef(arc, name, e.source, info.ModTime())
		case info.IsDir():
			err = saveDir(arc, name, e.source)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func saveRef(dst *zip.Writer, name, path string, t time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(dst, name, t, f)
}

// saveDir puts split output (segments and images) under name.
func saveDir(dst *zip.Writer, name, dir string) error {
	return filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		return saveRef(dst, path.Join(name, filepath.ToSlash(rel)), p, info.ModTime())
	})
}
