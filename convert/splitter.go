package convert

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pdfrst/config"
	"pdfrst/rst"
)

const (
	partSegment    = "part"
	chapterSegment = "chapter"
)

// Splitter writes chapter as a set of files: new file is started by every
// part heading and by every h1 heading outside of the first part. Blocks
// preceding the first such heading go to preamble.
type Splitter struct {
	dir    string
	source string
	cfg    *config.SplitConfig
	log    *zap.Logger

	parts    int
	chapters int

	// relative segment names in creation order
	names []string
	used  map[string]struct{}

	file *os.File
	buf  *bufio.Writer
}

// NewSplitter creates splitter writing into dir. Source is document name
// available to name templates.
func NewSplitter(dir, source string, cfg *config.SplitConfig, log *zap.Logger) *Splitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Splitter{
		dir:    dir,
		source: source,
		cfg:    cfg,
		log:    log,
		used:   map[string]struct{}{cfg.Preamble: {}},
	}
}

// Segments returns names of created segment files relative to output
// directory, preamble is not included.
func (s *Splitter) Segments() []string {
	return s.names
}

// Write distributes rendered blocks of chapter over segment files.
func (s *Splitter) Write(c *rst.Chapter) (err error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	var (
		preamble bytes.Buffer
		w        io.Writer = &preamble
	)
	defer func() {
		err = multierr.Append(err, s.close())
	}()

	err = c.Each(func(b *rst.Block, text string) error {
		if name, ok := s.boundary(b); ok {
			if err := s.open(name); err != nil {
				return err
			}
			w = s.buf
		}
		if _, err := io.WriteString(w, text+"\n\n"); err != nil {
			return fmt.Errorf("unable to write block: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.cfg.TOCTree && len(s.names) > 0 {
		preamble.WriteString(s.toctree())
	}
	if preamble.Len() == 0 {
		return nil
	}
	if err := os.WriteFile(filepath.Join(s.dir, s.cfg.Preamble), preamble.Bytes(), 0644); err != nil {
		return fmt.Errorf("unable to write preamble: %w", err)
	}
	return nil
}

// boundary checks if block starts new segment and returns segment name.
func (s *Splitter) boundary(b *rst.Block) (string, bool) {
	switch b.Style() {
	case rst.StylePart:
		name := s.segmentName(partSegment, s.parts, b.Text())
		s.parts++
		return name, true
	case rst.StyleH1:
		// chapters of the first part stay together
		if s.parts == 1 {
			return "", false
		}
		s.chapters++
		return s.segmentName(chapterSegment, s.chapters, b.Text()), true
	}
	return "", false
}

func (s *Splitter) segmentName(kind string, counter int, title string) string {
	field, tmpl, fallback := config.PartTemplateFieldName, s.cfg.PartTemplate, fmt.Sprintf("Part%d.rst", counter)
	if kind == chapterSegment {
		field, tmpl, fallback = config.ChapterTemplateFieldName, s.cfg.ChapterTemplate, fmt.Sprintf("Chap%02d.rst", counter)
	}

	values := Values{
		Kind:    kind,
		Counter: counter,
		Title:   title,
		Slug:    headingSlug(title, s.cfg.Transliterate),
		Source:  s.source,
	}
	name, err := expandTemplate(field, tmpl, values)
	if err == nil {
		name = assembleSegmentPath(name, s.cfg.Transliterate)
	}
	if err != nil || len(name) == 0 {
		s.log.Warn("Unable to prepare segment name, using default", zap.String("kind", kind), zap.Int("counter", counter), zap.Error(err))
		name = fallback
	}
	return s.unique(name)
}

// unique makes sure segment does not overwrite one created earlier.
func (s *Splitter) unique(name string) string {
	candidate := name
	for i := 2; ; i++ {
		if _, exists := s.used[candidate]; !exists {
			break
		}
		ext := filepath.Ext(name)
		candidate = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), i, ext)
	}
	if candidate != name {
		s.log.Warn("Duplicate segment name", zap.String("name", name), zap.String("using", candidate))
	}
	s.used[candidate] = struct{}{}
	return candidate
}

func (s *Splitter) open(name string) error {
	if err := s.close(); err != nil {
		return err
	}

	path := filepath.Join(s.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create segment directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create segment: %w", err)
	}
	s.log.Debug("Segment started", zap.String("file", name))

	s.file, s.buf = f, bufio.NewWriter(f)
	s.names = append(s.names, filepath.ToSlash(name))
	return nil
}

// close flushes and closes current segment if any.
func (s *Splitter) close() (err error) {
	if s.file == nil {
		return nil
	}
	if er := s.buf.Flush(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to flush segment '%s': %w", s.file.Name(), er))
	}
	if er := s.file.Close(); er != nil {
		err = multierr.Append(err, fmt.Errorf("unable to close segment '%s': %w", s.file.Name(), er))
	}
	s.file, s.buf = nil, nil
	return err
}

func (s *Splitter) toctree() string {
	var sb strings.Builder
	sb.WriteString(".. toctree::\n   :maxdepth: 2\n\n")
	for _, name := range s.names {
		sb.WriteString("   " + strings.TrimSuffix(name, filepath.Ext(name)) + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}
