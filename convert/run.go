package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"pdfrst/archive"
	"pdfrst/fonts"
	"pdfrst/layout"
	"pdfrst/rst"
	"pdfrst/state"
	"pdfrst/visitor"
)

// opener produces layout of a single document.
type opener func() (layout.Source, error)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")
	env.Split, env.NoImages = cmd.Bool("split"), cmd.Bool("noimages")
	if cmd.IsSet("cutoff") {
		cutoff := cmd.Int("cutoff")
		if cutoff < 0 {
			return fmt.Errorf("page cutoff cannot be negative: %d", cutoff)
		}
		env.Cfg.Document.PageCutoff = int(cutoff)
	}

	table, err := env.Cfg.Document.FontTable()
	if err != nil {
		return fmt.Errorf("unable to prepare font table: %w", err)
	}
	for _, s := range table.Validate() {
		log.Warn("Font rule is shadowed", zap.Stringer("rule", s))
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst),
		zap.Bool("split", env.SplitOutput()), zap.Int("cutoff", env.Cfg.Document.PageCutoff))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, table, log)
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, table *fonts.Table, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)
	opts := env.Cfg.Document.PDFOptions()

	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, table, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := processArchive(ctx, head, tail, "", dst, table, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		kind, err := isDocumentFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if kind != docUnknown && len(tail) == 0 {
			// document cannot have tail
			path := head
			if err := env.Rpt.StoreCopy("source/"+filepath.Base(path), path); err != nil {
				log.Warn("Unable to store source in report", zap.Error(err))
			}
			if err := processDocument(ctx, func() (layout.Source, error) {
				return layout.Open(path, opts)
			}, filepath.Base(path), dst, table, log); err != nil {
				log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as PDF or layout dump (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding documents and processes them.
func processDir(ctx context.Context, dir, dst string, table *fonts.Table, log *zap.Logger) (err error) {
	opts := state.EnvFromContext(ctx).Cfg.Document.PDFOptions()

	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, table, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		kind, err := isDocumentFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if kind == docUnknown {
			log.Debug("Skipping file, not recognized as document or archive", zap.String("file", path))
			return nil
		}

		count++

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processDocument(ctx, func() (layout.Source, error) {
			return layout.Open(path, opts)
		}, src, dst, table, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds documents under
// "pathIn" and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, table *fonts.Table, log *zap.Logger) (err error) {
	opts := state.EnvFromContext(ctx).Cfg.Document.PDFOptions()

	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	err = archive.Walk(path, pathIn, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		kind, err := isDocumentInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", arc), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if kind == docUnknown {
			log.Debug("Skipping file, not recognized as document", zap.String("archive", arc), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		open := func() (layout.Source, error) {
			data, err := archive.ReadFile(f)
			if err != nil {
				return nil, err
			}
			if kind == docDump {
				pages, err := layout.LoadYAML(bytes.NewReader(data))
				if err != nil {
					return nil, err
				}
				return layout.NewSource(pages), nil
			}
			return layout.NewPDFReader(data, opts)
		}
		if err := processDocument(ctx, open, filepath.Join(pathOut, filepath.FromSlash(f.FileHeader.Name)), dst, table, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// processDocument converts single document. "src" is part of the source path
// (always including file name) relative to the original path. When actual file
// was specified it will be just base file name without a path. When looking
// inside archive or directory it will be relative path inside archive or
// directory (including base file name). "dst" is the destination directory.
func processDocument(ctx context.Context, open opener, src, dst string, table *fonts.Table, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var (
		outputName string
		pages      int
	)

	log.Info("Conversion starting", zap.String("from", src))
	defer func(start time.Time) {
		// malformed PDF content may trip parser, when multiple documents
		// are being processed we do not want to stop.
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.Int("pages", pages))
		}
	}(time.Now())

	outputName = buildOutputPath(src, dst, env)
	split := env.SplitOutput()

	// Check if output already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output already exists: %s", outputName)
		}
		log.Warn("Overwriting existing output", zap.String("path", outputName))
		if split {
			// segment names depend on headings, stale ones would be mixed with new
			if err = removeSegments(outputName, log); err != nil {
				return err
			}
		} else if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	outDir := filepath.Dir(outputName)
	if split {
		outDir = outputName
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	source, err := open()
	if err != nil {
		return fmt.Errorf("unable to read layout (%s): %w", src, err)
	}
	defer source.Close()

	chapter := rst.NewChapter(env.Cfg.Document.ChapterOptions(), log.Named("rst"))
	stats := fonts.NewStats()

	opts := []visitor.Option{
		visitor.WithPageCutoff(env.Cfg.Document.PageCutoff),
		visitor.WithStats(stats),
	}
	var images *ImageWriter
	if env.ExportImages() {
		dir := env.Cfg.Document.Images.Directory
		images = NewImageWriter(filepath.Join(outDir, filepath.FromSlash(dir)), filepath.ToSlash(dir), env.Overwrite, log.Named("images"))
		opts = append(opts, visitor.WithImageExporter(images))
	}
	v := visitor.New(chapter, table, log.Named("visitor"), opts...)

	for n := 1; n <= source.NumPages(); n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := source.Page(n)
		if err != nil {
			log.Warn("Unable to read page, skipping", zap.Int("page", n), zap.Error(err))
			continue
		}
		v.Walk(page)
		if v.Skipped() {
			break
		}
		pages++
	}

	if split {
		s := NewSplitter(outDir, strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)), &env.Cfg.Output.Split, log.Named("split"))
		if err := s.Write(chapter); err != nil {
			return fmt.Errorf("unable to write output: %w", err)
		}
		log.Debug("Output split", zap.Int("segments", len(s.Segments())))
	} else if err := writeSingle(chapter, outputName); err != nil {
		return err
	}

	if images != nil && images.Saved() > 0 {
		log.Debug("Images exported", zap.Int("count", images.Saved()))
	}

	env.Rpt.StoreDocument(src, chapter, stats, outputName)
	return nil
}

// removeSegments deletes reStructuredText files left in split output
// directory by previous run, everything else is kept.
func removeSegments(dir string, log *zap.Logger) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || !strings.EqualFold(filepath.Ext(path), ".rst") {
			return nil
		}
		log.Debug("Removing stale segment", zap.String("file", path))
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("unable to remove stale segment: %w", err)
		}
		return nil
	})
}

func writeSingle(chapter *rst.Chapter, outputName string) (err error) {
	f, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("unable to create output: %w", err)
	}
	defer func() {
		if er := f.Close(); er != nil && err == nil {
			err = fmt.Errorf("unable to close output: %w", er)
		}
	}()

	if err := chapter.Render(f); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	return nil
}
