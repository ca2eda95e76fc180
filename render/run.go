// Package render implements the render subcommand: it locates stylesheet
// recipes (single files, directories or zip bundles), builds each one and
// writes the result as CSS or as a standalone XHTML preview.
package render

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"cssg/archive"
	"cssg/config"
	"cssg/jsonutil"
	"cssg/recipe"
	"cssg/render/preview"
	"cssg/state"
	"cssg/stylesheet"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("render")

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
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	format, err := config.ParseOutputFmt(cmd.String("to"))
	if err != nil {
		log.Warn("Unknown output format requested, switching to css", zap.Error(err))
		format = config.OutputFmtCSS
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old bundles
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in bundles", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, format, log)
}

// process handles the core rendering logic independently of CLI framework.
// It determines the input type (directory, bundle, or single file) and
// processes accordingly.
func process(ctx context.Context, src, dst string, format config.OutputFmt, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exist - probably path in bundle
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, format, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		bundle, err := isBundleFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check bundle type: %w", err)
		}
		if bundle {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processBundle(ctx, head, tail, "", dst, format, log); err != nil {
				return fmt.Errorf("unable to process bundle: %w", err)
			}
			break
		}

		rcp, enc, err := isRecipeFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if rcp && len(tail) == 0 {
			// we have recipe, it cannot have tail
			if rpt := state.EnvFromContext(ctx).Rpt; rpt != nil {
				if err := rpt.StoreCopy("input/"+filepath.Base(head), head); err != nil {
					log.Warn("Unable to store input in the report", zap.String("file", head), zap.Error(err))
				}
			}
			if file, err := os.Open(head); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			} else {
				defer file.Close()
				if err := processRecipe(ctx, selectReader(file, enc), filepath.Base(head), dst, format, log); err != nil {
					log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
				}
			}
			break
		}
		return fmt.Errorf("input was not recognized as stylesheet recipe (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding recipes and bundles and processes
// them in natural path order, so runs do not depend on filesystem ordering.
func processDir(ctx context.Context, dir, dst string, format config.OutputFmt, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	var files []string
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
		files = append(files, path)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Sort(natural.StringSlice(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		bundle, err := isBundleFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if bundle {
			if err := processBundle(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, format, log); err != nil {
				log.Error("Unable to process bundle", zap.String("file", path), zap.Error(err))
			}
			continue
		}

		rcp, enc, err := isRecipeFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if !rcp {
			log.Debug("Skipping file, not recognized as recipe or bundle", zap.String("file", path))
			continue
		}

		count++

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if rpt := state.EnvFromContext(ctx).Rpt; rpt != nil {
			if err := rpt.StoreCopy(filepath.ToSlash(filepath.Join("input", src)), path); err != nil {
				log.Warn("Unable to store input in the report", zap.String("file", path), zap.Error(err))
			}
		}

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			continue
		}

		if err := processRecipe(ctx, selectReader(file, enc), src, dst, format, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		file.Close()
	}
	return nil
}

// processBundle walks all files inside bundle, finds recipes under "pathIn"
// and processes them.
func processBundle(ctx context.Context, path, pathIn, pathOut, dst string, format config.OutputFmt, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("bundle", path))
		}
	}()

	if rpt := state.EnvFromContext(ctx).Rpt; rpt != nil {
		if err := rpt.StoreCopy("input/"+filepath.Base(path), path); err != nil {
			log.Warn("Unable to store input in the report", zap.String("bundle", path), zap.Error(err))
		}
	}

	err = archive.Walk(path, pathIn, recipeExts, func(bundle string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		rcp, enc, err := isRecipeInBundle(f)
		if err != nil {
			log.Warn("Skipping file in bundle",
				zap.String("bundle", bundle), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !rcp {
			log.Debug("Skipping file, not recognized as recipe", zap.String("bundle", bundle), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in bundle",
				zap.String("bundle", bundle), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		cp := state.EnvFromContext(ctx).CodePage

		pathInBundle := f.FileHeader.Name
		if cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInBundle); err == nil {
				pathInBundle = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert bundle name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInBundle), zap.Error(err))
			}
		}
		if err := processRecipe(ctx, selectReader(r, enc), filepath.Join(pathOut, pathInBundle), dst, format, log); err != nil {
			log.Error("Unable to process file in bundle",
				zap.String("bundle", bundle), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// runManifest summarizes one rendering for the debug report.
type runManifest struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Source   string   `json:"source"`
	Output   string   `json:"output"`
	Format   string   `json:"format"`
	Rules    int      `json:"rules"`
	Warnings []string `json:"warnings,omitempty"`
}

// processRecipe processes single recipe. "src" is part of the source path
// (always including file name) relative to the original path. When actual
// file was specified it will be just base file name without a path. When
// looking inside bundle or directory it will be relative path inside bundle
// or directory (including base file name). "dst" is the destination
// directory where the rendered file should be written.
func processRecipe(ctx context.Context, r io.Reader, src string, dst string, format config.OutputFmt, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var refID, outputName string

	log.Info("Rendering starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: one bad recipe must not stop the batch.
		if r := recover(); r != nil {
			log.Error("Rendering ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("rendering panic: %v", r)
		} else {
			log.Info("Rendering completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("ref_id", refID))
		}
	}(time.Now())

	rcp, err := recipe.Prepare(ctx, r, src, log)
	if err != nil {
		return fmt.Errorf("unable to parse recipe source (%s): %w", src, err)
	}

	refID = rcp.Metadata.ID

	// Save normalized recipe for debugging
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("recipe-%s.txt", refID), []byte(rcp.String()))
	}

	sheet, err := rcp.Build(ctx, log)
	if err != nil {
		return fmt.Errorf("unable to build stylesheet (%s): %w", src, err)
	}
	for _, warning := range sheet.Warnings {
		log.Warn("Recipe produced warning", zap.String("recipe", src), zap.String("warning", warning))
	}

	// Determine output file name and path based on input and configuration.
	outputName = buildOutputPath(rcp, src, dst, format, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	// Generate output in the requested format
	switch format {
	case config.OutputFmtCSS:
		if err := writeStylesheet(sheet, outputName, log); err != nil {
			return fmt.Errorf("unable to generate output: %w", err)
		}
	case config.OutputFmtPreview:
		if err := preview.Generate(ctx, rcp, sheet, outputName, &env.Cfg.Render.Preview, log); err != nil {
			return fmt.Errorf("unable to generate output: %w", err)
		}
	}

	// Store rendering result for debugging
	if env.Rpt != nil {
		env.Rpt.Store(fmt.Sprintf("result-%s%s", refID, filepath.Ext(outputName)), outputName)

		manifest, err := jsonutil.EncodeIndent(runManifest{
			ID:       refID,
			Name:     rcp.Metadata.Name,
			Source:   src,
			Output:   outputName,
			Format:   format.String(),
			Rules:    len(rcp.Rules),
			Warnings: sheet.Warnings,
		})
		if err != nil {
			log.Warn("Unable to prepare run manifest", zap.Error(err))
		} else {
			env.Rpt.StoreData(fmt.Sprintf("render-%s.json", refID), manifest)
		}
	}
	return nil
}

// writeStylesheet writes rendered CSS to the output file.
func writeStylesheet(sheet *stylesheet.Stylesheet, outputPath string, log *zap.Logger) error {
	log.Info("Generating stylesheet", zap.String("output", outputPath))

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer f.Close()

	if _, err := sheet.WriteTo(f); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}
	return nil
}
