package render

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"cssg/config"
	"cssg/recipe"
	"cssg/state"
)

// buildOutputPath returns constructed output file path/name based on various
// input parameters. It uses either default naming scheme or user defined
// template and takes into account whether to preserve source directory
// structure on the output. It cleans up the path and if requested
// transliterates it.
func buildOutputPath(rcp *recipe.Recipe, src, dst string, format config.OutputFmt, env *state.LocalEnv) string {
	outDir := determineOutputDir(src, dst, env)
	defaultFile := buildDefaultFileName(rcp, src, format, env)

	if env.Cfg.Render.OutputNameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expandedName := expandOutputNameTemplate(rcp, format, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, defaultFile)
	}

	return assemblePathWithSubdirs(outDir, expandedName, format, env)
}

// determineOutputDir returns the base output directory, preserving source
// directory structure unless user requested otherwise.
func determineOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

// buildDefaultFileName creates the default output file name. The recipe name
// is preferred, source file stem is the fallback for nameless recipes.
func buildDefaultFileName(rcp *recipe.Recipe, src string, format config.OutputFmt, env *state.LocalEnv) string {
	baseName := rcp.Metadata.Name
	if baseName == "" {
		baseName = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}
	if env.Cfg.Render.FileNameTransliterate {
		baseName = slug.Make(baseName)
	}
	return config.CleanFileName(baseName) + format.Ext()
}

// expandOutputNameTemplate expands the user-defined output name template.
// Returns empty string if expansion fails.
func expandOutputNameTemplate(rcp *recipe.Recipe, format config.OutputFmt, env *state.LocalEnv) string {
	expandedName, err := rcp.ExpandTemplate(config.OutputNameTemplateFieldName, env.Cfg.Render.OutputNameTemplate, format)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(expandedName)
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators to create subdirectories) and assembles the final path,
// cleaning each segment separately so separators inside template values do
// not escape the destination.
func assemblePathWithSubdirs(outDir, expandedName string, format config.OutputFmt, env *state.LocalEnv) string {
	segments := splitAndCleanPath(expandedName)
	if len(segments) == 0 {
		segments = []string{"_bad_file_name_"}
	}

	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, outDir)
	for i, segment := range segments {
		cleaned := cleanPathSegment(segment, env)
		if i == len(segments)-1 {
			cleaned += format.Ext()
		}
		parts = append(parts, cleaned)
	}
	return filepath.Join(parts...)
}

// splitAndCleanPath splits a path into segments, dropping empty ones and
// current/parent directory references.
func splitAndCleanPath(path string) []string {
	var segments []string
	for len(path) > 0 {
		var segment string
		path, segment = filepath.Split(path)
		path = strings.TrimSuffix(path, string(filepath.Separator))
		if segment != "" && segment != "." && segment != ".." {
			segments = slices.Insert(segments, 0, segment)
		}
	}
	return segments
}

// cleanPathSegment cleans a single path segment, transliterating if
// requested.
func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Render.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
