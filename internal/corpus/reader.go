// Package corpus flattens a codebase into the single text block the agents
// read. Binary assets, dependency trees, and secret-bearing files are
// skipped.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var ignoredDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	".idea":        true,
	".vscode":      true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	"venv":         true,
	".venv":        true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

var ignoredExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".svg": true, ".pdf": true, ".zip": true, ".tar": true, ".gz": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".lock": true, ".sum": true, ".pyc": true, ".class": true, ".o": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".db": true, ".sqlite": true,
}

// ReadCodebase walks root and concatenates every readable source file into
// one string, each framed by START/END FILE markers with its path relative
// to root. Files that cannot be read are skipped rather than failing the
// whole walk.
func ReadCodebase(root string) (string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("failed to access codebase path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("codebase path %s is not a directory", root)
	}

	var sb strings.Builder
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if ignoredDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if ignoredExtensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		// Never feed credentials to a model.
		if name == ".env" || strings.HasPrefix(name, ".env.") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		fmt.Fprintf(&sb, "--- START FILE: %s ---\n", rel)
		sb.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "--- END FILE: %s ---\n\n", rel)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk codebase: %w", err)
	}
	return sb.String(), nil
}
