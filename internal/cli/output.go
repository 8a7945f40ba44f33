package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeArtifacts writes each format to a file and returns the paths in
// format order. With one format, output names the file; "-" writes it to
// stdout. With several, output is a base path that gets one extension per
// format. An empty output falls back to base.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, base string) ([]string, error) {
	if len(formats) == 1 && output == "-" {
		_, err := stdout.Write(artifacts[formats[0]])
		return nil, err
	}

	single := len(formats) == 1 && output != ""
	if output == "" {
		output = base
	}
	if !single {
		output = strings.TrimSuffix(output, filepath.Ext(output))
	}

	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path := output
		if !single {
			path = output + "." + format
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// stem strips the extension from path, e.g. "out/g.json" becomes "out/g".
func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
