package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// manifestNames are the candidate manifest filenames, tried in order.
var manifestNames = []string{"packages", "packages.conf"}

// loadManifest reads the repository manifest from dir. It returns the
// records in file order plus the set of tags observed (each excluded).
func loadManifest(dir string) ([]Repository, map[string]bool, error) {
	var path string
	for _, name := range manifestNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
			break
		}
	}
	if path == "" {
		return nil, nil, fmt.Errorf("%w (tried %s)", ErrManifestNotFound, strings.Join(manifestNames, ", "))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	var repos []Repository
	tags := make(map[string]bool)
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, nil, &FormatError{File: filepath.Base(path), Line: lineno, Text: line}
		}
		repo := Repository{
			LocalPath:   fields[0],
			Tag:         fields[1],
			RemotePath:  fields[2],
			UpstreamURL: fields[3],
		}
		repos = append(repos, repo)
		tags[repo.Tag] = false
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	return repos, tags, nil
}
