package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// gitRunner invokes git with an explicit working directory. Output of
// side-effecting calls streams to the configured writers; read calls capture
// stdout. The working directory is always passed with -C so no process-global
// directory state is ever mutated.
type gitRunner struct {
	stdout io.Writer
	stderr io.Writer
}

// Run runs a git subcommand in dir, streaming its output.
func (g *gitRunner) Run(dir, sub string, args ...string) error {
	cmd := exec.Command("git", append([]string{"-C", dir, sub}, args...)...)
	cmd.Stdout = g.stdout
	cmd.Stderr = g.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w", strings.Join(append([]string{sub}, args...), " "), err)
	}
	return nil
}

// Output runs a git subcommand in dir and returns its trimmed stdout.
func (g *gitRunner) Output(dir, sub string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", dir, sub}, args...)...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s",
			strings.Join(append([]string{sub}, args...), " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}

// FirstLine runs a git subcommand in dir and returns the first line of its
// stdout, or an empty string if there is none.
func (g *gitRunner) FirstLine(dir, sub string, args ...string) (string, error) {
	out, err := g.Output(dir, sub, args...)
	if err != nil {
		return "", err
	}
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		return out[:i], nil
	}
	return out, nil
}

// ConfigGet reads a single git config value in dir. An unset key returns
// ("", nil): git exits 1 for missing keys and that is not an error here.
func (g *gitRunner) ConfigGet(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", dir, "config"}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) && exit.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("git config %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Clone clones url to path, streaming progress. Clone has no repository to
// run inside, so -C is omitted.
func (g *gitRunner) Clone(url, path string, bare bool) error {
	args := []string{"clone"}
	if bare {
		args = append(args, "--bare")
	}
	args = append(args, url, path)
	cmd := exec.Command("git", args...)
	cmd.Stdout = g.stdout
	cmd.Stderr = g.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git clone %s: %w", url, err)
	}
	return nil
}

// isGitRepo reports whether path holds git metadata. A submodule checkout
// has a .git file rather than a directory, so any stat hit counts.
func isGitRepo(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}
