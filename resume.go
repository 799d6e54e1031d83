package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resumeFileName holds the checkpoint for an interrupted run. Two lines:
// the local path last attempted, then the command signature it belonged to.
const resumeFileName = ".githerd-resume"

// resumeState is the persisted checkpoint of a partially completed run.
type resumeState struct {
	LocalPath string
	Signature string
}

// commandSignature identifies an invocation for resume matching. It is the
// exact operation name and arguments joined by spaces: textually different
// invocations never match, even if they would behave identically.
func commandSignature(op string, args []string) string {
	return strings.TrimSpace(op + " " + strings.Join(args, " "))
}

// readResume loads the checkpoint from dir. A missing or malformed file
// means no resume is in progress.
func readResume(dir string) (resumeState, bool) {
	data, err := os.ReadFile(filepath.Join(dir, resumeFileName))
	if err != nil {
		return resumeState{}, false
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 || lines[0] == "" {
		return resumeState{}, false
	}
	return resumeState{LocalPath: lines[0], Signature: lines[1]}, true
}

// writeResume records the checkpoint atomically: the state is written to a
// temp file in the same directory and renamed into place, so a run killed
// mid-write never leaves a torn checkpoint.
func writeResume(dir string, state resumeState) error {
	tmp, err := os.CreateTemp(dir, resumeFileName+".tmp")
	if err != nil {
		return fmt.Errorf("failed to create resume file: %w", err)
	}
	_, werr := fmt.Fprintf(tmp, "%s\n%s\n", state.LocalPath, state.Signature)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		if werr != nil {
			return fmt.Errorf("failed to write resume file: %w", werr)
		}
		return fmt.Errorf("failed to write resume file: %w", cerr)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, resumeFileName)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write resume file: %w", err)
	}
	return nil
}

// clearResume removes the checkpoint after a fully successful iteration.
func clearResume(dir string) {
	os.Remove(filepath.Join(dir, resumeFileName))
}
