package main

import (
	"errors"
	"fmt"
	"runtime"
)

// Repository is a single manifest entry. LocalPath is the unique key and
// defines iteration order; Tag selects inclusion; RemotePath is the path
// segment under the remote tree root, or "-" for submodules; UpstreamURL is
// informational only.
type Repository struct {
	LocalPath   string
	Tag         string
	RemotePath  string
	UpstreamURL string
}

// IsSubmodule reports whether the repository is tracked as a git submodule
// of the primary repository rather than as a plain subrepository.
func (r Repository) IsSubmodule() bool {
	return r.RemotePath == submoduleSentinel
}

// Required reports whether the repository carries the always-included tag.
func (r Repository) Required() bool {
	return r.Tag == requiredTag
}

const (
	// requiredTag marks a repository that is part of every checkout.
	requiredTag = "-"
	// submoduleSentinel in the remote-path field marks a submodule.
	submoduleSentinel = "-"
	// windowsTag is included by default on Windows hosts only.
	windowsTag = "windows"
)

// newTagSet builds the inclusion map for the tags observed in the manifest.
// All observed tags start excluded; the required sentinel is always on and
// the windows tag defaults on for Windows hosts.
func newTagSet(observed map[string]bool) map[string]bool {
	tags := make(map[string]bool, len(observed)+2)
	for t := range observed {
		tags[t] = false
	}
	tags[requiredTag] = true
	tags[windowsTag] = runtime.GOOS == "windows"
	return tags
}

// Options is the immutable per-invocation configuration, built once from
// command-line flags before orchestration begins.
type Options struct {
	Quiet      bool
	Silent     bool
	Resume     bool
	KeepGoing  bool
	RemoteRoot string // explicit root override; empty means infer
	CheckedOut bool
	Bare       bool
	Include    []string
	Exclude    []string
}

// remoteRoot describes the resolved base of the remote repository tree.
type remoteRoot struct {
	location   string
	checkedOut bool
	localFS    bool
}

// FormatError reports a malformed manifest line.
type FormatError struct {
	File string
	Line int
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s:%d: malformed manifest line (want 4 fields): %q", e.File, e.Line, e.Text)
}

// ErrManifestNotFound is returned when no candidate manifest file exists.
var ErrManifestNotFound = errors.New("no repository manifest found")

// configError marks a fatal configuration problem, such as an uninferable
// remote tree layout.
type configError struct {
	msg string
}

func (e *configError) Error() string { return e.msg }

func configErrorf(format string, a ...any) error {
	return &configError{msg: fmt.Sprintf(format, a...)}
}
