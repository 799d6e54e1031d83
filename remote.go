package main

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// branchPattern is the conservative shape a branch name must match before we
// trust it for remote lookup. Anything else (detached HEAD artifacts, rebase
// states) is a configuration error.
var branchPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9./-]*$`)

// defaultRemote is used when the current branch has no configured remote.
const defaultRemote = "origin"

// resolveRemoteRoot determines the base location of the remote repository
// tree and its layout. dir is the primary checkout whose tracking
// configuration seeds the inference when no explicit root is given.
func resolveRemoteRoot(g *gitRunner, opt Options, dir string) (remoteRoot, error) {
	if opt.RemoteRoot != "" {
		// An explicit root is used verbatim: no segment stripping, no
		// marker probing.
		return remoteRoot{
			location:   opt.RemoteRoot,
			checkedOut: opt.CheckedOut,
			localFS:    !isNetworkAddress(opt.RemoteRoot),
		}, nil
	}

	branch, err := g.FirstLine(dir, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		return remoteRoot{}, configErrorf("cannot determine current branch of %s: %v", dir, err)
	}
	if !branchPattern.MatchString(branch) {
		return remoteRoot{}, configErrorf("unexpected branch name %q in %s", branch, dir)
	}

	remote, err := g.ConfigGet(dir, "branch."+branch+".remote")
	if err != nil {
		return remoteRoot{}, err
	}
	if remote == "" {
		remote = defaultRemote
	}

	addr, err := g.ConfigGet(dir, "remote."+remote+".url")
	if err != nil {
		return remoteRoot{}, err
	}
	if addr == "" {
		return remoteRoot{}, configErrorf("branch %q tracks remote %q, which has no URL configured", branch, remote)
	}

	return classifyRoot(addr, opt, dir)
}

// classifyRoot decides the layout of an inferred root address.
func classifyRoot(addr string, opt Options, dir string) (remoteRoot, error) {
	switch {
	case isNetworkAddress(addr):
		root := remoteRoot{location: addr, checkedOut: opt.CheckedOut}
		if !root.checkedOut {
			// The tracking URL names the primary repository itself;
			// its parent is the tree root.
			root.location = stripLastSegment(addr)
		}
		return root, nil

	case isFilesystemPath(addr):
		root := remoteRoot{location: addr, localFS: true}
		if opt.CheckedOut {
			root.checkedOut = true
			return root, nil
		}
		if fi, err := os.Stat(filepath.Join(addr, "HEAD")); err == nil && !fi.IsDir() {
			// The address is a bare repository; the tree root is its
			// parent.
			root.location = stripLastSegment(addr)
			return root, nil
		}
		if fi, err := os.Stat(filepath.Join(addr, primaryMirrorName(dir))); err == nil && fi.IsDir() {
			// The address is a directory of bare mirrors.
			return root, nil
		}
		root.checkedOut = true
		return root, nil

	default:
		return remoteRoot{}, configErrorf("cannot infer remote tree layout from %q", addr)
	}
}

// isNetworkAddress reports whether addr looks network-addressed. The colon
// must be preceded by at least two characters so a single-letter drive
// designator is not mistaken for a host.
func isNetworkAddress(addr string) bool {
	return strings.IndexByte(addr, ':') >= 2
}

var drivePattern = regexp.MustCompile(`^[A-Za-z]:[/\\]`)

// isFilesystemPath reports whether addr has the shape of an absolute or
// relative filesystem path.
func isFilesystemPath(addr string) bool {
	return strings.HasPrefix(addr, "/") ||
		strings.HasPrefix(addr, "./") ||
		strings.HasPrefix(addr, "../") ||
		strings.HasPrefix(addr, "~") ||
		drivePattern.MatchString(addr)
}

// primaryMirrorName is the directory name a bare mirror of the primary
// repository would have under a mirror root.
func primaryMirrorName(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return filepath.Base(abs) + ".git"
}

// stripLastSegment removes the final /-separated segment of addr, leaving
// the remainder intact. An address with no separator is returned unchanged.
func stripLastSegment(addr string) string {
	if i := strings.LastIndexByte(addr, '/'); i > 0 {
		return addr[:i]
	}
	return addr
}
