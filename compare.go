package main

import (
	"fmt"
	"regexp"
	"strings"
)

var commitHashPattern = regexp.MustCompile(`^[0-9a-f]{40}([0-9a-f]{24})?$`)

// compareRoot resolves the comparison target: the optional positional
// argument, taken verbatim like an explicit root, or the resolved remote
// root. Cached for the run.
func (h *herd) compareRoot(args []string) (remoteRoot, error) {
	if h.cmpRoot != nil {
		return *h.cmpRoot, nil
	}
	var root remoteRoot
	switch len(args) {
	case 0:
		r, err := h.resolvedRoot()
		if err != nil {
			return remoteRoot{}, err
		}
		root = r
	case 1:
		root = remoteRoot{
			location:   args[0],
			checkedOut: h.opt.CheckedOut,
			localFS:    !isNetworkAddress(args[0]),
		}
	default:
		return remoteRoot{}, configErrorf("compare takes at most one target root")
	}
	h.cmpRoot = &root
	return root, nil
}

// runCompare reports, per repository, whether the current branch points at
// the same commit locally and at the comparison target. A drift check, not
// a diff.
func runCompare(h *herd, rec Repository, args []string) error {
	root, err := h.compareRoot(args)
	if err != nil {
		return err
	}
	p := h.path(rec)

	branch, err := h.git.FirstLine(p, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		h.warnf("%s: no branch checked out, skipping", rec.LocalPath)
		return nil
	}
	local, err := h.git.Output(p, "rev-parse", branch)
	if err != nil {
		return &opFailure{err: err}
	}

	addr := remoteAddress(rec, root, "")
	line, err := h.git.FirstLine(p, "ls-remote", addr, "refs/heads/"+branch)
	if err != nil {
		return &opFailure{err: err}
	}
	if line == "" {
		h.warnf("%s: branch %s not found at %s", rec.LocalPath, branch, addr)
		h.printComparison(rec, false)
		return nil
	}
	remote := strings.Fields(line)[0]
	if !commitHashPattern.MatchString(remote) {
		return &opFailure{err: configErrorf("%s: unparseable ls-remote line %q from %s", rec.LocalPath, line, addr)}
	}
	h.printComparison(rec, remote == local)
	return nil
}

func (h *herd) printComparison(rec Repository, same bool) {
	verdict := "different"
	if same {
		verdict = "same"
	}
	fmt.Fprintf(h.stdout, "%s: %s\n", rec.LocalPath, verdict)
}
