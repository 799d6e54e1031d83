package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// reconcileSubmodules re-derives each submodule URL from the resolved remote
// layout and rewrites the primary repository's submodule configuration to
// match, then runs a standard submodule update. Called after get and pull
// passes; a no-op when the manifest has no submodules.
func (h *herd) reconcileSubmodules() error {
	subs := h.includedSubmodules()
	if len(subs) == 0 || h.opt.Bare {
		return nil
	}

	if err := h.git.Run(h.dir, "submodule", "init"); err != nil {
		return &opFailure{err: err}
	}
	root, err := h.resolvedRoot()
	if err != nil {
		return err
	}

	for _, rec := range subs {
		recorded, err := h.git.ConfigGet(h.dir, "submodule."+rec.LocalPath+".url")
		if err != nil {
			return err
		}
		rewritten := rewriteSubmoduleURL(rec, root, recorded)
		if rewritten == "" || rewritten == recorded {
			continue
		}
		h.logf("pointing submodule %s at %s\n", rec.LocalPath, rewritten)
		if err := h.git.Run(h.dir, "config", "submodule."+rec.LocalPath+".url", rewritten); err != nil {
			return &opFailure{err: err}
		}
	}

	if err := h.git.Run(h.dir, "submodule", "update"); err != nil {
		return &opFailure{err: err}
	}
	return nil
}

// rewriteSubmoduleURL computes the URL a submodule should fetch from under
// the resolved layout, or "" to leave the recorded URL alone. Local roots
// with a sibling checkout win over any recorded URL, so updates never hit
// the network when the tree next door already has the objects.
func rewriteSubmoduleURL(rec Repository, root remoteRoot, recorded string) string {
	if root.localFS {
		sibling := filepath.Join(root.location, rec.LocalPath)
		if fi, err := os.Stat(sibling); err == nil && fi.IsDir() {
			return sibling
		}
		return ""
	}
	if isProviderRoot(root) && strings.HasPrefix(recorded, "../") {
		// The recorded URL is a tree-relative package path; flatten it
		// into the provider's single-segment form.
		return remoteAddress(rec, root, recorded)
	}
	return ""
}

func (h *herd) includedSubmodules() []Repository {
	var subs []Repository
	for _, rec := range h.repos {
		if h.tags[rec.Tag] && rec.IsSubmodule() {
			subs = append(subs, rec)
		}
	}
	return subs
}

// runCheckSubmodules verifies that every submodule's checked-out commit is
// reachable from a remote tracking branch, so pushing the primary repository
// cannot publish a pointer to an unpublished commit.
func runCheckSubmodules(h *herd, _ []string) error {
	for _, rec := range h.includedSubmodules() {
		if !h.repoPresent(rec) {
			h.warnf("%s not present, skipping", rec.LocalPath)
			continue
		}
		p := h.path(rec)
		hash, err := h.git.Output(p, "rev-parse", "HEAD")
		if err != nil {
			return &opFailure{err: err}
		}
		branches, err := h.git.Output(p, "branch", "-r", "--contains", hash)
		if err != nil {
			return &opFailure{err: err}
		}
		if strings.TrimSpace(branches) == "" {
			return fmt.Errorf("submodule %s is at commit %s, which is not on any remote branch; push it from inside %s before pushing the top-level repository",
				rec.LocalPath, hash, rec.LocalPath)
		}
		h.logf("== %s ok\n", rec.LocalPath)
	}
	return nil
}
