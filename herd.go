package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// herd drives one logical operation across every included repository in the
// manifest, in file order, sequentially.
type herd struct {
	opt   Options
	dir   string // tree root holding the manifest and primary checkout
	git   *gitRunner
	repos []Repository
	tags  map[string]bool

	root    *remoteRoot // resolved lazily, cached for the run
	cmpRoot *remoteRoot // compare target, cached likewise

	stdout io.Writer
	stderr io.Writer
}

// newHerd loads the manifest from dir and applies the tag selection flags.
func newHerd(opt Options, dir string, stdout, stderr io.Writer) (*herd, error) {
	repos, observed, err := loadManifest(dir)
	if err != nil {
		return nil, err
	}
	tags := newTagSet(observed)
	for _, t := range opt.Include {
		if _, ok := tags[t]; !ok {
			return nil, configErrorf("unknown tag %q (manifest defines: %s)", t, tagNames(tags))
		}
		tags[t] = true
	}
	for _, t := range opt.Exclude {
		if _, ok := tags[t]; !ok {
			return nil, configErrorf("unknown tag %q (manifest defines: %s)", t, tagNames(tags))
		}
		if t == requiredTag {
			return nil, configErrorf("tag %q cannot be excluded", t)
		}
		tags[t] = false
	}

	gitOut, gitErr := stdout, stderr
	if opt.Silent {
		gitOut, gitErr = io.Discard, io.Discard
	}
	return &herd{
		opt:    opt,
		dir:    dir,
		git:    &gitRunner{stdout: gitOut, stderr: gitErr},
		repos:  repos,
		tags:   tags,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

func tagNames(tags map[string]bool) string {
	names := make([]string, 0, len(tags))
	for t := range tags {
		if t != requiredTag {
			names = append(names, t)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// logf writes progress output, suppressed by quiet and silent.
func (h *herd) logf(format string, a ...any) {
	if h.opt.Quiet || h.opt.Silent {
		return
	}
	fmt.Fprintf(h.stderr, format, a...)
}

// warnf writes a warning, suppressed only by silent.
func (h *herd) warnf(format string, a ...any) {
	if h.opt.Silent {
		return
	}
	fmt.Fprintf(h.stderr, "%s %s\n", color.YellowString("warning:"), fmt.Sprintf(format, a...))
}

// opFailure wraps a failed VCS invocation. It is the only error kind the
// keep-going mode downgrades to a warning; configuration and missing-repo
// errors stay fatal regardless.
type opFailure struct {
	err error
}

func (e *opFailure) Error() string { return e.err.Error() }
func (e *opFailure) Unwrap() error { return e.err }

type repoFunc func(h *herd, rec Repository, args []string) error
type opFunc func(h *herd, args []string) error

// operation is one entry of the closed command table.
type operation struct {
	gitCmd         string   // git subcommand when it differs from the name
	routine        bool     // failures are routine, never abort the run
	skipSubmodules bool     // silently skip submodule records
	creates        bool     // operates on absent repositories (get)
	reconcile      bool     // reconcile submodule state after the pass
	repo           repoFunc // per-repository override; nil = passthrough
	whole          opFunc   // replaces the manifest iteration entirely
}

// operations is the full command surface. Lookup misses are fatal.
var operations = map[string]operation{
	"get":              {creates: true, reconcile: true, repo: runGet},
	"status":           {},
	"commit":           {routine: true},
	"push":             {skipSubmodules: true},
	"pull":             {reconcile: true, repo: runPull},
	"fetch":            {},
	"log":              {},
	"new":              {repo: runNew},
	"new-workdir":      {repo: runNewWorkdir},
	"send":             {gitCmd: "send-email"},
	"checkout":         {routine: true},
	"grep":             {routine: true},
	"diff":             {},
	"clean":            {},
	"reset":            {},
	"branch":           {},
	"config":           {},
	"repack":           {},
	"format-patch":     {},
	"gc":               {},
	"tag":              {},
	"remote":           {routine: true, repo: runRemote},
	"compare":          {skipSubmodules: true, repo: runCompare},
	"check_submodules": {whole: runCheckSubmodules},
}

var remoteSubcommands = map[string]bool{
	"add":          true,
	"rm":           true,
	"set-branches": true,
	"set-url":      true,
}

// runOp applies the named operation across the manifest.
func (h *herd) runOp(name string, args []string) error {
	op, ok := operations[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	if name == "remote" {
		if len(args) == 0 || !remoteSubcommands[args[0]] {
			return configErrorf("remote requires one of: add, rm, set-branches, set-url")
		}
	}
	if op.whole != nil {
		return op.whole(h, args)
	}

	sig := commandSignature(name, args)
	skipTo := ""
	if h.opt.Resume {
		if st, ok := readResume(h.dir); ok && st.Signature == sig {
			skipTo = st.LocalPath
			h.logf("resuming at %s\n", skipTo)
		}
	}

	skipping := skipTo != ""
	for _, rec := range h.repos {
		if !h.tags[rec.Tag] {
			continue
		}
		if skipping {
			if rec.LocalPath != skipTo {
				continue
			}
			// The checkpoint was written before this repository's
			// operation began, so it may not have completed; run it
			// again.
			skipping = false
		}
		if op.skipSubmodules && rec.IsSubmodule() {
			continue
		}
		if err := writeResume(h.dir, resumeState{LocalPath: rec.LocalPath, Signature: sig}); err != nil {
			return err
		}
		if err := h.runRepo(op, name, rec, args); err != nil {
			var soft *opFailure
			if errors.As(err, &soft) && (h.opt.KeepGoing || op.routine) {
				h.warnf("%s: %v", rec.LocalPath, soft.err)
				continue
			}
			return err
		}
	}
	clearResume(h.dir)

	if op.reconcile {
		return h.reconcileSubmodules()
	}
	return nil
}

// runRepo applies one operation to one repository.
func (h *herd) runRepo(op operation, name string, rec Repository, args []string) error {
	if !op.creates {
		if !h.repoPresent(rec) {
			if rec.Required() {
				return configErrorf("required repository %s is missing; run 'githerd get' first", rec.LocalPath)
			}
			h.warnf("%s not present, skipping", rec.LocalPath)
			return nil
		}
	}
	h.logf("== %s\n", rec.LocalPath)
	if op.repo != nil {
		return op.repo(h, rec, args)
	}
	gitCmd := op.gitCmd
	if gitCmd == "" {
		gitCmd = name
	}
	return h.passthrough(rec, gitCmd, args)
}

// passthrough hands the argument list to git unchanged.
func (h *herd) passthrough(rec Repository, gitCmd string, args []string) error {
	if err := h.git.Run(h.path(rec), gitCmd, args...); err != nil {
		return &opFailure{err: err}
	}
	return nil
}

func (h *herd) path(rec Repository) string {
	return filepath.Join(h.dir, rec.LocalPath)
}

// repoPresent reports whether the repository exists locally. In bare layout
// there is no metadata subdirectory, so the directory itself is the test.
func (h *herd) repoPresent(rec Repository) bool {
	if h.opt.Bare {
		fi, err := os.Stat(h.path(rec))
		return err == nil && fi.IsDir()
	}
	return isGitRepo(h.path(rec))
}

// resolvedRoot resolves and caches the remote tree root. Layout inference
// shells out to git, so it runs at most once per invocation.
func (h *herd) resolvedRoot() (remoteRoot, error) {
	if h.root != nil {
		return *h.root, nil
	}
	root, err := resolveRemoteRoot(h.git, h.opt, h.dir)
	if err != nil {
		return remoteRoot{}, err
	}
	h.root = &root
	return root, nil
}

// addressFor computes the remote address for one repository, fetching the
// recorded submodule URL when the record needs it.
func (h *herd) addressFor(rec Repository) (string, error) {
	root, err := h.resolvedRoot()
	if err != nil {
		return "", err
	}
	var subURL string
	if rec.IsSubmodule() && !root.checkedOut {
		subURL, err = h.git.ConfigGet(h.dir, "-f", ".gitmodules", "--get", "submodule."+rec.LocalPath+".url")
		if err != nil {
			return "", err
		}
		if subURL == "" {
			return "", configErrorf("no submodule URL recorded for %s", rec.LocalPath)
		}
	}
	return remoteAddress(rec, root, subURL), nil
}

// runGet clones missing repositories and applies the defensive configuration
// step to every repository, present or freshly cloned.
func runGet(h *herd, rec Repository, _ []string) error {
	if h.repoPresent(rec) {
		if rec.LocalPath != "." {
			h.warnf("%s already present; not cloning", rec.LocalPath)
		}
		return h.configureRepo(rec)
	}
	addr, err := h.addressFor(rec)
	if err != nil {
		return err
	}
	h.logf("cloning %s from %s\n", rec.LocalPath, addr)
	if err := h.git.Clone(addr, h.path(rec), h.opt.Bare); err != nil {
		return &opFailure{err: err}
	}
	return h.configureRepo(rec)
}

// configureRepo disarms the git behaviors that would silently rewrite a
// fresh checkout: case folding and line-ending translation. Idempotent.
func (h *herd) configureRepo(rec Repository) error {
	if h.opt.Bare {
		return nil
	}
	p := h.path(rec)
	if err := h.git.Run(p, "config", "core.ignorecase", "false"); err != nil {
		return &opFailure{err: err}
	}
	crlf, err := h.git.ConfigGet(p, "core.autocrlf")
	if err != nil {
		return err
	}
	if crlf != "" && crlf != "false" {
		if err := h.git.Run(p, "config", "core.autocrlf", "false"); err != nil {
			return &opFailure{err: err}
		}
		// The checkout was written through the translating filter; put
		// the tracked content back verbatim.
		if err := h.git.Run(p, "reset", "--hard", "-q", "HEAD"); err != nil {
			return &opFailure{err: err}
		}
	}
	return nil
}

// runPull downgrades the operation to a fetch for submodule records: their
// checked-out commit is pinned by the primary repository and is fixed up by
// the reconciliation pass instead.
func runPull(h *herd, rec Repository, args []string) error {
	if !rec.IsSubmodule() {
		return h.passthrough(rec, "pull", args)
	}
	fetchArgs := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--rebase" {
			continue
		}
		fetchArgs = append(fetchArgs, a)
	}
	return h.passthrough(rec, "fetch", fetchArgs)
}

// runNew lists the local commits the upstream branch does not have yet.
func runNew(h *herd, rec Repository, args []string) error {
	p := h.path(rec)
	upstream, err := h.git.FirstLine(p, "rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}")
	if err != nil || upstream == "" {
		h.warnf("%s has no upstream branch, skipping", rec.LocalPath)
		return nil
	}
	return h.passthrough(rec, "log", append([]string{"--first-parent", upstream + ".."}, args...))
}

// runNewWorkdir delegates to the linked-workdir helper script that ships
// with git, which cannot be expressed as a plain subcommand.
func runNewWorkdir(h *herd, rec Repository, args []string) error {
	cmd := exec.Command("git-new-workdir", append([]string{h.path(rec)}, args...)...)
	cmd.Stdout = h.git.stdout
	cmd.Stderr = h.git.stderr
	if err := cmd.Run(); err != nil {
		return &opFailure{err: fmt.Errorf("git-new-workdir %s: %w", rec.LocalPath, err)}
	}
	return nil
}

// runRemote passes remote management through to git, substituting the
// resolved address for the subcommands that take one.
func runRemote(h *herd, rec Repository, args []string) error {
	sub := args[0]
	callArgs := args
	if sub == "add" || sub == "set-url" {
		addr, err := h.addressFor(rec)
		if err != nil {
			return err
		}
		callArgs = append(append([]string{}, args...), addr)
	}
	return h.passthrough(rec, "remote", callArgs)
}
