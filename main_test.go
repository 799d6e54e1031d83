package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"4d63.com/testcli"
	"github.com/stretchr/testify/assert"
)

func setupGit(t *testing.T) {
	dir := testcli.MkdirTemp(t)
	os.Setenv("HOME", dir)
	testcli.Exec(t, "git config --global user.email 'tests@example.com'")
	testcli.Exec(t, "git config --global user.name 'Tests'")
	testcli.Exec(t, "git config --global init.defaultBranch main")
}

func gitExec(t *testing.T, command string) string {
	_, stdout, _ := testcli.Exec(t, command)
	return strings.TrimSpace(stdout)
}

// makeTree builds a remote tree with the given nested subrepositories and
// returns a local clone of its primary repository holding the manifest.
func makeTree(t *testing.T, manifest string, subrepos ...string) string {
	root := testcli.MkdirTemp(t)
	testcli.Chdir(t, root)
	testcli.Exec(t, "git init")
	testcli.WriteFile(t, "README", []byte("root"))
	testcli.Exec(t, "git add README")
	testcli.Exec(t, "git commit -m 'root'")

	for _, p := range subrepos {
		sub := filepath.Join(root, p)
		if err := os.MkdirAll(sub, 0755); err != nil {
			t.Fatal(err)
		}
		testcli.Chdir(t, sub)
		testcli.Exec(t, "git init")
		testcli.WriteFile(t, "README", []byte(p))
		testcli.Exec(t, "git add README")
		testcli.Exec(t, "git commit -m 'initial'")
	}

	work := testcli.MkdirTemp(t)
	testcli.Chdir(t, work)
	testcli.Exec(t, "git clone "+root+" tree")
	tree := filepath.Join(work, "tree")
	testcli.Chdir(t, tree)
	testcli.WriteFile(t, "packages", []byte(manifest))
	return tree
}

func TestGetClonesTree(t *testing.T) {
	setupGit(t)

	tree := makeTree(t, "libs/x - libs/x u1\nlibs/y extra libs/y u2\n", "libs/x", "libs/y")

	exitCode, _, stderr := testcli.Main(t, []string{"githerd", "get"}, nil, run)
	assert.Equal(t, 0, exitCode, stderr)
	assert.DirExists(t, filepath.Join(tree, "libs/x"))
	assert.NoDirExists(t, filepath.Join(tree, "libs/y"))

	exitCode, _, stderr = testcli.Main(t, []string{"githerd", "--include", "extra", "get"}, nil, run)
	assert.Equal(t, 0, exitCode, stderr)
	assert.DirExists(t, filepath.Join(tree, "libs/y"))
	// The already-cloned repository is left alone, with a warning.
	assert.Contains(t, stderr, "already present")

	// The defensive configuration was applied either way.
	testcli.Chdir(t, filepath.Join(tree, "libs/x"))
	assert.Equal(t, "false", gitExec(t, "git config core.ignorecase"))
}

func TestStatusAcrossTree(t *testing.T) {
	setupGit(t)

	makeTree(t, "libs/x - libs/x u1\n", "libs/x")

	exitCode, _, stderr := testcli.Main(t, []string{"githerd", "get"}, nil, run)
	assert.Equal(t, 0, exitCode, stderr)

	exitCode, stdout, stderr := testcli.Main(t, []string{"githerd", "status"}, nil, run)
	assert.Equal(t, 0, exitCode, stderr)
	assert.Contains(t, stdout, "working tree clean")
}

func TestQuietSuppressesProgress(t *testing.T) {
	setupGit(t)

	makeTree(t, "libs/x - libs/x u1\n", "libs/x")

	exitCode, _, stderr := testcli.Main(t, []string{"githerd", "-q", "get"}, nil, run)
	assert.Equal(t, 0, exitCode, stderr)
	assert.NotContains(t, stderr, "== libs/x")
}

func TestUnknownCommandCLI(t *testing.T) {
	setupGit(t)

	makeTree(t, "libs/x - libs/x u1\n", "libs/x")

	exitCode, _, stderr := testcli.Main(t, []string{"githerd", "frobnicate"}, nil, run)
	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestMissingManifest(t *testing.T) {
	setupGit(t)

	dir := testcli.MkdirTemp(t)
	testcli.Chdir(t, dir)

	exitCode, _, stderr := testcli.Main(t, []string{"githerd", "status"}, nil, run)
	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr, "no repository manifest found")
}

func TestMalformedManifest(t *testing.T) {
	setupGit(t)

	dir := testcli.MkdirTemp(t)
	testcli.Chdir(t, dir)
	testcli.WriteFile(t, "packages", []byte("libs/x - libs/x\n"))

	exitCode, _, stderr := testcli.Main(t, []string{"githerd", "status"}, nil, run)
	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr, "packages:1")
}
