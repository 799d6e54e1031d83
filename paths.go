package main

import (
	"regexp"
	"strings"
)

// githubRootPattern matches the hosting-provider roots that disallow nested
// repository paths and require the flattened dash form instead.
var githubRootPattern = regexp.MustCompile(`^((git|ssh|http|https)://([^/@]+@)?github\.com[:/]|git@github\.com:)`)

// isProviderRoot reports whether the root location is hosted on a provider
// that needs path flattening.
func isProviderRoot(root remoteRoot) bool {
	return githubRootPattern.MatchString(root.location)
}

// remoteAddress computes the concrete remote address for one repository.
// submoduleURL is the URL recorded in the primary repository's submodule
// configuration for rec's path, looked up by the caller; it is consulted
// only for submodule records under a non-checked-out root. The function is
// pure: same inputs, same address.
func remoteAddress(rec Repository, root remoteRoot, submoduleURL string) string {
	var seg string
	switch {
	case root.checkedOut:
		// A checked-out tree mirrors the local layout exactly.
		seg = rec.LocalPath
	case rec.IsSubmodule():
		seg = strings.TrimPrefix(submoduleURL, "../")
	default:
		seg = rec.RemotePath
	}
	if isProviderRoot(root) {
		seg = strings.Replace(seg, "/", "-", 1)
	}
	return root.location + "/" + seg
}
