package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteAddress(t *testing.T) {
	plain := Repository{LocalPath: "libs/base", Tag: "-", RemotePath: "packages/base.git"}
	sub := Repository{LocalPath: "utils/foo", Tag: "-", RemotePath: "-"}

	tests := []struct {
		name         string
		rec          Repository
		root         remoteRoot
		submoduleURL string
		want         string
	}{
		{
			name: "checked-out tree uses the local path",
			rec:  plain,
			root: remoteRoot{location: "/srv/trees/ghc", checkedOut: true, localFS: true},
			want: "/srv/trees/ghc/libs/base",
		},
		{
			name: "bare root uses the remote path verbatim",
			rec:  plain,
			root: remoteRoot{location: "git://example.org"},
			want: "git://example.org/packages/base.git",
		},
		{
			name:         "submodule strips one leading dot-dot",
			rec:          sub,
			root:         remoteRoot{location: "git://example.org"},
			submoduleURL: "../packages/foo.git",
			want:         "git://example.org/packages/foo.git",
		},
		{
			name:         "submodule without dot-dot is untouched",
			rec:          sub,
			root:         remoteRoot{location: "git://example.org"},
			submoduleURL: "packages/foo.git",
			want:         "git://example.org/packages/foo.git",
		},
		{
			name: "provider root flattens the first slash only",
			rec:  plain,
			root: remoteRoot{location: "git://github.com/ghc"},
			want: "git://github.com/ghc/packages-base.git",
		},
		{
			name: "provider flattening leaves later slashes alone",
			rec:  Repository{LocalPath: "libs/deep", RemotePath: "a/b/c.git"},
			root: remoteRoot{location: "https://github.com/ghc"},
			want: "https://github.com/ghc/a-b/c.git",
		},
		{
			name: "provider flattening is idempotent without a slash",
			rec:  Repository{LocalPath: "utils", RemotePath: "hsc2hs.git"},
			root: remoteRoot{location: "https://github.com/ghc"},
			want: "https://github.com/ghc/hsc2hs.git",
		},
		{
			name: "checked-out provider root flattens the local path",
			rec:  plain,
			root: remoteRoot{location: "git://github.com/ghc", checkedOut: true},
			want: "git://github.com/ghc/libs-base",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, remoteAddress(tt.rec, tt.root, tt.submoduleURL))
		})
	}
}

func TestIsProviderRoot(t *testing.T) {
	provider := []string{
		"git://github.com/ghc",
		"http://github.com/ghc",
		"https://github.com/ghc",
		"ssh://github.com/ghc",
		"ssh://git@github.com/ghc",
		"git@github.com:ghc",
	}
	for _, loc := range provider {
		assert.True(t, isProviderRoot(remoteRoot{location: loc}), loc)
	}

	other := []string{
		"git://example.org/ghc",
		"https://gitlab.com/ghc",
		"/srv/github.com/ghc",
		"git://github.company.com/ghc",
	}
	for _, loc := range other {
		assert.False(t, isProviderRoot(remoteRoot{location: loc}), loc)
	}
}
