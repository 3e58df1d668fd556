package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	home := Path{"home", "user"}

	tests := []struct {
		name    string
		current Path
		expr    string
		want    Path
	}{
		{"absolute", home, "/etc/hosts", Path{"etc", "hosts"}},
		{"absolute with duplicate slashes", home, "//usr///bin/", Path{"usr", "bin"}},
		{"absolute root", home, "/", Path{}},
		{"empty expr", home, "", home},
		{"dot", home, ".", home},
		{"dotdot", home, "..", Path{"home"}},
		{"dotdot at root", Path{}, "..", Path{}},
		{"tilde", Path{"tmp"}, "~", home},
		{"tilde slash", Path{"tmp"}, "~/docs/notes", Path{"home", "user", "docs", "notes"}},
		{"relative child", home, "projects", Path{"home", "user", "projects"}},
		{"relative nested", home, "a/b/c", Path{"home", "user", "a", "b", "c"}},
		{"relative with dots", home, "./a/../b", Path{"home", "user", "b"}},
		{"relative pops past root", Path{"home"}, "../../..", Path{}},
		{"trailing slash", home, "docs/", Path{"home", "user", "docs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.current, tt.expr)
			assert.True(t, tt.want.Equal(got), "Resolve(%v, %q) = %v, want %v", tt.current, tt.expr, got, tt.want)
		})
	}
}

// Resolving an already-normalized absolute path returns itself unchanged.
func TestResolveIdempotent(t *testing.T) {
	for _, p := range []Path{{}, {"etc"}, {"home", "user", "docs"}} {
		got := Resolve(Path{"somewhere", "else"}, p.String())
		assert.True(t, p.Equal(got), "Resolve of %q not idempotent: got %v", p.String(), got)
	}
}

// resolve(p, "..") then resolving the dropped segment round-trips back to p,
// except at root where ".." is a floor.
func TestResolveParentChildRoundTrip(t *testing.T) {
	paths := []Path{
		{"home"},
		{"home", "user"},
		{"usr", "local", "bin"},
	}
	for _, p := range paths {
		up := Resolve(p, "..")
		back := Resolve(up, p.Base())
		assert.True(t, p.Equal(back), "round trip through .. broke %v: got %v", p, back)
	}

	root := Path{}
	assert.True(t, Resolve(root, "..").Equal(root))
}

func TestResolveDoesNotMutateCurrent(t *testing.T) {
	current := Path{"home", "user"}
	_ = Resolve(current, "a/b")
	_ = Resolve(current, "..")
	assert.True(t, current.Equal(Path{"home", "user"}))
}

func TestPathString(t *testing.T) {
	assert.Equal(t, "/", Path{}.String())
	assert.Equal(t, "/home/user", Path{"home", "user"}.String())
	assert.True(t, ParsePath("/home/user").Equal(Path{"home", "user"}))
	assert.True(t, ParsePath("/").Equal(Path{}))
}
