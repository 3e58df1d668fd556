package vfs

import "strings"

// Path is an ordered sequence of segment names from the filesystem root.
// The empty sequence denotes root. Paths are plain values; they are never
// validated against the mirror during resolution.
type Path []string

// HomePath is the canonical home directory of the simulated session.
var HomePath = Path{"home", "user"}

// ParsePath splits a slash-separated absolute path expression into segments,
// dropping empty segments.
func ParsePath(s string) Path {
	parts := strings.Split(s, "/")
	p := make(Path, 0, len(parts))
	for _, seg := range parts {
		if seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// String renders the path as a slash-joined absolute string; root is "/".
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	return "/" + strings.Join(p, "/")
}

// Equal reports segment-wise equality.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Parent returns the path with the last segment removed; parent of root is root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p[:len(p)-1].Clone()
}

// Base returns the last segment, or "" for root.
func (p Path) Base() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Join returns p extended with one more segment.
func (p Path) Join(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Resolve maps a user-supplied path expression against the current path and
// returns the normalized result. Resolution is pure string manipulation: the
// returned path may name a node that does not exist in the mirror, and it is
// the caller's job to check existence.
//
// Rules, in priority order: absolute expressions are split on "/"; "" and "."
// are the current path; ".." strips the last segment (no-op at root); "~" and
// "~/..." anchor at the home directory; anything else walks the current path
// as a stack, with "." a no-op and ".." a pop.
func Resolve(current Path, expr string) Path {
	switch {
	case strings.HasPrefix(expr, "/"):
		return ParsePath(expr)
	case expr == "" || expr == ".":
		return current.Clone()
	case expr == "..":
		return current.Parent()
	case expr == "~":
		return HomePath.Clone()
	case strings.HasPrefix(expr, "~/"):
		return walk(HomePath.Clone(), expr[2:])
	default:
		return walk(current.Clone(), expr)
	}
}

func walk(stack Path, expr string) Path {
	for _, seg := range strings.Split(expr, "/") {
		switch seg {
		case "", ".":
			// no-op
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return stack
}
