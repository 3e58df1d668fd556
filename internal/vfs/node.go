// Package vfs implements the local filesystem mirror: an in-memory tree of
// named nodes with Unix-style metadata and permissions.
//
// The mirror is a best-effort display cache, not a source of truth. The
// authoritative state of the simulated filesystem lives with the oracle; the
// tree here is only mutated by the session reconciler after each exchange and
// is consulted when serializing state into the next prompt. Callers must
// never assume the mirror is correct, only that it reflects the last
// reconciled reply.
package vfs

import (
	"time"
)

// NodeType discriminates the three node kinds.
type NodeType string

const (
	TypeFile      NodeType = "file"
	TypeDirectory NodeType = "directory"
	TypeSymlink   NodeType = "symlink"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case TypeFile, TypeDirectory, TypeSymlink:
		return true
	}
	return false
}

// PermissionSet holds one rwx triple.
type PermissionSet struct {
	Read    bool `json:"read"`
	Write   bool `json:"write"`
	Execute bool `json:"execute"`
}

// SpecialBits holds the setuid/setgid/sticky bits.
type SpecialBits struct {
	Setuid bool `json:"setuid"`
	Setgid bool `json:"setgid"`
	Sticky bool `json:"sticky"`
}

// Permissions models Unix permission bits for a node.
type Permissions struct {
	User    PermissionSet `json:"user"`
	Group   PermissionSet `json:"group"`
	Others  PermissionSet `json:"others"`
	Special SpecialBits   `json:"special"`
}

// DefaultFilePermissions returns 0644.
func DefaultFilePermissions() Permissions {
	return Permissions{
		User:   PermissionSet{Read: true, Write: true},
		Group:  PermissionSet{Read: true},
		Others: PermissionSet{Read: true},
	}
}

// DefaultDirPermissions returns 0755.
func DefaultDirPermissions() Permissions {
	return Permissions{
		User:   PermissionSet{Read: true, Write: true, Execute: true},
		Group:  PermissionSet{Read: true, Execute: true},
		Others: PermissionSet{Read: true, Execute: true},
	}
}

// String renders the permissions in ls -l form, e.g. "rwxr-xr-x".
func (p Permissions) String() string {
	buf := make([]byte, 0, 9)
	for _, set := range []PermissionSet{p.User, p.Group, p.Others} {
		buf = append(buf, flag(set.Read, 'r'), flag(set.Write, 'w'), flag(set.Execute, 'x'))
	}
	return string(buf)
}

func flag(on bool, c byte) byte {
	if on {
		return c
	}
	return '-'
}

// Metadata carries per-node bookkeeping. Size tracks content length for files
// and child count for directories.
type Metadata struct {
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Accessed time.Time `json:"accessed"`
	Size     int       `json:"size"`
	Owner    string    `json:"owner"`
	Group    string    `json:"group"`
}

// Node is a single entry in the mirror tree. Directories own their children
// exclusively: every non-root node has exactly one parent and no node is its
// own ancestor. For symlinks, Content holds the target path string.
type Node struct {
	Name        string           `json:"name"`
	Type        NodeType         `json:"type"`
	Content     string           `json:"content,omitempty"`
	Children    map[string]*Node `json:"children,omitempty"`
	Metadata    Metadata         `json:"metadata"`
	Permissions Permissions      `json:"permissions"`
}

// NewFile creates a file node with default permissions.
func NewFile(name, content string, now time.Time) *Node {
	return &Node{
		Name:    name,
		Type:    TypeFile,
		Content: content,
		Metadata: Metadata{
			Created: now, Modified: now, Accessed: now,
			Size: len(content), Owner: "user", Group: "user",
		},
		Permissions: DefaultFilePermissions(),
	}
}

// NewDirectory creates an empty directory node with default permissions.
func NewDirectory(name string, now time.Time) *Node {
	return &Node{
		Name:     name,
		Type:     TypeDirectory,
		Children: make(map[string]*Node),
		Metadata: Metadata{
			Created: now, Modified: now, Accessed: now,
			Owner: "user", Group: "user",
		},
		Permissions: DefaultDirPermissions(),
	}
}

// NewSymlink creates a symlink node pointing at target.
func NewSymlink(name, target string, now time.Time) *Node {
	n := NewFile(name, target, now)
	n.Type = TypeSymlink
	return n
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n != nil && n.Type == TypeDirectory }

// Summary is the flattened per-child view recorded in transcript snapshots
// and serialized into prompts.
type Summary struct {
	Type        NodeType `json:"type"`
	Size        int      `json:"size"`
	Permissions string   `json:"permissions"`
}

// Summarize produces the node's summary.
func (n *Node) Summarize() Summary {
	size := n.Metadata.Size
	if n.IsDir() {
		size = len(n.Children)
	}
	return Summary{Type: n.Type, Size: size, Permissions: n.Permissions.String()}
}
