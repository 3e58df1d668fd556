package vfs

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Mutation failure conditions surfaced by tree operations. Callers that apply
// oracle action batches treat these as skippable, not fatal.
var (
	ErrNotFound     = errors.New("no such file or directory")
	ErrExists       = errors.New("file exists")
	ErrNotDirectory = errors.New("not a directory")
)

// Tree is the rooted mirror tree. It is not safe for concurrent use; the
// session controller guarantees single-threaded access via the in-flight gate.
type Tree struct {
	root *Node
	now  func() time.Time
}

// NewTree creates an empty tree rooted at an unnamed directory.
func NewTree() *Tree {
	t := &Tree{now: time.Now}
	t.root = NewDirectory("", t.now())
	return t
}

// NewSeededTree builds the canonical default tree: standard top-level
// directories plus a seeded home directory with a couple of files.
func NewSeededTree() *Tree {
	t := NewTree()
	now := t.now()
	for _, name := range []string{"bin", "etc", "home", "tmp", "usr", "var"} {
		t.root.Children[name] = NewDirectory(name, now)
	}
	user := NewDirectory("user", now)
	user.Children["readme.txt"] = NewFile("readme.txt", "Welcome to mirage.\n", now)
	user.Children[".profile"] = NewFile(".profile", "export PS1='%'\n", now)
	home := t.root.Children["home"]
	home.Children["user"] = user
	return t
}

// Root returns the root directory node.
func (t *Tree) Root() *Node { return t.root }

// GetNodeAt walks the tree along path. It returns nil when any segment is
// missing or when a non-final segment is not a directory.
func (t *Tree) GetNodeAt(path Path) *Node {
	node := t.root
	for _, seg := range path {
		if !node.IsDir() {
			return nil
		}
		child, ok := node.Children[seg]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// dirAt returns the directory node at path, or a typed error describing why
// it cannot serve as a parent for a mutation.
func (t *Tree) dirAt(path Path) (*Node, error) {
	node := t.GetNodeAt(path)
	if node == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if !node.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	return node, nil
}

// CreateNode inserts a new child under parentPath. It fails with ErrNotFound
// or ErrNotDirectory when the parent is unusable and ErrExists on collision.
func (t *Tree) CreateNode(parentPath Path, name string, typ NodeType, content string) (*Node, error) {
	if name == "" {
		return nil, fmt.Errorf("create: empty name")
	}
	parent, err := t.dirAt(parentPath)
	if err != nil {
		return nil, err
	}
	if _, ok := parent.Children[name]; ok {
		return nil, fmt.Errorf("%s: %w", parentPath.Join(name), ErrExists)
	}
	now := t.now()
	var node *Node
	switch typ {
	case TypeDirectory:
		node = NewDirectory(name, now)
	case TypeSymlink:
		node = NewSymlink(name, content, now)
	default:
		node = NewFile(name, content, now)
	}
	parent.Children[name] = node
	parent.Metadata.Modified = now
	return node, nil
}

// CreatePath creates the node at path, materializing any missing ancestor
// directories in sequence (mkdir -p semantics). If an intermediate segment
// exists but is not a directory the walk stops with ErrNotDirectory. Creating
// a path whose target already exists with the same type is a no-op, never an
// overwrite; a type mismatch at the target is ErrExists.
func (t *Tree) CreatePath(path Path, typ NodeType, content string) (*Node, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("create: empty path")
	}
	node := t.root
	for i, seg := range path[:len(path)-1] {
		child, ok := node.Children[seg]
		if !ok {
			child = NewDirectory(seg, t.now())
			node.Children[seg] = child
		} else if !child.IsDir() {
			return nil, fmt.Errorf("%s: %w", Path(path[:i+1]), ErrNotDirectory)
		}
		node = child
	}
	name := path.Base()
	if existing, ok := node.Children[name]; ok {
		if existing.Type == typ {
			return existing, nil
		}
		return nil, fmt.Errorf("%s: %w", path, ErrExists)
	}
	return t.CreateNode(path.Parent(), name, typ, content)
}

// DeleteNode removes the node at path. Deleting root or a missing node is an
// error.
func (t *Tree) DeleteNode(path Path) error {
	if len(path) == 0 {
		return fmt.Errorf("delete: cannot remove root")
	}
	parent, err := t.dirAt(path.Parent())
	if err != nil {
		return err
	}
	name := path.Base()
	if _, ok := parent.Children[name]; !ok {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	delete(parent.Children, name)
	parent.Metadata.Modified = t.now()
	return nil
}

// UpdateContent replaces the content of the file or symlink at path.
func (t *Tree) UpdateContent(path Path, content string) error {
	node := t.GetNodeAt(path)
	if node == nil {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if node.IsDir() {
		return fmt.Errorf("%s: is a directory", path)
	}
	node.Content = content
	node.Metadata.Size = len(content)
	node.Metadata.Modified = t.now()
	return nil
}

// ListNames returns the sorted child names of the directory at path, or nil
// when the path does not name a directory.
func (t *Tree) ListNames(path Path) []string {
	node := t.GetNodeAt(path)
	if !node.IsDir() {
		return nil
	}
	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListSummaries returns the flattened name-to-summary mapping of the
// directory at path. An empty map is returned for missing or non-directory
// paths so callers can serialize it unconditionally.
func (t *Tree) ListSummaries(path Path) map[string]Summary {
	out := make(map[string]Summary)
	node := t.GetNodeAt(path)
	if !node.IsDir() {
		return out
	}
	for name, child := range node.Children {
		out[name] = child.Summarize()
	}
	return out
}
