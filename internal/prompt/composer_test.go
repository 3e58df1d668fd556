package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage/internal/protocol"
	"mirage/internal/transcript"
	"mirage/internal/vfs"
)

func TestComposeFirstCommand(t *testing.T) {
	c := NewComposer(5)
	tree := vfs.NewSeededTree()

	req, err := c.Compose(tree, vfs.HomePath, nil, "ls -la")
	require.NoError(t, err)

	assert.Equal(t, "ls -la", req.User)
	assert.Contains(t, req.System, protocol.OutputDelimiter)
	assert.Contains(t, req.System, protocol.ActionsDelimiter)
	assert.Contains(t, req.System, "cd: no such file or directory:")
	assert.Contains(t, req.System, "Session history: none (first command).")
	assert.Contains(t, req.System, "Current directory: /home/user")
	assert.Contains(t, req.System, "readme.txt")
}

func TestComposeEmptyDirectoryListing(t *testing.T) {
	c := NewComposer(5)
	tree := vfs.NewSeededTree()

	req, err := c.Compose(tree, vfs.Path{"tmp"}, nil, "pwd")
	require.NoError(t, err)
	assert.Contains(t, req.System, "Entries in current directory: (empty)")
}

func TestComposeReplaysTranscript(t *testing.T) {
	c := NewComposer(5)
	tree := vfs.NewSeededTree()

	entries := []transcript.Entry{
		{
			Command:              "mkdir docs",
			Output:               "",
			DirectoryAtExecution: vfs.HomePath,
			FileListingSnapshot: map[string]vfs.Summary{
				"docs": {Type: vfs.TypeDirectory},
			},
		},
		{
			Command:              "echo hi",
			Output:               "hi",
			DirectoryAtExecution: vfs.HomePath,
		},
	}

	req, err := c.Compose(tree, vfs.HomePath, entries, "ls")
	require.NoError(t, err)
	assert.Contains(t, req.System, "$ mkdir docs  (in /home/user)")
	assert.Contains(t, req.System, "[listing after: docs(directory)]")
	assert.Contains(t, req.System, "$ echo hi")
	assert.Contains(t, req.System, "\nhi\n")

	// History precedes the state serialization.
	assert.Less(t,
		strings.Index(req.System, "$ mkdir docs"),
		strings.Index(req.System, "Current directory:"))
}

func TestComposeTruncatesToWindow(t *testing.T) {
	c := NewComposer(2)
	tree := vfs.NewSeededTree()

	entries := []transcript.Entry{
		{Command: "first", DirectoryAtExecution: vfs.HomePath},
		{Command: "second", DirectoryAtExecution: vfs.HomePath},
		{Command: "third", DirectoryAtExecution: vfs.HomePath},
	}

	req, err := c.Compose(tree, vfs.HomePath, entries, "ls")
	require.NoError(t, err)
	assert.NotContains(t, req.System, "$ first")
	assert.Contains(t, req.System, "$ second")
	assert.Contains(t, req.System, "$ third")
}
