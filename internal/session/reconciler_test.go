package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage/internal/protocol"
	"mirage/internal/vfs"
)

func strp(s string) *string { return &s }

func TestReconcilePathsRelativeToPreBatchDirectory(t *testing.T) {
	st := newSessionState(5)

	// The batch changes directory AND creates relative to where the command
	// ran, not where it ended up.
	batch := &protocol.ActionBatch{
		NewPath:     strp("/home/user/docs"),
		CreateFiles: []protocol.CreateFile{{Path: "docs", Type: vfs.TypeDirectory}},
	}
	reconcile(st, "mkdir docs && cd docs", "", batch)

	assert.True(t, st.currentPath.Equal(vfs.Path{"home", "user", "docs"}))
	assert.True(t, st.previousPath.Equal(vfs.HomePath))
	assert.NotNil(t, st.mirror.GetNodeAt(vfs.Path{"home", "user", "docs"}))

	// The invariant: after a successful reconciliation the current path
	// names an existing directory.
	assert.True(t, st.mirror.GetNodeAt(st.currentPath).IsDir())
}

func TestReconcileAbsoluteCreatePaths(t *testing.T) {
	st := newSessionState(5)
	batch := &protocol.ActionBatch{
		CreateFiles: []protocol.CreateFile{{Path: "/tmp/scratch.txt", Content: "x", Type: vfs.TypeFile}},
	}
	reconcile(st, "touch /tmp/scratch.txt", "", batch)

	node := st.mirror.GetNodeAt(vfs.Path{"tmp", "scratch.txt"})
	require.NotNil(t, node)
	assert.Equal(t, "x", node.Content)
}

func TestReconcileBestEffortApply(t *testing.T) {
	st := newSessionState(5)

	// Deleting a missing file is skipped; the sibling create still lands.
	batch := &protocol.ActionBatch{
		DeleteFiles: []string{"ghost.txt", "readme.txt"},
		CreateFiles: []protocol.CreateFile{{Path: "kept.txt", Type: vfs.TypeFile}},
	}
	reconcile(st, "rm ghost.txt readme.txt; touch kept.txt", "rm: ghost.txt: No such file or directory", batch)

	assert.Nil(t, st.mirror.GetNodeAt(vfs.HomePath.Join("readme.txt")))
	assert.NotNil(t, st.mirror.GetNodeAt(vfs.HomePath.Join("kept.txt")))
}

func TestReconcileNoBatchStillAppendsTranscript(t *testing.T) {
	st := newSessionState(5)
	reconcile(st, "echo hi", "hi", nil)

	entries := st.log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "echo hi", entries[0].Command)
	assert.Equal(t, "hi", entries[0].Output)
	assert.True(t, entries[0].DirectoryAtExecution.Equal(vfs.HomePath))
	assert.Contains(t, entries[0].FileListingSnapshot, "readme.txt")
}

func TestReconcileNewPathSetsPreviousOnlyOnChange(t *testing.T) {
	st := newSessionState(5)
	reconcile(st, "cd .", "", &protocol.ActionBatch{NewPath: strp("/home/user")})
	assert.Nil(t, st.previousPath, "no-op directory change must not clobber previousPath")
}

func TestReconcileDashReturnsToPreviousDirectory(t *testing.T) {
	st := newSessionState(5)
	reconcile(st, "cd /tmp", "", &protocol.ActionBatch{NewPath: strp("/tmp")})
	require.True(t, st.currentPath.Equal(vfs.Path{"tmp"}))

	reconcile(st, "cd -", "/home/user", &protocol.ActionBatch{NewPath: strp("-")})
	assert.True(t, st.currentPath.Equal(vfs.HomePath))
	assert.True(t, st.previousPath.Equal(vfs.Path{"tmp"}))
}

func TestReconcileDashWithoutPreviousStaysPut(t *testing.T) {
	st := newSessionState(5)
	reconcile(st, "cd -", "cd: OLDPWD not set", &protocol.ActionBatch{NewPath: strp("-")})
	assert.True(t, st.currentPath.Equal(vfs.HomePath))
	assert.Nil(t, st.previousPath)
}

func TestReconcileToleratesDirectoryAbsentFromMirror(t *testing.T) {
	st := newSessionState(5)
	reconcile(st, "cd /opt/nowhere", "", &protocol.ActionBatch{NewPath: strp("/opt/nowhere")})

	// The cache stays honest about what it knows: the path is adopted (the
	// oracle is authoritative) even though the mirror has no node for it.
	assert.True(t, st.currentPath.Equal(vfs.Path{"opt", "nowhere"}))
	assert.Nil(t, st.mirror.GetNodeAt(st.currentPath))

	entries := st.log.Entries()
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].FileListingSnapshot)
}
