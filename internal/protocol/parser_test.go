package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage/internal/vfs"
)

func wellFormed(output, actions string) string {
	return "---output---\n" + output + "\n---output---\n---actions---\n" + actions + "\n---actions---"
}

func TestParseWellFormed(t *testing.T) {
	raw := wellFormed("file1.txt  file2.txt", `{"newPath": "/home/user/docs", "createFiles": [{"path": "notes.txt", "content": "hi", "type": "file"}], "deleteFiles": ["old.txt"]}`)

	reply, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "file1.txt  file2.txt", reply.Output)
	require.NotNil(t, reply.Actions)
	require.NotNil(t, reply.Actions.NewPath)
	assert.Equal(t, "/home/user/docs", *reply.Actions.NewPath)
	require.Len(t, reply.Actions.CreateFiles, 1)
	assert.Equal(t, vfs.TypeFile, reply.Actions.CreateFiles[0].Type)
	assert.Equal(t, []string{"old.txt"}, reply.Actions.DeleteFiles)
}

func TestParseEmptyBlocks(t *testing.T) {
	reply, err := Parse(wellFormed("", ""))
	require.NoError(t, err)
	assert.Equal(t, "", reply.Output)
	assert.Nil(t, reply.Actions)
	assert.NoError(t, reply.ActionErr)
}

func TestParseEmptyActionsObject(t *testing.T) {
	reply, err := Parse(wellFormed("done", "{}"))
	require.NoError(t, err)
	require.NotNil(t, reply.Actions)
	assert.True(t, reply.Actions.Empty())
}

func TestParsePreambleTolerated(t *testing.T) {
	raw := "Sure, here is the result:\n" + wellFormed("hello", "{}")
	reply, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Output)
}

func TestParseFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty reply", ""},
		{"plain text", "ls: cannot access"},
		{"output block only", "---output---\nhello\n---output---"},
		{"missing actions closing delimiter", "---output---\nhi\n---output---\n---actions---\n{}"},
		{"single delimiter", "---output---"},
		{"actions block before output block", "---actions---\n{\"deleteFiles\": [\"/etc\"]}\n---actions---\n---output---\nhello\n---output---"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := Parse(tt.raw)
			assert.Nil(t, reply)
			var fe *FormatError
			assert.ErrorAs(t, err, &fe)
		})
	}
}

// Malformed actions JSON still yields the parsed output text; only the batch
// is dropped.
func TestParseMalformedActionsDegrades(t *testing.T) {
	reply, err := Parse(wellFormed("partial output", `{"newPath": "/x"`))
	require.NoError(t, err)
	assert.Equal(t, "partial output", reply.Output)
	assert.Nil(t, reply.Actions)
	assert.Error(t, reply.ActionErr)
}

func TestParseValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		actions string
	}{
		{"newPath not a string", `{"newPath": 42}`},
		{"createFiles not an array", `{"createFiles": "nope"}`},
		{"create entry missing path", `{"createFiles": [{"content": "x", "type": "file"}]}`},
		{"create entry missing type", `{"createFiles": [{"path": "a.txt"}]}`},
		{"create entry bad type", `{"createFiles": [{"path": "a.txt", "type": "symlink"}]}`},
		{"deleteFiles not strings", `{"deleteFiles": [1, 2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := Parse(wellFormed("still visible", tt.actions))
			require.NoError(t, err)
			assert.Equal(t, "still visible", reply.Output)
			assert.Nil(t, reply.Actions)
			var ve *ValidationError
			assert.ErrorAs(t, reply.ActionErr, &ve)
		})
	}
}

// One bad create entry poisons the whole batch, including otherwise valid
// siblings (all-or-nothing).
func TestParseValidationAbortsWholeBatch(t *testing.T) {
	actions := `{"deleteFiles": ["ok.txt"], "createFiles": [{"path": "good.txt", "type": "file"}, {"path": "bad.txt"}]}`
	reply, err := Parse(wellFormed("out", actions))
	require.NoError(t, err)
	assert.Nil(t, reply.Actions)
	assert.Error(t, reply.ActionErr)
}
