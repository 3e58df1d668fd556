// Package prompt builds the outbound oracle request for one command
// exchange: a fixed instruction preamble, the replayed transcript window, and
// a serialization of the current mirror state. Composition is a pure
// read-and-serialize step; nothing here mutates session state.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"mirage/internal/protocol"
	"mirage/internal/transcript"
	"mirage/internal/vfs"
)

// preamble is the fixed system instruction. It pins down the three contracts
// the parser depends on: exact-output matching, the error-message vocabulary,
// and the reply delimiter grammar.
const preamble = `You are a Unix terminal. The user types shell commands and you produce
exactly what a real terminal would print. You maintain the filesystem state
yourself, grounded in the session history and the filesystem snapshot below.

Output rules:
- Print command output exactly, with no commentary, no markdown, no prompts.
- A command with no output produces an empty output block. Never invent
  placeholder text.
- Use these exact error messages for common failures:
    cd: no such file or directory: <path>
    cd: not a directory: <path>
    mkdir: <path>: File exists
    mkdir: missing operand
    rm: <path>: No such file or directory

Reply format. Respond with exactly this structure and nothing else:

%[1]s
<command output, may be empty>
%[1]s
%[2]s
{"newPath": "<absolute path>", "createFiles": [{"path": "...", "content": "...", "type": "file|directory"}], "deleteFiles": ["..."]}
%[2]s

All three action keys are optional. Include "newPath" only when the working
directory changed. Paths in createFiles and deleteFiles may be relative to
the working directory the command ran in. The actions object must be valid
JSON.`

// Request is one composed exchange, ready for the oracle call.
type Request struct {
	// System carries the instruction preamble, transcript, and state.
	System string
	// User is the raw command text, unmodified.
	User string
}

// Composer serializes session state into oracle requests.
type Composer struct {
	window int
}

// NewComposer creates a composer that replays at most window transcript
// entries per request.
func NewComposer(window int) *Composer {
	if window <= 0 {
		window = transcript.DefaultWindow
	}
	return &Composer{window: window}
}

// Compose builds the request for command against the given mirror state and
// transcript. An empty transcript (first command) and an empty current
// directory are both fine.
func (c *Composer) Compose(tree *vfs.Tree, current vfs.Path, entries []transcript.Entry, command string) (Request, error) {
	var b strings.Builder

	fmt.Fprintf(&b, preamble, protocol.OutputDelimiter, protocol.ActionsDelimiter)
	b.WriteString("\n\n")

	c.writeTranscript(&b, entries)

	if err := writeState(&b, tree, current); err != nil {
		return Request{}, err
	}

	return Request{System: b.String(), User: command}, nil
}

func (c *Composer) writeTranscript(b *strings.Builder, entries []transcript.Entry) {
	if len(entries) > c.window {
		entries = entries[len(entries)-c.window:]
	}
	if len(entries) == 0 {
		b.WriteString("Session history: none (first command).\n\n")
		return
	}

	b.WriteString("Session history, oldest first:\n")
	for _, e := range entries {
		fmt.Fprintf(b, "$ %s  (in %s)\n", e.Command, e.DirectoryAtExecution)
		if e.Output != "" {
			b.WriteString(e.Output)
			b.WriteString("\n")
		}
		if len(e.FileListingSnapshot) > 0 {
			fmt.Fprintf(b, "[listing after: %s]\n", flattenListing(e.FileListingSnapshot))
		}
	}
	b.WriteString("\n")
}

func writeState(b *strings.Builder, tree *vfs.Tree, current vfs.Path) error {
	fmt.Fprintf(b, "Current directory: %s\n", current)
	fmt.Fprintf(b, "Entries in current directory: %s\n", joinOrNone(tree.ListNames(current)))

	treeJSON, err := json.Marshal(tree.Root())
	if err != nil {
		return fmt.Errorf("serializing mirror tree: %w", err)
	}
	fmt.Fprintf(b, "Filesystem snapshot (may be stale; trust the history over it):\n%s\n", treeJSON)
	return nil
}

func flattenListing(listing map[string]vfs.Summary) string {
	names := make([]string, 0, len(listing))
	for name := range listing {
		names = append(names, name)
	}
	// Deterministic prompts make oracle behavior reproducible in tests.
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s(%s)", name, listing[name].Type))
	}
	return strings.Join(parts, " ")
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(empty)"
	}
	return strings.Join(names, " ")
}
