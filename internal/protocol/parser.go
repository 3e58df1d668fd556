// Package protocol implements the reply grammar spoken by the oracle.
//
// A well-formed reply carries two delimited blocks, in order:
//
//	---output---
//	<free text, may be empty>
//	---output---
//	---actions---
//	{ "newPath"?, "createFiles"?, "deleteFiles"? }
//	---actions---
//
// The parser is a tagged-union producer rather than best-effort string
// splitting: structural failures are FormatError, shape violations inside an
// otherwise parseable actions block are ValidationError, and both leave the
// already-parsed output text available to the caller. Action application is
// best-effort for the exchange as a whole but all-or-nothing within a batch.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"

	"mirage/internal/vfs"
)

// Delimiter markers the oracle must produce verbatim.
const (
	OutputDelimiter  = "---output---"
	ActionsDelimiter = "---actions---"
)

// minSegments is the floor on delimiter-split segments for a structurally
// valid reply: preamble, output body, block boundary, actions body, trailer.
const minSegments = 5

// FormatError reports a reply missing the required delimiter structure.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed oracle reply: %s", e.Reason)
}

// ValidationError reports an actions block that parses as JSON but violates
// the shape contract. The entire batch is discarded when this is raised.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid action batch: %s", e.Reason)
}

// CreateFile is one entry of an action batch's createFiles sequence.
type CreateFile struct {
	Path    string       `json:"path"`
	Content string       `json:"content"`
	Type    vfs.NodeType `json:"type"`
}

// ActionBatch is the validated set of typed mutations extracted from a reply.
// Application order is fixed: directory change, then creations, then
// deletions.
type ActionBatch struct {
	NewPath     *string      `json:"newPath,omitempty"`
	CreateFiles []CreateFile `json:"createFiles,omitempty"`
	DeleteFiles []string     `json:"deleteFiles,omitempty"`
}

// Empty reports whether the batch carries no mutations.
func (b *ActionBatch) Empty() bool {
	return b == nil || (b.NewPath == nil && len(b.CreateFiles) == 0 && len(b.DeleteFiles) == 0)
}

// Reply is the parsed form of a structurally valid oracle reply.
type Reply struct {
	// Output is the trimmed human-readable block. Never fabricated: an empty
	// block stays empty.
	Output string

	// Actions is the validated batch, or nil when the actions block was
	// empty, unparseable, or failed shape validation.
	Actions *ActionBatch

	// ActionErr records why Actions is nil despite a structurally valid
	// reply: a JSON parse failure or a *ValidationError. Non-fatal to the
	// exchange; the output block is still honored.
	ActionErr error
}

// Parse extracts the output block and action batch from raw reply text.
// A structural failure returns a *FormatError and no Reply; everything past
// the structure check degrades gracefully per the batch rules above.
func Parse(raw string) (*Reply, error) {
	segments := splitOnDelimiters(raw)
	if len(segments) < minSegments {
		return nil, &FormatError{Reason: fmt.Sprintf("expected %d delimited segments, got %d", minSegments, len(segments))}
	}
	outputIdx := strings.Index(raw, OutputDelimiter)
	actionsIdx := strings.Index(raw, ActionsDelimiter)
	if outputIdx < 0 || actionsIdx < 0 {
		return nil, &FormatError{Reason: "missing output or actions block"}
	}
	// Block order is part of the grammar: output first, then actions. A
	// reversed reply would present the actions JSON as terminal output.
	if actionsIdx < outputIdx {
		return nil, &FormatError{Reason: "actions block precedes output block"}
	}

	reply := &Reply{Output: strings.TrimSpace(segments[1])}

	actionsBody := strings.TrimSpace(segments[3])
	if actionsBody == "" {
		return reply, nil
	}

	batch, err := parseBatch(actionsBody)
	if err != nil {
		reply.ActionErr = err
		return reply, nil
	}
	reply.Actions = batch
	return reply, nil
}

// splitOnDelimiters splits raw on both delimiter markers, treating them as a
// single token vocabulary so segment positions are stable regardless of which
// marker bounds a block.
func splitOnDelimiters(raw string) []string {
	unified := strings.ReplaceAll(raw, ActionsDelimiter, OutputDelimiter)
	return strings.Split(unified, OutputDelimiter)
}

// parseBatch decodes and shape-checks the actions JSON. The two-step decode
// (generic map first, typed struct second) separates parse failures from
// shape violations: the former come back as plain errors, the latter as
// *ValidationError.
func parseBatch(body string) (*ActionBatch, error) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &generic); err != nil {
		return nil, fmt.Errorf("actions block is not a JSON object: %w", err)
	}

	batch := &ActionBatch{}

	if raw, ok := generic["newPath"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &ValidationError{Reason: "newPath must be a string"}
		}
		batch.NewPath = &s
	}

	if raw, ok := generic["createFiles"]; ok {
		var entries []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, &ValidationError{Reason: "createFiles must be an array of objects"}
		}
		for i, entry := range entries {
			cf, err := parseCreateFile(i, entry)
			if err != nil {
				return nil, err
			}
			batch.CreateFiles = append(batch.CreateFiles, cf)
		}
	}

	if raw, ok := generic["deleteFiles"]; ok {
		var paths []string
		if err := json.Unmarshal(raw, &paths); err != nil {
			return nil, &ValidationError{Reason: "deleteFiles must be an array of strings"}
		}
		batch.DeleteFiles = paths
	}

	return batch, nil
}

func parseCreateFile(index int, entry map[string]json.RawMessage) (CreateFile, error) {
	var cf CreateFile

	raw, ok := entry["path"]
	if !ok {
		return cf, &ValidationError{Reason: fmt.Sprintf("createFiles[%d] missing path", index)}
	}
	if err := json.Unmarshal(raw, &cf.Path); err != nil || cf.Path == "" {
		return cf, &ValidationError{Reason: fmt.Sprintf("createFiles[%d] path must be a non-empty string", index)}
	}

	raw, ok = entry["type"]
	if !ok {
		return cf, &ValidationError{Reason: fmt.Sprintf("createFiles[%d] missing type", index)}
	}
	var typ string
	if err := json.Unmarshal(raw, &typ); err != nil {
		return cf, &ValidationError{Reason: fmt.Sprintf("createFiles[%d] type must be a string", index)}
	}
	cf.Type = vfs.NodeType(typ)
	if cf.Type != vfs.TypeFile && cf.Type != vfs.TypeDirectory {
		return cf, &ValidationError{Reason: fmt.Sprintf("createFiles[%d] type %q is not file or directory", index, typ)}
	}

	if raw, ok := entry["content"]; ok {
		if err := json.Unmarshal(raw, &cf.Content); err != nil {
			return cf, &ValidationError{Reason: fmt.Sprintf("createFiles[%d] content must be a string", index)}
		}
	}

	return cf, nil
}
