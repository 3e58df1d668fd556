package session

import (
	"errors"
	"fmt"

	"mirage/internal/logging"
	"mirage/internal/protocol"
	"mirage/internal/transcript"
	"mirage/internal/vfs"
)

// reconcile applies a validated action batch to the session state and
// appends the transcript entry for the exchange.
//
// Application order is fixed: directory change, then creations, then
// deletions. Creation and deletion paths are resolved against the pre-batch
// current directory (unless absolute), so a batch that creates a directory
// and cds into it stays consistent. Individual mutation failures are
// best-effort: logged, skipped, and the rest of the batch continues. The
// oracle's instructions are sometimes redundant (re-creating an existing
// directory, deleting an already-deleted file) and that must not poison the
// exchange.
func reconcile(st *sessionState, command, output string, batch *protocol.ActionBatch) {
	preBatch := st.currentPath.Clone()
	log := logging.Get(logging.CategoryVFS)

	if !batch.Empty() {
		if batch.NewPath != nil {
			next := resolveNewPath(st, preBatch, *batch.NewPath)
			if !next.Equal(st.currentPath) {
				st.previousPath = st.currentPath
				st.currentPath = next
				logging.SessionDebug("directory change: %s -> %s", preBatch, next)
			}
		}

		for _, cf := range batch.CreateFiles {
			target := vfs.Resolve(preBatch, cf.Path)
			if _, err := st.mirror.CreatePath(target, cf.Type, cf.Content); err != nil {
				// Idempotent create: an existing same-type node is a no-op
				// inside CreatePath, so any error here is a real conflict.
				log.Warn("apply create %s (%s): %v", target, cf.Type, err)
				continue
			}
			log.Debug("created %s %s", cf.Type, target)
		}

		for _, path := range batch.DeleteFiles {
			target := vfs.Resolve(preBatch, path)
			if err := st.mirror.DeleteNode(target); err != nil {
				if errors.Is(err, vfs.ErrNotFound) {
					log.Debug("apply delete %s: already gone", target)
				} else {
					log.Warn("apply delete %s: %v", target, err)
				}
				continue
			}
			log.Debug("deleted %s", target)
		}

		// The mirror is a cache of the oracle's believed state; a directory
		// change it cannot account for is worth flagging, not rejecting.
		if batch.NewPath != nil && !st.mirror.GetNodeAt(st.currentPath).IsDir() {
			log.Warn("current directory %s is absent from the mirror", st.currentPath)
		}
	}

	st.log.Append(transcript.Entry{
		Command:              command,
		Output:               output,
		DirectoryAtExecution: st.currentPath.Clone(),
		FileListingSnapshot:  st.mirror.ListSummaries(st.currentPath),
	})
}

// resolveNewPath handles the one path expression the resolver alone cannot:
// "-" swaps back to the previous working directory. With no previous
// directory recorded it stays put, like a shell with OLDPWD unset.
func resolveNewPath(st *sessionState, preBatch vfs.Path, expr string) vfs.Path {
	if expr == "-" {
		if st.previousPath == nil {
			return st.currentPath
		}
		return st.previousPath.Clone()
	}
	return vfs.Resolve(preBatch, expr)
}

// appendErrorEntry records a failed exchange in the transcript so the next
// prompt can ground the oracle on what went wrong locally. The mirror is
// untouched.
func appendErrorEntry(st *sessionState, command string, exchangeErr error) {
	st.log.Append(transcript.Entry{
		Command:              command,
		Output:               fmt.Sprintf("(exchange failed: %v)", exchangeErr),
		DirectoryAtExecution: st.currentPath.Clone(),
		FileListingSnapshot:  st.mirror.ListSummaries(st.currentPath),
	})
}
