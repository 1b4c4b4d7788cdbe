package engine

import (
	"context"

	"github.com/Pengchengistaken/ocmirror/internal/layout"
	"github.com/Pengchengistaken/ocmirror/internal/logging"
	"github.com/Pengchengistaken/ocmirror/internal/remote"
)

// Walker traverses the remote tree depth-first and yields the files that
// are missing or incomplete locally. Folders get their local directory
// created before they are descended into, so every ancestor of a yielded
// file exists by the time the callback sees it — empty remote folders are
// mirrored too.
type Walker struct {
	Session remote.Session
	Mapper  *layout.Mapper
	Oracle  layout.Oracle
}

// Walk performs one full pass. fn is invoked for each pending file in
// traversal order; returning an error stops the walk and propagates.
//
// A listing failure only skips the affected subtree for this pass — those
// folders are picked up again on the next cycle. Filesystem errors and
// context cancellation abort the walk.
func (w *Walker) Walk(ctx context.Context, stats *CycleStats, fn func(PendingFile) error) error {
	return w.walk(ctx, nil, stats, fn)
}

func (w *Walker) walk(ctx context.Context, dir []string, stats *CycleStats, fn func(PendingFile) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	localDir, err := w.Mapper.Resolve(dir)
	if err != nil {
		logging.L().Warn("skipping folder with unsafe remote name", logging.Err(err))
		return nil
	}
	if err := w.Mapper.EnsureDir(localDir); err != nil {
		return err
	}

	children, err := w.Session.ListChildren(ctx, dir)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if remote.IsListing(err) {
			stats.Skipped++
			logging.L().Warn("listing failed, subtree deferred to next cycle",
				logging.String("folder", joinSegments(dir)), logging.Err(err))
			return nil
		}
		return err
	}
	logging.L().Debug("entered folder",
		logging.String("folder", joinSegments(dir)), logging.Int("entries", len(children)))

	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return err
		}

		if child.Kind == remote.KindFolder {
			if err := w.walk(ctx, child.Path, stats, fn); err != nil {
				return err
			}
			continue
		}

		// Files, and anything the listing could not classify: treating
		// ambiguous entries as files means they get downloaded instead of
		// silently skipped.
		stats.Discovered++

		localPath, err := w.Mapper.Resolve(child.Path)
		if err != nil {
			logging.L().Warn("skipping file with unsafe remote name",
				logging.String("file", child.RemotePath()), logging.Err(err))
			continue
		}

		if w.Oracle.IsComplete(child, localPath) {
			stats.Existing++
			logging.L().Debug("already complete, skipping",
				logging.String("file", child.RemotePath()))
			continue
		}

		if err := fn(PendingFile{Node: child, LocalPath: localPath}); err != nil {
			return err
		}
	}
	return nil
}

func joinSegments(dir []string) string {
	if len(dir) == 0 {
		return "/"
	}
	return (remote.Node{Path: dir}).RemotePath()
}
