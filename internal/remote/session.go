package remote

import (
	"context"
	"path"
	"time"
)

// NodeKind classifies an entry in a remote listing.
type NodeKind int

const (
	// KindFile is a downloadable leaf.
	KindFile NodeKind = iota
	// KindFolder is a container that can be listed.
	KindFolder
	// KindUnknown is an entry the listing could not classify.
	// Unknown entries are downloaded as files rather than skipped.
	KindUnknown
)

func (k NodeKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// Node is a single entry of a remote listing. Nodes are immutable per
// listing call and are never persisted; the local filesystem is the only
// durable state.
type Node struct {
	Name string
	Kind NodeKind
	// Path holds the full path segments from the share root, including Name.
	Path []string
	// Size is the remote-reported size in bytes, or -1 when the listing
	// does not report one.
	Size int64
}

// RemotePath renders the node's path as a slash-joined string for display.
func (n Node) RemotePath() string {
	if len(n.Path) == 0 {
		return n.Name
	}
	return path.Join(n.Path...)
}

// Handle identifies an in-flight download started by a Session.
type Handle interface {
	// LocalPath is the final path the download will land at.
	LocalPath() string
}

// Session is the remote capability the mirror engine consumes: a single
// authenticated connection to a password-protected share. Implementations
// are stateful and not safe for concurrent use; the engine serializes all
// calls through one session.
type Session interface {
	// Authenticate establishes (or re-establishes) the session.
	// Returns an auth-classified *Error on bad credentials or an
	// unreachable host; both are fatal to the run.
	Authenticate(ctx context.Context) error

	// ListChildren returns the immediate children of the folder at the
	// given path segments (nil or empty = share root). It does not return
	// until the remote view is fully materialized, so callers may treat
	// the result as the complete listing. Child order follows the remote
	// and is not stable across calls.
	ListChildren(ctx context.Context, dir []string) ([]Node, error)

	// StartDownload begins transferring node to localPath and returns
	// immediately with a handle for AwaitCompletion. The parent directory
	// of localPath must already exist.
	StartDownload(ctx context.Context, node Node, localPath string) (Handle, error)

	// AwaitCompletion blocks until the download behind h is fully on disk,
	// the timeout lapses, or ctx is cancelled. On timeout the transfer is
	// aborted and any partial file removed; ErrDownloadTimeout is returned
	// wrapped in a download-classified *Error.
	AwaitCompletion(ctx context.Context, h Handle, timeout time.Duration) error

	// Close tears the session down. Safe to call after a failed
	// Authenticate and on abnormal exit paths.
	Close() error
}
