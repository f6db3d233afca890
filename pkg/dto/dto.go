// Package dto provides the data transfer objects shared by the enumerator,
// the transfer primitives and the dispatcher.
package dto

// Direction tells which way a work item moves.
type Direction int

const (
	// Upload sends a local file to the bucket.
	Upload Direction = iota + 1
	// Download writes a remote object to a local file.
	Download
)

// String returns the verb used in logs.
func (d Direction) String() string {
	switch d {
	case Upload:
		return "upload"
	case Download:
		return "download"
	default:
		return "unknown"
	}
}

// WorkItem is one file/object scheduled for a single transfer.
type WorkItem struct {
	Direction Direction
	LocalPath string
	Key       string
}

// Name identifies the item in logs: the local path for uploads and the key
// for downloads.
func (w WorkItem) Name() string {
	if w.Direction == Download {
		return w.Key
	}
	return w.LocalPath
}
