package greenhouse

import "errors"

// Exported errors for library consumers.
var (
	// ErrNoDatabase indicates no catalog database was configured.
	ErrNoDatabase = errors.New("greenhouse: no database configured")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("greenhouse: client is closed")

	// ErrGalleryDisabled indicates no photo source was configured.
	ErrGalleryDisabled = errors.New("greenhouse: gallery requires an unsplash access key")
)
