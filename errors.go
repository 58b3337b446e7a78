package goprovenance

import "errors"

var (
	// ErrIndexShortfall is returned when too few reference documents parse
	// for a trustworthy index. Any previously active index stays in use.
	ErrIndexShortfall = errors.New("goprovenance: reference index build shortfall")

	// ErrNoReferences is returned when an index build is given nothing.
	ErrNoReferences = errors.New("goprovenance: no reference documents")

	// ErrIndexNotReady is returned when documents are processed before any
	// index has been built or loaded.
	ErrIndexNotReady = errors.New("goprovenance: canonical index not ready")

	// ErrMalformedDocument is returned for a document no strategy can
	// tolerate. Batches skip it and continue.
	ErrMalformedDocument = errors.New("goprovenance: malformed document")

	// ErrSnapshotNotFound is returned when no usable cached index exists.
	ErrSnapshotNotFound = errors.New("goprovenance: index snapshot not found")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("goprovenance: invalid configuration")

	// ErrStoreClosed is returned when operating on a closed engine.
	ErrStoreClosed = errors.New("goprovenance: engine is closed")
)
