package revision

import "errors"

// Error kinds shared by the announcement and detail-import processors.
var (
	ErrValidation        = errors.New("validation error")
	ErrDuplicateRevision = errors.New("duplicate revision")
	ErrNotFound          = errors.New("not found")
	ErrNoCurrentRevision = errors.New("no current revision")
	ErrRevisionMismatch  = errors.New("revision mismatch")
	ErrAlreadyImported   = errors.New("revision already has detail data")
)
