package tables

import "errors"

// errInvalidBatch is returned when CommitBatch is handed a Batch created by
// a different Backend implementation.
var errInvalidBatch = errors.New("tables: batch was not created by this backend")
