package backup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
)

// ErrReferenceNotFound is the reason of rows whose mandatory reference has
// no counterpart in the document.
var ErrReferenceNotFound = errors.New("not found")

// InvalidDocumentError lists every check a document failed.
type InvalidDocumentError struct {
	Problems []string
}

func (e *InvalidDocumentError) Error() string {
	return fmt.Sprintf("%v: %s", common.ErrInvalidDocument, strings.Join(e.Problems, "; "))
}

func (e *InvalidDocumentError) Unwrap() error { return common.ErrInvalidDocument }

// PurgeError aborts a replace import whose purge of a required collection
// failed. Collections listed before it in the purge order may already be
// empty.
type PurgeError struct {
	Collection Collection
	Err        error
}

func (e *PurgeError) Error() string {
	return fmt.Sprintf("%v: %s: %v", common.ErrPurgeFailed, e.Collection, e.Err)
}

func (e *PurgeError) Unwrap() []error { return []error{common.ErrPurgeFailed, e.Err} }

// RowError describes one rejected row. It reads as
// "<Entity> <label>: <reason>", e.g. "Movement Rent: account not found".
type RowError struct {
	Collection Collection
	Entity     string
	Label      string
	Err        error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Entity, e.Label, e.Err)
}

func (e *RowError) Unwrap() []error { return []error{common.ErrRowRejected, e.Err} }
