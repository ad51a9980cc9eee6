package services

import "errors"

// Domain error taxonomy. Handlers translate these into HTTP responses;
// callers branch with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrStorageWrite = errors.New("blob write failed")
	ErrStorageRead  = errors.New("blob read failed")
	ErrDeletion     = errors.New("blob delete failed")
)
