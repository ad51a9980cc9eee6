package services

import (
	"cloud-storage-api/internal/models"
)

// Operation is an action a caller may attempt on a file record.
type Operation string

const (
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Authorize checks the caller against the record and maps a denial into the
// service error taxonomy.
func Authorize(caller *models.User, record *models.File, op Operation) error {
	if !CanAccess(caller, record, op) {
		return ErrForbidden
	}
	return nil
}

// CanAccess reports whether the caller may perform the operation on the
// record. Staff may touch any file; everyone else only their own.
// Shared-link downloads never consult this predicate.
func CanAccess(caller *models.User, record *models.File, op Operation) bool {
	if caller == nil {
		return false
	}
	if caller.IsStaff {
		return true
	}

	switch op {
	case OpRead, OpUpdate, OpDelete:
		return caller.ID == record.OwnerID
	default:
		return false
	}
}
