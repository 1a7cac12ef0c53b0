package errors

import (
	"errors"

	"gorm.io/gorm"
)

// ErrOptimisticLock the row was changed by someone else since it was read
var ErrOptimisticLock = errors.New("record was modified by another request, reload and retry")

// ErrDeadlinePassed a score field was written after its deadline
var ErrDeadlinePassed = errors.New("the deadline for this field has passed")

// IsUniqueViolation reports whether err is a unique constraint violation.
// Requires the gorm.Config TranslateError option.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsForeignKeyViolation reports whether err is a foreign key violation
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}
