package common

import (
	"errors"

	"github.com/amirasaad/walletledger/pkg/domain"
	"gorm.io/gorm"
)

// ErrDuplicateKey is returned when an insert hits a unique constraint.
// Repositories translate it into the domain conflict for their table.
var ErrDuplicateKey = errors.New("duplicate key")

// MapGormErrorToDomain converts GORM errors to domain errors.
// Traverses the error chain to find GORM errors. Errors without a mapping
// are returned unchanged and are classified by the unit of work.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return errors.Join(ErrDuplicateKey, err)
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		}

		currentErr = errors.Unwrap(currentErr)
	}

	return err
}

// WrapError wraps a GORM operation and automatically maps errors.
//
// Usage:
//
//	err := WrapError(func() error {
//	    return r.db.WithContext(ctx).Create(&m).Error
//	})
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}

// WrapConflict is WrapError with duplicate keys reported as conflict.
func WrapConflict(conflict *domain.Error, op func() error) error {
	err := WrapError(op)
	if errors.Is(err, ErrDuplicateKey) {
		return domain.Wrap(conflict, err)
	}
	return err
}
