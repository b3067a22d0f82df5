package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{
			name:     "nil error returns nil",
			input:    nil,
			expected: nil,
		},
		{
			name:     "duplicate key error maps to ErrDuplicateKey",
			input:    gorm.ErrDuplicatedKey,
			expected: ErrDuplicateKey,
		},
		{
			name:     "record not found error maps to ErrNotFound",
			input:    gorm.ErrRecordNotFound,
			expected: domain.ErrNotFound,
		},
		{
			name:     "wrapped duplicate key error maps correctly",
			input:    fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey),
			expected: ErrDuplicateKey,
		},
		{
			name:     "joined record not found error maps correctly",
			input:    errors.Join(errors.New("outer error"), gorm.ErrRecordNotFound),
			expected: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := MapGormErrorToDomain(tt.input)
			if tt.expected == nil {
				require.NoError(t, result)
				return
			}
			require.Error(t, result)
			assert.ErrorIs(t, result, tt.expected)
		})
	}
}

func TestMapGormErrorToDomain_UnmappedPassesThrough(t *testing.T) {
	t.Parallel()
	original := errors.New("connection reset by peer")

	result := MapGormErrorToDomain(original)

	assert.Same(t, original, result)
}

func TestWrapConflict(t *testing.T) {
	t.Parallel()

	err := WrapConflict(domain.ErrDuplicateUsername, func() error {
		return gorm.ErrDuplicatedKey
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
	assert.Equal(t, domain.KindDuplicateUsername, domain.KindOf(err))
	assert.Equal(t, "username already exists", err.Error())
}

func TestWrapConflict_NoError(t *testing.T) {
	t.Parallel()

	err := WrapConflict(domain.ErrDuplicateUsername, func() error { return nil })

	assert.NoError(t, err)
}
