package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKindBeforeCode(t *testing.T) {
	err := fmt.Errorf("allocate: %w", CapacityExceeded())

	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.True(t, errors.Is(err, ErrBusinessRule))
	assert.False(t, errors.Is(err, ErrOverlappingTimeEntry))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestCodeAndKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		kind Kind
	}{
		{"not found", NotFound("task"), CodeNotFound, KindNone},
		{"duplicate", DuplicateTimeEntry(), CodeBusinessRule, KindDuplicateTimeEntry},
		{"wrapped db", Wrap(CodeDatabase, "store task", sql.ErrConnDone), CodeDatabase, KindNone},
		{"plain error", errors.New("boom"), CodeInternal, KindNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeOf(tt.err))
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(CodeDatabase, "store task", sql.ErrConnDone)
	assert.Equal(t, "store task: "+sql.ErrConnDone.Error(), err.Error())
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Equal(t, "This time entry already exists", DuplicateTimeEntry().Error())
}
