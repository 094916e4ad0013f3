package source

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrCodeDecodeFailed, "failed to decode column chunk")
	assert.Equal(t, "DECODE_FAILED: failed to decode column chunk", err.Error())

	err = err.WithDetails("row group 2, column id")
	assert.Contains(t, err.Error(), "row group 2, column id")
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("short read")
	err := NewDecodeError(1, "id", cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsErrorCodeThroughWrapping(t *testing.T) {
	err := NewColumnNotFoundError("user.age")
	wrapped := fmt.Errorf("request failed: %w", err)

	assert.True(t, IsErrorCode(wrapped, ErrCodeColumnNotFound))
	assert.False(t, IsErrorCode(wrapped, ErrCodeDecodeFailed))
	assert.False(t, IsErrorCode(errors.New("plain"), ErrCodeDecodeFailed))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(NewNotFoundError("/x.parquet", nil)))
	assert.True(t, IsFatal(NewCorruptError("/x.parquet", "bad magic", nil)))
	assert.True(t, IsFatal(NewUnsupportedVersionError("/x.parquet", 9)))
	assert.True(t, IsFatal(NewUnsupportedFormatError("/x.json", ".json")))

	assert.False(t, IsFatal(NewDecodeError(0, "id", nil)))
	assert.False(t, IsFatal(NewColumnNotFoundError("id")))
	assert.False(t, IsFatal(NewRowGroupRangeError(5, 2)))
	assert.False(t, IsFatal(errors.New("plain")))
}
