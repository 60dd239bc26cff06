package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error with cause",
			err: &Error{
				Type:    ErrInvalidArgument,
				Message: "test message",
				Cause:   errors.New("underlying error"),
			},
			want: "invalid_argument: test message: underlying error",
		},
		{
			name: "error without cause",
			err: &Error{
				Type:    ErrInternal,
				Message: "test message",
				Cause:   nil,
			},
			want: "internal: test message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := &Error{Type: ErrInternal, Message: "test message", Cause: cause}
	assert.Equal(t, cause, err.Unwrap())

	errNoCause := &Error{Type: ErrInternal, Message: "test message"}
	assert.Nil(t, errNoCause.Unwrap())
}

func TestNewError(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying error")
	err := NewError(ErrInvalidArgument, "test message", cause)

	assert.Equal(t, ErrInvalidArgument, err.Type)
	assert.Equal(t, "test message", err.Message)
	assert.Equal(t, cause, err.Cause)
}

func TestNewNotLeaderError(t *testing.T) {
	t.Parallel()

	withLeader := NewNotLeaderError("http://10.0.0.2:9000")
	assert.Equal(t, ErrNotLeader, withLeader.Type)
	assert.Equal(t, "http://10.0.0.2:9000", withLeader.Leader)
	assert.Contains(t, withLeader.Error(), "http://10.0.0.2:9000")

	noLeader := NewNotLeaderError("")
	assert.Equal(t, "", noLeader.Leader)
	assert.Contains(t, noLeader.Error(), "no leader known")
}

func TestTypedConstructors(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")

	tests := []struct {
		name        string
		constructor func(string, error) *Error
		wantType    ErrType
	}{
		{"NewInvalidArgumentError", NewInvalidArgumentError, ErrInvalidArgument},
		{"NewPeerUnreachableError", NewPeerUnreachableError, ErrPeerUnreachable},
		{"NewSnapshotDecodeError", NewSnapshotDecodeError, ErrSnapshotDecode},
		{"NewPersistenceError", NewPersistenceError, ErrPersistence},
		{"NewInternalError", NewInternalError, ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.constructor("message", cause)
			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, "message", err.Message)
			assert.Equal(t, cause, err.Cause)
		})
	}
}
