package errors

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{name: "auth sentinel", err: ErrAuthRejected, want: KindAuth},
		{name: "wrapped auth", err: errors.Wrap(ErrAuthRejected, "handshake status 401"), want: KindAuth},
		{name: "geolocation sentinel", err: ErrPermissionDenied, want: KindGeolocation},
		{name: "fix timeout", err: errors.WithStack(ErrFixTimeout), want: KindGeolocation},
		{name: "malformed", err: ErrMalformedEvent, want: KindMalformed},
		{name: "unclassified defaults to transient", err: io.ErrUnexpectedEOF, want: KindTransient},
		{name: "wrapped unclassified", err: errors.Wrap(io.EOF, "read envelope"), want: KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsAuthRejection(t *testing.T) {
	assert.True(t, IsAuthRejection(ErrAuthRejected))
	assert.True(t, IsAuthRejection(errors.Wrap(ErrAuthRejected, "server closed channel")))
	assert.False(t, IsAuthRejection(io.EOF))
	assert.False(t, IsAuthRejection(ErrPermissionDenied))
}

func TestFailure_Error(t *testing.T) {
	failure := NewFailure(KindPresentation, "sink unavailable")

	assert.Equal(t, "sink unavailable", failure.Error())
	assert.Equal(t, KindPresentation, failure.Kind())
}
