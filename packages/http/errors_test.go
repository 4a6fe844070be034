package http

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, "invalid method: boom", newError(InvalidMethod, cause).Error())
	assert.Equal(t, "client build failed: boom", newError(TransportConfigError, cause).Error())
	assert.Equal(t, "request failed: boom", newError(RequestFailed, cause).Error())
	assert.Equal(t, "read body failed: boom", newError(BodyDecodeError, cause).Error())
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("sending: %w", newError(RequestFailed, errors.New("refused")))

	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, RequestFailed, kind)
	assert.Equal(t, "RequestFailed", kind.String())

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestError_Is(t *testing.T) {
	err := newError(BodyDecodeError, errors.New("not utf-8"))

	assert.True(t, errors.Is(err, &Error{Kind: BodyDecodeError}))
	assert.False(t, errors.Is(err, &Error{Kind: RequestFailed}))
}
