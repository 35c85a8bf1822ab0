package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestWrapKeepsSentinelIntact(t *testing.T) {
	sentinel := New("sentinel")
	wrapped := sentinel.Wrap(New("cause"))

	assert.True(t, Is(wrapped, sentinel))
	assert.Nil(t, sentinel.Unwrap())

	rewrapped := wrapped.Wrap(New("other cause"))
	assert.True(t, Is(rewrapped, sentinel))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	e := New("outer").Wrap(New("inner"))
	assert.Equal(t, "outer: inner", e.Error())
	assert.Equal(t, "plain", New("plain").Error())
}
