package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfWrapped(t *testing.T) {
	f := New(ValidationCode, "No valid fields specified for aggregation")
	wrapped := fmt.Errorf("sum: %w", f)

	assert.Equal(t, ValidationCode, CodeOf(wrapped))
	assert.True(t, Is(wrapped, ValidationCode))
	assert.False(t, Is(wrapped, BackendCode))
	assert.Equal(t, UnknownCode, CodeOf(errors.New("plain")))
	assert.False(t, Is(nil, UnknownCode))
}

func TestErrorIncludesOriginal(t *testing.T) {
	orig := errors.New("connection refused")
	f := New(BackendCode, "query failed").WithOriginal(orig)

	assert.Equal(t, "query failed: connection refused", f.Error())
	assert.ErrorIs(t, f, orig)
	assert.Equal(t, "connection refused", New(BackendCode, "").WithOriginal(orig).Error())
}

func TestWithMetadataDoesNotMutate(t *testing.T) {
	base := New(BadInputCode, "bad")
	withMeta := base.WithMetadata(FieldErrorsMetadata{"command": {"Key is required."}})

	assert.Nil(t, base.Metadata())
	assert.NotNil(t, withMeta.Metadata())
}
