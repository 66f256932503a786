package main

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadErrorMatchesKindAndCause(t *testing.T) {
	err := newLoadError(ErrFileUnavailable, "/a.png", fs.ErrPermission)
	wrapped := fmt.Errorf("opening: %w", err)

	assert.ErrorIs(t, wrapped, ErrFileUnavailable)
	assert.ErrorIs(t, wrapped, fs.ErrPermission)
	assert.NotErrorIs(t, wrapped, ErrDecodeFailed)
	assert.Equal(t, "/a.png: file unavailable: permission denied", err.Error())
	assert.Equal(t, "/b.png: not a recognized image", newLoadError(ErrNotAnImage, "/b.png", nil).Error())

	var loadErr *LoadError
	assert.True(t, errors.As(wrapped, &loadErr))
	assert.Equal(t, "/a.png", loadErr.Path)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{newLoadError(ErrNotAnImage, "x", nil), "Not an image file"},
		{newLoadError(ErrFileUnavailable, "x", nil), "File is not accessible"},
		{fmt.Errorf("%w: bad huffman", ErrDecodeFailed), "Could not decode image"},
		{ErrEncodeFailed, "Could not encode image"},
		{newLoadError(ErrReplaceFailed, "x", nil), "Could not replace original file"},
		{ErrReadOnlySource, "This image cannot be modified"},
		{errors.New("boom"), "Error: boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, userMessage(tt.err))
	}
}

func TestIsSilent(t *testing.T) {
	assert.True(t, isSilent(ErrCancelled))
	assert.True(t, isSilent(fmt.Errorf("decode: %w", ErrCancelled)))
	assert.False(t, isSilent(ErrDecodeFailed))
	assert.False(t, isSilent(nil))
}
