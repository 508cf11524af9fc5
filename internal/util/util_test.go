package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c", SanitizeFilename(`a/b\c`))
	assert.Equal(t, "photo.png", SanitizeFilename("photo.png"))
	assert.Equal(t, "hidden", SanitizeFilename("...hidden"))
	assert.Equal(t, "untitled", SanitizeFilename("///"))
	assert.Equal(t, "untitled", SanitizeFilename(""))
}

func TestURLBasename(t *testing.T) {
	assert.Equal(t, "pic.jpg", URLBasename("https://cdn.example.com/a/b/pic.jpg?w=100"))
	assert.Equal(t, "pic.jpg", URLBasename("https://cdn.example.com/pic.jpg#frag"))
	assert.Equal(t, "", URLBasename("https://cdn.example.com/"))
	assert.Equal(t, "", URLBasename("://bad"))
}
