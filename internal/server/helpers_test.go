package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeRedirect(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/new/":                "/new/",
		"/sarah/1/?page=2":     "/sarah/1/?page=2",
		"//evil.example/":      "/",
		"https://evil.example": "/",
		"/\\evil.example":      "/",
		"relative/path":        "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeRedirect(in), in)
	}
}

func TestParseOptionalID(t *testing.T) {
	assert.Nil(t, parseOptionalID(""))
	assert.Nil(t, parseOptionalID("abc"))
	assert.Nil(t, parseOptionalID("0"))
	assert.Nil(t, parseOptionalID("-3"))
	if id := parseOptionalID(" 7 "); assert.NotNil(t, id) {
		assert.Equal(t, uint(7), *id)
	}
}
