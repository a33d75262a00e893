package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirPrefix(t *testing.T) {
	assert.Equal(t, "", DirPrefix(""))
	assert.Equal(t, "/", DirPrefix("/"))
	assert.Equal(t, "/home/", DirPrefix("/home"))
	assert.Equal(t, "docs/", DirPrefix("docs"))
}

func TestChild(t *testing.T) {
	tests := []struct {
		path, prefix string
		name         string
		sub          bool
	}{
		{"/home/me/a.txt", "/home/", "me", true},
		{"/home/me/a.txt", "/home/me/", "a.txt", false},
		{"/home", "/", "home", false},
		{"/home/", "/home/", "", false},
	}
	for _, tt := range tests {
		name, sub := Child(tt.path, tt.prefix)
		assert.Equal(t, tt.name, name, "Child(%q, %q)", tt.path, tt.prefix)
		assert.Equal(t, tt.sub, sub, "Child(%q, %q)", tt.path, tt.prefix)
	}
}
