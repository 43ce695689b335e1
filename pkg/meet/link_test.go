package meet

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLinkShape(t *testing.T) {
	gen := NewLinkGenerator()
	link, err := gen.NewLink()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^https://meet\.google\.com/[a-z]{3}-[a-z]{4}-[a-z]{3}$`), link)
}

func TestNewLinkUnique(t *testing.T) {
	gen := NewLinkGenerator()
	seen := make(map[string]struct{})
	for i := 0; i < 20; i++ {
		link, err := gen.NewLink()
		require.NoError(t, err)
		seen[link] = struct{}{}
	}
	assert.Greater(t, len(seen), 1)
}
