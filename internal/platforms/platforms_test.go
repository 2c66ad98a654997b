package platforms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/platforms"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	r := platforms.Default()
	assert.Equal(t, []string{
		"chatgpt", "facebook", "instagram", "linkedin", "netflix", "tiktok", "whatsapp", "x", "youtube", "zipcontents",
	}, r.IDs(), "Default should register every platform in order")

	for _, id := range r.IDs() {
		p, err := r.Lookup(id)
		require.NoError(t, err, "Lookup should find %q", id)
		assert.NotEmpty(t, p.Name(), "Platform %q should have a display name", id)
	}

	_, err := r.Lookup("myspace")
	require.ErrorIs(t, err, extract.ErrUnknownPlatform, "Lookup should fail on an unknown platform")
}
