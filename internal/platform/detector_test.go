package platform

import (
	"testing"

	"github.com/bkolar18/wedding-scraper/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		url  string
		want model.Platform
	}{
		{"https://www.theknot.com/us/jane-and-john", model.PlatformTheKnot},
		{"https://theknot.com/us/jane-and-john", model.PlatformTheKnot},
		{"https://www.zola.com/wedding/jane-john", model.PlatformZola},
		{"https://withjoy.com/jane-and-john", model.PlatformJoy},
		{"https://jane-and-john.minted.us/", model.PlatformMinted},
		{"https://www.weddingwire.com/jane-and-john", model.PlatformWeddingWire},
		{"https://janeandjohn2025.com/", model.PlatformGeneric},
		{"not a url at all", model.PlatformGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Detect(tt.url), tt.url)
	}
}

func TestRequiresBrowser(t *testing.T) {
	assert.True(t, RequiresBrowser(model.PlatformTheKnot))
	assert.True(t, RequiresBrowser(model.PlatformWeddingWire))
	assert.False(t, RequiresBrowser(model.PlatformZola))
	assert.False(t, RequiresBrowser(model.PlatformJoy))
	assert.False(t, RequiresBrowser(model.PlatformGeneric))
}
