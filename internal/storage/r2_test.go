package storage

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	base, err := url.Parse("https://cdn.example.com/assets/")
	require.NoError(t, err)

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"plain key", "logos/1.png", "https://cdn.example.com/assets/logos/1.png"},
		{"leading slash", "/logos/1.png", "https://cdn.example.com/assets/logos/1.png"},
		{"empty key", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PublicURL(base, tt.key))
		})
	}

	assert.Empty(t, PublicURL(nil, "logos/1.png"))
}

func TestNewR2Uploader_RequiresAllFields(t *testing.T) {
	_, err := NewR2Uploader(context.Background(), R2Config{AccountID: "acc", Bucket: "logos"})
	assert.Error(t, err)
}

func TestNewR2Uploader_NormalisesBaseURL(t *testing.T) {
	up, err := NewR2Uploader(context.Background(), R2Config{
		AccountID:       "acc",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "logos",
		PublicBaseURL:   "https://pub.example.com/teams",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://pub.example.com/teams/7/logo.png", up.GetPublicURL("7/logo.png"))
}
