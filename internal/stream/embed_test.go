package stream

import (
	"testing"

	"github.com/AdamBeresnev/esports-bracket/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestGetEmbedInfo(t *testing.T) {
	tests := []struct {
		name string
		link *string
		want EmbedInfo
	}{
		{"nil link", nil, EmbedInfo{Type: EmbedTypeNone}},
		{"blank link", utils.Ptr("  "), EmbedInfo{Type: EmbedTypeNone}},
		{
			"youtube watch with params",
			utils.Ptr("https://www.youtube.com/watch?v=abc123&t=42s"),
			EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/abc123"},
		},
		{
			"youtube short link",
			utils.Ptr("https://youtu.be/abc123?si=xyz"),
			EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/abc123"},
		},
		{
			"youtube live",
			utils.Ptr("https://youtube.com/live/abc123"),
			EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/abc123"},
		},
		{
			"youtube embed kept",
			utils.Ptr("https://www.youtube.com/embed/abc123"),
			EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/abc123"},
		},
		{
			"twitch channel without scheme",
			utils.Ptr("twitch.tv/esl_csgo"),
			EmbedInfo{Type: EmbedTypeTwitch, URL: "https://player.twitch.tv/?channel=esl_csgo"},
		},
		{
			"twitch vod",
			utils.Ptr("https://www.twitch.tv/videos/123456"),
			EmbedInfo{Type: EmbedTypeTwitch, URL: "https://player.twitch.tv/?video=v123456"},
		},
		{
			"twitch clip",
			utils.Ptr("https://clips.twitch.tv/FunnyClip"),
			EmbedInfo{Type: EmbedTypeTwitch, URL: "https://clips.twitch.tv/embed?clip=FunnyClip"},
		},
		{
			"video file",
			utils.Ptr("https://cdn.example.com/finals.MP4"),
			EmbedInfo{Type: EmbedTypeVideo, URL: "https://cdn.example.com/finals.MP4"},
		},
		{
			"anything else",
			utils.Ptr("https://kick.com/somebody"),
			EmbedInfo{Type: EmbedTypeIframe, URL: "https://kick.com/somebody"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetEmbedInfo(tt.link))
		})
	}
}

func TestEmbedInfo_SrcFor(t *testing.T) {
	twitch := GetEmbedInfo(utils.Ptr("https://twitch.tv/esl_csgo"))
	assert.Equal(t, "https://player.twitch.tv/?channel=esl_csgo&parent=localhost", twitch.SrcFor("localhost:8080"))

	yt := GetEmbedInfo(utils.Ptr("https://youtu.be/abc"))
	assert.Equal(t, "https://www.youtube.com/embed/abc", yt.SrcFor("localhost:8080"))
}
