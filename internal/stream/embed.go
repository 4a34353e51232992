package stream

import (
	"net/url"
	"strings"
)

type EmbedType int

const (
	EmbedTypeNone EmbedType = iota
	EmbedTypeYouTube
	EmbedTypeTwitch
	EmbedTypeVideo
	EmbedTypeIframe
)

type EmbedInfo struct {
	Type EmbedType
	URL  string
}

// GetEmbedInfo turns a match stream link into something the match page can embed.
func GetEmbedInfo(link *string) EmbedInfo {
	if link == nil || strings.TrimSpace(*link) == "" {
		return EmbedInfo{Type: EmbedTypeNone}
	}

	l := strings.TrimSpace(*link)
	u, err := url.Parse(l)
	if err != nil || u.Host == "" {
		// Twitch and YouTube links are often pasted without a scheme
		u, err = url.Parse("https://" + l)
		if err != nil {
			return EmbedInfo{Type: EmbedTypeIframe, URL: l}
		}
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")

	switch host {
	case "youtube.com":
		if strings.HasPrefix(u.Path, "/embed/") {
			return EmbedInfo{Type: EmbedTypeYouTube, URL: l}
		}
		if id := u.Query().Get("v"); id != "" {
			return youTube(id)
		}
		if id, ok := strings.CutPrefix(u.Path, "/live/"); ok && id != "" {
			return youTube(id)
		}
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return youTube(id)
		}
	case "twitch.tv":
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && parts[0] == "videos" && parts[1] != "" {
			return EmbedInfo{Type: EmbedTypeTwitch, URL: "https://player.twitch.tv/?video=v" + parts[1]}
		}
		if len(parts) == 1 && parts[0] != "" {
			return EmbedInfo{Type: EmbedTypeTwitch, URL: "https://player.twitch.tv/?channel=" + url.QueryEscape(parts[0])}
		}
	case "clips.twitch.tv":
		if clip := strings.Trim(u.Path, "/"); clip != "" {
			return EmbedInfo{Type: EmbedTypeTwitch, URL: "https://clips.twitch.tv/embed?clip=" + url.QueryEscape(clip)}
		}
	}

	// Check for regular video files
	lower := strings.ToLower(u.Path)
	for _, ext := range []string{".mp4", ".webm", ".ogg", ".mov"} {
		if strings.HasSuffix(lower, ext) {
			return EmbedInfo{Type: EmbedTypeVideo, URL: l}
		}
	}

	// Default to generic iframe and hope for the best
	return EmbedInfo{Type: EmbedTypeIframe, URL: l}
}

// SrcFor returns the iframe src for a page served from host. Twitch refuses to
// play unless the embedding host is passed as parent.
func (e EmbedInfo) SrcFor(host string) string {
	if e.Type != EmbedTypeTwitch || host == "" {
		return e.URL
	}
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return e.URL + "&parent=" + url.QueryEscape(host)
}

func youTube(id string) EmbedInfo {
	return EmbedInfo{Type: EmbedTypeYouTube, URL: "https://www.youtube.com/embed/" + url.PathEscape(id)}
}
