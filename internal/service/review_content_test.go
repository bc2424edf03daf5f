package service

import (
	"net/url"
	"strings"
	"testing"
)

func TestRenderReviewContentEmbedsYouTube(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		markdown string
		wantSrc  string
	}{
		{name: "watch", markdown: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", wantSrc: "youtube-nocookie.com/embed/dQw4w9WgXcQ"},
		{name: "short link", markdown: "youtu.be/abcDEF_123", wantSrc: "youtube-nocookie.com/embed/abcDEF_123"},
		{name: "shorts", markdown: "https://youtube.com/shorts/Zx9-8y", wantSrc: "youtube-nocookie.com/embed/Zx9-8y"},
		{name: "angle brackets", markdown: "<https://www.youtube.com/watch?v=dQw4w9WgXcQ>", wantSrc: "embed/dQw4w9WgXcQ"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			html, err := RenderReviewContent("수중 영상\n\n" + tt.markdown + "\n\n좋았어요")
			if err != nil {
				t.Fatalf("render review content: %v", err)
			}
			if !strings.Contains(html, "<iframe") || !strings.Contains(html, tt.wantSrc) {
				t.Fatalf("expected iframe with %q, got: %s", tt.wantSrc, html)
			}
			if !strings.Contains(html, "좋았어요") {
				t.Fatalf("expected trailing paragraph kept, got: %s", html)
			}
		})
	}
}

func TestRenderReviewContentSkipsCodeFence(t *testing.T) {
	t.Parallel()

	html, err := RenderReviewContent("```\nhttps://www.youtube.com/watch?v=dQw4w9WgXcQ\n```")
	if err != nil {
		t.Fatalf("render review content: %v", err)
	}
	if strings.Contains(html, "<iframe") {
		t.Fatalf("expected no iframe inside code fence, got: %s", html)
	}
}

func TestRenderReviewContentSanitizes(t *testing.T) {
	t.Parallel()

	html, err := RenderReviewContent("안녕 <script>alert(1)</script>\n\n<iframe src=\"https://evil.example.com\"></iframe>")
	if err != nil {
		t.Fatalf("render review content: %v", err)
	}
	if strings.Contains(html, "<script") || strings.Contains(html, "evil.example.com") {
		t.Fatalf("expected unsafe markup removed, got: %s", html)
	}
	if !strings.Contains(html, "안녕") {
		t.Fatalf("expected text kept, got: %s", html)
	}
}

func TestYouTubeStart(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"t=90":      90,
		"t=1m30s":   90,
		"start=45":  45,
		"t=1h":      3600,
		"t=-5":      0,
		"other=abc": 0,
	}
	for raw, want := range cases {
		query, _ := url.ParseQuery(raw)
		if got := youtubeStart(query); got != want {
			t.Fatalf("%s: expected %d, got %d", raw, want, got)
		}
	}
}
