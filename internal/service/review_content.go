package service

import (
	"bytes"
	"fmt"
	htmlstd "html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	reviewMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML(), html.WithUnsafe()),
	)
	reviewSanitizer = buildReviewSanitizer()

	youtubeLinePattern = regexp.MustCompile(`^\s*<?((?:https?://)?(?:www\.|m\.)?(?:youtube\.com|youtu\.be)/[^\s>]+)>?\s*$`)
	youtubeEmbedSrc    = regexp.MustCompile(`^https://www\.youtube-nocookie\.com/embed/[A-Za-z0-9_-]+(\?[^"]*)?$`)
	youtubeTimePattern = regexp.MustCompile(`(?i)(\d+)(h|m|s)`)
)

func buildReviewSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("iframe")
	policy.AllowAttrs("class", "data-video-embed").OnElements("div")
	policy.AllowAttrs("src").Matching(youtubeEmbedSrc).OnElements("iframe")
	policy.AllowAttrs("title", "allow", "allowfullscreen", "frameborder", "loading", "referrerpolicy").OnElements("iframe")
	return policy
}

// RenderReviewContent 将评论 Markdown 渲染为安全的 HTML。
// 单独成行的 YouTube 链接会被替换为内嵌播放器，代码块内的链接保持原样。
func RenderReviewContent(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := reviewMarkdown.Convert([]byte(embedYouTubeLinks(markdown)), &buf); err != nil {
		return "", fmt.Errorf("render review markdown: %w", err)
	}
	return strings.TrimSpace(reviewSanitizer.Sanitize(buf.String())), nil
}

func embedYouTubeLinks(markdown string) string {
	if !strings.Contains(markdown, "youtu") {
		return markdown
	}

	lines := strings.Split(markdown, "\n")
	fence := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			marker := trimmed[:3]
			if fence == "" {
				fence = marker
			} else if marker == fence {
				fence = ""
			}
			continue
		}
		if fence != "" || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}

		match := youtubeLinePattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		if embedURL, ok := youtubeEmbedURL(match[1]); ok {
			lines[i] = fmt.Sprintf(
				"\n"+`<div class="video-embed" data-video-embed="true"><iframe src="%s" title="YouTube video" loading="lazy" allow="encrypted-media; picture-in-picture" allowfullscreen frameborder="0" referrerpolicy="strict-origin-when-cross-origin"></iframe></div>`+"\n",
				htmlstd.EscapeString(embedURL),
			)
		}
	}
	return strings.Join(lines, "\n")
}

func youtubeEmbedURL(raw string) (string, bool) {
	if !strings.HasPrefix(strings.ToLower(raw), "http") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www."), "m.")
	path := strings.Trim(parsed.Path, "/")
	videoID := ""
	switch host {
	case "youtu.be":
		videoID, _, _ = strings.Cut(path, "/")
	case "youtube.com":
		switch {
		case path == "watch":
			videoID = parsed.Query().Get("v")
		case strings.HasPrefix(path, "shorts/"), strings.HasPrefix(path, "embed/"), strings.HasPrefix(path, "live/"):
			_, rest, _ := strings.Cut(path, "/")
			videoID, _, _ = strings.Cut(rest, "/")
		}
	}
	if videoID == "" || strings.ContainsAny(videoID, "<>\"' ") {
		return "", false
	}

	values := url.Values{}
	values.Set("rel", "0")
	values.Set("playsinline", "1")
	if start := youtubeStart(parsed.Query()); start > 0 {
		values.Set("start", strconv.Itoa(start))
	}
	return "https://www.youtube-nocookie.com/embed/" + videoID + "?" + values.Encode(), true
}

// youtubeStart 解析 t/start 参数，支持纯秒数与 1h2m3s 形式
func youtubeStart(query url.Values) int {
	value := strings.TrimSpace(query.Get("start"))
	if value == "" {
		value = strings.TrimSpace(query.Get("t"))
	}
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return max(seconds, 0)
	}

	total := 0
	for _, match := range youtubeTimePattern.FindAllStringSubmatch(value, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		switch strings.ToLower(match[2]) {
		case "h":
			total += n * 3600
		case "m":
			total += n * 60
		case "s":
			total += n
		}
	}
	return total
}
