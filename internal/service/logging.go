package service

import (
	"log"
	"strings"
	"unicode/utf8"
)

const maxLogSnippetRunes = 512

// logUpstream 输出外部服务的响应摘要，便于排查天气接口异常。
func logUpstream(kind, phase, content string) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		log.Printf("[%s] %s: <empty>", kind, phase)
		return
	}

	runeCount := utf8.RuneCountInString(trimmed)
	snippet := trimmed
	if runeCount > maxLogSnippetRunes {
		snippet = string([]rune(trimmed)[:maxLogSnippetRunes]) + "…(truncated)"
	}
	log.Printf("[%s] %s (runes=%d): %s", kind, phase, runeCount, snippet)
}

func logStorageError(key string, err error) {
	log.Printf("[storage] delete %s failed: %v", key, err)
}
