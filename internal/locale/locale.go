package locale

import (
	"sort"
	"strconv"
	"strings"
)

const (
	LanguageKorean  = "ko"
	LanguageEnglish = "en"
)

// Supported lists the languages the site renders, default first.
var Supported = []string{LanguageKorean, LanguageEnglish}

var contentLanguages = map[string]string{
	LanguageKorean:  "ko-KR",
	LanguageEnglish: "en-US",
}

// NormalizeLanguage maps a tag such as "ko-KR" or "en_us" onto a supported
// language, returning "" for anything else.
func NormalizeLanguage(raw string) string {
	tag := strings.ToLower(strings.TrimSpace(raw))
	primary, _, _ := strings.Cut(strings.ReplaceAll(tag, "_", "-"), "-")
	switch primary {
	case "ko", "kr", "kor":
		return LanguageKorean
	case "en", "eng":
		return LanguageEnglish
	default:
		return ""
	}
}

// LanguageFromCountryCode 韩国访客使用韩语，其余地区默认英语
func LanguageFromCountryCode(code string) string {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "":
		return ""
	case "KR":
		return LanguageKorean
	default:
		return LanguageEnglish
	}
}

type weightedTag struct {
	language string
	quality  float64
	position int
}

// LanguageFromAcceptLanguage picks the supported language with the highest
// q-value; ties keep header order.
func LanguageFromAcceptLanguage(header string) string {
	var tags []weightedTag
	for i, part := range strings.Split(header, ",") {
		tag, params, _ := strings.Cut(part, ";")
		language := NormalizeLanguage(tag)
		if language == "" {
			continue
		}
		quality := 1.0
		if value, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				continue
			}
			quality = parsed
		}
		if quality <= 0 {
			continue
		}
		tags = append(tags, weightedTag{language: language, quality: quality, position: i})
	}
	if len(tags) == 0 {
		return ""
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return tags[i].quality > tags[j].quality
	})
	return tags[0].language
}

// ContentLanguage returns the Content-Language header value for a language.
func ContentLanguage(language string) string {
	if tag, ok := contentLanguages[NormalizeLanguage(language)]; ok {
		return tag
	}
	return contentLanguages[LanguageKorean]
}
