// Package i18n holds the user-facing wording for pipeline results. The
// pipeline speaks in codes; wording is chosen at the transport boundary.
package i18n

import (
	"strings"

	"golang.org/x/text/language"

	"mediadetect/internal/domain"
)

const (
	English    = "en"
	Indonesian = "id"
)

var supported = []language.Tag{language.English, language.Indonesian}

var matcher = language.NewMatcher(supported)

var errorText = map[string]map[domain.ErrorCode]string{
	English: {
		domain.CodeArtifactNotFound: "detection result not found",
		domain.CodeTranscodeFailed:  "video transcoding failed",
		domain.CodeDetectionFailed:  "object detection failed",
		domain.CodeUnsupportedMedia: "unsupported media type",
	},
	Indonesian: {
		domain.CodeArtifactNotFound: "Hasil deteksi tidak ditemukan",
		domain.CodeTranscodeFailed:  "Gagal melakukan transcoding video",
		domain.CodeDetectionFailed:  "Gagal melakukan deteksi objek",
		domain.CodeUnsupportedMedia: "Jenis media tidak didukung",
	},
}

var messageText = map[string]map[domain.MessageCode]string{
	English: {
		domain.MessageVideoProcessed: "video processed successfully",
	},
	Indonesian: {
		domain.MessageVideoProcessed: "Video berhasil diproses",
	},
}

// Match picks the closest supported locale for one or more language
// preferences, which may be bare tags ("id"), regional tags ("en-GB") or
// full Accept-Language values. Unparseable input yields fallback.
func Match(fallback string, prefs ...string) string {
	var tags []language.Tag
	for _, p := range prefs {
		p = strings.TrimSpace(strings.ReplaceAll(p, "_", "-"))
		if p == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return Normalize(fallback)
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Normalize(fallback)
	}
	return base(supported[idx])
}

// Normalize maps any locale string onto a supported locale, defaulting to English.
func Normalize(locale string) string {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(locale), "_", "-"))
	if err != nil {
		return English
	}
	if b, _ := tag.Base(); b.String() == Indonesian {
		return Indonesian
	}
	return English
}

// ForCountry returns the locale implied by an ISO country code.
func ForCountry(country string) string {
	if strings.EqualFold(strings.TrimSpace(country), "ID") {
		return Indonesian
	}
	return English
}

// Localize rewrites the human-readable wording of r for locale. Codes,
// detail and payload are untouched.
func Localize(r domain.Result, locale string) domain.Result {
	locale = Normalize(locale)
	if r.Failed() {
		if text, ok := errorText[locale][r.Code]; ok {
			r.Error = text
		}
		return r
	}
	if r.MessageCode != "" {
		if text, ok := messageText[locale][r.MessageCode]; ok {
			r.Message = text
		}
	}
	return r
}

func base(tag language.Tag) string {
	b, _ := tag.Base()
	return b.String()
}
