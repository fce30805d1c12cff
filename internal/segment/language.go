// Package segment provides language-aware sentence and heading segmentation
// with exact character offsets into the original text, plus the tokenizers
// the corpus statistics are built on.
package segment

import "unicode"

// Language is a fixed two-valued index. Per-language corpus structures are
// parallel arrays indexed by it, never open-ended string-keyed maps.
type Language int

const (
	English Language = iota
	Chinese

	LanguageCount = 2
)

func (l Language) String() string {
	if l == Chinese {
		return "zh"
	}
	return "en"
}

func ParseLanguage(code string) Language {
	if code == "zh" {
		return Chinese
	}
	return English
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		(r >= 0x3040 && r <= 0x30FF) || // kana, occasionally embedded
		(r >= 0xFF00 && r <= 0xFFEF) // fullwidth forms
}

// DetectLanguage classifies a text as Chinese when CJK runes make up a
// meaningful share of its letters. Mixed documents with sporadic CJK
// citations stay English.
func DetectLanguage(text string) Language {
	cjk := 0
	latin := 0
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			cjk++
		case unicode.IsLetter(r):
			latin++
		}
		if cjk+latin > 20000 {
			break
		}
	}
	if cjk == 0 {
		return English
	}
	if latin == 0 || float64(cjk)/float64(cjk+latin) >= 0.25 {
		return Chinese
	}
	return English
}
