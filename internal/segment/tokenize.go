package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var latinWordPattern = regexp.MustCompile(`[A-Za-z][A-Za-z'-]*|\d+(?:\.\d+)?`)

// Words tokenizes a sentence for frequency counting: lowercased Latin words
// and numbers for English, individual Han runes plus embedded Latin words
// for Chinese.
func Words(text string, lang Language) []string {
	if lang == English {
		return lowered(latinWordPattern.FindAllString(text, -1))
	}
	out := make([]string, 0, utf8.RuneCountInString(text))
	var latin strings.Builder
	flush := func() {
		if latin.Len() > 0 {
			out = append(out, strings.ToLower(latin.String()))
			latin.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			out = append(out, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			latin.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return out
}

func lowered(tokens []string) []string {
	for i, t := range tokens {
		tokens[i] = strings.ToLower(t)
	}
	return tokens
}

// FilteredWords drops stopwords and very short tokens. Used for the word
// rarity tables, where function words carry no signal.
func FilteredWords(text string, lang Language) []string {
	words := Words(text, lang)
	out := words[:0]
	for _, w := range words {
		if isStopword(w, lang) {
			continue
		}
		if lang == English && len(w) < 2 {
			continue
		}
		out = append(out, w)
	}
	return out
}

// BigramTokens is the lightly-filtered stream the bigram tables are built
// from. Short function words are kept: "of the", "in a" are exactly the
// grammar signal the phrase-rarity check needs.
func BigramTokens(text string, lang Language) []string {
	words := Words(text, lang)
	out := words[:0]
	for _, w := range words {
		if isNumeric(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// Bigrams joins adjacent tokens with a single space; the joined form is the
// corpus map key.
func Bigrams(tokens []string) []string {
	if len(tokens) < 2 {
		return nil
	}
	out := make([]string, 0, len(tokens)-1)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// SentenceLength is the language-specific length metric: token count for
// Latin script, rune count (excluding spaces and punctuation) for CJK, where
// whitespace tokenization is meaningless.
func SentenceLength(sentence string, lang Language) int {
	if lang == English {
		return len(Words(sentence, English))
	}
	n := 0
	for _, r := range sentence {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func isNumeric(token string) bool {
	for _, r := range token {
		if !unicode.IsDigit(r) && r != '.' {
			return false
		}
	}
	return len(token) > 0
}

func isStopword(w string, lang Language) bool {
	if lang == Chinese {
		_, ok := chineseStopwords[w]
		return ok
	}
	_, ok := englishStopwords[w]
	return ok
}

var englishStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "with": {},
	"by": {}, "from": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "it": {}, "its": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "he": {}, "she": {}, "they": {},
	"we": {}, "you": {}, "i": {}, "his": {}, "her": {}, "their": {}, "our": {},
	"not": {}, "no": {}, "can": {}, "will": {}, "would": {}, "should": {},
	"has": {}, "have": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"which": {}, "who": {}, "what": {}, "when": {}, "where": {}, "there": {},
	"than": {}, "then": {}, "so": {}, "such": {}, "into": {}, "about": {},
}

var chineseStopwords = map[string]struct{}{
	"的": {}, "了": {}, "和": {}, "是": {}, "在": {}, "有": {}, "与": {},
	"及": {}, "也": {}, "都": {}, "而": {}, "等": {}, "对": {}, "中": {},
	"并": {}, "或": {}, "被": {}, "将": {}, "把": {}, "就": {}, "其": {},
	"这": {}, "那": {}, "之": {}, "于": {}, "以": {}, "为": {}, "不": {},
}
