package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type Kind int

const (
	KindSentence Kind = iota
	KindHeading
	KindMath
)

// Span is one segmented unit. Start and End are byte offsets into the
// original text; text[Start:End] equals Text exactly.
type Span struct {
	Text  string
	Start int
	End   int
	Kind  Kind
}

// abbrClass controls how a period after a known abbreviation is treated.
// Titles and latinisms never end a sentence. Reference abbreviations
// ("No. 4", "Fig. 3") collide with ordinary English words, so they only
// suppress the boundary when a number follows; otherwise an uppercase
// sentence start still splits. Final abbreviations ("etc.", "Ltd.") may
// end a sentence before an uppercase start.
type abbrClass int

const (
	abbrNever abbrClass = iota
	abbrRef
	abbrFinal
)

// Known abbreviations keyed without the trailing period.
var abbreviations = map[string]abbrClass{
	"e.g": abbrNever, "i.e": abbrNever, "cf": abbrNever, "ca": abbrNever,
	"et": abbrNever, "vs": abbrNever, "viz": abbrNever, "resp": abbrNever,
	"approx": abbrNever, "dr": abbrNever, "mr": abbrNever, "mrs": abbrNever,
	"ms": abbrNever, "prof": abbrNever, "st": abbrNever, "dept": abbrNever,
	"univ": abbrNever,

	"fig": abbrRef, "figs": abbrRef, "eq": abbrRef, "eqs": abbrRef,
	"sec": abbrRef, "secs": abbrRef, "ref": abbrRef, "refs": abbrRef,
	"ch": abbrRef, "chap": abbrRef, "no": abbrRef, "nos": abbrRef,
	"vol": abbrRef, "vols": abbrRef, "pp": abbrRef, "ed": abbrRef,
	"eds": abbrRef, "trans": abbrRef, "rev": abbrRef, "co": abbrRef,

	"al": abbrFinal, "etc": abbrFinal, "jr": abbrFinal, "sr": abbrFinal,
	"inc": abbrFinal, "ltd": abbrFinal,
}

// Segment splits text into ordered sentence, heading and math-line spans
// with exact offsets. Structural lines become their own spans; runs of
// soft-wrapped prose lines are joined and split on terminal punctuation.
func Segment(text string, lang Language) []Span {
	var spans []Span
	blockStart := -1

	flushBlock := func(end int) {
		if blockStart >= 0 {
			spans = append(spans, splitBlock(text, blockStart, end, lang)...)
			blockStart = -1
		}
	}

	pos := 0
	for pos <= len(text) {
		lineEnd := strings.IndexByte(text[pos:], '\n')
		abs := len(text)
		if lineEnd >= 0 {
			abs = pos + lineEnd
		}
		line := text[pos:abs]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			// Blank line: paragraph break.
			flushBlock(pos)
		case IsHeadingLike(trimmed):
			flushBlock(pos)
			kind := KindHeading
			if IsMathLike(trimmed) {
				kind = KindMath
			}
			if s, ok := tighten(text, pos, abs, kind); ok {
				spans = append(spans, s)
			}
		default:
			if blockStart < 0 {
				blockStart = pos
			}
		}

		if lineEnd < 0 {
			break
		}
		pos = abs + 1
	}
	flushBlock(len(text))
	return spans
}

// splitBlock scans one paragraph of prose for terminal punctuation
// boundaries. Newlines inside the block are soft wraps.
func splitBlock(text string, start, end int, lang Language) []Span {
	var spans []Span
	sentStart := start
	i := start
	for i < end {
		r, size := utf8.DecodeRuneInString(text[i:])
		boundary := false
		switch r {
		case '!', '?', '。', '！', '？', '…', '；':
			boundary = true
		case '.':
			boundary = periodEndsSentence(text, start, i, end)
		}
		if !boundary {
			i += size
			continue
		}
		runEnd := consumeBoundaryRun(text, i+size, end)
		if s, ok := tighten(text, sentStart, runEnd, KindSentence); ok {
			spans = append(spans, s)
		}
		sentStart = runEnd
		i = runEnd
	}
	if s, ok := tighten(text, sentStart, end, KindSentence); ok {
		spans = append(spans, s)
	}
	return spans
}

// consumeBoundaryRun collapses a run of repeated terminal punctuation and
// trailing closers into a single boundary.
func consumeBoundaryRun(text string, i, end int) int {
	for i < end {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !strings.ContainsRune(`.!?。！？…；)]"'”’』」）】`, r) {
			break
		}
		i += size
	}
	return i
}

func periodEndsSentence(text string, blockStart, i, end int) bool {
	// Decimal number.
	if i > 0 && isASCIIDigit(text[i-1]) && i+1 < end && isASCIIDigit(text[i+1]) {
		return false
	}
	// Numbered-heading prefix such as "1." or "2.3.".
	if numberedPrefixBefore(text, blockStart, i) {
		return false
	}
	// Directly followed by a lowercase letter: wrapped citation or
	// identifier, never a boundary.
	if i+1 < end {
		r, _ := utf8.DecodeRuneInString(text[i+1:])
		if unicode.IsLower(r) {
			return false
		}
	}
	word, initial := wordBefore(text, blockStart, i)
	if initial {
		// Single-letter initial: "J. Smith", "U.S.".
		return false
	}
	if class, known := abbreviations[word]; known {
		next := nextSignificantRune(text, i+1, end)
		switch class {
		case abbrNever:
			return false
		case abbrRef:
			if unicode.IsDigit(next) {
				return false
			}
		}
		return unicode.IsUpper(next) || unicode.Is(unicode.Han, next)
	}
	return true
}

// numberedPrefixBefore reports whether everything between the current line
// start and the period is a bare section number.
func numberedPrefixBefore(text string, blockStart, i int) bool {
	lineStart := blockStart
	if idx := strings.LastIndexByte(text[blockStart:i], '\n'); idx >= 0 {
		lineStart = blockStart + idx + 1
	}
	prefix := strings.TrimSpace(text[lineStart:i])
	if prefix == "" {
		return false
	}
	digits := 0
	for _, r := range prefix {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '.':
		default:
			return false
		}
	}
	return digits > 0
}

// wordBefore returns the lowercased token immediately preceding the period,
// keeping internal periods so "e.g." resolves to "e.g". The second result
// reports a single-letter initial.
func wordBefore(text string, blockStart, i int) (string, bool) {
	j := i
	for j > blockStart {
		r, size := utf8.DecodeLastRuneInString(text[:j])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		j -= size
	}
	token := strings.Trim(strings.ToLower(text[j:i]), ".")
	letters := 0
	for _, r := range token {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters == 1 && !strings.Contains(token, ".") {
		return token, true
	}
	// "et al." arrives here as "al"; it is already in the table.
	return token, false
}

func nextSignificantRune(text string, i, end int) rune {
	for i < end {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) && !strings.ContainsRune(`"'“”‘’([`, r) {
			return r
		}
		i += size
	}
	return 0
}

// tighten shrinks a raw span to its non-whitespace content.
func tighten(text string, start, end int, kind Kind) (Span, bool) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	if start >= end {
		return Span{}, false
	}
	return Span{Text: text[start:end], Start: start, End: end, Kind: kind}, true
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

// NormalizeSoftLineBreaks rewrites single soft line wraps to one space,
// strictly length-preserving, so offsets computed before and after
// normalization agree. Paragraph breaks and breaks adjacent to structural
// lines are left untouched.
func NormalizeSoftLineBreaks(text string) string {
	buf := []byte(text)
	lineStart := 0
	for i := 0; i < len(buf); i++ {
		if buf[i] != '\n' {
			continue
		}
		before := strings.TrimSpace(text[lineStart:i])
		afterEnd := len(text)
		if idx := strings.IndexByte(text[i+1:], '\n'); idx >= 0 {
			afterEnd = i + 1 + idx
		}
		after := strings.TrimSpace(text[i+1 : afterEnd])

		soft := before != "" && after != "" &&
			!IsHeadingLike(before) && !IsHeadingLike(after)
		if soft {
			buf[i] = ' '
		}
		lineStart = i + 1
	}
	return string(buf)
}
