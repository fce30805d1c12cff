package segment

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	markdownHeadingPattern = regexp.MustCompile(`^#{1,6}\s`)
	bulletPattern          = regexp.MustCompile(`^[-*•–]\s`)
	numberedPattern        = regexp.MustCompile(`^(\d+(\.\d+)*|[ivxlcIVXLC]+|[A-Z])[.)、]\s*\S`)
	captionPattern         = regexp.MustCompile(`^(Fig\.?|Figure|Table|Tab\.?|Eq\.?|Equation|Algorithm|Listing|图|表|式|算法)\s*\.?\s*\d`)
	chapterPattern         = regexp.MustCompile(`^(Chapter|Section|Appendix|Part|第)[\s一二三四五六七八九十百\d]`)
	latexMarkerPattern     = regexp.MustCompile(`\\[a-zA-Z]+|\$[^$]*\$|\\\[|\\\]|\\\(|\\\)`)
)

// Canonical section headings, bilingual. Matching is case-insensitive after
// stripping list markers and trailing colons.
var canonicalHeadings = map[string]struct{}{
	"abstract": {}, "introduction": {}, "background": {}, "related work": {},
	"methods": {}, "method": {}, "methodology": {}, "materials and methods": {},
	"results": {}, "results and discussion": {}, "discussion": {},
	"conclusion": {}, "conclusions": {}, "future work": {}, "references": {},
	"bibliography": {}, "acknowledgments": {}, "acknowledgements": {},
	"appendix": {}, "summary": {}, "keywords": {}, "contents": {},
	"摘要": {}, "引言": {}, "绪论": {}, "前言": {}, "背景": {}, "相关工作": {},
	"研究方法": {}, "方法": {}, "实验": {}, "实验结果": {}, "结果": {},
	"结果与讨论": {}, "讨论": {}, "结论": {}, "总结": {}, "参考文献": {},
	"致谢": {}, "附录": {}, "关键词": {}, "目录": {},
}

// Verbs that mark a clause rather than a title. A short line containing two
// or more of these is prose even when title-cased.
var clauseVerbs = map[string]struct{}{
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"has": {}, "have": {}, "had": {}, "does": {}, "did": {}, "will": {},
	"would": {}, "can": {}, "could": {}, "should": {}, "must": {},
	"went": {}, "said": {}, "made": {}, "found": {}, "shows": {},
	"showed": {}, "used": {}, "using": {}, "propose": {}, "present": {},
}

// IsHeadingLike reports whether a single line reads as a heading, list item,
// caption or other structural line rather than running prose.
func IsHeadingLike(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if markdownHeadingPattern.MatchString(line) ||
		bulletPattern.MatchString(line) ||
		numberedPattern.MatchString(line) ||
		captionPattern.MatchString(line) ||
		chapterPattern.MatchString(line) {
		return true
	}
	if isCanonicalHeading(line) {
		return true
	}
	// Trailing colon with no terminal sentence punctuation before it.
	if strings.HasSuffix(line, ":") || strings.HasSuffix(line, "：") {
		body := strings.TrimRight(line, ":：")
		if !strings.ContainsAny(body, ".!?。！？") {
			return true
		}
	}
	if IsMathLike(line) {
		return true
	}
	return titleCased(line)
}

func isCanonicalHeading(line string) bool {
	key := strings.ToLower(strings.TrimSpace(line))
	key = strings.TrimRight(key, ":：.。 \t")
	key = strings.TrimLeft(key, "#*-•–0123456789.、 \t")
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	_, ok := canonicalHeadings[key]
	return ok
}

// IsMathLike flags displayed formulas: LaTeX markup, or at least three
// operator runes with letters making up less than 55% of the line.
func IsMathLike(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if latexMarkerPattern.MatchString(line) {
		return true
	}
	operators := 0
	letters := 0
	total := 0
	for _, r := range line {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case strings.ContainsRune("=+-*/<>^_|∑∏∫√≤≥≠≈±×÷∂∇∈∉⊂⊆∪∩→←", r):
			operators++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if total == 0 || operators < 3 {
		return false
	}
	return float64(letters)/float64(total) < 0.55
}

// titleCased checks a short line for Title Case or ALL CAPS while excluding
// verb-heavy clauses.
func titleCased(line string) bool {
	if strings.ContainsAny(line, ".!?。！？,，;；") {
		return false
	}
	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 10 {
		return false
	}
	verbs := 0
	capitalized := 0
	significant := 0
	for _, w := range words {
		lw := strings.ToLower(strings.Trim(w, "\"'()[]"))
		if _, ok := clauseVerbs[lw]; ok {
			verbs++
		}
		r := []rune(w)
		if len(r) == 0 || !unicode.IsLetter(r[0]) {
			continue
		}
		// Short connectives stay lowercase in titles.
		if _, ok := englishStopwords[lw]; ok && len(lw) <= 3 {
			continue
		}
		significant++
		if unicode.IsUpper(r[0]) {
			capitalized++
		}
	}
	if verbs >= 2 || significant == 0 {
		return false
	}
	return float64(capitalized)/float64(significant) >= 0.75
}
