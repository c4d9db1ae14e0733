package practice

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ExtractTargetWords picks the words of text a learner should focus on.
// Categories without a specific rule return the whole text.
func ExtractTargetWords(text, category string) []string {
	switch strings.ToLower(category) {
	case "repeticao_fonemas":
		if strings.Contains(text, "/") {
			return trimAll(strings.Split(text, "/"))
		}
		return splitWordsCommas(text)
	case "leitura_palavras":
		return nonEmpty(trimAll(strings.Split(text, ",")))
	case "repeticao_silabas":
		return splitWordsCommas(text)
	case "frases_curtas", "leitura_rapida":
		var words []string
		for _, w := range strings.Fields(text) {
			w = strings.Trim(w, ".,")
			if utf8.RuneCountInString(w) > 3 {
				words = append(words, w)
			}
			if len(words) == 3 {
				break
			}
		}
		if len(words) == 0 {
			return []string{text}
		}
		return words
	case "trava_linguas_progressiva":
		return nonEmpty(trimAll(strings.Split(text, "/")))
	}
	return []string{text}
}

func splitWordsCommas(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func trimAll(parts []string) []string {
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
