package enrich

import "unicode"

// detectLanguage guesses a language code from the script of the content
// text. Kana is checked before Han so Japanese text that mixes kanji is not
// misread as Chinese. Defaults to "en".
func detectLanguage(text string) string {
	hasHan := false
	hasCyrillic := false
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			return "ja"
		case unicode.In(r, unicode.Han):
			hasHan = true
		case unicode.In(r, unicode.Cyrillic):
			hasCyrillic = true
		}
	}
	if hasHan {
		return "zh"
	}
	if hasCyrillic {
		return "ru"
	}
	return "en"
}
