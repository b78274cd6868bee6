package enrich

import (
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "plain english",
			text:     "just setting up my account",
			expected: "en",
		},
		{
			name:     "empty text",
			text:     "",
			expected: "en",
		},
		{
			name:     "cyrillic",
			text:     "Привет, мир",
			expected: "ru",
		},
		{
			name:     "chinese",
			text:     "今天天气很好",
			expected: "zh",
		},
		{
			name:     "japanese hiragana",
			text:     "おはようございます",
			expected: "ja",
		},
		{
			name:     "japanese with kanji still reads as japanese",
			text:     "東京タワーに行きました",
			expected: "ja",
		},
		{
			name:     "mixed latin and cyrillic",
			text:     "RT: отличный пост",
			expected: "ru",
		},
		{
			name:     "emoji and punctuation only",
			text:     "!!! 🎉🎉",
			expected: "en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := detectLanguage(tt.text)
			if result != tt.expected {
				t.Errorf("detectLanguage(%q) = %q, want %q", tt.text, result, tt.expected)
			}
		})
	}
}
