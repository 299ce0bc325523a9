package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

type ITextService interface {
	Normalize(input string) string
	Storable(input string) string
	ReduceToLength(input string, length int) string
}

type TextService struct{}

func NewTextService() *TextService {
	return &TextService{}
}

// Normalize brings user text to NFC, drops control and zero-width characters
// (line breaks and tabs survive) and trims the ends.
func (ts *TextService) Normalize(input string) string {
	if input == "" {
		return ""
	}
	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "")
	}
	var builder strings.Builder
	builder.Grow(len(input))
	for _, r := range norm.NFC.String(input) {
		if r == '\n' || r == '\t' {
			builder.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			continue
		}
		builder.WriteRune(r)
	}
	return strings.TrimSpace(builder.String())
}

// Storable returns input as is except for what a Postgres TEXT column rejects:
// invalid UTF-8 sequences become U+FFFD and NUL bytes are removed.
func (ts *TextService) Storable(input string) string {
	if !utf8.ValidString(input) {
		input = strings.ToValidUTF8(input, "\uFFFD")
	}
	return strings.ReplaceAll(input, "\x00", "")
}

// ReduceToLength cuts input to at most length runes.
func (ts *TextService) ReduceToLength(input string, length int) string {
	if length <= 0 {
		return ""
	}
	if utf8.RuneCountInString(input) <= length {
		return input
	}
	runes := []rune(input)
	return strings.TrimSpace(string(runes[:length]))
}
