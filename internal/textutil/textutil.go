// Package textutil normalizes extracted document text before it is sent to
// the inference backend.
package textutil

import (
	"regexp"
	"strings"
)

// wordsPerToken approximates tokens from words to bound payload size.
// This is a budget heuristic, not a tokenizer-accurate cut.
const wordsPerToken = 0.75

var (
	reControl = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F-\x9F]`)
	reSpace   = regexp.MustCompile(`\s+`)
)

// Clean strips C0/C1 control characters, collapses all whitespace runs
// (including newlines) into single spaces, and trims.
func Clean(s string) string {
	if s == "" {
		return s
	}
	s = reControl.ReplaceAllString(s, " ")
	s = reSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Sample bounds text to roughly maxTokens tokens. Zero or negative budgets
// disable sampling.
func Sample(s string, maxTokens int) string {
	if maxTokens <= 0 {
		return s
	}
	return LimitWords(s, int(float64(maxTokens)*wordsPerToken))
}

// LimitWords truncates text to at most maxWords whitespace-separated words.
func LimitWords(s string, maxWords int) string {
	if maxWords <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ")
}
