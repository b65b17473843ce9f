package middleware

import (
	"errors"
	"unicode/utf8"
)

// ValidateSessionID validates the opaque caller-supplied session id.
func ValidateSessionID(id string) error {
	if len(id) == 0 {
		return errors.New("session id cannot be empty")
	}
	if len(id) > 128 {
		return errors.New("session id exceeds maximum length")
	}
	if !utf8.ValidString(id) {
		return errors.New("session id must be valid UTF-8")
	}
	return nil
}

// ValidateAnswerText validates answer content.
func ValidateAnswerText(answer string) error {
	if len(answer) == 0 {
		return errors.New("answer cannot be empty")
	}
	if len(answer) > 100000 { // ~100KB limit
		return errors.New("answer exceeds maximum length")
	}
	if !utf8.ValidString(answer) {
		return errors.New("answer must be valid UTF-8")
	}
	return nil
}

// ValidateQuestionText validates question content.
func ValidateQuestionText(text string) error {
	if len(text) == 0 {
		return errors.New("question text cannot be empty")
	}
	if len(text) > 10000 {
		return errors.New("question text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("question text must be valid UTF-8")
	}
	return nil
}
