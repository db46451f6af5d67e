package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ExtractReason categorizes why a model reply could not be decoded.
type ExtractReason string

const (
	ReasonNoJSON    ExtractReason = "no_json_object"
	ReasonBadJSON   ExtractReason = "invalid_json"
	ReasonEmptyQuiz ExtractReason = "empty_quiz"
)

type ExtractError struct {
	Reason ExtractReason
	Err    error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extract: %s", e.Reason)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?")

// ExtractJSONObject pulls the first top-level JSON object out of a model
// reply. Replies often wrap the object in markdown fences or surround it
// with prose, so everything outside the outermost braces is discarded.
func ExtractJSONObject(raw string) ([]byte, error) {
	s := fenceRe.ReplaceAllString(raw, "")
	s = strings.ReplaceAll(s, "`", "")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil, &ExtractError{Reason: ReasonNoJSON}
	}
	candidate := []byte(s[start : end+1])
	if !json.Valid(candidate) {
		return nil, &ExtractError{Reason: ReasonBadJSON}
	}
	return candidate, nil
}

// DecodeJSONObject extracts and unmarshals into out in one step.
func DecodeJSONObject(raw string, out interface{}) error {
	data, err := ExtractJSONObject(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ExtractError{Reason: ReasonBadJSON, Err: err}
	}
	return nil
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Type          string   `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

type QuizPayload struct {
	Questions []QuizQuestion `json:"questions"`
}

// DecodeQuizPayload decodes a quiz reply and rejects payloads without at
// least one question.
func DecodeQuizPayload(raw string) (*QuizPayload, error) {
	var payload QuizPayload
	if err := DecodeJSONObject(raw, &payload); err != nil {
		return nil, err
	}
	if len(payload.Questions) == 0 {
		return nil, &ExtractError{Reason: ReasonEmptyQuiz}
	}
	return &payload, nil
}
