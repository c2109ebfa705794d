package model

import (
	"encoding/json"
	"strings"
)

type ValueKind int

const (
	Absent ValueKind = iota
	Text
	List
)

// AnswerValue is the value of a single answer: absent, one string, or a list
// of strings. MULTI_CHOICE and RANKING answers use the list form (RANKING in
// rank order), everything else a single string. Stored data is not guaranteed
// to match the question type, so every consumer must be total over all three
// shapes.
type AnswerValue struct {
	kind ValueKind
	text string
	list []string
}

func TextValue(s string) AnswerValue {
	return AnswerValue{kind: Text, text: s}
}

func ListValue(ss []string) AnswerValue {
	return AnswerValue{kind: List, list: ss}
}

func (v AnswerValue) Kind() ValueKind { return v.kind }

func (v AnswerValue) IsAbsent() bool { return v.kind == Absent }

func (v AnswerValue) Text() string { return v.text }

func (v AnswerValue) List() []string { return v.list }

// Raw returns the value in its natural Go shape: nil, string or []string.
func (v AnswerValue) Raw() any {
	switch v.kind {
	case Text:
		return v.text
	case List:
		return v.list
	default:
		return nil
	}
}

// Display formats the value for flat textual output: absent renders empty,
// a list joins its elements with sep (order preserved), a scalar passes
// through unchanged.
func (v AnswerValue) Display(sep string) string {
	switch v.kind {
	case Text:
		return v.text
	case List:
		return strings.Join(v.list, sep)
	default:
		return ""
	}
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Text:
		return json.Marshal(v.text)
	case List:
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a string, or an array. Anything else
// (numbers, booleans, objects, mixed arrays) is coerced to its JSON text so
// historical or cross-edited data stays renderable.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*v = AnswerValue{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = TextValue(s)
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err == nil {
		list := make([]string, len(raw))
		for i, el := range raw {
			var es string
			if err := json.Unmarshal(el, &es); err == nil {
				list[i] = es
			} else {
				list[i] = string(el)
			}
		}
		*v = ListValue(list)
		return nil
	}

	*v = TextValue(trimmed)
	return nil
}
