package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestAnswerValueUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		kind ValueKind
		raw  any
	}{
		{"null", `null`, Absent, nil},
		{"empty input", ``, Absent, nil},
		{"scalar string", `"Good"`, Text, "Good"},
		{"empty string", `""`, Text, ""},
		{"string list", `["a","b","c"]`, List, []string{"a", "b", "c"}},
		{"empty list", `[]`, List, []string{}},
		{"mixed list coerces elements", `["a",42,true]`, List, []string{"a", "42", "true"}},
		{"number coerces to text", `42.5`, Text, "42.5"},
		{"bool coerces to text", `true`, Text, "true"},
		{"object coerces to text", `{"x":1}`, Text, `{"x":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v AnswerValue
			if err := v.UnmarshalJSON([]byte(tt.json)); err != nil {
				t.Fatalf("UnmarshalJSON(%q) returned error: %v", tt.json, err)
			}
			if v.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", v.Kind(), tt.kind)
			}
			if !reflect.DeepEqual(v.Raw(), tt.raw) {
				t.Errorf("Raw() = %#v, want %#v", v.Raw(), tt.raw)
			}
		})
	}
}

func TestAnswerValueMarshal(t *testing.T) {
	tests := []struct {
		name  string
		value AnswerValue
		want  string
	}{
		{"absent", AnswerValue{}, `null`},
		{"text", TextValue("hello"), `"hello"`},
		{"list", ListValue([]string{"x", "y"}), `["x","y"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal returned error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAnswerValueDisplay(t *testing.T) {
	tests := []struct {
		name  string
		value AnswerValue
		want  string
	}{
		{"absent renders empty", AnswerValue{}, ""},
		{"scalar passes through", TextValue("  Good  "), "  Good  "},
		{"list joins in order", ListValue([]string{"b", "a", "c"}), "b; a; c"},
		{"single element list", ListValue([]string{"only"}), "only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.Display("; "); got != tt.want {
				t.Errorf("Display = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuestionTypePredicates(t *testing.T) {
	choiceBased := map[QuestionType]bool{
		SingleChoice: true,
		MultiChoice:  true,
		Ranking:      true,
	}

	for _, qt := range QuestionTypes() {
		if got := qt.IsChoiceBased(); got != choiceBased[qt] {
			t.Errorf("%s.IsChoiceBased() = %v, want %v", qt, got, choiceBased[qt])
		}
		if qt.RequiresOptions() != qt.IsChoiceBased() {
			t.Errorf("%s: RequiresOptions and IsChoiceBased disagree", qt)
		}
		if !qt.Valid() {
			t.Errorf("%s.Valid() = false", qt)
		}
	}

	if QuestionType("FREEFORM").Valid() {
		t.Error(`QuestionType("FREEFORM").Valid() = true`)
	}
}
