package llm

import (
	"testing"
)

func TestParseObject_DirectJSON(t *testing.T) {
	result, err := ParseObject(`{"name": "restic", "rating": 5}`)
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}

	if result["name"] != "restic" {
		t.Errorf("expected name=restic, got %v", result["name"])
	}
}

func TestParseObject_RecoversFromProse(t *testing.T) {
	text := "Here is the result:\n```json\n{\"name\": \"restic\"}\n```\nHope that helps."

	result, err := ParseObject(text)
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}

	if result["name"] != "restic" {
		t.Errorf("expected name=restic, got %v", result["name"])
	}
}

func TestParseObject_BalancedBracesInsideStrings(t *testing.T) {
	text := `noise {"cmd": "awk '{print $1}'", "nested": {"ok": true}} trailing`

	result, err := ParseObject(text)
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}

	if result["cmd"] != "awk '{print $1}'" {
		t.Errorf("brace inside string broke extraction: %v", result["cmd"])
	}

	nested, ok := result["nested"].(map[string]any)
	if !ok || nested["ok"] != true {
		t.Errorf("nested object lost: %v", result["nested"])
	}
}

func TestParseObject_EscapedQuotes(t *testing.T) {
	text := `{"desc": "say \"hello\" {not a brace}"} tail`

	result, err := ParseObject(text)
	if err != nil {
		t.Fatalf("ParseObject failed: %v", err)
	}

	if result["desc"] != `say "hello" {not a brace}` {
		t.Errorf("unexpected desc: %v", result["desc"])
	}
}

func TestParseObject_NoObject(t *testing.T) {
	if _, err := ParseObject("no json here at all"); err == nil {
		t.Error("expected error for text without a JSON object")
	}

	if _, err := ParseObject("{unterminated"); err == nil {
		t.Error("expected error for unbalanced braces")
	}
}
