package orchestrator

import (
	"encoding/json"
	"regexp"

	"github.com/ayifakhri-cell/ERP-Construction/internal/domain/entity"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*\\n(.*?)\\n\\s*```")

// ExtractDraft looks for a draft purchase order embedded in an answer.
// A fenced json block wins over a bare object. The object must carry both
// totalAmount and items; anything else yields nil.
func ExtractDraft(text string) *entity.DraftPurchaseOrder {
	candidate := ""
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else {
		candidate = firstObject(text)
	}
	if candidate == "" {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		return nil
	}
	if !present(fields, "totalAmount") || !present(fields, "items") {
		return nil
	}

	var draft entity.DraftPurchaseOrder
	if err := json.Unmarshal([]byte(candidate), &draft); err != nil {
		return nil
	}
	return &draft
}

func present(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && string(raw) != "null"
}

// firstObject returns the first balanced top-level {...} span, ignoring braces inside strings
func firstObject(content string) string {
	start := -1
	depth := 0
	inString := false
	escapeNext := false

	for i := 0; i < len(content); i++ {
		c := content[i]

		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}

		if escapeNext {
			escapeNext = false
			continue
		}

		switch {
		case c == '\\' && inString:
			escapeNext = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
