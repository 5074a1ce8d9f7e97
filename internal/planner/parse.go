package planner

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// fencedJSON вырезает JSON из markdown-ограждения ```json ... ```.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractJSON достаёт JSON-объект из ответа модели.
//
// Модели часто оборачивают JSON в markdown-ограждение или добавляют
// пояснительный текст вокруг; пробуем по убыванию строгости: весь
// ответ как есть, содержимое ограждения, срез от первой '{' до
// последней '}'.
func extractJSON(content string) (json.RawMessage, error) {
	content = strings.TrimSpace(content)

	if json.Valid([]byte(content)) {
		return json.RawMessage(content), nil
	}

	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		if json.Valid([]byte(m[1])) {
			return json.RawMessage(m[1]), nil
		}
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		candidate := content[start : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), nil
		}
	}

	return nil, errors.New("model response contains no valid JSON")
}
