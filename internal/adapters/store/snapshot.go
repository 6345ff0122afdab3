package store

import (
	"encoding/json"
	"time"

	"bbsit-bot/internal/domain"
)

// snapshot возвращает JSON объявления для сохранения рядом с идентификатором.
func snapshot(item domain.RawItem) string {
	if len(item.Raw) > 0 && json.Valid(item.Raw) {
		return string(item.Raw)
	}
	raw, err := json.Marshal(map[string]any{"id": item.ID})
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func reactionTime(r domain.Reaction) time.Time {
	if r.At.IsZero() {
		return time.Now().UTC()
	}
	return r.At.UTC()
}
