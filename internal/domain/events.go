package domain

import (
	"encoding/json"
	"time"
)

// ItemEvent сообщение о новом отправленном объявлении для внешних потребителей.
type ItemEvent struct {
	ItemID  string          `json:"item_id"`
	FoundAt time.Time       `json:"found_at"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewItemEvent собирает событие по объявлению.
func NewItemEvent(item RawItem, at time.Time) ItemEvent {
	ev := ItemEvent{ItemID: item.ID, FoundAt: at.UTC()}
	if len(item.Raw) > 0 && json.Valid(item.Raw) {
		ev.Payload = item.Raw
	}
	return ev
}
