package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewItemEventEmbedsPayload(t *testing.T) {
	at := time.Date(2024, 3, 4, 18, 0, 0, 0, time.FixedZone("CET", 3600))
	ev := NewItemEvent(RawItem{ID: "9", Raw: json.RawMessage(`{"id":9}`)}, at)
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, `"payload":{"id":9}`) || !strings.Contains(got, `"found_at":"2024-03-04T17:00:00Z"`) {
		t.Fatalf("неожиданное событие: %s", got)
	}

	ev = NewItemEvent(RawItem{ID: "10", Raw: json.RawMessage(`{broken`)}, at)
	if ev.Payload != nil {
		t.Fatal("битый JSON не должен попадать в событие")
	}
}
