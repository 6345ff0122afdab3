package domain

import (
	"encoding/json"
	"time"
)

// PriceUnitPerHour единственная поддерживаемая единица цены.
const PriceUnitPerHour = "per_hour"

// Location описывает адрес начала присмотра.
type Location struct {
	PostalCode     string
	City           string
	MapURL         string
	DistanceMeters float64
}

// RawItem представляет объявление в том виде, в каком его вернула лента.
type RawItem struct {
	ID             string
	WindowStart    time.Time
	WindowEnd      time.Time
	PriceCents     int64
	PriceUnit      string
	Description    string
	CategoryID     int
	Location       Location
	RecurrenceDays []int
	// Raw хранит исходный JSON объявления для диагностики и снимка в хранилище.
	Raw json.RawMessage
	// Invalid содержит ошибку разбора, если объявление пришло в неожиданном виде.
	Invalid error
}

// DayGroup группа объявлений одного дня ленты.
type DayGroup struct {
	Day   time.Time
	Items []RawItem
}

// Page ответ ленты на один запрос.
type Page struct {
	Groups []DayGroup
}

// LastDay возвращает курсор следующей страницы.
func (p Page) LastDay() (time.Time, bool) {
	if len(p.Groups) == 0 {
		return time.Time{}, false
	}
	return p.Groups[len(p.Groups)-1].Day, true
}

// Notification готовое к отправке сообщение.
type Notification struct {
	ItemID string
	Text   string
}

// ReactionKind тип ответа пользователя на объявление.
type ReactionKind string

const (
	// ReactionLike объявление понравилось.
	ReactionLike ReactionKind = "like"
	// ReactionDislike объявление не подходит.
	ReactionDislike ReactionKind = "dislike"
)

// Reaction фиксирует ответ пользователя на уведомление.
type Reaction struct {
	ItemID string
	Kind   ReactionKind
	ChatID int64
	At     time.Time
}
