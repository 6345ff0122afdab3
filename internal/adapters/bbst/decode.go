package bbst

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bbsit-bot/internal/domain"
)

const dayObject = "babysitting_day"

type dayEnvelope struct {
	Object       string `json:"object"`
	Day          string `json:"day"`
	Babysittings struct {
		Data []json.RawMessage `json:"data"`
	} `json:"babysittings"`
}

type wireItem struct {
	ID             flexString `json:"id"`
	LocalStartTime string     `json:"local_start_time"`
	LocalEndTime   string     `json:"local_end_time"`
	Description    *string    `json:"description"`
	Price          int64      `json:"price"`
	PriceUnit      string     `json:"price_unit"`
	CategoryID     int        `json:"category_id"`
	Affinity       *struct {
		DistanceToStart float64 `json:"distance_to_start"`
	} `json:"babysitting_affinity_for_control_panel"`
	StartAddress *struct {
		PostalCode flexString `json:"postal_code"`
		City       string     `json:"city"`
		GoogleURL  string     `json:"google_url"`
	} `json:"start_address"`
	WeekDays *struct {
		Data []struct {
			LocalNumber int `json:"local_number"`
		} `json:"data"`
	} `json:"week_days"`
}

// flexString принимает строку, число или null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ожидали строку или число: %s", data)
	}
	*f = flexString(n.String())
	return nil
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseLocalTime разбирает время ленты. Значения без смещения считаются временем loc.
func ParseLocalTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("пустое время")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("неизвестный формат времени %q", value)
}

func (c *Client) decodePage(body []byte) (domain.Page, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		return domain.Page{}, fmt.Errorf("%w: decode page: %v", domain.ErrFeed, err)
	}

	page := domain.Page{Groups: make([]domain.DayGroup, 0, len(elements))}
	for _, raw := range elements {
		var head struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &head); err != nil || head.Object != dayObject {
			c.log.Warn().Str("type", head.Object).RawJSON("data", raw).Msg("feed: неожиданный объект, пропускаем")
			continue
		}
		var env dayEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return domain.Page{}, fmt.Errorf("%w: decode day: %v", domain.ErrFeed, err)
		}
		day, err := ParseLocalTime(env.Day, c.opts.Location)
		if err != nil {
			return domain.Page{}, fmt.Errorf("%w: day: %v", domain.ErrFeed, err)
		}
		group := domain.DayGroup{Day: day, Items: make([]domain.RawItem, 0, len(env.Babysittings.Data))}
		for _, rawItem := range env.Babysittings.Data {
			item, ok := c.decodeItem(rawItem)
			if !ok {
				continue
			}
			group.Items = append(group.Items, item)
		}
		page.Groups = append(page.Groups, group)
	}
	return page, nil
}

// decodeItem разбирает объявление. Без идентификатора объявление пропускается,
// остальные ошибки остаются в RawItem.Invalid и всплывут при форматировании.
func (c *Client) decodeItem(raw json.RawMessage) (domain.RawItem, bool) {
	var head struct {
		ID flexString `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil || head.ID == "" {
		c.log.Warn().RawJSON("data", raw).Msg("feed: объявление без идентификатора, пропускаем")
		return domain.RawItem{}, false
	}

	item := domain.RawItem{ID: string(head.ID), Raw: raw}
	var w wireItem
	if err := json.Unmarshal(raw, &w); err != nil {
		item.Invalid = fmt.Errorf("decode item: %w", err)
		return item, true
	}
	if err := fillItem(&item, w, c.opts.Location); err != nil {
		item.Invalid = err
	}
	return item, true
}

func fillItem(item *domain.RawItem, w wireItem, loc *time.Location) error {
	var err error
	if item.WindowStart, err = ParseLocalTime(w.LocalStartTime, loc); err != nil {
		return fmt.Errorf("local_start_time: %w", err)
	}
	if item.WindowEnd, err = ParseLocalTime(w.LocalEndTime, loc); err != nil {
		return fmt.Errorf("local_end_time: %w", err)
	}
	if w.Affinity == nil {
		return errors.New("нет babysitting_affinity_for_control_panel")
	}
	if w.StartAddress == nil {
		return errors.New("нет start_address")
	}
	if w.WeekDays == nil {
		return errors.New("нет week_days")
	}

	item.PriceCents = w.Price
	item.PriceUnit = w.PriceUnit
	item.CategoryID = w.CategoryID
	if w.Description != nil {
		item.Description = *w.Description
	}
	item.Location = domain.Location{
		PostalCode:     string(w.StartAddress.PostalCode),
		City:           w.StartAddress.City,
		MapURL:         w.StartAddress.GoogleURL,
		DistanceMeters: w.Affinity.DistanceToStart,
	}
	item.RecurrenceDays = make([]int, 0, len(w.WeekDays.Data))
	for _, d := range w.WeekDays.Data {
		item.RecurrenceDays = append(item.RecurrenceDays, d.LocalNumber)
	}
	return nil
}
