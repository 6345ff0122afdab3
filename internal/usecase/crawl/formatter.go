package crawl

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	"bbsit-bot/internal/domain"
)

const (
	// messageLimit лимит Telegram в единицах UTF-16.
	messageLimit = 4096
	// limitMargin запас на расхождение подсчёта после разбора разметки.
	limitMargin   = 32
	noDescription = "Pas de description."
)

var categoryLabels = map[int]string{
	1: "👶🏻 Babysitting",
	2: "🔁 Régulier",
	3: "🏖 Vacances",
	4: "📚 Cours",
}

// Индекс это номер дня недели в ленте, 0 = понедельник.
var weekdayLabels = [...]string{"L", "Ma", "Me", "J", "V", "S", "D"}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// FormatItem формирует текст уведомления (Telegram Markdown) для одного объявления.
func FormatItem(item domain.RawItem) (string, error) {
	if item.Invalid != nil {
		return "", fmt.Errorf("%w: объявление %s: %v", domain.ErrFormat, item.ID, item.Invalid)
	}
	if item.PriceUnit != domain.PriceUnitPerHour {
		return "", fmt.Errorf("%w: неподдерживаемая единица цены %q", domain.ErrFormat, item.PriceUnit)
	}
	category, ok := categoryLabels[item.CategoryID]
	if !ok {
		return "", fmt.Errorf("%w: неизвестная категория %d", domain.ErrFormat, item.CategoryID)
	}
	days, err := weekdays(item.RecurrenceDays)
	if err != nil {
		return "", err
	}

	header := fmt.Sprintf("%s %.1f€|h %s à %.1fkm ([%s %s](%s))",
		category,
		float64(item.PriceCents)/100,
		formatWindow(item.WindowStart, item.WindowEnd, days),
		item.Location.DistanceMeters/1000,
		escapeMarkdown(item.Location.City),
		escapeMarkdown(item.Location.PostalCode),
		item.Location.MapURL,
	)
	id := escapeMarkdown(item.ID)
	footer := fmt.Sprintf("👍🏻 /like%s        👎🏻 /dislike%s", id, id)

	budget := messageLimit - limitMargin - utf16Len(header) - utf16Len(footer) - 4
	description := formatDescription(item.Description, budget)

	return header + "\n\n" + description + "\n\n" + footer, nil
}

func weekdays(numbers []int) ([]string, error) {
	labels := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if n < 0 || n >= len(weekdayLabels) {
			return nil, fmt.Errorf("%w: неизвестный день недели %d", domain.ErrFormat, n)
		}
		labels = append(labels, weekdayLabels[n])
	}
	return labels, nil
}

func formatWindow(start, end time.Time, days []string) string {
	if sameDate(start, end) {
		return fmt.Sprintf("le %s de %s à %s", start.Format("02/01"), start.Format("15:04"), end.Format("15:04"))
	}
	window := fmt.Sprintf("du %s au %s", start.Format("02/01"), end.Format("02/01"))
	if len(days) > 0 {
		window += " (" + strings.Join(days, "|") + ")"
	}
	return window
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func formatDescription(description string, budget int) string {
	trimmed := strings.TrimSpace(description)
	if trimmed == "" {
		return noDescription
	}
	escaped := escapeMarkdown(trimmed)
	if budget <= 1 {
		return ""
	}
	if utf16Len(escaped) <= budget {
		return escaped
	}
	var b strings.Builder
	used := 0
	for _, r := range escaped {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if used+n > budget-1 {
			break
		}
		b.WriteRune(r)
		used += n
	}
	return strings.TrimRight(b.String(), "\\") + "…"
}

// utf16Len считает длину строки так, как её считает Telegram.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
