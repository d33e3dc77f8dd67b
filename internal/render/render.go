// Package render turns the board view model into text for the terminal and
// HTML for Telegram messages.
package render

import (
	"fmt"
	"html"
	"strings"

	"movie-cinema/internal/model"
	"movie-cinema/internal/service"
)

const EmptySlot = "(empty slot)"

// Meta formats the secondary line of a card: "year • rating".
func Meta(item model.Item) string {
	year := strings.TrimSpace(item.Year)
	rating := strings.TrimSpace(item.Rating)
	if rating == "" {
		return year
	}
	return strings.TrimSpace(year + " • " + rating)
}

// SessionBanner describes what the form is doing, or "" when idle.
func SessionBanner(session *service.EditSession) string {
	if session == nil || session.State() != service.StateComposing {
		return ""
	}
	if target := session.Target(); target != nil {
		return fmt.Sprintf("Editing %s #%d", target.Category.Label(), target.Index+1)
	}
	return "Adding a new movie"
}

// Text renders the board for a terminal.
func Text(view service.ViewModel, session *service.EditSession) string {
	var b strings.Builder
	if banner := SessionBanner(session); banner != "" {
		b.WriteString("✏️ " + banner + "\n\n")
	}
	writeColumn(&b, "◀ Left", view.Left, plainSlot, func(p service.Panel) string {
		return "== " + p.Label + " =="
	})
	b.WriteByte('\n')
	writeColumn(&b, "▶ Right", view.Right, plainSlot, func(p service.Panel) string {
		return "== " + p.Label + " =="
	})
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// HTML renders the board using Telegram's HTML subset.
func HTML(view service.ViewModel, session *service.EditSession) string {
	var b strings.Builder
	b.WriteString("🎬 <b>Movie Cinema</b>\n")
	if banner := SessionBanner(session); banner != "" {
		b.WriteString("<i>✏️ " + html.EscapeString(banner) + "</i>\n")
	}
	b.WriteByte('\n')
	writeColumn(&b, "◀ <b>Left</b>", view.Left, htmlSlot, func(p service.Panel) string {
		return "<b>" + html.EscapeString(p.Label) + "</b>"
	})
	b.WriteByte('\n')
	writeColumn(&b, "▶ <b>Right</b>", view.Right, htmlSlot, func(p service.Panel) string {
		return "<b>" + html.EscapeString(p.Label) + "</b>"
	})
	return strings.TrimSpace(b.String())
}

func writeColumn(b *strings.Builder, title string, panels []service.Panel, slot func(service.Slot) string, heading func(service.Panel) string) {
	b.WriteString(title + "\n")
	for _, panel := range panels {
		b.WriteString(heading(panel) + "\n")
		for _, s := range panel.Slots {
			fmt.Fprintf(b, "%d. %s\n", s.Index+1, slot(s))
		}
		b.WriteByte('\n')
	}
}

func plainSlot(s service.Slot) string {
	if !s.Occupied() {
		return EmptySlot
	}
	line := s.Item.Title
	if meta := Meta(*s.Item); meta != "" {
		line += " — " + meta
	}
	return line
}

func htmlSlot(s service.Slot) string {
	if !s.Occupied() {
		return "<i>" + EmptySlot + "</i>"
	}
	line := html.EscapeString(s.Item.Title)
	if meta := Meta(*s.Item); meta != "" {
		line += " <i>" + html.EscapeString(meta) + "</i>"
	}
	return line
}
