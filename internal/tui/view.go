package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"support-desk/internal/mobile"
	"support-desk/models"
)

const listPaneShare = 0.4

func (model Model) theme() Theme {
	return ThemeFor(model.ws.Session().DarkMode())
}

func (model Model) View() string {
	if model.width == 0 {
		return "Loading…"
	}
	theme := model.theme()

	var body string
	nav := model.ws.Navigator().State()
	bodyHeight := max(model.height-3, 1)
	if nav.Inert {
		listWidth := int(float64(model.width) * listPaneShare)
		list := lipgloss.NewStyle().
			Width(listWidth).
			Height(bodyHeight).
			BorderRight(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(theme.BorderColor).
			Render(model.renderList(theme, listWidth-1, bodyHeight))
		chat := model.renderChat(theme, model.width-listWidth-1, bodyHeight)
		body = lipgloss.JoinHorizontal(lipgloss.Top, list, chat)
	} else if nav.View == mobile.ViewChat {
		body = model.renderChat(theme, model.width, bodyHeight)
	} else {
		body = model.renderList(theme, model.width, bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		model.renderHeader(theme),
		body,
		model.renderFooter(theme),
	)
}

func (model Model) renderHeader(theme Theme) string {
	actor := model.ws.Actor()
	role := "company"
	if actor.IsAdmin() {
		role = "admin"
	}

	filter := model.ws.Filter()
	var flags []string
	if filter.OpenOnly {
		flags = append(flags, "open only")
	}
	if filter.Query != "" {
		flags = append(flags, fmt.Sprintf("search %q", filter.Query))
	}

	header := fmt.Sprintf("Support Desk · %s (%s) · %s", actor.Name, actor.Organization, role)
	if len(flags) > 0 {
		header += " · " + strings.Join(flags, ", ")
	}
	return lipgloss.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Render(header)
}

func (model Model) renderList(theme Theme, width, height int) string {
	var lines []string
	if model.focus == FocusSearch {
		lines = append(lines, model.search.View())
	}
	if model.focus == FocusNewTicket {
		prefill := model.ws.Prefill()
		lines = append(lines,
			lipgloss.NewStyle().Foreground(theme.FaintText).Render(prefill.Name+" · "+prefill.Organization),
			model.newTicket.View(),
		)
	}

	tickets := model.ws.Tickets()
	switch {
	case !model.ws.Loaded():
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.FaintText).Render("Loading tickets…"))
	case len(tickets) == 0:
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.FaintText).Render("No tickets"))
	}

	selected, _ := model.ws.Selected()
	for i, t := range tickets {
		if len(lines) >= height {
			break
		}
		marker := lipgloss.NewStyle().Foreground(theme.StatusColor(t.Solved())).Render("●")
		row := truncate(fmt.Sprintf("%s · %s: %s", t.Name, t.Organization, t.Problem), width-2)
		style := lipgloss.NewStyle().Foreground(theme.NormalText)
		if t.Solved() {
			style = style.Foreground(theme.FaintText)
		}
		if i == model.cursor {
			style = style.Background(theme.SelectedBackground).Foreground(theme.SelectedForeground)
		}
		if t.ID == selected.ID {
			style = style.Bold(true)
		}
		lines = append(lines, marker+" "+style.Render(row))
	}
	return strings.Join(lines, "\n")
}

func (model Model) renderChat(theme Theme, width, height int) string {
	ticket, ok := model.ws.Selected()
	if !ok {
		return lipgloss.NewStyle().Foreground(theme.FaintText).Render("Select a ticket to open its chat.")
	}

	viewer := model.ws.Actor()
	title := lipgloss.NewStyle().Bold(true).Render(truncate(ticket.Problem, width))
	state := "open"
	if ticket.Solved() {
		state = "solved"
	}
	meta := lipgloss.NewStyle().Foreground(theme.StatusColor(ticket.Solved())).
		Render(fmt.Sprintf("%s · %s · %s", ticket.Name, ticket.Organization, state))

	var footer string
	switch {
	case ticket.Solved():
		footer = lipgloss.NewStyle().Foreground(theme.FaintText).Italic(true).
			Render("This ticket is solved. The chat is archived.")
	case model.ws.Composer().Recording():
		footer = lipgloss.NewStyle().Foreground(theme.ErrorText).Render("● recording… press v to send")
	case model.focus == FocusComposer:
		footer = model.composer.View()
	default:
		footer = lipgloss.NewStyle().Foreground(theme.HelpText).Render("press i to write, v to record")
	}

	msgs := model.ws.Messages()
	room := max(height-3, 0)
	if len(msgs) > room {
		msgs = msgs[len(msgs)-room:]
	}

	lines := []string{title, meta}
	for _, m := range msgs {
		color := theme.OtherMessage
		if m.SenderID == viewer.ID {
			color = theme.OwnMessage
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).
			Render(truncate(formatMessage(senderLabel(viewer, ticket, m), m), width)))
	}
	lines = append(lines, footer)
	return strings.Join(lines, "\n")
}

func formatMessage(sender string, m models.Message) string {
	body := m.Body
	if m.Kind == models.MessageVoice {
		body = "[voice] " + body
	}
	return fmt.Sprintf("%s %s: %s", m.CreatedAt.Format("15:04"), sender, body)
}

func (model Model) renderFooter(theme Theme) string {
	if model.err != nil {
		return lipgloss.NewStyle().Foreground(theme.ErrorText).Render(model.err.Error())
	}
	if model.notice != "" {
		return lipgloss.NewStyle().Foreground(theme.FaintText).Render(model.notice)
	}

	bindings := []key.Binding{model.keys.Open, model.keys.Search, model.keys.OpenOnly, model.keys.Compose, model.keys.Voice}
	if model.ws.Actor().IsAdmin() {
		bindings = append(bindings, model.keys.Solve)
	} else {
		bindings = append(bindings, model.keys.New)
	}
	bindings = append(bindings, model.keys.Back, model.keys.Theme, model.keys.Quit)

	help := make([]string, 0, len(bindings))
	for _, b := range bindings {
		help = append(help, b.Help().Key+" "+b.Help().Desc)
	}
	return lipgloss.NewStyle().Foreground(theme.HelpText).Render(strings.Join(help, " · "))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
