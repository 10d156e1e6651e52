package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/docktile/internal/ipc"
)

var (
	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Padding(0, 1)

	focusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

// renderStatusBar renders the daemon summary line.
func renderStatusBar(st *ipc.StatusData, focus string, width int) string {
	var status string
	if st == nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " daemon not running"
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		parts := []string{
			dot + " docktile",
			fmt.Sprintf("groups:%d", st.Groups),
			fmt.Sprintf("views:%d", st.Views),
		}
		if st.Locked {
			parts = append(parts, "LOCKED")
		}
		if st.MaximizedGroupID != "" {
			parts = append(parts, "maximized:"+st.MaximizedGroupID)
		}
		if focus != "" {
			parts = append(parts, "focus:"+focusStyle.Render(focus))
		}
		status = strings.Join(parts, "  ")
	}
	return statusStyle.Width(width).Render(status)
}

// renderHelpBar renders the bottom keybinding bar.
func renderHelpBar(menuOpen bool, width int) string {
	help := "tab: next group  hjkl: move focus  [/]: tabs  x: close  L: lock tab  m: maximize  enter: tab menu  g: group menu  w: layout menu  r: refresh  q: quit"
	if menuOpen {
		help = "↑/↓: select  enter: run  esc: close menu"
	}
	return helpStyle.Width(width).Render(help)
}

func renderMessage(text string, isErr bool, width int) string {
	if isErr {
		return errorStyle.Width(width).Render(text)
	}
	return messageStyle.Width(width).Render(text)
}
