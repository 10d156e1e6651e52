package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Run opens the layout inspector against a running daemon and blocks until
// the user quits.
func Run(client Client) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	if _, err := client.GetStatus(); err != nil {
		return err
	}
	_, err := tea.NewProgram(newModel(client), tea.WithAltScreen()).Run()
	return err
}
