package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// confirmModel is the bubbletea model for a yes/no prompt.
// Anything other than an explicit "y" answers no.
type confirmModel struct {
	prompt    string
	confirmed bool
	answered  bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y":
			m.confirmed = true
			m.answered = true
			return m, tea.Quit
		case "n", "N", "enter", "esc", "q", "ctrl+c":
			m.answered = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.answered {
		return ""
	}
	return fmt.Sprintf("%s %s %s ",
		styleIconWarning.Render(iconWarning),
		m.prompt,
		StyleDim.Render("[y/N]"))
}

// confirm asks the user a yes/no question on the terminal.
// Non-interactive runs (no TTY on stdin) skip the prompt and answer yes:
// scripted and CI invocations must not hang waiting for a keypress.
func confirm(prompt string) (bool, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return true, nil
	}

	p := tea.NewProgram(confirmModel{prompt: prompt}, tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}
	m, ok := final.(confirmModel)
	if !ok {
		return false, nil
	}
	return m.confirmed, nil
}
