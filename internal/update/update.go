package update

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func HandleUpdate(p *Player, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return HandleKeyMsg(p, msg)
	case tea.WindowSizeMsg:
		HandleWindowSizeMsg(p, msg)
		return nil
	case TickMsg:
		return HandleTickMsg(p, time.Time(msg))
	case CoreEventMsg:
		return HandleCoreEvent(p, msg)
	}
	return nil
}
