package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwulff/cutter/internal/cutting"

	tea "github.com/charmbracelet/bubbletea"
)

// Modal runs a cutting session as a full-screen terminal program.
type Modal struct {
	Player  Player
	Options []tea.ProgramOption
}

// Run blocks until the user accepts or cancels. Cancelling ctx rejects the
// session.
func (md Modal) Run(ctx context.Context, d *cutting.Dialog) (cutting.Status, error) {
	opts := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	}, md.Options...)

	p := tea.NewProgram(New(d, md.Player), opts...)
	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return cutting.Rejected, nil
		}
		return cutting.Rejected, fmt.Errorf("run tui: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return cutting.Rejected, fmt.Errorf("unexpected model %T", final)
	}
	return m.Status(), nil
}
