package statusui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/tabrotate/pkg/types"
)

// Run shows the status view until the user quits or ctx is cancelled.
// Scheduler events are read from events and forwarded to the view.
func Run(ctx context.Context, events <-chan *types.RotationEvent, editor SettingsEditor) error {
	m := newModel(editor)

	program := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				debugLog.Debugf("Forwarding rotation event to view: %s", ev.Type)
				program.Send(eventMsg{event: ev})
			}
		}
	}()

	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to run status view: %w", err)
	}

	return nil
}
