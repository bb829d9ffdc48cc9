package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"notely/internal/app"
	"notely/internal/config"
	"notely/internal/logs"
	"notely/internal/session"
)

// Run starts the editor on s and blocks until the user quits.
func Run(ctx context.Context, cfg *config.Config, s *app.Store) error {
	sess := session.New(s, session.WithSaveDelay(cfg.SaveDelay))
	defer sess.Close()

	p := tea.NewProgram(NewAppModel(ctx, cfg, sess), tea.WithAltScreen(), tea.WithContext(ctx))

	// Listeners can run inside Update, where a blocking Send would deadlock
	// the event loop; snapshot versions let the model drop reordered ones.
	unsubscribe := sess.Subscribe(func(snap session.Snapshot) {
		go p.Send(SessionChangedMsg{Snapshot: snap})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		logs.Logger.Error().Err(err).Msg("program exited with error")
		return err
	}
	return nil
}
