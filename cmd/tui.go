package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/checkboard/internal/tui"
)

func runTUI(cmd *cobra.Command, _ []string) error {
	sess, err := openSession(false)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Watch(cmd.Context()); err != nil {
		// The board still works without live refresh.
		logger.Warn("live refresh disabled", "error", err)
	}

	model := tui.NewBoard(sess)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	unsubscribe := tui.Subscribe(sess.Boards, p.Send)
	defer unsubscribe()

	_, err = p.Run()
	return err
}
