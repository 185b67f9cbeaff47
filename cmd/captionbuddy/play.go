package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jwulff/captionbuddy/internal/animation"
	"github.com/jwulff/captionbuddy/internal/app"
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"
)

var playCmd = &cobra.Command{
	Use:   "play [id]...",
	Short: "Play recordings with captions and sign animations",
	Long: `Plays the given recordings in order, or the whole library when no ids
are given. Captions advance word by word and each word shows its sign
animation when one is known.`,
	RunE: runPlay,
}

var (
	playTick string
	playTail string
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVar(&playTick, "tick", "", "playback tick interval (overrides player.tick_interval)")
	playCmd.Flags().StringVar(&playTail, "tail", "", "time an item stays on screen after its last caption (overrides player.tail)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := overrideDuration(&cfg.Player.TickInterval, playTick, "tick"); err != nil {
		return err
	}
	if err := overrideDuration(&cfg.Player.Tail, playTail, "tail"); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	model := app.NewPlayer(store, args, animation.Default(), cfg.Player.TickInterval, cfg.Player.Tail)
	return runProgram(model, filepath.Dir(cfg.DBPath))
}

// runProgram runs a full-screen program, sending log output to a file in
// dir so it does not tear the UI.
func runProgram(model tea.Model, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(filepath.Join(dir, "captionbuddy.log"), "captionbuddy")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
