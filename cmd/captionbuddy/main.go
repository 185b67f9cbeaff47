// Command captionbuddy plays captioned recordings with sign animations and
// streams live captions between participants.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jwulff/captionbuddy/internal/config"
	"github.com/jwulff/captionbuddy/internal/db"
	"github.com/jwulff/captionbuddy/internal/transcribe"
	"github.com/jwulff/captionbuddy/internal/transcribe/awstranscribe"
	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "captionbuddy",
	Short: "Caption playback and live caption streaming",
	Long: `Caption Buddy plays recordings with word-by-word captions and matching
sign animations, and streams live captions and chat over a relay.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")
}

func main() {
	Execute()
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func openStore(cfg *config.Config) (*db.Store, error) {
	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}

func newTranscriber(ctx context.Context, cfg *config.Config) (transcribe.Transcriber, error) {
	switch cfg.Transcriber.Kind {
	case config.TranscriberAWS:
		aws := cfg.Transcriber.AWS
		return awstranscribe.LoadDefault(ctx, aws.Region, awstranscribe.Options{
			Bucket:       aws.Bucket,
			LanguageCode: aws.LanguageCode,
			PollInterval: aws.PollInterval,
		})
	default:
		return transcribe.NewSidecar(cfg.CaptionsDir), nil
	}
}
