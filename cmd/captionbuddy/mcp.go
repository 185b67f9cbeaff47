package main

import (
	"log"
	"os"

	"github.com/jwulff/captionbuddy/internal/animation"
	"github.com/jwulff/captionbuddy/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the recording library over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Stdout carries the protocol.
		log.SetOutput(os.Stderr)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		return mcpserver.New(store, animation.Default(), version).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
