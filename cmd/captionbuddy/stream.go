package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jwulff/captionbuddy/internal/animation"
	"github.com/jwulff/captionbuddy/internal/app"
	"github.com/jwulff/captionbuddy/internal/transport"
	"github.com/spf13/cobra"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Join a live caption channel",
	Long: `Connects to a relay and joins a channel. Broadcasters publish live
captions and chat; the audience sees the captions, the animation for the
last word, and the chat.`,
	Args: cobra.NoArgs,
	RunE: runStream,
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run a relay for live caption channels",
	Long: `Serves channels on the Unix socket (transport.address) and over
websockets on transport.listen until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runRelay,
}

var (
	streamRole      string
	streamChannel   string
	streamTransport string
	streamAddress   string
	relayListen     string
)

func init() {
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(relayCmd)

	streamCmd.Flags().StringVarP(&streamRole, "role", "r", string(transport.RoleAudience), "broadcaster or audience")
	streamCmd.Flags().StringVarP(&streamChannel, "channel", "c", "", "channel to join (overrides transport.channel)")
	streamCmd.Flags().StringVar(&streamTransport, "transport", "", "socket, websocket or loopback (overrides transport.kind)")
	streamCmd.Flags().StringVar(&streamAddress, "address", "", "relay socket path or websocket URL (overrides transport.address)")

	relayCmd.Flags().StringVar(&relayListen, "listen", "", "websocket listen address (overrides transport.listen)")
}

func parseRole(s string) (transport.Role, error) {
	switch r := transport.Role(s); r {
	case transport.RoleBroadcaster, transport.RoleAudience:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func runStream(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	overrideString(&cfg.Transport.Channel, streamChannel)
	overrideString(&cfg.Transport.Kind, streamTransport)
	overrideString(&cfg.Transport.Address, streamAddress)
	if err := cfg.Validate(); err != nil {
		return err
	}

	role, err := parseRole(streamRole)
	if err != nil {
		return err
	}

	dialer := transport.Dialer{
		Kind:    transport.Kind(cfg.Transport.Kind),
		Address: cfg.Transport.Address,
	}
	if dialer.Kind == transport.KindLoopback {
		dialer.Relay = transport.NewRelay()
		defer dialer.Relay.Close()
	}

	model := app.NewStream(dialer, cfg.Transport.Channel, role, animation.Default())
	return runProgram(model, filepath.Dir(cfg.DBPath))
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	overrideString(&cfg.Transport.Listen, relayListen)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay := transport.NewRelay()
	defer relay.Close()

	sockPath := cfg.Transport.Address
	if cfg.Transport.Kind != string(transport.KindSocket) {
		sockPath = transport.SocketPath()
	}
	if err := os.MkdirAll(filepath.Dir(sockPath), 0o755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	// A socket left behind by a previous run blocks the listen.
	if err := os.Remove(sockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		return fmt.Errorf("listen %s: %w", sockPath, err)
	}
	defer os.Remove(sockPath)

	mux := http.NewServeMux()
	mux.Handle("/ws", relay)
	srv := &http.Server{
		Addr:              cfg.Transport.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 2)
	go func() { errc <- relay.Serve(ln) }()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("websocket server: %w", err)
			return
		}
		errc <- nil
	}()

	log.Printf("relay listening on %s and ws://%s/ws", sockPath, cfg.Transport.Listen)

	select {
	case <-ctx.Done():
	case err = <-errc:
	}

	log.Printf("relay shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ln.Close()
	relay.Close()
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = fmt.Errorf("shutdown: %w", serr)
	}
	return err
}
