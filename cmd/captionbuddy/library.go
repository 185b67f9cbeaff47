package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/jwulff/captionbuddy/internal/caption"
	"github.com/jwulff/captionbuddy/internal/library"
	"github.com/jwulff/captionbuddy/internal/recorder"
	"github.com/jwulff/captionbuddy/internal/transcribe"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved recordings, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Copy media into the library and transcribe it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete recordings",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

var demoCmd = &cobra.Command{
	Use:   "demo [dir]",
	Short: "Load the demo recordings from a directory",
	Long:  "Saves every media file in the directory that has a .json or .vtt caption file next to it.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDemo,
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>",
	Short: "Print the captions for a media file without saving it",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscribe,
}

var recordCmd = &cobra.Command{
	Use:   "record <asset>",
	Short: "Simulate a recording of asset, then transcribe and save it",
	Long: `Starts a simulated recording that yields asset when stopped. Press Enter
to stop; the result is transcribed and saved like any other capture.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(recordCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.FetchAll(cmd.Context())
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Println("No recordings yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSEGMENTS\tLENGTH\tMEDIA")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			len(r.Captions),
			caption.TotalSpan(r.Captions).Round(100*time.Millisecond),
			filepath.Base(r.MediaRef))
	}
	return w.Flush()
}

// sourceTranscriber transcribes the original file rather than the library
// copy, so caption sidecars next to the source are still found.
type sourceTranscriber struct {
	transcribe.Transcriber
	src string
}

func (s sourceTranscriber) Transcribe(ctx context.Context, _ string) ([]caption.Segment, error) {
	return s.Transcriber.Transcribe(ctx, s.src)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	tr, err := newTranscriber(ctx, cfg)
	if err != nil {
		return err
	}

	var failed int
	for _, src := range args {
		rec := recorder.NewImport(src, cfg.MediaDir)
		lib := library.New(rec, sourceTranscriber{Transcriber: tr, src: src}, store)
		if err := rec.Start(ctx); err != nil {
			return err
		}
		r, err := lib.Capture(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(src), err)
			failed++
			continue
		}
		fmt.Printf("Imported %s as %s (%d segments)\n", filepath.Base(src), r.ID, len(r.Captions))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(args))
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, id := range args {
		if err := store.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
		fmt.Printf("Deleted %s\n", id)
	}
	return nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := cfg.DemoDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no demo directory: pass one or set demo_dir")
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := library.ImportDemo(cmd.Context(), store, dir)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d demo recordings from %s\n", len(saved), dir)
	return nil
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tr, err := newTranscriber(ctx, cfg)
	if err != nil {
		return err
	}

	segs, err := tr.Transcribe(ctx, args[0])
	if err != nil {
		return err
	}
	data, err := caption.MarshalJSON(segs)
	if err != nil {
		return err
	}

	var pretty any
	if err := json.Unmarshal(data, &pretty); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	tr, err := newTranscriber(ctx, cfg)
	if err != nil {
		return err
	}

	lib := library.New(recorder.NewSimulator(args[0]), tr, store)
	if _, err := lib.Toggle(ctx); err != nil {
		return err
	}
	fmt.Print("Recording... press Enter to stop. ")
	if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	r, err := lib.Toggle(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Saved %s (%d segments)\n", r.ID, len(r.Captions))
	return nil
}
