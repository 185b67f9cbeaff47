// Package mcpserver exposes the recording library to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jwulff/captionbuddy/internal/animation"
	"github.com/jwulff/captionbuddy/internal/caption"
	"github.com/jwulff/captionbuddy/internal/db"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server serves library tools backed by a recording store.
type Server struct {
	store *db.Store
	anims *animation.Lookup
	mcp   *server.MCPServer
}

// New registers the tools and returns the server.
func New(store *db.Store, anims *animation.Lookup, version string) *Server {
	s := &Server{
		store: store,
		anims: anims,
		mcp:   server.NewMCPServer("captionbuddy", version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool("list_recordings",
		mcp.WithDescription("List saved recordings, newest first"),
	), s.listRecordings)

	s.mcp.AddTool(mcp.NewTool("get_captions",
		mcp.WithDescription("Get the timed captions of a recording"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Recording id")),
	), s.getCaptions)

	s.mcp.AddTool(mcp.NewTool("caption_at",
		mcp.WithDescription("Get the caption and animation shown at a playback time"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Recording id")),
		mcp.WithNumber("seconds", mcp.Required(), mcp.Description("Playback time in seconds")),
	), s.captionAt)

	s.mcp.AddTool(mcp.NewTool("animation_for",
		mcp.WithDescription("Look up the sign animation for a word"),
		mcp.WithString("word", mcp.Required(), mcp.Description("Spoken word")),
	), s.animationFor)

	s.mcp.AddTool(mcp.NewTool("delete_recording",
		mcp.WithDescription("Delete a recording"),
		mcp.WithString("id", mcp.Required(), mcp.Description("Recording id")),
	), s.deleteRecording)

	return s
}

// ServeStdio serves until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

type recordingSummary struct {
	ID        string  `json:"id"`
	MediaRef  string  `json:"mediaRef"`
	CreatedAt string  `json:"createdAt"`
	Segments  int     `json:"segments"`
	Duration  float64 `json:"duration"`
}

type captionAtResult struct {
	Index     int     `json:"index"`
	Text      string  `json:"text,omitempty"`
	StartTime float64 `json:"startTime,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	Animation string  `json:"animation,omitempty"`
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getRecording(ctx context.Context, id string) (db.Recording, *mcp.CallToolResult) {
	r, err := s.store.Get(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return db.Recording{}, mcp.NewToolResultError(fmt.Sprintf("recording %s not found", id))
	}
	if err != nil {
		return db.Recording{}, mcp.NewToolResultError(err.Error())
	}
	return r, nil
}

func (s *Server) listRecordings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := s.store.FetchAll(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := make([]recordingSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, recordingSummary{
			ID:        r.ID,
			MediaRef:  r.MediaRef,
			CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339),
			Segments:  len(r.Captions),
			Duration:  caption.TotalSpan(r.Captions).Seconds(),
		})
	}
	return jsonResult(out)
}

func (s *Server) getCaptions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, errResult := s.getRecording(ctx, id)
	if errResult != nil {
		return errResult, nil
	}

	data, err := caption.MarshalJSON(r.Captions)
	if err != nil {
		return nil, fmt.Errorf("marshal captions: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) captionAt(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seconds, err := req.RequireFloat("seconds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r, errResult := s.getRecording(ctx, id)
	if errResult != nil {
		return errResult, nil
	}

	t := time.Duration(math.Round(seconds * float64(time.Second)))
	cur := caption.NewCursor(r.Captions)
	cur.Advance(t)

	idx, ok := cur.Current()
	if !ok {
		return jsonResult(captionAtResult{Index: caption.NoSegment})
	}
	seg := r.Captions[idx]
	out := captionAtResult{
		Index:     idx,
		Text:      seg.Text,
		StartTime: seg.Start.Seconds(),
		Duration:  seg.Span.Seconds(),
	}
	out.Animation, _ = s.anims.Lookup(seg.Text)
	return jsonResult(out)
}

func (s *Server) animationFor(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := req.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, ok := s.anims.Lookup(word)
	if !ok {
		return mcp.NewToolResultText(""), nil
	}
	return mcp.NewToolResultText(id), nil
}

func (s *Server) deleteRecording(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("recording %s not found", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("deleted " + id), nil
}
