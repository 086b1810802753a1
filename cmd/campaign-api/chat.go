package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"example.com/campaignai/internal/domain"
	"example.com/campaignai/internal/stream"
)

type chatOptions struct {
	server   string
	sources  []string
	channels []string
}

// newChatCmd streams recommendations from a running server to stdout.
func newChatCmd() *cobra.Command {
	opts := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Request a recommendation stream from a running server",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&opts.server, "server", "http://localhost:8000", "base URL of the API")
	cmd.Flags().StringSliceVar(&opts.sources, "source", nil, "data source to use (repeatable)")
	cmd.Flags().StringSliceVar(&opts.channels, "channel", nil, "channel to target (repeatable)")
	return cmd
}

func runChat(cmd *cobra.Command, opts *chatOptions, message string) error {
	body, err := json.Marshal(domain.ChatRequest{
		Message:     message,
		DataSources: opts.sources,
		Channels:    opts.channels,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		strings.TrimRight(opts.server, "/")+"/chat/stream", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var p struct {
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &p) == nil && p.Detail != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, p.Detail)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	out := cmd.OutOrStdout()
	done, err := stream.Decode(resp.Body, func(ev domain.StreamEvent) error {
		return printEvent(out, ev)
	})
	if err != nil {
		return err
	}
	if !done {
		return fmt.Errorf("stream ended before completion")
	}
	return nil
}

func printEvent(w io.Writer, ev domain.StreamEvent) error {
	var err error
	switch ev.Type {
	case domain.EventStatus:
		_, err = fmt.Fprintf(w, "… %s\n", ev.Message)
	case domain.EventRecommendation:
		r := ev.Data
		if r == nil {
			return nil
		}
		_, err = fmt.Fprintf(w, "• [%s] %s | %s | %s (%.1f%%) id=%s\n",
			r.Channel, r.AudienceSegment, r.Timing, r.Message, r.ConfidenceScore, r.CampaignID)
	case domain.EventSummary:
		_, err = fmt.Fprintf(w, "✓ %s\n", ev.Message)
	}
	return err
}
