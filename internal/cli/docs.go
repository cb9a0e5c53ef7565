package cli

import (
	"fmt"
	"strings"

	"splice-cli/internal/docs"

	"github.com/spf13/cobra"
)

type docTopic struct {
	Topic string `json:"topic"`
	Title string `json:"title"`
}

type docTopics []docTopic

func (d docTopics) TableHeaders() []string { return []string{"TOPIC", "TITLE"} }

func (d docTopics) TableRows() [][]string {
	rows := make([][]string, 0, len(d))
	for _, t := range d {
		rows = append(rows, []string{t.Topic, t.Title})
	}
	return rows
}

// title is the first markdown heading of body.
func title(body string) string {
	for _, ln := range strings.Split(body, "\n") {
		if strings.HasPrefix(ln, "#") {
			return strings.TrimSpace(strings.TrimLeft(ln, "#"))
		}
	}
	return ""
}

func newDocsCmd(app *App) *cobra.Command {
	var raw bool
	var width int

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show the built-in guide",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				topics := docTopics{}
				for _, t := range docs.Topics() {
					body, _ := docs.Get(t)
					topics = append(topics, docTopic{Topic: t, Title: title(body)})
				}
				if app.Format == "text" {
					return writeOut(cmd, app, topics)
				}
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"topics": docs.Topics(), "index": topics}})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `splice docs` to list topics)", topic))
			}

			switch {
			case raw:
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			case app.Format == "text":
				_, err := fmt.Fprintln(cmd.OutOrStdout(), docs.Render(body, width, "notty"))
				return err
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"topic": topic, "title": title(body), "markdown": body}})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no JSON envelope)")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --format text")

	return cmd
}
