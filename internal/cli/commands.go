package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// BuildCommands returns the five known CLI verbs of spec.md §4.5 as
// cobra.Commands under the caller's root. Cobra's own dispatch — run
// the matching subcommand if args[0] names one, otherwise run the root
// — directly implements the "CLI vs daemon" mode-selection rule, so no
// separate argv-sniffing shim is needed here.
func BuildCommands(routerURL func() string) []*cobra.Command {
	return []*cobra.Command{
		newHealthCmd(routerURL),
		newConversationsCmd(routerURL),
		newTimelineCmd(routerURL),
		newIngestCmd(routerURL),
		newRespondCmd(routerURL),
	}
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fail(err)
	}
	fmt.Println(string(b))
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

func readBody(jsonFlag string) (map[string]any, error) {
	var raw []byte
	if jsonFlag != "" {
		raw = []byte(jsonFlag)
	} else {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err != nil {
			return nil, err
		}
		raw = data
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func newHealthCmd(routerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show the daemon's health and aggregate counts",
		Run: func(cmd *cobra.Command, args []string) {
			out, err := NewClient(routerURL()).Health()
			if err != nil {
				fail(err)
			}
			printJSON(out)
		},
	}
}

func newConversationsCmd(routerURL func() string) *cobra.Command {
	var platform string
	var limit int
	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "List conversations",
		Run: func(cmd *cobra.Command, args []string) {
			out, err := NewClient(routerURL()).Conversations(platform, limit)
			if err != nil {
				fail(err)
			}
			printJSON(out)
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "filter by platform")
	cmd.Flags().IntVar(&limit, "limit", 0, "max results")
	return cmd
}

func newTimelineCmd(routerURL func() string) *cobra.Command {
	var after, before string
	var limit int
	cmd := &cobra.Command{
		Use:   "timeline [platform] [chatId]",
		Short: "Show the unified timeline, or a single conversation's timeline",
		Args:  cobra.MaximumNArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			afterPtr, err := parseOptionalInt64(after)
			if err != nil {
				fail(err)
			}
			beforePtr, err := parseOptionalInt64(before)
			if err != nil {
				fail(err)
			}

			client := NewClient(routerURL())
			var out []map[string]any
			if len(args) == 2 {
				out, err = client.ConversationTimeline(args[0], args[1], afterPtr, beforePtr, limit)
			} else {
				out, err = client.UnifiedTimeline(afterPtr, beforePtr, limit)
			}
			if err != nil {
				fail(err)
			}
			printJSON(out)
		},
	}
	cmd.Flags().StringVar(&after, "after", "", "exclusive lower id bound")
	cmd.Flags().StringVar(&before, "before", "", "exclusive upper id bound")
	cmd.Flags().IntVar(&limit, "limit", 0, "max results")
	return cmd
}

func newIngestCmd(routerURL func() string) *cobra.Command {
	var jsonFlag string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest an inbound message (POST /api/messages)",
		Run: func(cmd *cobra.Command, args []string) {
			body, err := readBody(jsonFlag)
			if err != nil {
				fail(err)
			}
			out, err := NewClient(routerURL()).Ingest(body)
			if err != nil {
				fail(err)
			}
			printJSON(out)
		},
	}
	cmd.Flags().StringVar(&jsonFlag, "json", "", "inbound message body as a JSON string")
	return cmd
}

func newRespondCmd(routerURL func() string) *cobra.Command {
	var jsonFlag string
	cmd := &cobra.Command{
		Use:   "respond",
		Short: "Record an outbound response (POST /api/responses)",
		Run: func(cmd *cobra.Command, args []string) {
			body, err := readBody(jsonFlag)
			if err != nil {
				fail(err)
			}
			out, err := NewClient(routerURL()).Respond(body)
			if err != nil {
				fail(err)
			}
			printJSON(out)
		},
	}
	cmd.Flags().StringVar(&jsonFlag, "json", "", "outbound response body as a JSON string")
	return cmd
}

func parseOptionalInt64(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
