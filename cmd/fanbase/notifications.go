package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

func (c *cli) notificationsCmd() *cobra.Command {
	var (
		watch  bool
		open   bool
		readID int64
	)
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notifs"},
		Short:   "Show notifications",
		Example: `  fanbase notifications
  fanbase notifications --open      # mark everything read
  fanbase notifications --read 42
  fanbase notifications --watch     # poll until interrupted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			feed := a.Notifications

			switch {
			case watch:
				seen := make(map[int64]bool)
				feed.OnChange(func() {
					for _, n := range feed.Notifications() {
						if !seen[n.ID] {
							seen[n.ID] = true
							printNotification(c.out, n)
						}
					}
				})
				feed.OnError(func(err error) {
					fmt.Fprintln(c.errOut, "Warning:", errorMessage(err))
				})
				fmt.Fprintf(c.errOut, "Watching notifications every %s, press Ctrl+C to stop\n", feed.Interval())
				if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
					return err
				}
				return nil

			case open:
				if _, err := feed.Fetch(ctx); err != nil {
					return err
				}
				items, err := feed.OpenPanel(ctx)
				printNotifications(c.out, items)
				return err

			case readID != 0:
				// Confirm in the foreground so the process does not exit first.
				feed.SetAsync(func(fn func()) { fn() })
				var failure error
				feed.OnError(func(err error) { failure = err })
				if _, err := feed.Fetch(ctx); err != nil {
					return err
				}
				if err := feed.MarkRead(ctx, readID); err != nil {
					return err
				}
				if failure != nil {
					return failure
				}
				fmt.Fprintf(c.out, "Marked %d read, %d unread\n", readID, feed.UnreadCount())
				return nil
			}

			items, err := feed.Fetch(ctx)
			if err != nil {
				return err
			}
			printNotifications(c.out, items)
			fmt.Fprintf(c.out, "%d unread\n", feed.UnreadCount())
			return nil
		},
	}
	f := cmd.Flags()
	f.BoolVar(&watch, "watch", false, "keep polling and print new notifications")
	f.BoolVar(&open, "open", false, "mark all notifications read")
	f.Int64Var(&readID, "read", 0, "mark one notification read")
	cmd.MarkFlagsMutuallyExclusive("watch", "open", "read")
	return cmd
}

func printNotification(w io.Writer, n models.Notification) {
	marker := " "
	if !n.Read {
		marker = "*"
	}
	fmt.Fprintf(w, "%s %d  %s  %s\n", marker, n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Content)
}

func printNotifications(w io.Writer, items []models.Notification) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No notifications")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tWHEN\tMESSAGE")
	for _, n := range items {
		marker := ""
		if !n.Read {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, strconv.FormatInt(n.ID, 10), n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Content)
	}
	_ = tw.Flush()
}
