package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HammerMeetNail/fanbase/internal/models"
	"github.com/HammerMeetNail/fanbase/internal/services"
)

// resolveUser accepts a username or a numeric user ID.
func (c *cli) resolveUser(ctx context.Context, arg string) (*models.User, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return c.app.Profile.GetByID(ctx, id)
	}
	return c.app.Profile.GetByUsername(ctx, arg)
}

func (c *cli) friendsCmd() *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "List friends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			friends, err := a.Relationships.ListCandidates(cmd.Context(), filter, true)
			if err != nil {
				return err
			}
			printUsers(c.out, friends, "No friends yet")
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only friends whose username or name contains this")
	return cmd
}

func (c *cli) requestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requests",
		Short: "List pending friend requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "REQUEST\tDIRECTION\tUSER")
			n := 0
			for _, r := range a.Relationships.PendingReceived() {
				fmt.Fprintf(tw, "%d\tfrom\t%s\n", r.ID, c.usernameFor(ctx, r.SenderID))
				n++
			}
			for _, r := range a.Relationships.Sent() {
				if !r.IsPending() {
					continue
				}
				fmt.Fprintf(tw, "%d\tto\t%s\n", r.ID, c.usernameFor(ctx, r.ReceiverID))
				n++
			}
			if n == 0 {
				fmt.Fprintln(c.out, "No pending friend requests")
				return nil
			}
			return tw.Flush()
		},
	}
}

func (c *cli) usernameFor(ctx context.Context, id int64) string {
	u, err := c.app.Profile.GetByID(ctx, id)
	if err != nil {
		return "#" + strconv.FormatInt(id, 10)
	}
	return u.Username
}

func (c *cli) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "send <user>",
		Short:   "Send a friend request",
		Example: "  fanbase send bob",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			target, err := c.resolveUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := a.Relationships.SendRequest(cmd.Context(), target.ID); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Friend request sent to %s\n", target.Username)
			return nil
		},
	}
}

func (c *cli) acceptCmd() *cobra.Command {
	return c.respondCmd("accept", "Accept a friend request", "accept friend request", func(ctx context.Context, rs *services.RelationshipService, id int64) error {
		return rs.AcceptRequest(ctx, id)
	}, "You are now friends with %s\n")
}

func (c *cli) declineCmd() *cobra.Command {
	return c.respondCmd("decline", "Decline a friend request", "decline friend request", func(ctx context.Context, rs *services.RelationshipService, id int64) error {
		return rs.DeclineRequest(ctx, id)
	}, "Declined the request from %s\n")
}

func (c *cli) respondCmd(name, short, op string, respond func(context.Context, *services.RelationshipService, int64) error, done string) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <user>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			sender, err := c.resolveUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rel, err := a.Relationships.Relationship(sender.ID)
			if err != nil {
				return err
			}
			if rel.State != services.RequestReceived {
				return &services.TransitionError{Op: op, From: rel.State}
			}
			if err := respond(cmd.Context(), a.Relationships, rel.RequestID); err != nil {
				return err
			}
			fmt.Fprintf(c.out, done, sender.Username)
			return nil
		},
	}
}

func (c *cli) unfriendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unfriend <user>",
		Short: "Remove a friend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			friend, err := c.resolveUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.Relationships.RemoveFriend(cmd.Context(), friend.ID); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Removed %s from your friends\n", friend.Username)
			return nil
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <user>",
		Short: "Show your relationship with a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			other, err := c.resolveUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rel, err := a.Relationships.Relationship(other.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s: %s\n", other.Username, rel.State)
			return nil
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	var friendsOnly bool
	cmd := &cobra.Command{
		Use:     "search <query>",
		Short:   "Search users by username or name",
		Example: "  fanbase search ali\n  fanbase search ali --friends",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			results := make(chan services.SearchResult, 1)
			a.Search.OnResult(func(r services.SearchResult) {
				select {
				case results <- r:
				default:
				}
			})
			a.Search.Submit(ctx, args[0], friendsOnly)

			select {
			case <-ctx.Done():
				a.Search.Cancel()
				return ctx.Err()
			case r := <-results:
				if r.Err != nil {
					return r.Err
				}
				printUsers(c.out, r.Users, "No users found")
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&friendsOnly, "friends", false, "search only among friends")
	return cmd
}
