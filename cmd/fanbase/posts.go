package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

func (c *cli) postsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and write posts on artist pages",
	}
	cmd.AddCommand(c.postsListCmd(), c.postsCreateCmd(), c.postsLikeCmd())
	return cmd
}

func (c *cli) postsListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list <artist-id>",
		Short: "List posts for an artist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			posts, err := a.Posts.ListByArtist(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(posts) == 0 {
				fmt.Fprintln(c.out, "No posts yet")
				return nil
			}
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLIKES\tIMAGES\tCONTENT")
			for _, p := range posts {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", p.ID, p.Likes, len(p.Images), p.Content)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", models.DefaultPostPage, "number of posts")
	return cmd
}

func (c *cli) postsCreateCmd() *cobra.Command {
	var (
		content string
		images  []string
	)
	cmd := &cobra.Command{
		Use:     "create <artist-id>",
		Short:   "Post on an artist page",
		Example: `  fanbase posts create 4Z8W4fKeB5YxbusRsdQVPb --content "Saw them live" --image gig.jpg`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}

			uploads := make([]models.Upload, 0, len(images))
			for _, path := range images {
				f, err := os.Open(filepath.Clean(path))
				if err != nil {
					return fmt.Errorf("opening image: %w", err)
				}
				defer f.Close()
				uploads = append(uploads, models.Upload{Filename: filepath.Base(path), Body: f})
			}

			post, err := a.Posts.Create(cmd.Context(), args[0], content, uploads)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Posted %s\n", post.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "post text")
	cmd.Flags().StringArrayVar(&images, "image", nil, "image file to attach (repeatable)")
	return cmd
}

func (c *cli) postsLikeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like or unlike a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			res, err := a.Posts.ToggleLike(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res.Liked {
				fmt.Fprintln(c.out, "Liked")
			} else {
				fmt.Fprintln(c.out, "Unliked")
			}
			return nil
		},
	}
}
