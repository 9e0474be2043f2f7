package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func (c *cli) userCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user <username|id>",
		Short: "Show a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.session(); err != nil {
				return err
			}
			u, err := c.resolveUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printUser(c.out, u)
			return nil
		},
	}
}

func (c *cli) favoriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "favorite <artist name>",
		Short:   "Set your favorite artist",
		Example: "  fanbase favorite Radiohead",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			me, err := a.Profile.UpdateFavoriteArtist(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if me.FavoriteArtist != nil {
				fmt.Fprintf(c.out, "Favorite artist set to %s\n", *me.FavoriteArtist)
			}
			return nil
		},
	}
}

func (c *cli) photoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "photo <image file>",
		Short: "Upload a profile photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			path := filepath.Clean(args[0])
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening photo: %w", err)
			}
			defer f.Close()

			if _, err := a.Profile.UploadPhoto(cmd.Context(), filepath.Base(path), f); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Profile photo updated")
			return nil
		},
	}
}
