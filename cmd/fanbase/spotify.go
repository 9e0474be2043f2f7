package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) spotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spotify",
		Short: "Work with your linked Spotify account",
	}
	cmd.AddCommand(
		c.spotifyConnectCmd(),
		c.spotifyRefreshCmd(),
		c.spotifyTopCmd(),
		c.spotifySearchCmd(),
		c.spotifyArtistCmd(),
		c.spotifyDisconnectCmd(),
	)
	return cmd
}

func (c *cli) spotifyConnectCmd() *cobra.Command {
	var redirect string
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Print the Spotify authorization URL",
		Long: `Print the URL that links your Spotify account. Open it in a browser,
then run 'fanbase spotify refresh'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			url, err := a.Music.ConnectURL(cmd.Context(), redirect)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, url)
			return nil
		},
	}
	cmd.Flags().StringVar(&redirect, "redirect", "", "where Spotify sends the browser afterwards")
	return cmd
}

func (c *cli) spotifyRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload your profile after connecting Spotify",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			me, err := a.Profile.RefreshAfterSpotifyConnect(cmd.Context())
			if err != nil {
				return err
			}
			if me.HasSpotify() {
				fmt.Fprintln(c.out, "Spotify is connected")
			} else {
				fmt.Fprintln(c.out, "Spotify is not connected yet")
			}
			return nil
		},
	}
}

func (c *cli) spotifyTopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "List your top artists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			artists, err := a.Music.TopArtists(cmd.Context())
			if err != nil {
				return err
			}
			printArtists(c.out, artists)
			return nil
		},
	}
}

func (c *cli) spotifySearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search Spotify artists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			artists, err := a.Music.SearchArtists(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printArtists(c.out, artists)
			return nil
		},
	}
}

func (c *cli) spotifyArtistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "artist <spotify-id>",
		Short: "Show one artist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			artist, err := a.Music.Artist(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s (%s)\n", artist.Name, artist.ID)
			fmt.Fprintf(c.out, "Followers:  %d\n", artist.Followers)
			fmt.Fprintf(c.out, "Popularity: %d\n", artist.Popularity)
			if len(artist.Genres) > 0 {
				fmt.Fprintf(c.out, "Genres:     %v\n", artist.Genres)
			}
			return nil
		},
	}
}

func (c *cli) spotifyDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Unlink your Spotify account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.session()
			if err != nil {
				return err
			}
			if _, err := a.Music.Disconnect(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Spotify disconnected")
			return nil
		},
	}
}
