package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

func printUser(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "%s (id %d)\n", u.Username, u.ID)
	if u.Name != "" {
		fmt.Fprintf(w, "Name:            %s\n", u.Name)
	}
	if u.Email != "" {
		fmt.Fprintf(w, "E-mail:          %s\n", u.Email)
	}
	if u.FavoriteArtist != nil {
		fmt.Fprintf(w, "Favorite artist: %s\n", *u.FavoriteArtist)
	}
	if u.UserPhotoURL != nil {
		fmt.Fprintf(w, "Photo:           %s\n", *u.UserPhotoURL)
	}
	spotify := "not connected"
	if u.HasSpotify() {
		spotify = "connected"
	}
	fmt.Fprintf(w, "Spotify:         %s\n", spotify)
}

func printUsers(w io.Writer, users []models.User, empty string) {
	if len(users) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tNAME")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Username, u.Name)
	}
	_ = tw.Flush()
}

func printArtists(w io.Writer, artists []models.Artist) {
	if len(artists) == 0 {
		fmt.Fprintln(w, "No artists found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPOPULARITY\tGENRES")
	for _, a := range artists {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", a.ID, a.Name, a.Popularity, strings.Join(a.Genres, ", "))
	}
	_ = tw.Flush()
}
