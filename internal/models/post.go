package models

import (
	"io"
	"time"
)

type Post struct {
	ID        string    `json:"id"`
	ArtistID  string    `json:"artist_id"`
	AuthorID  int64     `json:"author_id,omitempty"`
	Content   string    `json:"content"`
	Images    []string  `json:"images,omitempty"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
}

type LikeResult struct {
	Liked   bool   `json:"liked"`
	Message string `json:"message"`
}

// Upload is a file part of a multipart request.
type Upload struct {
	Filename string
	Body     io.Reader
}

// DefaultPostPage is the page size the feed asks for when none is given.
const DefaultPostPage = 20
