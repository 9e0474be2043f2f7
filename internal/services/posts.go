package services

import (
	"context"
	"errors"
	"strings"

	"github.com/HammerMeetNail/fanbase/internal/logging"
	"github.com/HammerMeetNail/fanbase/internal/models"
)

var ErrEmptyPost = errors.New("post needs text or at least one image")

type PostService struct {
	api    PostAPI
	logger *logging.Logger
}

func NewPostService(posts PostAPI, logger *logging.Logger) *PostService {
	return &PostService{api: posts, logger: logging.OrDefault(logger).Component("posts")}
}

func (s *PostService) ListByArtist(ctx context.Context, artistID string, limit int) ([]models.Post, error) {
	if limit <= 0 {
		limit = models.DefaultPostPage
	}
	posts, err := s.api.PostsByArtist(ctx, artistID, limit)
	if err != nil {
		return nil, &FetchError{Op: "posts for artist " + artistID, Err: err}
	}
	return posts, nil
}

func (s *PostService) Create(ctx context.Context, artistID, content string, images []models.Upload) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(images) == 0 {
		return nil, ErrEmptyPost
	}
	post, err := s.api.CreatePost(ctx, artistID, content, images)
	if err != nil {
		return nil, &MutationError{Op: "create post", Err: err}
	}
	s.logger.Info("Post created", map[string]interface{}{"post_id": post.ID, "artist_id": artistID, "images": len(images)})
	return post, nil
}

func (s *PostService) ToggleLike(ctx context.Context, postID string) (*models.LikeResult, error) {
	result, err := s.api.ToggleLike(ctx, postID)
	if err != nil {
		return nil, &MutationError{Op: "like post", Err: err}
	}
	return result, nil
}
