// Package service holds the business operations used by the HTTP handlers and CLI tools.
package service

import (
	"context"
	"errors"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// ImageStore persists uploaded images and returns their media-relative path.
type ImageStore interface {
	Save(ctx context.Context, data []byte) (string, error)
}

var errNoImageStore = errors.New("image store not configured")

type PostService struct {
	postRepo repository.PostRepository
	images   ImageStore
}

func NewPostService(postRepo repository.PostRepository, images ImageStore) *PostService {
	return &PostService{
		postRepo: postRepo,
		images:   images,
	}
}

// CanEdit reports whether userID may edit post.
func CanEdit(post *models.Post, userID uint) bool {
	return post != nil && userID != 0 && post.AuthorID == userID
}

// CreatePost stores a new post by authorID from a validated form.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, in *validation.PostInput) (_ *models.Post, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "PostService", "CreatePost")
	defer func() { finish(err) }()

	post := &models.Post{
		Text:     in.Text,
		AuthorID: authorID,
		GroupID:  in.GroupID,
	}
	if len(in.Image) > 0 {
		if post.Image, err = s.storeImage(ctx, in.Image); err != nil {
			return nil, err
		}
	}

	if err = s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsWritten.WithLabelValues("create").Inc()
	return post, nil
}

// GetPost returns the post with id only when it was written by username.
func (s *PostService) GetPost(ctx context.Context, username string, id uint) (*models.Post, error) {
	return s.postRepo.GetByAuthorAndID(ctx, username, id)
}

// UpdatePost applies a validated form to post. Only the author may edit;
// the publication date and author are never changed.
func (s *PostService) UpdatePost(ctx context.Context, editorID uint, post *models.Post, in *validation.PostInput) (_ *models.Post, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "PostService", "UpdatePost")
	defer func() { finish(err) }()

	if !CanEdit(post, editorID) {
		return nil, models.NewUnauthorizedError("only the author can edit this post")
	}

	post.Text = in.Text
	post.GroupID = in.GroupID
	post.Group = nil
	switch {
	case len(in.Image) > 0:
		if post.Image, err = s.storeImage(ctx, in.Image); err != nil {
			return nil, err
		}
	case in.ClearImage:
		post.Image = ""
	}

	if err = s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsWritten.WithLabelValues("edit").Inc()
	return post, nil
}

// DeletePost removes a post and its comments. Stored images are content
// addressed and may be shared, so files are left in place.
func (s *PostService) DeletePost(ctx context.Context, id uint) (err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "PostService", "DeletePost")
	defer func() { finish(err) }()

	return s.postRepo.Delete(ctx, id)
}

func (s *PostService) storeImage(ctx context.Context, data []byte) (string, error) {
	if s.images == nil {
		return "", models.NewInternalError(errNoImageStore)
	}
	rel, err := s.images.Save(ctx, data)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return rel, nil
}
