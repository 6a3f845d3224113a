package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// AddComment attaches a validated comment by authorID to postID.
func (s *CommentService) AddComment(ctx context.Context, authorID, postID uint, in *validation.CommentInput) (_ *models.Comment, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "CommentService", "AddComment")
	defer func() { finish(err) }()

	if _, err = s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Text:     in.Text,
	}
	if err = s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()
	return comment, nil
}

// ListForPost returns a post's comments, oldest first.
func (s *CommentService) ListForPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

// CountForPost returns the number of comments on a post.
func (s *CommentService) CountForPost(ctx context.Context, postID uint) (int64, error) {
	return s.commentRepo.CountByPost(ctx, postID)
}
