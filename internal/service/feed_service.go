package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/pagination"
	"inkwell/internal/repository"
)

// PostPage is one page of a newest-first post listing.
type PostPage = pagination.Page[models.Post]

// FeedService builds the paginated post listings.
type FeedService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
}

func NewFeedService(postRepo repository.PostRepository, groupRepo repository.GroupRepository) *FeedService {
	return &FeedService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
	}
}

// Latest pages through every post.
func (s *FeedService) Latest(ctx context.Context, rawPage string) (_ PostPage, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FeedService", "Latest")
	defer func() { finish(err) }()

	return s.page(ctx, pagination.FeedPageSize, rawPage,
		s.postRepo.Count,
		s.postRepo.List,
	)
}

// Group resolves the group by slug and pages through its posts.
func (s *FeedService) Group(ctx context.Context, slug, rawPage string) (_ *models.Group, _ PostPage, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FeedService", "Group")
	defer func() { finish(err) }()

	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, PostPage{}, err
	}
	page, err := s.page(ctx, pagination.ListingPageSize, rawPage,
		func(ctx context.Context) (int64, error) { return s.postRepo.CountByGroup(ctx, group.ID) },
		func(ctx context.Context, limit, offset int) ([]models.Post, error) {
			return s.postRepo.ListByGroup(ctx, group.ID, limit, offset)
		},
	)
	return group, page, err
}

// Author pages through the posts written by authorID.
func (s *FeedService) Author(ctx context.Context, authorID uint, rawPage string) (_ PostPage, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FeedService", "Author")
	defer func() { finish(err) }()

	return s.page(ctx, pagination.ListingPageSize, rawPage,
		func(ctx context.Context) (int64, error) { return s.postRepo.CountByAuthor(ctx, authorID) },
		func(ctx context.Context, limit, offset int) ([]models.Post, error) {
			return s.postRepo.ListByAuthor(ctx, authorID, limit, offset)
		},
	)
}

// Followed pages through posts by authors userID follows.
func (s *FeedService) Followed(ctx context.Context, userID uint, rawPage string) (_ PostPage, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FeedService", "Followed")
	defer func() { finish(err) }()

	return s.page(ctx, pagination.FeedPageSize, rawPage,
		func(ctx context.Context) (int64, error) { return s.postRepo.CountFollowed(ctx, userID) },
		func(ctx context.Context, limit, offset int) ([]models.Post, error) {
			return s.postRepo.ListFollowed(ctx, userID, limit, offset)
		},
	)
}

func (s *FeedService) page(
	ctx context.Context,
	perPage int,
	rawPage string,
	count func(context.Context) (int64, error),
	list func(context.Context, int, int) ([]models.Post, error),
) (PostPage, error) {
	total, err := count(ctx)
	if err != nil {
		return PostPage{}, err
	}
	page := pagination.Paginate[models.Post](total, perPage, rawPage)
	if total == 0 {
		return page, nil
	}
	items, err := list(ctx, page.PerPage, page.Offset)
	if err != nil {
		return PostPage{}, err
	}
	page.Items = items
	return page, nil
}
