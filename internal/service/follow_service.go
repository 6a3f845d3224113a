package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

// FollowService manages the follow graph. Edges are unique per pair and a
// user never follows themselves.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// Follow makes userID follow authorUsername. Following yourself and following
// twice are both no-ops; the bool reports whether an edge was created.
func (s *FollowService) Follow(ctx context.Context, userID uint, authorUsername string) (_ bool, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FollowService", "Follow")
	defer func() { finish(err) }()

	author, err := s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		return false, err
	}
	if author.ID == userID {
		observability.FollowEvents.WithLabelValues("follow", "self").Inc()
		return false, nil
	}

	created, err := s.followRepo.GetOrCreate(ctx, userID, author.ID)
	if err != nil {
		return false, err
	}
	outcome := "exists"
	if created {
		outcome = "created"
	}
	observability.FollowEvents.WithLabelValues("follow", outcome).Inc()
	return created, nil
}

// Unfollow removes the edge from userID to authorUsername. A missing author
// or a missing edge is reported as NOT_FOUND.
func (s *FollowService) Unfollow(ctx context.Context, userID uint, authorUsername string) (err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FollowService", "Unfollow")
	defer func() { finish(err) }()

	author, err := s.userRepo.GetByUsername(ctx, authorUsername)
	if err != nil {
		return err
	}
	if err = s.followRepo.Delete(ctx, userID, author.ID); err != nil {
		if models.IsNotFound(err) {
			observability.FollowEvents.WithLabelValues("unfollow", "missing").Inc()
		}
		return err
	}
	observability.FollowEvents.WithLabelValues("unfollow", "deleted").Inc()
	return nil
}

// IsFollowing reports whether userID follows authorID. Anonymous users follow nobody.
func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, userID, authorID)
}

// FollowerCount returns how many users follow authorID.
func (s *FollowService) FollowerCount(ctx context.Context, authorID uint) (int64, error) {
	return s.followRepo.CountFollowers(ctx, authorID)
}

// FollowingCount returns how many authors userID follows.
func (s *FollowService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	return s.followRepo.CountFollowing(ctx, userID)
}

// ProfileStats bundles the counters shown on a profile page.
type ProfileStats struct {
	Posts     int64
	Followers int64
	Following int64
	// IsFollowing is true when the viewer follows the profile owner.
	IsFollowing bool
}

// Stats loads the profile counters of authorID as seen by viewerID (0 for anonymous).
func (s *FollowService) Stats(ctx context.Context, authorID, viewerID uint, postCount int64) (_ ProfileStats, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FollowService", "Stats")
	defer func() { finish(err) }()

	stats := ProfileStats{Posts: postCount}
	if stats.Followers, err = s.FollowerCount(ctx, authorID); err != nil {
		return ProfileStats{}, err
	}
	if stats.Following, err = s.FollowingCount(ctx, authorID); err != nil {
		return ProfileStats{}, err
	}
	if stats.IsFollowing, err = s.IsFollowing(ctx, viewerID, authorID); err != nil {
		return ProfileStats{}, err
	}
	return stats, nil
}
