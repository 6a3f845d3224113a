package service

import (
	"context"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// GroupService manages groups. Groups are created by admin tooling only.
type GroupService struct {
	groupRepo repository.GroupRepository
}

func NewGroupService(groupRepo repository.GroupRepository) *GroupService {
	return &GroupService{groupRepo: groupRepo}
}

// ListGroups returns every group ordered by title.
func (s *GroupService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

// CreateGroup validates and inserts a new group.
func (s *GroupService) CreateGroup(ctx context.Context, group *models.Group) (err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "GroupService", "CreateGroup")
	defer func() { finish(err) }()

	if err = validation.ValidateGroup(group); err != nil {
		return err
	}
	return s.groupRepo.Create(ctx, group)
}

// ImportGroups upserts groups by slug, stopping at the first invalid entry.
func (s *GroupService) ImportGroups(ctx context.Context, groups []models.Group) (err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "GroupService", "ImportGroups")
	defer func() { finish(err) }()

	for i := range groups {
		if err = validation.ValidateGroup(&groups[i]); err != nil {
			return err
		}
	}
	for i := range groups {
		if err = s.groupRepo.Upsert(ctx, &groups[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeleteGroup removes the group with slug. Its posts stay, without a group.
func (s *GroupService) DeleteGroup(ctx context.Context, slug string) (err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "GroupService", "DeleteGroup")
	defer func() { finish(err) }()

	group, err := s.groupRepo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.groupRepo.Delete(ctx, group.ID)
}
