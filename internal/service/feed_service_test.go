package service

import (
	"context"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postsFrom(n int) []models.Post {
	out := make([]models.Post, n)
	for i := range out {
		out[i] = models.Post{ID: uint(n - i)}
	}
	return out
}

// pagedList serves limit/offset windows of items, the way the repository does.
func pagedList(items []models.Post) func(int, int) []models.Post {
	return func(limit, offset int) []models.Post {
		if offset >= len(items) {
			return nil
		}
		end := min(offset+limit, len(items))
		return items[offset:end]
	}
}

func TestFeedService_Latest(t *testing.T) {
	all := postsFrom(13)
	window := pagedList(all)
	repo := &postRepoStub{
		countFn: func(context.Context) (int64, error) { return int64(len(all)), nil },
		listFn: func(_ context.Context, limit, offset int) ([]models.Post, error) {
			return window(limit, offset), nil
		},
	}
	svc := NewFeedService(repo, &groupRepoStub{})

	page, err := svc.Latest(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 1, page.Number)
	assert.True(t, page.HasNext)

	page, err = svc.Latest(context.Background(), "99")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Number, "out of range pages clamp to the last")
	assert.Len(t, page.Items, 3)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)
}

func TestFeedService_EmptySkipsListing(t *testing.T) {
	repo := &postRepoStub{
		countFollowedFn: func(context.Context, uint) (int64, error) { return 0, nil },
		listFollowedFn: func(context.Context, uint, int, int) ([]models.Post, error) {
			t.Fatal("empty listings must not query rows")
			return nil, nil
		},
	}
	svc := NewFeedService(repo, &groupRepoStub{})

	page, err := svc.Followed(context.Background(), 1, "3")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.NumPages)
}

func TestFeedService_Group(t *testing.T) {
	all := postsFrom(6)
	window := pagedList(all)
	groups := &groupRepoStub{getBySlugFn: func(_ context.Context, slug string) (*models.Group, error) {
		if slug == "cats" {
			return &models.Group{ID: 4, Slug: "cats"}, nil
		}
		return nil, models.NewNotFoundError("Group", slug)
	}}
	repo := &postRepoStub{
		countByGroupFn: func(_ context.Context, groupID uint) (int64, error) {
			assert.Equal(t, uint(4), groupID)
			return int64(len(all)), nil
		},
		listByGroupFn: func(_ context.Context, groupID uint, limit, offset int) ([]models.Post, error) {
			assert.Equal(t, 5, limit)
			return window(limit, offset), nil
		},
	}
	svc := NewFeedService(repo, groups)

	group, page, err := svc.Group(context.Background(), "cats", "2")
	require.NoError(t, err)
	assert.Equal(t, "cats", group.Slug)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, uint(1), page.Items[0].ID)

	_, _, err = svc.Group(context.Background(), "dogs", "")
	assert.True(t, models.IsNotFound(err))
}

func TestFeedService_Author(t *testing.T) {
	repo := &postRepoStub{
		countByAuthorFn: func(context.Context, uint) (int64, error) { return 2, nil },
		listByAuthorFn: func(_ context.Context, authorID uint, limit, offset int) ([]models.Post, error) {
			assert.Equal(t, uint(9), authorID)
			assert.Equal(t, 0, offset)
			return postsFrom(2), nil
		},
	}
	svc := NewFeedService(repo, &groupRepoStub{})

	page, err := svc.Author(context.Background(), 9, "abc")
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.Count)
}
