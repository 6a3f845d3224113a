package service

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/models"
)

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		getOrCreateFn:    func(context.Context, uint, uint) (bool, error) { return true, nil },
		getFn:            func(context.Context, uint, uint) (*models.Follow, error) { return &models.Follow{}, nil },
		existsFn:         func(context.Context, uint, uint) (bool, error) { return false, nil },
		deleteFn:         func(context.Context, uint, uint) error { return nil },
		countFollowersFn: func(context.Context, uint) (int64, error) { return 0, nil },
		countFollowingFn: func(context.Context, uint) (int64, error) { return 0, nil },
	}
}

func authorsRepo() *userRepoStub {
	return &userRepoStub{
		getByUsernameFn: usersByName(
			&models.User{ID: 1, Username: "reader"},
			&models.User{ID: 2, Username: "writer"},
		),
	}
}

func TestFollowServiceFollowCreatesEdge(t *testing.T) {
	repo := noopFollowRepo()
	var gotUser, gotAuthor uint
	repo.getOrCreateFn = func(_ context.Context, userID, authorID uint) (bool, error) {
		gotUser, gotAuthor = userID, authorID
		return true, nil
	}

	svc := NewFollowService(repo, authorsRepo())
	created, err := svc.Follow(context.Background(), 1, "writer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || gotUser != 1 || gotAuthor != 2 {
		t.Fatalf("expected edge 1->2 to be created, got created=%v %d->%d", created, gotUser, gotAuthor)
	}
}

func TestFollowServiceFollowTwiceIsNoop(t *testing.T) {
	repo := noopFollowRepo()
	repo.getOrCreateFn = func(context.Context, uint, uint) (bool, error) { return false, nil }

	svc := NewFollowService(repo, authorsRepo())
	created, err := svc.Follow(context.Background(), 1, "writer")
	if err != nil || created {
		t.Fatalf("expected existing edge to be kept, got created=%v err=%v", created, err)
	}
}

func TestFollowServiceFollowSelf(t *testing.T) {
	repo := noopFollowRepo()
	repo.getOrCreateFn = func(context.Context, uint, uint) (bool, error) {
		t.Fatal("self follow must not reach storage")
		return false, nil
	}

	svc := NewFollowService(repo, authorsRepo())
	created, err := svc.Follow(context.Background(), 2, "writer")
	if err != nil || created {
		t.Fatalf("expected self follow to be a no-op, got created=%v err=%v", created, err)
	}
}

func TestFollowServiceFollowUnknownAuthor(t *testing.T) {
	svc := NewFollowService(noopFollowRepo(), authorsRepo())
	_, err := svc.Follow(context.Background(), 1, "ghost")
	if !models.IsNotFound(err) {
		t.Fatalf("expected not-found app error, got %#v", err)
	}
}

func TestFollowServiceUnfollowMissingEdge(t *testing.T) {
	repo := noopFollowRepo()
	repo.deleteFn = func(context.Context, uint, uint) error {
		return models.NewNotFoundError("Follow", 2)
	}

	svc := NewFollowService(repo, authorsRepo())
	err := svc.Unfollow(context.Background(), 1, "writer")
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != "NOT_FOUND" {
		t.Fatalf("expected not-found app error, got %#v", err)
	}
}

func TestFollowServiceUnfollow(t *testing.T) {
	repo := noopFollowRepo()
	deleted := false
	repo.deleteFn = func(_ context.Context, userID, authorID uint) error {
		deleted = userID == 1 && authorID == 2
		return nil
	}

	svc := NewFollowService(repo, authorsRepo())
	if err := svc.Unfollow(context.Background(), 1, "writer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected edge 1->2 to be deleted")
	}

	if err := svc.Unfollow(context.Background(), 1, "ghost"); !models.IsNotFound(err) {
		t.Fatalf("expected not-found for unknown author, got %#v", err)
	}
}

func TestFollowServiceIsFollowing(t *testing.T) {
	repo := noopFollowRepo()
	calls := 0
	repo.existsFn = func(context.Context, uint, uint) (bool, error) {
		calls++
		return true, nil
	}
	svc := NewFollowService(repo, authorsRepo())

	if ok, _ := svc.IsFollowing(context.Background(), 0, 2); ok {
		t.Fatal("anonymous users follow nobody")
	}
	if ok, _ := svc.IsFollowing(context.Background(), 2, 2); ok {
		t.Fatal("users never follow themselves")
	}
	if ok, _ := svc.IsFollowing(context.Background(), 1, 2); !ok {
		t.Fatal("expected stored edge to be reported")
	}
	if calls != 1 {
		t.Fatalf("expected one storage lookup, got %d", calls)
	}
}

func TestFollowServiceStats(t *testing.T) {
	repo := noopFollowRepo()
	repo.countFollowersFn = func(context.Context, uint) (int64, error) { return 4, nil }
	repo.countFollowingFn = func(context.Context, uint) (int64, error) { return 2, nil }
	repo.existsFn = func(context.Context, uint, uint) (bool, error) { return true, nil }

	svc := NewFollowService(repo, authorsRepo())
	stats, err := svc.Stats(context.Background(), 2, 1, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ProfileStats{Posts: 7, Followers: 4, Following: 2, IsFollowing: true}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	boom := models.NewInternalError(errors.New("db down"))
	repo.countFollowersFn = func(context.Context, uint) (int64, error) { return 0, boom }
	if _, err := svc.Stats(context.Background(), 2, 1, 7); !errors.Is(err, boom) {
		t.Fatalf("expected storage error to propagate, got %v", err)
	}
}
