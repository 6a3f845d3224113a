package service

import (
	"context"

	"inkwell/internal/models"
)

type postRepoStub struct {
	createFn           func(context.Context, *models.Post) error
	updateFn           func(context.Context, *models.Post) error
	deleteFn           func(context.Context, uint) error
	getByIDFn          func(context.Context, uint) (*models.Post, error)
	getByAuthorAndIDFn func(context.Context, string, uint) (*models.Post, error)
	listFn             func(context.Context, int, int) ([]models.Post, error)
	countFn            func(context.Context) (int64, error)
	listByGroupFn      func(context.Context, uint, int, int) ([]models.Post, error)
	countByGroupFn     func(context.Context, uint) (int64, error)
	listByAuthorFn     func(context.Context, uint, int, int) ([]models.Post, error)
	countByAuthorFn    func(context.Context, uint) (int64, error)
	listFollowedFn     func(context.Context, uint, int, int) ([]models.Post, error)
	countFollowedFn    func(context.Context, uint) (int64, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetByAuthorAndID(ctx context.Context, username string, id uint) (*models.Post, error) {
	return s.getByAuthorAndIDFn(ctx, username, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *postRepoStub) ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]models.Post, error) {
	return s.listByGroupFn(ctx, groupID, limit, offset)
}
func (s *postRepoStub) CountByGroup(ctx context.Context, groupID uint) (int64, error) {
	return s.countByGroupFn(ctx, groupID)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]models.Post, error) {
	return s.listByAuthorFn(ctx, authorID, limit, offset)
}
func (s *postRepoStub) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return s.countByAuthorFn(ctx, authorID)
}
func (s *postRepoStub) ListFollowed(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	return s.listFollowedFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) CountFollowed(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowedFn(ctx, userID)
}

type groupRepoStub struct {
	getByIDFn   func(context.Context, uint) (*models.Group, error)
	getBySlugFn func(context.Context, string) (*models.Group, error)
	listFn      func(context.Context) ([]models.Group, error)
	createFn    func(context.Context, *models.Group) error
	upsertFn    func(context.Context, *models.Group) error
	deleteFn    func(context.Context, uint) error
}

func (s *groupRepoStub) GetByID(ctx context.Context, id uint) (*models.Group, error) {
	return s.getByIDFn(ctx, id)
}
func (s *groupRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *groupRepoStub) List(ctx context.Context) ([]models.Group, error) {
	return s.listFn(ctx)
}
func (s *groupRepoStub) Create(ctx context.Context, group *models.Group) error {
	return s.createFn(ctx, group)
}
func (s *groupRepoStub) Upsert(ctx context.Context, group *models.Group) error {
	return s.upsertFn(ctx, group)
}
func (s *groupRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	deleteFn        func(context.Context, uint) error
	countFn         func(context.Context) (int64, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}

// usersByName answers GetByUsername from a fixed set of users.
func usersByName(users ...*models.User) func(context.Context, string) (*models.User, error) {
	return func(_ context.Context, username string) (*models.User, error) {
		for _, u := range users {
			if u.Username == username {
				return u, nil
			}
		}
		return nil, models.NewNotFoundError("User", username)
	}
}

type followRepoStub struct {
	getOrCreateFn    func(context.Context, uint, uint) (bool, error)
	getFn            func(context.Context, uint, uint) (*models.Follow, error)
	existsFn         func(context.Context, uint, uint) (bool, error)
	deleteFn         func(context.Context, uint, uint) error
	countFollowersFn func(context.Context, uint) (int64, error)
	countFollowingFn func(context.Context, uint) (int64, error)
}

func (s *followRepoStub) GetOrCreate(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.getOrCreateFn(ctx, userID, authorID)
}
func (s *followRepoStub) Get(ctx context.Context, userID, authorID uint) (*models.Follow, error) {
	return s.getFn(ctx, userID, authorID)
}
func (s *followRepoStub) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	return s.existsFn(ctx, userID, authorID)
}
func (s *followRepoStub) Delete(ctx context.Context, userID, authorID uint) error {
	return s.deleteFn(ctx, userID, authorID)
}
func (s *followRepoStub) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	return s.countFollowersFn(ctx, authorID)
}
func (s *followRepoStub) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return s.countFollowingFn(ctx, userID)
}

type commentRepoStub struct {
	createFn      func(context.Context, *models.Comment) error
	listByPostFn  func(context.Context, uint) ([]models.Comment, error)
	countByPostFn func(context.Context, uint) (int64, error)
	deleteFn      func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) CountByPost(ctx context.Context, postID uint) (int64, error) {
	return s.countByPostFn(ctx, postID)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

type imageStoreStub struct {
	saveFn func(context.Context, []byte) (string, error)
}

func (s *imageStoreStub) Save(ctx context.Context, data []byte) (string, error) {
	return s.saveFn(ctx, data)
}
