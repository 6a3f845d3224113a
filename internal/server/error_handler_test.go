package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) GetByAuthorAndID(ctx context.Context, username string, id uint) (*models.Post, error) {
	args := m.Called(ctx, username, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, limit, offset int) ([]models.Post, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) ListByGroup(ctx context.Context, groupID uint, limit, offset int) ([]models.Post, error) {
	args := m.Called(ctx, groupID, limit, offset)
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostRepository) CountByGroup(ctx context.Context, groupID uint) (int64, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]models.Post, error) {
	args := m.Called(ctx, authorID, limit, offset)
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostRepository) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	args := m.Called(ctx, authorID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) ListFollowed(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostRepository) CountFollowed(ctx context.Context, userID uint) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func TestErrorHandler_StorageFailureRendersServerError(t *testing.T) {
	env := newTestEnv(t)
	mockRepo := new(MockPostRepository)
	mockRepo.On("Count", mock.Anything).Return(int64(0), models.NewInternalError(errors.New("connection reset")))
	env.srv.feedService = service.NewFeedService(mockRepo, env.srv.groupRepo)
	env.app = env.srv.NewApp()

	resp, body := env.get("/", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "Error 500")
	assert.NotContains(t, body, "connection reset")
	mockRepo.AssertExpectations(t)
}

func TestErrorHandler_PostLookupFailure(t *testing.T) {
	env := newTestEnv(t)
	mockRepo := new(MockPostRepository)
	mockRepo.On("GetByAuthorAndID", mock.Anything, "sarah", uint(3)).Return(nil, models.NewInternalError(errors.New("boom")))
	env.srv.postService = service.NewPostService(mockRepo, nil)
	env.app = env.srv.NewApp()

	resp, _ := env.get("/sarah/3/", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	mockRepo.AssertExpectations(t)
}

func TestErrorHandler_PlainFiberErrors(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(httptest.NewRequest(http.MethodDelete, "/sarah/1/", nil), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Error 404")
}
