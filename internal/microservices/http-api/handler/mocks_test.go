package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mapportal/internal/microservices/http-api/dto"
	"mapportal/internal/microservices/http-api/handler"
	"mapportal/internal/microservices/http-api/middleware"
	"mapportal/internal/microservices/http-api/models"
	"mapportal/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- HELPER FUNCTIONS FOR POINTERS ---
func stringPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

// --- MOCK SERVICES ---

type MockMapService struct {
	mock.Mock
}

func (m *MockMapService) List(ctx context.Context, q dto.MapQuery) (*dto.MapListResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MapListResponse), args.Error(1)
}

func (m *MockMapService) GetByID(ctx context.Context, id int64) (*dto.MapDetailResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MapDetailResponse), args.Error(1)
}

func (m *MockMapService) Download(ctx context.Context, id int64) (*dto.MapDownload, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MapDownload), args.Error(1)
}

func (m *MockMapService) Upload(ctx context.Context, in service.UploadInput) (*dto.MapResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.MapResponse), args.Error(1)
}

type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) SubmitRating(ctx context.Context, userID string, mapID int64, value int) (*dto.SubmitRatingResult, error) {
	args := m.Called(ctx, userID, mapID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.SubmitRatingResult), args.Error(1)
}

func (m *MockRatingService) GetUserRating(ctx context.Context, userID string, mapID int64) (*dto.RatingResponse, error) {
	args := m.Called(ctx, userID, mapID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.RatingResponse), args.Error(1)
}

func (m *MockRatingService) GetMapRatings(ctx context.Context, mapID int64, page, pageSize int) (*dto.PaginatedRatingResponse, error) {
	args := m.Called(ctx, mapID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedRatingResponse), args.Error(1)
}

type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) CreateComment(ctx context.Context, userID string, mapID int64, content string) (*dto.CommentResponse, error) {
	args := m.Called(ctx, userID, mapID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentResponse), args.Error(1)
}

func (m *MockCommentService) UpdateComment(ctx context.Context, mapID, commentID int64, userID string, content string) (*dto.CommentResponse, error) {
	args := m.Called(ctx, mapID, commentID, userID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CommentResponse), args.Error(1)
}

func (m *MockCommentService) DeleteComment(ctx context.Context, mapID, commentID int64, userID string) error {
	args := m.Called(ctx, mapID, commentID, userID)
	return args.Error(0)
}

func (m *MockCommentService) GetMapComments(ctx context.Context, mapID int64, q dto.CommentQuery) (*dto.PaginatedCommentResponse, error) {
	args := m.Called(ctx, mapID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedCommentResponse), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, username, password, email string) (string, *models.User, error) {
	args := m.Called(ctx, username, password, email)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.User), args.Error(2)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*service.Claims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Claims), args.Error(1)
}

func (m *MockAuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) DeleteAccount(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockAuthService) TokenTTL() time.Duration {
	return time.Hour
}

// --- SETUP ---

const testUserID = "user-123"

type mocks struct {
	maps     *MockMapService
	ratings  *MockRatingService
	comments *MockCommentService
	auth     *MockAuthService
}

// setupRouter mounts the real routes; the auth step is replaced by one that
// authenticates every request as testUserID.
func setupRouter(maxUpload int64) (*gin.Engine, *mocks) {
	gin.SetMode(gin.TestMode)
	m := &mocks{
		maps:     new(MockMapService),
		ratings:  new(MockRatingService),
		comments: new(MockCommentService),
		auth:     new(MockAuthService),
	}
	r := handler.NewRouter(handler.Handlers{
		Auth:     handler.NewAuthHandler(m.auth),
		Maps:     handler.NewMapHandler(m.maps, maxUpload),
		Ratings:  handler.NewRatingHandler(m.ratings, 20),
		Comments: handler.NewCommentHandler(m.comments),
	}, handler.Middleware{
		Auth: func(c *gin.Context) {
			c.Set(middleware.ContextUserID, testUserID)
			c.Next()
		},
	})
	return r, m
}

func doJSON(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
