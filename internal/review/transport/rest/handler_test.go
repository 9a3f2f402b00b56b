package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	revErrors "github.com/nhupane/gopasal/internal/review/errors"
	"github.com/nhupane/gopasal/internal/review/service"
	"github.com/nhupane/gopasal/pkg/web"
)

// mockReviewService is a mock implementation of the ReviewService interface
type mockReviewService struct {
	review  *service.ReviewDto
	reviews []service.ReviewDto
	error   error
}

func (m *mockReviewService) Create(_ context.Context, _ service.ReviewCreateDto) (*service.ReviewDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.review, nil
}

func (m *mockReviewService) FindByProductID(_ context.Context, _ uuid.UUID, _, _ int32) ([]service.ReviewDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.reviews, nil
}

func (m *mockReviewService) Update(_ context.Context, _ uuid.UUID, _ uuid.UUID, _ service.ReviewUpdateDto) (*service.ReviewDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.review, nil
}

func (m *mockReviewService) Delete(_ context.Context, _ uuid.UUID, _ uuid.UUID) error {
	return m.error
}

func (m *mockReviewService) SetVisibility(_ context.Context, _ uuid.UUID, _ bool) (*service.ReviewDto, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.review, nil
}

func toJSON(t *testing.T, v interface{}) string {
	t.Helper()
	bytes, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal to JSON: %v", err)
	}
	return string(bytes)
}

func authedRequest(method, target, body string, userID uuid.UUID, pathID string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	ctx := web.WithUser(req.Context(), userID, "customer")
	if pathID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", pathID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func Test_ReviewAPI_Create(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockUserID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")
	review := service.ReviewDto{
		ID:        mockID,
		UserID:    mockUserID,
		ProductID: mockID,
		OrderID:   mockID,
		Rating:    5,
		Comment:   "Rings true",
		Visible:   true,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	validBody := toJSON(t, service.ReviewCreateDto{
		ProductID: mockID,
		OrderID:   mockID,
		Rating:    5,
		Comment:   "Rings true",
	})
	testCases := []struct {
		name         string
		mockService  mockReviewService
		body         string
		expectedCode int
	}{
		{
			name:         "Success - review created",
			mockService:  mockReviewService{review: &review},
			body:         validBody,
			expectedCode: http.StatusCreated,
		},
		{
			name:         "Error - no delivered order",
			mockService:  mockReviewService{error: revErrors.ErrNotEligible},
			body:         validBody,
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "Error - already reviewed",
			mockService:  mockReviewService{error: revErrors.ErrDuplicateReview},
			body:         validBody,
			expectedCode: http.StatusConflict,
		},
		{
			name:        "Error - rating out of range",
			mockService: mockReviewService{},
			body: toJSON(t, service.ReviewCreateDto{
				ProductID: mockID,
				OrderID:   mockID,
				Rating:    6,
			}),
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
			api := NewHandler(&tc.mockService, logger)

			req := authedRequest(http.MethodPost, "/api/v1/reviews", tc.body, mockUserID, "")
			rr := httptest.NewRecorder()

			// when
			api.create(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code, "status code should match")
			if tc.expectedCode == http.StatusCreated {
				assert.JSONEq(t, toJSON(t, review), rr.Body.String())
			}
		})
	}
}

func Test_ReviewAPI_Update(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockUserID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")

	t.Run("someone else's review is forbidden", func(t *testing.T) {
		// given
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		api := NewHandler(&mockReviewService{error: revErrors.ErrAccessDenied}, logger)

		req := authedRequest(http.MethodPut, "/api/v1/reviews/"+mockID.String(),
			`{"rating":1}`, mockUserID, mockID.String())
		rr := httptest.NewRecorder()

		// when
		api.update(rr, req)

		// then
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown review is 404", func(t *testing.T) {
		// given
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		api := NewHandler(&mockReviewService{error: revErrors.ErrReviewNotFound}, logger)

		req := authedRequest(http.MethodPut, "/api/v1/reviews/"+mockID.String(),
			`{"rating":3}`, mockUserID, mockID.String())
		rr := httptest.NewRecorder()

		// when
		api.update(rr, req)

		// then
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func Test_ReviewAPI_Delete(t *testing.T) {
	mockID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174000")
	mockUserID, _ := uuid.Parse("123e4567-e89b-12d3-a456-426614174001")

	t.Run("owner delete succeeds", func(t *testing.T) {
		// given
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		api := NewHandler(&mockReviewService{}, logger)

		req := authedRequest(http.MethodDelete, "/api/v1/reviews/"+mockID.String(), "", mockUserID, mockID.String())
		rr := httptest.NewRecorder()

		// when
		api.delete(rr, req)

		// then
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("invalid id is 400", func(t *testing.T) {
		// given
		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		api := NewHandler(&mockReviewService{}, logger)

		req := authedRequest(http.MethodDelete, "/api/v1/reviews/nope", "", mockUserID, "nope")
		rr := httptest.NewRecorder()

		// when
		api.delete(rr, req)

		// then
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
