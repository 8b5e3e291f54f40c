package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingomarket/lingomarket-api/internal/models"
	"github.com/lingomarket/lingomarket-api/internal/repository"
	appErrors "github.com/lingomarket/lingomarket-api/pkg/errors"
)

type fakeReviewRepo struct {
	created   *models.Review
	createErr error
	existing  bool
	reviews   []models.Review
	avg       float64
}

func (f *fakeReviewRepo) Create(ctx context.Context, review *models.Review) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = review
	return nil
}

func (f *fakeReviewRepo) ExistsForSession(ctx context.Context, studentID, sessionID string) (bool, error) {
	return f.existing, nil
}

func (f *fakeReviewRepo) ListForTrainer(ctx context.Context, trainerID string) ([]models.Review, error) {
	return f.reviews, nil
}

func (f *fakeReviewRepo) ListForSession(ctx context.Context, sessionID string) ([]models.Review, error) {
	return f.reviews, nil
}

func (f *fakeReviewRepo) AverageRating(ctx context.Context, trainerID string) (float64, error) {
	return f.avg, nil
}

type fakeReviewSessions struct {
	session *models.Session
}

func (f *fakeReviewSessions) FindByID(ctx context.Context, id string) (*models.Session, error) {
	s := *f.session
	return &s, nil
}

type fakeRatings struct {
	trainerID string
	rating    float64
	calls     int
}

func (f *fakeRatings) UpdateRating(ctx context.Context, trainerID string, rating float64) error {
	f.trainerID = trainerID
	f.rating = rating
	f.calls++
	return nil
}

func completedSession() *models.Session {
	return &models.Session{
		ID:         "sess1",
		TrainerID:  "t1",
		StudentIDs: []string{"s1"},
		BookingIDs: []string{"b1"},
		Status:     models.SessionStatusCompleted,
	}
}

func TestReviewCreateSuccess(t *testing.T) {
	repo := &fakeReviewRepo{avg: 4.5}
	sessions := &fakeReviewSessions{session: completedSession()}
	bookings := &fakeSessionBookings{bookings: []models.Booking{paidBooking("b1", "s1")}}
	ratings := &fakeRatings{}
	svc := NewReviewService(repo, sessions, bookings, ratings, nil, nil)

	review, err := svc.Create(context.Background(), "s1", "Student", CreateReviewRequest{
		SessionID: "sess1",
		Rating:    5,
		Comment:   "great class",
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", review.TrainerID)
	assert.Equal(t, "b1", review.BookingID)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, 1, ratings.calls)
	assert.Equal(t, 4.5, ratings.rating)
}

func TestReviewCreateRequiresCompletedSession(t *testing.T) {
	session := completedSession()
	session.Status = models.SessionStatusActive
	svc := NewReviewService(&fakeReviewRepo{}, &fakeReviewSessions{session: session},
		&fakeSessionBookings{}, &fakeRatings{}, nil, nil)

	_, err := svc.Create(context.Background(), "s1", "Student", CreateReviewRequest{SessionID: "sess1", Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSessionNotCompleted.Code, appErrors.FromError(err).Code)
}

func TestReviewCreateRequiresAttendance(t *testing.T) {
	bookings := &fakeSessionBookings{bookings: []models.Booking{paidBooking("b1", "s1")}}
	svc := NewReviewService(&fakeReviewRepo{}, &fakeReviewSessions{session: completedSession()},
		bookings, &fakeRatings{}, nil, nil)

	_, err := svc.Create(context.Background(), "outsider", "Outsider", CreateReviewRequest{SessionID: "sess1", Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewCreateRequiresPaidBooking(t *testing.T) {
	unpaid := paidBooking("b1", "s1")
	unpaid.PaymentStatus = models.PaymentStatusFailed
	bookings := &fakeSessionBookings{bookings: []models.Booking{unpaid}}
	svc := NewReviewService(&fakeReviewRepo{}, &fakeReviewSessions{session: completedSession()},
		bookings, &fakeRatings{}, nil, nil)

	_, err := svc.Create(context.Background(), "s1", "Student", CreateReviewRequest{SessionID: "sess1", Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewCreateMapsDuplicate(t *testing.T) {
	repo := &fakeReviewRepo{createErr: repository.ErrDuplicateReview}
	bookings := &fakeSessionBookings{bookings: []models.Booking{paidBooking("b1", "s1")}}
	svc := NewReviewService(repo, &fakeReviewSessions{session: completedSession()},
		bookings, &fakeRatings{}, nil, nil)

	_, err := svc.Create(context.Background(), "s1", "Student", CreateReviewRequest{SessionID: "sess1", Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateReview.Code, appErrors.FromError(err).Code)
}

func TestReviewCreateRejectsExistingReview(t *testing.T) {
	repo := &fakeReviewRepo{existing: true}
	bookings := &fakeSessionBookings{bookings: []models.Booking{paidBooking("b1", "s1")}}
	svc := NewReviewService(repo, &fakeReviewSessions{session: completedSession()},
		bookings, &fakeRatings{}, nil, nil)

	_, err := svc.Create(context.Background(), "s1", "Student", CreateReviewRequest{SessionID: "sess1", Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateReview.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestReviewCreateBoundsCommentLength(t *testing.T) {
	repo := &fakeReviewRepo{}
	bookings := &fakeSessionBookings{bookings: []models.Booking{paidBooking("b1", "s1")}}
	svc := NewReviewService(repo, &fakeReviewSessions{session: completedSession()},
		bookings, &fakeRatings{}, nil, nil)

	_, err := svc.Create(context.Background(), "s1", "Student", CreateReviewRequest{
		SessionID: "sess1",
		Rating:    4,
		Comment:   strings.Repeat("a", 500),
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "s1", "Student", CreateReviewRequest{
		SessionID: "sess1",
		Rating:    4,
		Comment:   strings.Repeat("a", 501),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewCreateValidatesRatingRange(t *testing.T) {
	svc := NewReviewService(&fakeReviewRepo{}, &fakeReviewSessions{session: completedSession()},
		&fakeSessionBookings{}, &fakeRatings{}, nil, nil)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), "s1", "Student", CreateReviewRequest{SessionID: "sess1", Rating: rating})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestReviewSummaryHistogram(t *testing.T) {
	repo := &fakeReviewRepo{reviews: []models.Review{
		{Rating: 5}, {Rating: 5}, {Rating: 4}, {Rating: 2},
	}}
	svc := NewReviewService(repo, &fakeReviewSessions{session: completedSession()},
		&fakeSessionBookings{}, &fakeRatings{}, nil, nil)

	summary, err := svc.Summary(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalReviews)
	assert.InDelta(t, 4.0, summary.AverageRating, 0.001)
	assert.Equal(t, 2, summary.Histogram[5])
	assert.Equal(t, 1, summary.Histogram[4])
	assert.Equal(t, 0, summary.Histogram[3])
	assert.Equal(t, 1, summary.Histogram[2])
}

func TestReviewSummaryEmpty(t *testing.T) {
	svc := NewReviewService(&fakeReviewRepo{}, &fakeReviewSessions{session: completedSession()},
		&fakeSessionBookings{}, &fakeRatings{}, nil, nil)

	summary, err := svc.Summary(context.Background(), "t1")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalReviews)
	assert.Zero(t, summary.AverageRating)
}
