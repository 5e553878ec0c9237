package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func subscriptionRows(s *Subscription) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "type", "status", "amount_cents",
		"current_period_start", "current_period_end", "cancelled_at", "created_at",
	}).AddRow(s.ID, s.UserID, s.Type, s.Status, s.AmountCents,
		s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelledAt, s.CreatedAt)
}

func TestGetActiveForUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	now := time.Now()
	sub := &Subscription{
		ID: 3, UserID: 1, Type: TypeUnlimited, Status: StatusActive,
		AmountCents: 14900,
		CurrentPeriodStart: now.Add(-10 * 24 * time.Hour),
		CurrentPeriodEnd:   now.Add(20 * 24 * time.Hour),
		CreatedAt:          now.Add(-10 * 24 * time.Hour),
	}

	mock.ExpectQuery(`FROM subscriptions`).
		WithArgs(1).
		WillReturnRows(subscriptionRows(sub))

	got, err := repo.GetActiveForUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, TypeUnlimited, got.Type)
	assert.True(t, got.IsActive())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveForUser_NoneFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM subscriptions`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetActiveForUser(context.Background(), 1)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancel_GuardedOnActiveStatus(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE subscriptions`).
		WithArgs(3, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Cancel(context.Background(), 3, 1)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsActive(t *testing.T) {
	now := time.Now()

	active := Subscription{Status: StatusActive, CurrentPeriodEnd: now.Add(time.Hour)}
	assert.True(t, active.IsActive())

	lapsed := Subscription{Status: StatusActive, CurrentPeriodEnd: now.Add(-time.Hour)}
	assert.False(t, lapsed.IsActive())

	cancelled := Subscription{Status: StatusCancelled, CurrentPeriodEnd: now.Add(time.Hour)}
	assert.False(t, cancelled.IsActive())
}
