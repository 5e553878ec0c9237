package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"wodbook/internal/class"
	"wodbook/internal/logger"
	"wodbook/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init()
}

// memStore is an in-memory Store whose InTx runs the closure directly. It
// enforces the same uniqueness and guarded-transition rules as the SQL store.
type memStore struct {
	classes  map[int]*class.Session
	bookings map[int]*Booking
	nextID   int
	clock    time.Time
}

func newMemStore() *memStore {
	return &memStore{
		classes:  make(map[int]*class.Session),
		bookings: make(map[int]*Booking),
		clock:    time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) addClass(s *class.Session) {
	m.classes[s.ID] = s
}

func (m *memStore) addBooking(b *Booking) *Booking {
	m.nextID++
	m.clock = m.clock.Add(time.Second)
	b.ID = m.nextID
	b.CreatedAt = m.clock
	m.bookings[b.ID] = b
	return b
}

func (m *memStore) InTx(ctx context.Context, fn func(q TxQueries) error) error {
	return fn(m)
}

func (m *memStore) LockClass(ctx context.Context, classID int) (*class.Session, error) {
	return m.classes[classID], nil
}

func (m *memStore) FindByUserAndClass(ctx context.Context, userID, classID int) (*Booking, error) {
	for _, b := range m.bookings {
		if b.UserID == userID && b.ClassID == classID {
			return b, nil
		}
	}
	return nil, nil
}

func (m *memStore) CountConfirmed(ctx context.Context, classID int) (int, error) {
	count := 0
	for _, b := range m.bookings {
		if b.ClassID == classID && b.Status == StatusConfirmed {
			count++
		}
	}
	return count, nil
}

func (m *memStore) Insert(ctx context.Context, b *Booking) (*Booking, error) {
	if existing, _ := m.FindByUserAndClass(ctx, b.UserID, b.ClassID); existing != nil {
		return nil, ErrDuplicateBooking
	}
	copied := *b
	return m.addBooking(&copied), nil
}

func (m *memStore) GetByID(ctx context.Context, id int) (*Booking, error) {
	return m.bookings[id], nil
}

func (m *memStore) UpdateStatus(ctx context.Context, id int, from, to Status) error {
	b, ok := m.bookings[id]
	if !ok || b.Status != from {
		return ErrStateChanged
	}
	b.Status = to
	return nil
}

func (m *memStore) OldestWaiting(ctx context.Context, classID int) (*Booking, error) {
	var oldest *Booking
	for _, b := range m.bookings {
		if b.ClassID != classID || b.Status != StatusWaitingList {
			continue
		}
		if oldest == nil ||
			b.CreatedAt.Before(oldest.CreatedAt) ||
			(b.CreatedAt.Equal(oldest.CreatedAt) && b.ID < oldest.ID) {
			oldest = b
		}
	}
	return oldest, nil
}

func (m *memStore) ListByUser(ctx context.Context, userID int) ([]BookingWithClass, error) {
	return nil, nil
}

func (m *memStore) ListByClass(ctx context.Context, classID int) ([]BookingWithClass, error) {
	return nil, nil
}

type stubUserRepo struct {
	users map[int]*user.User
}

func (r *stubUserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (*user.User, error) {
	return nil, errors.New("not implemented")
}

func (r *stubUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, errors.New("not implemented")
}

func (r *stubUserRepo) FindByID(ctx context.Context, id int) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

func (r *stubUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return false, nil
}

type recordingNotifier struct {
	confirmed []string
	spots     []string
	fail      bool
}

func (n *recordingNotifier) BookingConfirmed(ctx context.Context, email, name, className string, startsAt time.Time) error {
	if n.fail {
		return errors.New("smtp down")
	}
	n.confirmed = append(n.confirmed, email)
	return nil
}

func (n *recordingNotifier) SpotAvailable(ctx context.Context, email, name, className string, startsAt time.Time) error {
	if n.fail {
		return errors.New("smtp down")
	}
	n.spots = append(n.spots, email)
	return nil
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store *memStore, notifier Notifier) *service {
	users := &stubUserRepo{users: map[int]*user.User{
		1: {ID: 1, Name: "Alice", Email: "alice@example.com"},
		2: {ID: 2, Name: "Bob", Email: "bob@example.com"},
		3: {ID: 3, Name: "Carol", Email: "carol@example.com"},
	}}
	svc := NewService(store, users, notifier).(*service)
	svc.now = func() time.Time { return testNow }
	return svc
}

func upcomingClass(id, capacity int) *class.Session {
	return &class.Session{
		ID:              id,
		Name:            "Morning WOD",
		StartsAt:        testNow.Add(3 * time.Hour),
		MaxParticipants: capacity,
	}
}

func TestCreateBooking_ConfirmsWhileSeatsRemain(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 1))
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	b, err := svc.CreateBooking(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, TypeMembership, b.BookingType)
	assert.True(t, b.IsRefundable)
	assert.Nil(t, b.AmountPaidCents)
	assert.Equal(t, []string{"alice@example.com"}, notifier.confirmed)
}

func TestCreateBooking_WaitlistsWhenFull(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 1))
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	first, err := svc.CreateBooking(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, first.Status)

	second, err := svc.CreateBooking(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusWaitingList, second.Status)

	// Only the confirmed member is notified.
	assert.Equal(t, []string{"alice@example.com"}, notifier.confirmed)
}

func TestCreateBooking_WaitlistedSeatsDoNotCount(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 2))
	svc := newTestService(store, &recordingNotifier{})

	store.addBooking(&Booking{UserID: 5, ClassID: 10, Status: StatusConfirmed, BookingType: TypeMembership})
	store.addBooking(&Booking{UserID: 6, ClassID: 10, Status: StatusWaitingList, BookingType: TypeMembership})
	store.addBooking(&Booking{UserID: 7, ClassID: 10, Status: StatusCancelled, BookingType: TypeMembership})

	b, err := svc.CreateBooking(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)
}

func TestCreateBooking_DuplicateRejected(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 5))
	svc := newTestService(store, &recordingNotifier{})

	_, err := svc.CreateBooking(context.Background(), 1, 10)
	require.NoError(t, err)

	_, err = svc.CreateBooking(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrDuplicateBooking)
}

func TestCreateBooking_CancelledRowStillBlocksRebooking(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 5))
	svc := newTestService(store, &recordingNotifier{})

	store.addBooking(&Booking{UserID: 1, ClassID: 10, Status: StatusCancelled, BookingType: TypeMembership})

	_, err := svc.CreateBooking(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrDuplicateBooking)
}

func TestCreateBooking_RejectsStartedClass(t *testing.T) {
	store := newMemStore()
	cls := upcomingClass(10, 5)
	cls.StartsAt = testNow.Add(-30 * time.Minute)
	store.addClass(cls)
	svc := newTestService(store, &recordingNotifier{})

	_, err := svc.CreateBooking(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrClassStarted)
}

func TestCreateBooking_RejectsClassStartingNow(t *testing.T) {
	store := newMemStore()
	cls := upcomingClass(10, 5)
	cls.StartsAt = testNow
	store.addClass(cls)
	svc := newTestService(store, &recordingNotifier{})

	_, err := svc.CreateBooking(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrClassStarted)
}

func TestCreateBooking_RejectsCancelledClass(t *testing.T) {
	store := newMemStore()
	cls := upcomingClass(10, 5)
	cls.IsCancelled = true
	store.addClass(cls)
	svc := newTestService(store, &recordingNotifier{})

	_, err := svc.CreateBooking(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrClassCancelled)
}

func TestCreateBooking_ClassNotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})

	_, err := svc.CreateBooking(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrClassNotFound)
}

func TestCreateBooking_DuplicateWinsOverStartedClass(t *testing.T) {
	store := newMemStore()
	cls := upcomingClass(10, 5)
	cls.StartsAt = testNow.Add(-30 * time.Minute)
	cls.IsCancelled = true
	store.addClass(cls)
	svc := newTestService(store, &recordingNotifier{})

	store.addBooking(&Booking{UserID: 1, ClassID: 10, Status: StatusConfirmed, BookingType: TypeMembership})

	_, err := svc.CreateBooking(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrDuplicateBooking)
}

func TestCreateBooking_NotifierFailureDoesNotFailBooking(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 5))
	svc := newTestService(store, &recordingNotifier{fail: true})

	b, err := svc.CreateBooking(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)
}

func TestCancelBooking_PromotesOldestWaiting(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 1))
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	a := store.addBooking(&Booking{UserID: 1, ClassID: 10, Status: StatusConfirmed, BookingType: TypeMembership, IsRefundable: true})
	b := store.addBooking(&Booking{UserID: 2, ClassID: 10, Status: StatusWaitingList, BookingType: TypeMembership, IsRefundable: true})
	c := store.addBooking(&Booking{UserID: 3, ClassID: 10, Status: StatusWaitingList, BookingType: TypeMembership, IsRefundable: true})

	err := svc.CancelBooking(context.Background(), 1, a.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, store.bookings[a.ID].Status)
	assert.Equal(t, StatusConfirmed, store.bookings[b.ID].Status)
	assert.Equal(t, StatusWaitingList, store.bookings[c.ID].Status)

	// Only the promoted member hears about the open spot.
	assert.Equal(t, []string{"bob@example.com"}, notifier.spots)
}

func TestCancelBooking_WaitingCancellationDoesNotPromote(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 1))
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	store.addBooking(&Booking{UserID: 1, ClassID: 10, Status: StatusConfirmed, BookingType: TypeMembership, IsRefundable: true})
	b := store.addBooking(&Booking{UserID: 2, ClassID: 10, Status: StatusWaitingList, BookingType: TypeMembership, IsRefundable: true})
	c := store.addBooking(&Booking{UserID: 3, ClassID: 10, Status: StatusWaitingList, BookingType: TypeMembership, IsRefundable: true})

	err := svc.CancelBooking(context.Background(), 2, b.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, store.bookings[b.ID].Status)
	assert.Equal(t, StatusWaitingList, store.bookings[c.ID].Status)
	assert.Empty(t, notifier.spots)
}

func TestCancelBooking_NoWaitingListLeavesSeatOpen(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 1))
	notifier := &recordingNotifier{}
	svc := newTestService(store, notifier)

	a := store.addBooking(&Booking{UserID: 1, ClassID: 10, Status: StatusConfirmed, BookingType: TypeMembership, IsRefundable: true})

	err := svc.CancelBooking(context.Background(), 1, a.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, store.bookings[a.ID].Status)
	assert.Empty(t, notifier.spots)
}

func TestCancelBooking_NotOwner(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 1))
	svc := newTestService(store, &recordingNotifier{})

	a := store.addBooking(&Booking{UserID: 1, ClassID: 10, Status: StatusConfirmed, BookingType: TypeMembership, IsRefundable: true})

	err := svc.CancelBooking(context.Background(), 2, a.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, StatusConfirmed, store.bookings[a.ID].Status)
}

func TestCancelBooking_NotFound(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})

	err := svc.CancelBooking(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelBooking_AlreadyCancelled(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 1))
	svc := newTestService(store, &recordingNotifier{})

	a := store.addBooking(&Booking{UserID: 1, ClassID: 10, Status: StatusCancelled, BookingType: TypeMembership, IsRefundable: true})

	err := svc.CancelBooking(context.Background(), 1, a.ID)
	assert.ErrorIs(t, err, ErrNotRefundable)
}

func TestCancelBooking_NonRefundableFlag(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 1))
	svc := newTestService(store, &recordingNotifier{})

	a := store.addBooking(&Booking{UserID: 1, ClassID: 10, Status: StatusConfirmed, BookingType: TypeMembership, IsRefundable: false})

	err := svc.CancelBooking(context.Background(), 1, a.ID)
	assert.ErrorIs(t, err, ErrNotRefundable)
}

func TestCancelBooking_DropInRefundWindow(t *testing.T) {
	paid := int64(2500)

	cases := []struct {
		name        string
		untilStart  time.Duration
		bookingType BookingType
		wantErr     error
	}{
		{"drop-in well before start", 90 * time.Minute, TypeDropIn, nil},
		{"drop-in just inside window", 45 * time.Minute, TypeDropIn, ErrNotRefundable},
		{"drop-in exactly at cutoff", time.Hour, TypeDropIn, ErrNotRefundable},
		{"drop-in one minute past cutoff", time.Hour + time.Minute, TypeDropIn, nil},
		{"day pass inside window", 30 * time.Minute, TypeDayPass, ErrNotRefundable},
		{"membership inside window", 10 * time.Minute, TypeMembership, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			cls := upcomingClass(10, 1)
			cls.StartsAt = testNow.Add(tc.untilStart)
			store.addClass(cls)
			svc := newTestService(store, &recordingNotifier{})

			b := store.addBooking(&Booking{
				UserID:          1,
				ClassID:         10,
				Status:          StatusConfirmed,
				BookingType:     tc.bookingType,
				AmountPaidCents: &paid,
				IsRefundable:    true,
			})

			err := svc.CancelBooking(context.Background(), 1, b.ID)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, StatusConfirmed, store.bookings[b.ID].Status)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, StatusCancelled, store.bookings[b.ID].Status)
			}
		})
	}
}

func TestCancelBooking_FIFOBreaksTiesByID(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 1))
	svc := newTestService(store, &recordingNotifier{})

	a := store.addBooking(&Booking{UserID: 1, ClassID: 10, Status: StatusConfirmed, BookingType: TypeMembership, IsRefundable: true})
	b := store.addBooking(&Booking{UserID: 2, ClassID: 10, Status: StatusWaitingList, BookingType: TypeMembership, IsRefundable: true})
	c := store.addBooking(&Booking{UserID: 3, ClassID: 10, Status: StatusWaitingList, BookingType: TypeMembership, IsRefundable: true})
	store.bookings[c.ID].CreatedAt = store.bookings[b.ID].CreatedAt

	err := svc.CancelBooking(context.Background(), 1, a.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, store.bookings[b.ID].Status)
	assert.Equal(t, StatusWaitingList, store.bookings[c.ID].Status)
}

func TestGetBooking(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &recordingNotifier{})

	a := store.addBooking(&Booking{UserID: 1, ClassID: 10, Status: StatusConfirmed, BookingType: TypeMembership, IsRefundable: true})

	got, err := svc.GetBooking(context.Background(), 1, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = svc.GetBooking(context.Background(), 2, a.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = svc.GetBooking(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancelBooking_NotifierFailureDoesNotFailCancellation(t *testing.T) {
	store := newMemStore()
	store.addClass(upcomingClass(10, 1))
	svc := newTestService(store, &recordingNotifier{fail: true})

	a := store.addBooking(&Booking{UserID: 1, ClassID: 10, Status: StatusConfirmed, BookingType: TypeMembership, IsRefundable: true})
	b := store.addBooking(&Booking{UserID: 2, ClassID: 10, Status: StatusWaitingList, BookingType: TypeMembership, IsRefundable: true})

	err := svc.CancelBooking(context.Background(), 1, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, store.bookings[b.ID].Status)
}
