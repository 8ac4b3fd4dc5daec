package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/auth"
	"github.com/yigit/librarium/internal/pkg/email"
)

var (
	alice = auth.Identity{ID: 1, Username: "alice", Email: "alice@example.com"}
	bob   = auth.Identity{ID: 2, Username: "bob", Email: "bob@example.com"}
)

type userBookFixture struct {
	store    *fakeUserBookStore
	tx       *fakeTx
	notifier *fakeNotifier
	clock    time.Time
	svc      *UserBookService
}

func newUserBookFixture(t *testing.T) *userBookFixture {
	t.Helper()
	f := &userBookFixture{
		store:    newFakeUserBookStore(),
		notifier: &fakeNotifier{},
		clock:    time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC),
	}
	f.tx = newFakeTx(f.store)
	f.svc = NewUserBookService(f.tx, f.store, f.notifier, func() time.Time { return f.clock }, zerolog.Nop())
	return f
}

func (f *userBookFixture) create(t *testing.T, actor auth.Identity, due string) *BorrowOutcome {
	t.Helper()
	out, err := f.svc.Create(context.Background(), actor, CreateBorrowRecordInput{Title: "Dune", Author: "Frank Herbert", DueDate: due})
	require.NoError(t, err)
	return out
}

func TestCreateBorrowRecord(t *testing.T) {
	f := newUserBookFixture(t)

	out := f.create(t, alice, "2024-03-15")

	assert.Equal(t, 1, f.store.count())
	rec, err := f.store.GetByID(context.Background(), out.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, rec.UserID)
	assert.Equal(t, "2024-03-01", rec.BorrowDate.Format("2006-01-02"))
	assert.Equal(t, "2024-03-15", rec.DueDate.Format("2006-01-02"))
	assert.False(t, rec.IsReturned)
	assert.Nil(t, rec.ReturnDate)

	require.Equal(t, 1, f.notifier.count())
	sent := f.notifier.sent[0]
	assert.Equal(t, email.KindBorrowedBook, sent.Kind)
	assert.Equal(t, email.Recipient{Username: "alice", Email: "alice@example.com"}, sent.To)
	assert.Equal(t, email.Fields{BookTitle: "Dune", Author: "Frank Herbert", BorrowDate: "2024-03-01", DueDate: "2024-03-15"}, sent.Fields)

	assert.True(t, out.Notification.Delivered)
	assert.Empty(t, out.Warning())
}

func TestCreateBorrowRecordRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input CreateBorrowRecordInput
		want  error
	}{
		{"impossible date", CreateBorrowRecordInput{Title: "T", Author: "A", DueDate: "31/02/2024"}, apperrors.ErrInvalidDate},
		{"february 31st", CreateBorrowRecordInput{Title: "T", Author: "A", DueDate: "2024-02-31"}, apperrors.ErrInvalidDate},
		{"empty date", CreateBorrowRecordInput{Title: "T", Author: "A"}, apperrors.ErrInvalidDate},
		{"blank title", CreateBorrowRecordInput{Title: "  ", Author: "A", DueDate: "2024-03-15"}, apperrors.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUserBookFixture(t)
			out, err := f.svc.Create(context.Background(), alice, tt.input)

			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			assert.Zero(t, f.store.count())
			assert.Zero(t, f.notifier.count())
			assert.Zero(t, f.tx.began)
		})
	}
}

func TestCreateBorrowRecordCommitFailure(t *testing.T) {
	f := newUserBookFixture(t)
	f.tx.commitErr = errCommitFailed

	out, err := f.svc.Create(context.Background(), alice, CreateBorrowRecordInput{Title: "T", Author: "A", DueDate: "2024-03-15"})

	assert.Nil(t, out)
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.ErrorIs(t, err, errCommitFailed)
	assert.Zero(t, f.store.count())
	assert.Zero(t, f.notifier.count())
}

func TestCreateBorrowRecordInsertFailure(t *testing.T) {
	f := newUserBookFixture(t)
	f.store.createErr = errors.New("disk full")

	_, err := f.svc.Create(context.Background(), alice, CreateBorrowRecordInput{Title: "T", Author: "A", DueDate: "2024-03-15"})

	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.Zero(t, f.notifier.count())
}

func TestCreateBorrowRecordNotificationFailureKeepsRecord(t *testing.T) {
	f := newUserBookFixture(t)
	f.notifier.failWith = errors.New("smtp: connection refused")

	out := f.create(t, alice, "2024-03-15")

	assert.False(t, out.Notification.Delivered)
	assert.NotEmpty(t, out.Warning())

	records, err := f.svc.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, out.Record.ID, records[0].ID)
}

type failingTransport struct{}

func (failingTransport) Deliver(context.Context, email.Message) error {
	return errors.New("dial tcp: connection refused")
}

func TestCreateBorrowRecordWithRealNotifier(t *testing.T) {
	store := newFakeUserBookStore()
	notifier := email.NewNotifier(failingTransport{}, email.NotifierConfig{From: "lib@example.com", Timeout: time.Second}, zerolog.Nop())
	svc := NewUserBookService(newFakeTx(store), store, notifier, fixedClock("2024-03-01T10:00:00Z"), zerolog.Nop())

	out, err := svc.Create(context.Background(), alice, CreateBorrowRecordInput{Title: "T", Author: "A", DueDate: "2024-03-15"})
	require.NoError(t, err)
	assert.False(t, out.Notification.Delivered)
	assert.ErrorIs(t, out.Notification.Err, apperrors.ErrNotificationFailed)
	assert.Equal(t, 1, store.count())
}

func TestCreateBorrowRecordRequiresActor(t *testing.T) {
	f := newUserBookFixture(t)
	_, err := f.svc.Create(context.Background(), auth.Identity{}, CreateBorrowRecordInput{Title: "T", Author: "A", DueDate: "2024-03-15"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestMarkReturnedByNonOwner(t *testing.T) {
	f := newUserBookFixture(t)
	out := f.create(t, alice, "2024-03-15")
	sentBefore := f.notifier.count()

	_, err := f.svc.MarkReturned(context.Background(), bob, out.Record.ID)

	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.NotErrorIs(t, err, apperrors.ErrResourceNotFound)
	rec, _ := f.store.GetByID(context.Background(), out.Record.ID)
	assert.False(t, rec.IsReturned)
	assert.Nil(t, rec.ReturnDate)
	assert.Zero(t, f.store.updateCalls)
	assert.Equal(t, sentBefore, f.notifier.count())
}

func TestMarkReturnedMissingRecord(t *testing.T) {
	f := newUserBookFixture(t)
	_, err := f.svc.MarkReturned(context.Background(), alice, 42)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	assert.NotErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestMarkReturnedByOwner(t *testing.T) {
	f := newUserBookFixture(t)
	out := f.create(t, alice, "2024-03-15")
	sentBefore := f.notifier.count()

	f.clock = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	rec, err := f.svc.MarkReturned(context.Background(), alice, out.Record.ID)
	require.NoError(t, err)
	assert.True(t, rec.IsReturned)
	require.NotNil(t, rec.ReturnDate)
	assert.Equal(t, "2024-03-10", rec.ReturnDate.Format("2006-01-02"))
	assert.Equal(t, 1, f.store.updateCalls)

	// a second call is a no-op and keeps the first return date
	f.clock = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	rec, err = f.svc.MarkReturned(context.Background(), alice, out.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", rec.ReturnDate.Format("2006-01-02"))
	assert.Equal(t, 1, f.store.updateCalls)

	assert.Equal(t, sentBefore, f.notifier.count())
}

func TestMarkReturnedCommitFailure(t *testing.T) {
	f := newUserBookFixture(t)
	out := f.create(t, alice, "2024-03-15")
	f.tx.commitErr = errCommitFailed

	_, err := f.svc.MarkReturned(context.Background(), alice, out.Record.ID)

	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	rec, _ := f.store.GetByID(context.Background(), out.Record.ID)
	assert.False(t, rec.IsReturned)
	assert.Nil(t, rec.ReturnDate)
}

func TestListBorrowRecordsOrder(t *testing.T) {
	f := newUserBookFixture(t)

	for _, day := range []time.Time{
		time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
	} {
		f.clock = day
		f.create(t, alice, "2024-12-31")
	}
	f.create(t, bob, "2024-12-31")

	records, err := f.svc.List(context.Background(), alice)
	require.NoError(t, err)

	var got []string
	for _, r := range records {
		got = append(got, r.BorrowDate.Format("2006-01-02"))
	}
	assert.Equal(t, []string{"2024-03-01", "2024-02-01", "2024-01-01"}, got)
}
