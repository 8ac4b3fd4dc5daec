package services

import (
	"context"
	"errors"
	"mime/multipart"
	"sort"
	"sync"
	"time"

	"github.com/yigit/librarium/internal/app/models"
	"github.com/yigit/librarium/internal/app/repositories"
	"github.com/yigit/librarium/internal/pkg/apperrors"
	"github.com/yigit/librarium/internal/pkg/email"
)

var errCommitFailed = errors.New("commit failed: connection reset")

// snapshotter is a fake store that can restore its state when a fake
// transaction rolls back
type snapshotter interface {
	snapshot() (restore func())
}

// fakeTx mimics db.PostgresDB: state written inside fn is discarded when fn
// fails or when commitErr is set.
type fakeTx struct {
	stores    []snapshotter
	commitErr error
	began     int
}

func newFakeTx(stores ...snapshotter) *fakeTx {
	return &fakeTx{stores: stores}
}

func (f *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.began++
	restores := make([]func(), 0, len(f.stores))
	for _, s := range f.stores {
		restores = append(restores, s.snapshot())
	}
	rollback := func() {
		for _, r := range restores {
			r()
		}
	}

	if err := fn(ctx); err != nil {
		rollback()
		return err
	}
	if f.commitErr != nil {
		rollback()
		return f.commitErr
	}
	return nil
}

type fakeUserBookStore struct {
	mu          sync.Mutex
	rows        map[int64]models.UserBook
	nextID      int64
	createErr   error
	updateCalls int
}

func newFakeUserBookStore() *fakeUserBookStore {
	return &fakeUserBookStore{rows: make(map[int64]models.UserBook)}
}

func (f *fakeUserBookStore) snapshot() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := make(map[int64]models.UserBook, len(f.rows))
	for k, v := range f.rows {
		saved[k] = v
	}
	nextID := f.nextID
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.rows = saved
		f.nextID = nextID
	}
}

func (f *fakeUserBookStore) Create(_ context.Context, record *models.UserBook) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	record.ID = f.nextID
	f.rows[record.ID] = *record
	return nil
}

func (f *fakeUserBookStore) GetByID(_ context.Context, id int64) (*models.UserBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrBorrowRecordNotFound
	}
	return &row, nil
}

func (f *fakeUserBookStore) MarkReturned(_ context.Context, id int64, returnDate time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	row, ok := f.rows[id]
	if !ok || row.IsReturned {
		return false, nil
	}
	row.IsReturned = true
	row.ReturnDate = &returnDate
	f.rows[id] = row
	return true, nil
}

func (f *fakeUserBookStore) ListByUser(_ context.Context, userID int64) ([]*models.UserBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.UserBook, 0)
	for _, row := range f.rows {
		if row.UserID == userID {
			r := row
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BorrowDate.Equal(out[j].BorrowDate) {
			return out[i].BorrowDate.After(out[j].BorrowDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeUserBookStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type sentNotification struct {
	Kind   email.Kind
	To     email.Recipient
	Fields email.Fields
}

// fakeNotifier records every notification and fails when failWith is set
type fakeNotifier struct {
	mu       sync.Mutex
	sent     []sentNotification
	failWith error
}

func (f *fakeNotifier) Send(_ context.Context, kind email.Kind, to email.Recipient, fields email.Fields) email.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{Kind: kind, To: to, Fields: fields})
	if f.failWith != nil {
		return email.Result{Kind: kind, Err: errors.Join(apperrors.ErrNotificationFailed, f.failWith)}
	}
	return email.Result{Kind: kind, Delivered: true}
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func fixedClock(s string) Clock {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

type fakeUserStore struct {
	mu     sync.Mutex
	rows   map[int64]models.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{rows: make(map[int64]models.User)}
}

func (f *fakeUserStore) snapshot() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := make(map[int64]models.User, len(f.rows))
	for k, v := range f.rows {
		saved[k] = v
	}
	nextID := f.nextID
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.rows = saved
		f.nextID = nextID
	}
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Username == user.Username {
			return apperrors.NewPersistenceError(apperrors.ErrUsernameTaken.Message, apperrors.ErrUsernameTaken)
		}
		if u.Email == user.Email {
			return apperrors.NewPersistenceError(apperrors.ErrEmailTaken.Message, apperrors.ErrEmailTaken)
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	f.rows[user.ID] = *user
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// fakeLibrary backs the book, loan, review and forum stores with one shared
// state so that a fake transaction can roll all of them back together.
type fakeLibrary struct {
	mu       sync.Mutex
	books    map[int64]models.Book
	loans    map[int64]models.BorrowedBook
	reviews  map[int64]models.Review
	posts    map[int64]models.ForumPost
	comments map[int64]models.ForumComment
	users    map[int64]string
	nextID   int64
	failPost error
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{
		books:    make(map[int64]models.Book),
		loans:    make(map[int64]models.BorrowedBook),
		reviews:  make(map[int64]models.Review),
		posts:    make(map[int64]models.ForumPost),
		comments: make(map[int64]models.ForumComment),
		users:    map[int64]string{1: "alice", 2: "bob"},
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeLibrary) snapshot() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	books, loans, reviews := copyMap(f.books), copyMap(f.loans), copyMap(f.reviews)
	posts, comments, nextID := copyMap(f.posts), copyMap(f.comments), f.nextID
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.books, f.loans, f.reviews = books, loans, reviews
		f.posts, f.comments, f.nextID = posts, comments, nextID
	}
}

func (f *fakeLibrary) id() int64 {
	f.nextID++
	return f.nextID
}

type fakeBookStore struct{ *fakeLibrary }

func (f fakeBookStore) Create(_ context.Context, book *models.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	book.ID = f.id()
	f.books[book.ID] = *book
	return nil
}

func (f fakeBookStore) GetByID(_ context.Context, id int64, _ bool) (*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil, apperrors.ErrBookNotFound
	}
	return &b, nil
}

func (f fakeBookStore) List(_ context.Context, offset, limit uint64) ([]*models.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*models.Book, 0, len(f.books))
	for _, b := range f.books {
		b := b
		all = append(all, &b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= uint64(len(all)) {
		return []*models.Book{}, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], nil
}

func (f fakeBookStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.books)), nil
}

func (f fakeBookStore) ListAvailable(ctx context.Context) ([]*models.Book, error) {
	all, _ := f.List(ctx, 0, 1<<31)
	out := make([]*models.Book, 0, len(all))
	for _, b := range all {
		if b.Availability {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f fakeBookStore) SetAvailability(_ context.Context, id int64, available bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return apperrors.ErrBookNotFound
	}
	b.Availability = available
	f.books[id] = b
	return nil
}

type fakeLoanStore struct{ *fakeLibrary }

func (f fakeLoanStore) Create(_ context.Context, loan *models.BorrowedBook) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.books[loan.BookID]; !ok {
		return apperrors.ErrBookNotFound
	}
	for _, l := range f.loans {
		if l.BookID == loan.BookID && l.IsOpen() {
			return apperrors.NewPersistenceError(apperrors.ErrBookUnavailable.Message, apperrors.ErrBookUnavailable)
		}
	}
	loan.ID = f.id()
	f.loans[loan.ID] = *loan
	return nil
}

func (f fakeLoanStore) GetByID(_ context.Context, id int64) (*models.BorrowedBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.loans[id]
	if !ok {
		return nil, apperrors.ErrLoanNotFound
	}
	return &l, nil
}

func (f fakeLoanStore) MarkReturned(_ context.Context, id int64, returnDate time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.loans[id]
	if !ok || !l.IsOpen() {
		return false, nil
	}
	l.ReturnDate = &returnDate
	f.loans[id] = l
	return true, nil
}

func (f fakeLoanStore) ListByUser(_ context.Context, userID int64) ([]*repositories.LoanDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*repositories.LoanDetails, 0)
	for _, l := range f.loans {
		if l.UserID == userID {
			b := f.books[l.BookID]
			out = append(out, &repositories.LoanDetails{BorrowedBook: l, BookTitle: b.Title, BookAuthor: b.Author})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeReviewStore struct{ *fakeLibrary }

func (f fakeReviewStore) Create(_ context.Context, review *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	review.ID = f.id()
	review.DatePosted = time.Now()
	f.reviews[review.ID] = *review
	return nil
}

func (f fakeReviewStore) ListByBook(_ context.Context, bookID int64) ([]*repositories.ReviewDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*repositories.ReviewDetails, 0)
	for _, r := range f.reviews {
		if r.BookID == bookID {
			out = append(out, &repositories.ReviewDetails{Review: r, Username: f.users[r.UserID]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type fakeForumStore struct{ *fakeLibrary }

func (f fakeForumStore) CreatePost(_ context.Context, post *models.ForumPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPost != nil {
		return f.failPost
	}
	post.ID = f.id()
	post.DatePosted = time.Now()
	f.posts[post.ID] = *post
	return nil
}

func (f fakeForumStore) GetPostByID(_ context.Context, id int64) (*models.ForumPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return nil, apperrors.ErrPostNotFound
	}
	return &p, nil
}

func (f fakeForumStore) ListPosts(_ context.Context, offset, limit uint64) ([]*repositories.PostDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*repositories.PostDetails, 0, len(f.posts))
	for _, p := range f.posts {
		all = append(all, &repositories.PostDetails{ForumPost: p, Username: f.users[p.UserID]})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if offset >= uint64(len(all)) {
		return []*repositories.PostDetails{}, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], nil
}

func (f fakeForumStore) CountPosts(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.posts)), nil
}

// DeletePost cascades to the comments the way the foreign key does
func (f fakeForumStore) DeletePost(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return apperrors.ErrPostNotFound
	}
	delete(f.posts, id)
	for cid, c := range f.comments {
		if c.PostID == id {
			delete(f.comments, cid)
		}
	}
	return nil
}

func (f fakeForumStore) CreateComment(_ context.Context, comment *models.ForumComment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[comment.PostID]; !ok {
		return apperrors.ErrPostNotFound
	}
	comment.ID = f.id()
	comment.DatePosted = time.Now()
	f.comments[comment.ID] = *comment
	return nil
}

func (f fakeForumStore) GetCommentByID(_ context.Context, id int64) (*models.ForumComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return nil, apperrors.ErrCommentNotFound
	}
	return &c, nil
}

func (f fakeForumStore) ListCommentsByPosts(_ context.Context, postIDs []int64) (map[int64][]*repositories.CommentDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[int64]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}
	out := make(map[int64][]*repositories.CommentDetails)
	for _, c := range f.comments {
		if wanted[c.PostID] {
			out[c.PostID] = append(out[c.PostID], &repositories.CommentDetails{ForumComment: c, Username: f.users[c.UserID]})
		}
	}
	for _, list := range out {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}
	return out, nil
}

func (f fakeForumStore) DeleteComment(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return apperrors.ErrCommentNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeLibrary) commentsOf(postID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

// fakeStorage keeps saved keys in memory
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]bool
	saveErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string]bool)}
}

func (f *fakeStorage) Save(_ context.Context, fh *multipart.FileHeader, dir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return "", f.saveErr
	}
	key := dir + "/" + fh.Filename
	f.objects[key] = true
	return key, nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) URL(_ context.Context, key string) (string, error) {
	return "/uploads/" + key, nil
}

func (f *fakeStorage) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[key]
}

// countingCounters counts database round trips of the stats service
type countingCounters struct {
	mu    sync.Mutex
	calls int
	value repositories.Counters
}

func (c *countingCounters) Counters(_ context.Context) (*repositories.Counters, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	v := c.value
	return &v, nil
}
