package services

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/librarium/internal/pkg/apperrors"
)

type forumFixture struct {
	lib     *fakeLibrary
	tx      *fakeTx
	storage *fakeStorage
	svc     *ForumService
}

func newForumFixture(t *testing.T) *forumFixture {
	t.Helper()
	f := &forumFixture{lib: newFakeLibrary(), storage: newFakeStorage()}
	f.tx = newFakeTx(f.lib)
	f.svc = NewForumService(f.tx, fakeForumStore{f.lib}, f.storage, zerolog.Nop())
	return f
}

func (f *forumFixture) post(t *testing.T, in CreatePostInput) *PostView {
	t.Helper()
	p, err := f.svc.CreatePost(context.Background(), alice, in)
	require.NoError(t, err)
	return p
}

func TestCreatePostWithPhoto(t *testing.T) {
	f := newForumFixture(t)

	p := f.post(t, CreatePostInput{Title: "Hello", Content: "First", Photo: &multipart.FileHeader{Filename: "cat.PNG"}})
	require.NotNil(t, p.PhotoFilename)
	assert.True(t, f.storage.has(*p.PhotoFilename))
	assert.Equal(t, "alice", p.Username)
	require.NotNil(t, p.PhotoURL)

	page, err := f.svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	require.NotNil(t, page.Posts[0].PhotoURL)
	assert.Equal(t, "/uploads/forum/cat.PNG", *page.Posts[0].PhotoURL)
	assert.Equal(t, "alice", page.Posts[0].Username)
	assert.Empty(t, page.Posts[0].Comments)
}

func TestCreatePostRejectsBadInput(t *testing.T) {
	f := newForumFixture(t)

	_, err := f.svc.CreatePost(context.Background(), alice, CreatePostInput{Title: "x", Content: " "})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.CreatePost(context.Background(), alice, CreatePostInput{Title: "x", Content: "y", Photo: &multipart.FileHeader{Filename: "run.exe"}})
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedPhoto)
	assert.Empty(t, f.storage.objects)
}

func TestCreatePostRemovesPhotoWhenInsertFails(t *testing.T) {
	f := newForumFixture(t)
	f.lib.failPost = errors.New("disk full")

	_, err := f.svc.CreatePost(context.Background(), alice, CreatePostInput{Title: "x", Content: "y", Photo: &multipart.FileHeader{Filename: "a.jpg"}})
	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.False(t, f.storage.has("forum/a.jpg"))
}

func TestDeletePostRemovesComments(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()

	p := f.post(t, CreatePostInput{Title: "Hello", Content: "First", Photo: &multipart.FileHeader{Filename: "a.gif"}})
	other := f.post(t, CreatePostInput{Title: "Other", Content: "Second"})
	for _, text := range []string{"one", "two", "three"} {
		_, err := f.svc.AddComment(ctx, bob, p.ID, text)
		require.NoError(t, err)
	}
	_, err := f.svc.AddComment(ctx, bob, other.ID, "keep me")
	require.NoError(t, err)
	require.Equal(t, 3, f.lib.commentsOf(p.ID))

	err = f.svc.DeletePost(ctx, bob, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, 3, f.lib.commentsOf(p.ID))

	require.NoError(t, f.svc.DeletePost(ctx, alice, p.ID))
	assert.Equal(t, 0, f.lib.commentsOf(p.ID))
	assert.Equal(t, 1, f.lib.commentsOf(other.ID))
	assert.False(t, f.storage.has("forum/a.gif"))

	err = f.svc.DeletePost(ctx, alice, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)
}

func TestComments(t *testing.T) {
	f := newForumFixture(t)
	ctx := context.Background()
	p := f.post(t, CreatePostInput{Title: "Hello", Content: "First"})

	_, err := f.svc.AddComment(ctx, bob, p.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.AddComment(ctx, bob, 999, "hi")
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)

	c, err := f.svc.AddComment(ctx, bob, p.ID, " nice ")
	require.NoError(t, err)
	assert.Equal(t, "nice", c.Content)

	page, err := f.svc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts[0].Comments, 1)
	assert.Equal(t, "bob", page.Posts[0].Comments[0].Username)

	assert.ErrorIs(t, f.svc.DeleteComment(ctx, alice, c.ID), apperrors.ErrPermissionDenied)
	require.NoError(t, f.svc.DeleteComment(ctx, bob, c.ID))
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, bob, c.ID), apperrors.ErrCommentNotFound)
}
