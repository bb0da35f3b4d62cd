package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/comment-system/backend/internal/apperror"
	"github.com/emilythestrangee/comment-system/backend/internal/auth"
	"github.com/emilythestrangee/comment-system/backend/internal/models"
	"github.com/emilythestrangee/comment-system/backend/internal/realtime"
	"github.com/emilythestrangee/comment-system/backend/internal/realtime/realtimetest"
	"github.com/emilythestrangee/comment-system/backend/internal/storage"
	"github.com/emilythestrangee/comment-system/backend/internal/storage/inmemory"
)

type fixture struct {
	store    *inmemory.Store
	auth     *AuthService
	comments *CommentService
	events   *realtimetest.Recorder
	tokens   *auth.TokenService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))

	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := inmemory.NewWithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})
	tokens := auth.NewTokenService("test-secret", time.Hour)
	events := &realtimetest.Recorder{}

	return &fixture{
		store:    store,
		auth:     NewAuthService(store, tokens, bcrypt.MinCost, lg),
		comments: NewCommentService(store, events, lg),
		events:   events,
		tokens:   tokens,
	}
}

func (f *fixture) register(t *testing.T, name, email string) *models.Author {
	t.Helper()
	resp, err := f.auth.Register(context.Background(), models.RegisterRequest{Name: name, Email: email, Password: "secret1"})
	require.NoError(t, err)
	return resp.User
}

func (f *fixture) post(t *testing.T, authorID, content string, parent *string) *models.Comment {
	t.Helper()
	c, err := f.comments.CreateComment(context.Background(), authorID, models.CreateCommentRequest{Content: content, ParentComment: parent})
	require.NoError(t, err)
	return c
}

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	appErr, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.Error, got %v", err)
	assert.Equal(t, status, appErr.Status)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

// === Auth ===

func TestAuthService_RegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.auth.Register(ctx, models.RegisterRequest{Name: " Ann ", Email: " a@x.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", resp.User.Name)
	assert.Equal(t, "a@x.com", resp.User.Email)

	claims, err := f.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	stored, err := f.store.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	login, err := f.auth.Login(ctx, models.LoginRequest{Email: "a@x.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ann", "a@x.com")

	_, err := f.auth.Register(context.Background(), models.RegisterRequest{Name: "Other", Email: "a@x.com", Password: "secret1"})
	requireAppError(t, err, http.StatusBadRequest, "Email already registered")
	appErr, _ := apperror.As(err)
	assert.Equal(t, apperror.CodeDuplicateEmail, appErr.Code)
}

// racingUsers reports no existing user, then fails the insert as if a
// concurrent registration won.
type racingUsers struct{ storage.UserStore }

func (racingUsers) GetUserByEmail(context.Context, string) (*models.User, error) {
	return nil, storage.ErrNotFound
}

func (racingUsers) CreateUser(context.Context, *models.User) error {
	return storage.ErrDuplicateEmail
}

func TestAuthService_RegisterRaceMapsToDuplicate(t *testing.T) {
	svc := NewAuthService(racingUsers{}, auth.NewTokenService("s", time.Hour), bcrypt.MinCost, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Register(context.Background(), models.RegisterRequest{Name: "Ann", Email: "a@x.com", Password: "secret1"})
	requireAppError(t, err, http.StatusBadRequest, "Email already registered")
}

func TestAuthService_LoginFailuresLookAlike(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ann", "a@x.com")
	ctx := context.Background()

	_, err := f.auth.Login(ctx, models.LoginRequest{Email: "nobody@x.com", Password: "secret1"})
	requireAppError(t, err, http.StatusUnauthorized, "Invalid email or password")

	_, err = f.auth.Login(ctx, models.LoginRequest{Email: "a@x.com", Password: "wrong-password"})
	requireAppError(t, err, http.StatusUnauthorized, "Invalid email or password")
}

func TestAuthService_CurrentUser(t *testing.T) {
	f := newFixture(t)
	ann := f.register(t, "Ann", "a@x.com")

	got, err := f.auth.CurrentUser(context.Background(), ann.ID)
	require.NoError(t, err)
	assert.Equal(t, ann, got)

	_, err = f.auth.CurrentUser(context.Background(), "00000000-0000-0000-0000-000000000000")
	requireAppError(t, err, http.StatusNotFound, "User not found")
}

// === Comments ===

func TestCommentService_LikeDislikeScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "Ann", "a@x.com")
	b := f.register(t, "Bob", "b@x.com")

	c := f.post(t, a.ID, "hello", nil)
	assert.Equal(t, 0, c.LikesCount())
	assert.Equal(t, "Ann", c.Author.Name)

	liked, err := f.comments.Like(ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.LikesCount())
	assert.Equal(t, 0, liked.DislikesCount())

	disliked, err := f.comments.Dislike(ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, disliked.LikesCount())
	assert.Equal(t, 1, disliked.DislikesCount())

	require.NoError(t, f.comments.DeleteComment(ctx, c.ID, a.ID))
	_, err = f.comments.GetComment(ctx, c.ID)
	requireAppError(t, err, http.StatusNotFound, "Comment not found")

	assert.Equal(t, []string{
		realtime.EventCommentCreated,
		realtime.EventCommentLiked,
		realtime.EventCommentDisliked,
		realtime.EventCommentDeleted,
	}, f.events.Names())

	last, _ := f.events.Last()
	payload := last.Data.(realtime.DeletedPayload)
	assert.Equal(t, c.ID, payload.CommentID)
	assert.Nil(t, payload.ParentComment)
}

func TestCommentService_RepliesScenario(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com")

	p := f.post(t, a.ID, "parent", nil)
	r := f.post(t, a.ID, "reply", &p.ID)

	page, err := f.comments.GetReplies(context.Background(), p.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, r.ID, page.Comments[0].ID)
	assert.Equal(t, p.ID, *page.Comments[0].ParentComment)
	assert.EqualValues(t, 1, page.Pagination.TotalComments)

	created := f.events.Events()[1].Data.(realtime.CommentPayload)
	require.NotNil(t, created.ParentComment)
	assert.Equal(t, p.ID, *created.ParentComment)
}

func TestCommentService_VoteToggles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "Ann", "a@x.com")
	c := f.post(t, a.ID, "hello", nil)

	_, err := f.comments.Like(ctx, c.ID, a.ID)
	require.NoError(t, err)
	again, err := f.comments.Like(ctx, c.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.LikesCount(), "liking twice returns to un-liked")

	last, _ := f.events.Last()
	assert.Equal(t, models.ActionUnlike, last.Data.(realtime.VotePayload).Action)

	for _, vote := range []func(context.Context, string, string) (*models.Comment, error){
		f.comments.Dislike, f.comments.Like, f.comments.Dislike, f.comments.Dislike, f.comments.Like,
	} {
		got, err := vote(ctx, c.ID, a.ID)
		require.NoError(t, err)
		assert.False(t, got.Likes.Has(a.ID) && got.Dislikes.Has(a.ID))
	}

	_, err = f.comments.Like(ctx, "00000000-0000-0000-0000-000000000000", a.ID)
	requireAppError(t, err, http.StatusNotFound, "Comment not found")
}

func TestCommentService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "Ann", "a@x.com")

	_, err := f.comments.CreateComment(ctx, a.ID, models.CreateCommentRequest{Content: "   "})
	requireAppError(t, err, http.StatusBadRequest, "")

	_, err = f.comments.CreateComment(ctx, a.ID, models.CreateCommentRequest{Content: strings.Repeat("x", models.MaxCommentLength+1)})
	requireAppError(t, err, http.StatusBadRequest, "")

	missing := "00000000-0000-0000-0000-000000000000"
	_, err = f.comments.CreateComment(ctx, a.ID, models.CreateCommentRequest{Content: "hi", ParentComment: &missing})
	requireAppError(t, err, http.StatusNotFound, "Parent comment not found")

	bad := "not-a-uuid"
	_, err = f.comments.CreateComment(ctx, a.ID, models.CreateCommentRequest{Content: "hi", ParentComment: &bad})
	requireAppError(t, err, http.StatusBadRequest, "")

	c := f.post(t, a.ID, "  padded  ", nil)
	assert.Equal(t, "padded", c.Content)

	full := f.post(t, a.ID, strings.Repeat("é", models.MaxCommentLength), nil)
	assert.Len(t, []rune(full.Content), models.MaxCommentLength)

	assert.Len(t, f.events.Events(), 2, "failed creates emit nothing")
}

func TestCommentService_UpdateAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "Ann", "a@x.com")
	b := f.register(t, "Bob", "b@x.com")
	c := f.post(t, a.ID, "hello", nil)

	_, err := f.comments.UpdateComment(ctx, c.ID, b.ID, models.UpdateCommentRequest{Content: "hijack"})
	requireAppError(t, err, http.StatusForbidden, "You can only edit your own comments")

	updated, err := f.comments.UpdateComment(ctx, c.ID, a.ID, models.UpdateCommentRequest{Content: " edited "})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, realtime.EventCommentUpdated, f.events.Names()[len(f.events.Names())-1])

	_, err = f.comments.UpdateComment(ctx, "00000000-0000-0000-0000-000000000000", a.ID, models.UpdateCommentRequest{Content: "x"})
	requireAppError(t, err, http.StatusNotFound, "Comment not found")
}

func TestCommentService_DeleteIsOneLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "Ann", "a@x.com")
	b := f.register(t, "Bob", "b@x.com")

	p := f.post(t, a.ID, "parent", nil)
	r := f.post(t, b.ID, "reply", &p.ID)
	g := f.post(t, b.ID, "reply to reply", &r.ID)

	err := f.comments.DeleteComment(ctx, p.ID, b.ID)
	requireAppError(t, err, http.StatusForbidden, "You can only delete your own comments")

	require.NoError(t, f.comments.DeleteComment(ctx, p.ID, a.ID))

	_, err = f.comments.GetComment(ctx, r.ID)
	requireAppError(t, err, http.StatusNotFound, "")
	orphan, err := f.comments.GetComment(ctx, g.ID)
	require.NoError(t, err, "grandchildren survive a parent delete")
	assert.Equal(t, r.ID, *orphan.ParentCommentID)
}

func TestCommentService_Pagination(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com")
	for i := 0; i < 7; i++ {
		f.post(t, a.ID, "comment", nil)
	}

	cases := []struct {
		page, limit int
		size        int
		totalPages  int
		next, prev  bool
	}{
		{1, 3, 3, 3, true, false},
		{3, 3, 1, 3, false, true},
		{4, 3, 0, 3, false, true},
		{1, 7, 7, 1, false, false},
		{1, 100, 7, 1, false, false},
	}
	for _, tc := range cases {
		page, err := f.comments.GetComments(context.Background(), ListParams{Page: tc.page, Limit: tc.limit})
		require.NoError(t, err)
		assert.Len(t, page.Comments, tc.size)
		assert.EqualValues(t, 7, page.Pagination.TotalComments)
		assert.Equal(t, tc.totalPages, page.Pagination.TotalPages)
		assert.Equal(t, tc.next, page.Pagination.HasNextPage)
		assert.Equal(t, tc.prev, page.Pagination.HasPrevPage)
		assert.Equal(t, page.Pagination.CurrentPage < page.Pagination.TotalPages, page.Pagination.HasNextPage)
	}
}

func TestCommentService_EmptyListing(t *testing.T) {
	f := newFixture(t)
	page, err := f.comments.GetComments(context.Background(), ListParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Comments)
	assert.Empty(t, page.Comments)
	assert.Equal(t, 0, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNextPage)
}

func TestCommentService_SortByVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := make([]*models.Author, 4)
	for i := range users {
		users[i] = f.register(t, "User", string(rune('a'+i))+"@x.com")
	}

	for likes := 0; likes < 4; likes++ {
		c := f.post(t, users[0].ID, "c", nil)
		for _, u := range users[:likes] {
			_, err := f.comments.Like(ctx, c.ID, u.ID)
			require.NoError(t, err)
		}
		for _, u := range users[likes:] {
			_, err := f.comments.Dislike(ctx, c.ID, u.ID)
			require.NoError(t, err)
		}
	}

	params, err := ParseListParams("", "", "mostLiked", "", false)
	require.NoError(t, err)
	page, err := f.comments.GetComments(ctx, params)
	require.NoError(t, err)
	for i := 1; i < len(page.Comments); i++ {
		assert.GreaterOrEqual(t, page.Comments[i-1].LikesCount, page.Comments[i].LikesCount)
	}

	params, err = ParseListParams("", "", "mostDisliked", "", false)
	require.NoError(t, err)
	page, err = f.comments.GetComments(ctx, params)
	require.NoError(t, err)
	for i := 1; i < len(page.Comments); i++ {
		assert.GreaterOrEqual(t, page.Comments[i-1].DislikesCount, page.Comments[i].DislikesCount)
	}
}

func TestCommentService_ParentFilter(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com")
	p := f.post(t, a.ID, "parent", nil)
	f.post(t, a.ID, "reply", &p.ID)

	params, err := ParseListParams("", "", "", "null", true)
	require.NoError(t, err)
	page, err := f.comments.GetComments(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, p.ID, page.Comments[0].ID)

	params, err = ParseListParams("", "", "", p.ID, true)
	require.NoError(t, err)
	page, err = f.comments.GetComments(context.Background(), params)
	require.NoError(t, err)
	assert.Len(t, page.Comments, 1)
}

func TestParseListParams(t *testing.T) {
	p, err := ParseListParams("", "", "", "", false)
	require.NoError(t, err)
	assert.Equal(t, DefaultPage, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, storage.SortNewest, p.Sort.Key())
	assert.Equal(t, storage.AnyParent, p.Parent.Mode)

	p, err = ParseListParams("2", "100", "oldest", "", false)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 100, p.Limit)
	assert.Equal(t, storage.SortOldest, p.Sort.Key())

	for _, bad := range [][4]string{
		{"0", "", "", ""},
		{"x", "", "", ""},
		{"", "0", "", ""},
		{"", "101", "", ""},
		{"", "", "popular", ""},
		{"", "", "", "nope"},
	} {
		_, err := ParseListParams(bad[0], bad[1], bad[2], bad[3], bad[3] != "")
		requireAppError(t, err, http.StatusBadRequest, "")
	}
}

func TestCommentService_BroadcastFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.events.Err = errors.New("socket gone")
	a := f.register(t, "Ann", "a@x.com")

	c, err := f.comments.CreateComment(context.Background(), a.ID, models.CreateCommentRequest{Content: "hello"})
	require.NoError(t, err)
	_, err = f.comments.Like(context.Background(), c.ID, a.ID)
	require.NoError(t, err)
	assert.Len(t, f.events.Events(), 2)
}

func TestCommentService_InvalidIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.comments.GetComment(ctx, "abc")
	requireAppError(t, err, http.StatusBadRequest, "Invalid comment ID")
	_, err = f.comments.GetReplies(ctx, "abc", 1, 10)
	requireAppError(t, err, http.StatusBadRequest, "Invalid comment ID")
	_, err = f.comments.Dislike(ctx, "abc", "u")
	requireAppError(t, err, http.StatusBadRequest, "Invalid comment ID")
	requireAppError(t, f.comments.DeleteComment(ctx, "abc", "u"), http.StatusBadRequest, "Invalid comment ID")
}

func TestCommentService_HugePageIsEmpty(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "Ann", "a@x.com")
	f.post(t, a.ID, "only", nil)

	params, err := ParseListParams("100000000000000000", "100", "", "", false)
	require.NoError(t, err)

	page, err := f.comments.GetComments(context.Background(), params)
	require.NoError(t, err)
	assert.Empty(t, page.Comments)
	assert.Equal(t, 100000000000000000, page.Pagination.CurrentPage)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.EqualValues(t, 1, page.Pagination.TotalComments)
	assert.False(t, page.Pagination.HasNextPage)
	assert.True(t, page.Pagination.HasPrevPage)
}
