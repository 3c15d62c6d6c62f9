package commentservice

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/dreamblog/internal/common"
)

type stubRecipients struct {
	db *sql.DB
}

func (s stubRecipients) Recipient(ctx context.Context, userID int) (common.Recipient, error) {
	r := common.Recipient{ID: userID}
	err := s.db.QueryRowContext(ctx, `SELECT email, notify_email FROM users WHERE id = $1`, userID).Scan(&r.Email, &r.NotifyEmail)
	return r, err
}

type testEnv struct {
	s  *CommentService
	db *sql.DB
	mb *common.MockProducer
}

func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	db := common.TestDB("file://../../migrations", t)
	mb := &common.MockProducer{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	notifier := common.NewNotifier(mb, stubRecipients{db: db}, logger)

	t.Cleanup(func() {
		_, err := db.Exec("DELETE FROM users")
		assert.NoError(t, err)
	})

	return &testEnv{
		s:  NewCommentService(db, NewBlacklist([]string{"spam", "scam"}), notifier, logger),
		db: db,
		mb: mb,
	}
}

func (env *testEnv) user(t *testing.T, username string, notifyEmail bool) int {
	t.Helper()

	pwd := make([]byte, 16)
	_, err := rand.Read(pwd)
	require.NoError(t, err)

	var id int
	err = env.db.QueryRow(`
		INSERT INTO users (username, email, password, verified, notify_email)
		VALUES ($1, $2, $3, true, $4)
		RETURNING id`, username, username+"@example.com", pwd, notifyEmail).Scan(&id)
	require.NoError(t, err)

	return id
}

func (env *testEnv) post(t *testing.T, authorID int) int {
	t.Helper()

	var id int
	err := env.db.QueryRow(`
		INSERT INTO posts (title, content, author_id)
		VALUES ('A post', 'content', $1)
		RETURNING id`, authorID).Scan(&id)
	require.NoError(t, err)

	return id
}

func ctxTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestAddComment(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := ctxTimeout(t)

	author := env.user(t, "author", true)
	reader := env.user(t, "reader", true)
	postID := env.post(t, author)

	_, err := env.s.AddComment(ctx, reader, postID, "this is SPAM")
	assert.ErrorIs(t, err, common.ErrContentRejected)

	c, err := env.s.AddComment(ctx, reader, postID, "this is ham")
	require.NoError(t, err)
	assert.Equal(t, "this is ham", c.Content)
	assert.False(t, c.IsPinned)
	assert.False(t, c.IsEdited)

	require.Len(t, env.mb.Messages, 1)
	var msg common.NotificationMessage
	require.NoError(t, json.Unmarshal(env.mb.Messages[0].Body, &msg))
	assert.Equal(t, "author@example.com", msg.Email)
	assert.True(t, msg.SendEmail)

	_, err = env.s.AddComment(ctx, author, postID, "thanks for reading")
	require.NoError(t, err)
	assert.Len(t, env.mb.Messages, 1, "authors are not notified about their own comments")

	_, err = env.s.AddComment(ctx, reader, postID+1000, "hello")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	enabled, err := env.s.ToggleCommentsEnabled(ctx, reader, postID)
	assert.ErrorIs(t, err, common.ErrForbidden)
	assert.False(t, enabled)

	enabled, err = env.s.ToggleCommentsEnabled(ctx, author, postID)
	require.NoError(t, err)
	assert.False(t, enabled)

	_, err = env.s.AddComment(ctx, reader, postID, "hello again")
	assert.ErrorIs(t, err, common.ErrCommentsDisabled)

	enabled, err = env.s.ToggleCommentsEnabled(ctx, author, postID)
	require.NoError(t, err)
	assert.True(t, enabled)

	_, err = env.s.AddComment(ctx, reader, postID, "hello again")
	assert.NoError(t, err)
}

func TestAddCommentQuietAuthor(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := ctxTimeout(t)

	author := env.user(t, "author", false)
	reader := env.user(t, "reader", true)
	postID := env.post(t, author)

	_, err := env.s.AddComment(ctx, reader, postID, "hello")
	require.NoError(t, err)
	assert.Empty(t, env.mb.Messages)
}

func TestEditAndDeleteComment(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := ctxTimeout(t)

	author := env.user(t, "author", false)
	owner := env.user(t, "owner", false)
	other := env.user(t, "other", false)
	admin := env.user(t, "admin", false)
	postID := env.post(t, author)

	c, err := env.s.AddComment(ctx, owner, postID, "first version")
	require.NoError(t, err)

	_, err = env.s.EditComment(ctx, other, postID, c.ID, "not mine")
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = env.s.EditComment(ctx, owner, postID, c.ID, "now with scam")
	assert.ErrorIs(t, err, common.ErrContentRejected)

	edited, err := env.s.EditComment(ctx, owner, postID, c.ID, "second version")
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)
	assert.Equal(t, "second version", edited.Content)
	assert.False(t, edited.UpdatedAt.Before(c.UpdatedAt))

	err = env.s.DeleteComment(ctx, common.Actor{ID: other, Roles: common.Roles{common.RoleReader}}, postID, c.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	err = env.s.DeleteComment(ctx, common.Actor{ID: admin, Roles: common.Roles{common.RoleReader, common.RoleAdmin}}, postID, c.ID)
	require.NoError(t, err)

	c2, err := env.s.AddComment(ctx, owner, postID, "another")
	require.NoError(t, err)
	require.NoError(t, env.s.DeleteComment(ctx, common.Actor{ID: owner}, postID, c2.ID))

	err = env.s.DeleteComment(ctx, common.Actor{ID: owner}, postID, c2.ID)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	otherPost := env.post(t, author)
	c3, err := env.s.AddComment(ctx, owner, otherPost, "elsewhere")
	require.NoError(t, err)
	_, err = env.s.EditComment(ctx, owner, postID, c3.ID, "wrong post")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestToggleLike(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := ctxTimeout(t)

	author := env.user(t, "author", false)
	a := env.user(t, "a", false)
	b := env.user(t, "b", false)
	postID := env.post(t, author)

	c, err := env.s.AddComment(ctx, author, postID, "like me")
	require.NoError(t, err)

	count, err := env.s.ToggleLike(ctx, a, postID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = env.s.ToggleLike(ctx, b, postID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = env.s.ToggleLike(ctx, a, postID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "second toggle by the same user removes the like")

	count, err = env.s.ToggleLike(ctx, a, postID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = env.s.ToggleLike(ctx, a, postID, c.ID+1000)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestPinAndList(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := ctxTimeout(t)

	author := env.user(t, "author", false)
	reader := env.user(t, "reader", false)
	postID := env.post(t, author)

	var ids []int
	for _, content := range []string{"first", "second", "third"} {
		c, err := env.s.AddComment(ctx, reader, postID, content)
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	_, err := env.s.Pin(ctx, reader, postID, ids[0])
	assert.ErrorIs(t, err, common.ErrForbidden, "only the post author pins")

	pinned, err := env.s.Pin(ctx, author, postID, ids[0])
	require.NoError(t, err)
	assert.True(t, pinned)

	_, err = env.s.AddReply(ctx, author, postID, ids[1], "a reply")
	require.NoError(t, err)

	page, err := env.s.ListComments(ctx, postID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalComments)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Comments, 2)
	assert.Equal(t, "first", page.Comments[0].Content, "pinned comment comes first")
	assert.True(t, page.Comments[0].IsPinned)
	assert.Equal(t, "third", page.Comments[1].Content)

	page, err = env.s.ListComments(ctx, postID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, "second", page.Comments[0].Content)
	require.Len(t, page.Comments[0].Replies, 1)
	assert.Equal(t, "author", page.Comments[0].Replies[0].Author)

	pinned, err = env.s.Pin(ctx, author, postID, ids[0])
	require.NoError(t, err)
	assert.False(t, pinned)

	_, err = env.s.ListComments(ctx, postID+1000, 1, 10)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}

func TestReplies(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := ctxTimeout(t)

	postAuthor := env.user(t, "postauthor", true)
	commenter := env.user(t, "commenter", true)
	replier := env.user(t, "replier", true)
	postID := env.post(t, postAuthor)

	c, err := env.s.AddComment(ctx, commenter, postID, "a comment")
	require.NoError(t, err)
	env.mb.Messages = nil

	_, err = env.s.AddReply(ctx, replier, postID, c.ID, "scam reply")
	assert.ErrorIs(t, err, common.ErrContentRejected)

	_, err = env.s.AddReply(ctx, replier, postID, c.ID+1000, "reply")
	assert.ErrorIs(t, err, common.ErrRecordNotFound)

	r, err := env.s.AddReply(ctx, replier, postID, c.ID, "a reply")
	require.NoError(t, err)

	require.Len(t, env.mb.Messages, 1)
	var msg common.NotificationMessage
	require.NoError(t, json.Unmarshal(env.mb.Messages[0].Body, &msg))
	assert.Equal(t, "commenter@example.com", msg.Email, "the comment author is notified, not the post author")

	_, err = env.s.EditReply(ctx, commenter, postID, c.ID, r.ID, "hijack")
	assert.ErrorIs(t, err, common.ErrForbidden)

	edited, err := env.s.EditReply(ctx, replier, postID, c.ID, r.ID, "edited reply")
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)

	count, err := env.s.ToggleReplyLike(ctx, commenter, postID, c.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = env.s.ToggleReplyLike(ctx, commenter, postID, c.ID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	err = env.s.DeleteReply(ctx, common.Actor{ID: commenter}, postID, c.ID, r.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	require.NoError(t, env.s.DeleteReply(ctx, common.Actor{ID: replier}, postID, c.ID, r.ID))

	_, err = env.s.ToggleReplyLike(ctx, commenter, postID, c.ID, r.ID)
	assert.ErrorIs(t, err, common.ErrRecordNotFound)
}
