package commentservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sushihentaime/dreamblog/internal/common"
)

const commentColumns = `
	c.id, c.post_id, c.author_id, u.username, c.content,
	(SELECT COUNT(*) FROM comment_likes l WHERE l.comment_id = c.id),
	c.is_pinned, c.is_edited, c.created_at, c.updated_at`

const replyColumns = `
	r.id, r.comment_id, r.author_id, u.username, r.content,
	(SELECT COUNT(*) FROM reply_likes l WHERE l.reply_id = r.id),
	r.is_edited, r.created_at, r.updated_at`

func NewCommentModel(db *sql.DB) *CommentModel {
	return &CommentModel{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Author, &c.Content, &c.Likes, &c.IsPinned, &c.IsEdited, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	c.Replies = []Reply{}
	return &c, nil
}

func scanReply(row rowScanner) (*Reply, error) {
	var r Reply
	err := row.Scan(&r.ID, &r.CommentID, &r.AuthorID, &r.Author, &r.Content, &r.Likes, &r.IsEdited, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrRecordNotFound
	}
	return err
}

func (m *CommentModel) getPost(ctx context.Context, postID int) (*postState, error) {
	query := `
		SELECT id, author_id, title, public_comments_enabled
		FROM posts
		WHERE id = $1`

	var p postState
	err := m.db.QueryRowContext(ctx, query, postID).Scan(&p.ID, &p.AuthorID, &p.Title, &p.CommentsEnabled)
	if err != nil {
		return nil, notFound(err)
	}

	return &p, nil
}

// insertComment adds a comment only while the post exists and accepts comments. When nothing is
// inserted the post is re-read to tell the two cases apart.
func (m *CommentModel) insertComment(ctx context.Context, postID, authorID int, content string) (*Comment, error) {
	query := `
		INSERT INTO comments (post_id, author_id, content)
		SELECT p.id, $2, $3
		FROM posts p
		WHERE p.id = $1 AND p.public_comments_enabled
		RETURNING id, created_at, updated_at`

	c := Comment{PostID: postID, AuthorID: authorID, Content: content, Replies: []Reply{}}

	err := m.db.QueryRowContext(ctx, query, postID, authorID, content).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		p, err := m.getPost(ctx, postID)
		if err != nil {
			return nil, err
		}
		if !p.CommentsEnabled {
			return nil, common.ErrCommentsDisabled
		}
		return nil, fmt.Errorf("comment on post %d was not inserted", postID)
	}

	return &c, nil
}

func (m *CommentModel) getComment(ctx context.Context, postID, commentID int) (*Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = $1 AND c.post_id = $2`

	return scanComment(m.db.QueryRowContext(ctx, query, commentID, postID))
}

// updateComment rewrites the content if authorID still owns the comment.
func (m *CommentModel) updateComment(ctx context.Context, c *Comment) error {
	query := `
		UPDATE comments
		SET content = $1, is_edited = true, updated_at = NOW()
		WHERE id = $2 AND post_id = $3 AND author_id = $4
		RETURNING is_edited, updated_at`

	err := m.db.QueryRowContext(ctx, query, c.Content, c.ID, c.PostID, c.AuthorID).Scan(&c.IsEdited, &c.UpdatedAt)
	return notFound(err)
}

func (m *CommentModel) deleteComment(ctx context.Context, postID, commentID int) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1 AND post_id = $2`, commentID, postID)
	if err != nil {
		return err
	}

	return expectOneRow(res)
}

// togglePin flips the pinned flag in place and returns the new value.
func (m *CommentModel) togglePin(ctx context.Context, postID, commentID int) (bool, error) {
	query := `
		UPDATE comments
		SET is_pinned = NOT is_pinned
		WHERE id = $1 AND post_id = $2
		RETURNING is_pinned`

	var pinned bool
	err := m.db.QueryRowContext(ctx, query, commentID, postID).Scan(&pinned)
	if err != nil {
		return false, notFound(err)
	}

	return pinned, nil
}

// toggleCommentsEnabled flips the post flag if authorID wrote the post and returns the new value.
func (m *CommentModel) toggleCommentsEnabled(ctx context.Context, postID, authorID int) (bool, error) {
	query := `
		UPDATE posts
		SET public_comments_enabled = NOT public_comments_enabled, updated_at = NOW()
		WHERE id = $1 AND author_id = $2
		RETURNING public_comments_enabled`

	var enabled bool
	err := m.db.QueryRowContext(ctx, query, postID, authorID).Scan(&enabled)
	if err != nil {
		return false, notFound(err)
	}

	return enabled, nil
}

// likeTable describes one of the like join tables.
type likeTable struct {
	table  string
	column string
	// exists selects 1 when the liked row belongs to the given parents.
	exists string
}

var (
	commentLikes = likeTable{
		table:  "comment_likes",
		column: "comment_id",
		exists: `SELECT 1 FROM comments WHERE id = $1 AND post_id = $2`,
	}
	replyLikes = likeTable{
		table:  "reply_likes",
		column: "reply_id",
		exists: `SELECT 1 FROM replies r JOIN comments c ON c.id = r.comment_id WHERE r.id = $1 AND c.post_id = $2`,
	}
)

// toggleLike removes the user's like if present and adds it otherwise, returning the resulting
// like count. The primary key on (target, user) keeps a user from liking twice.
func (m *CommentModel) toggleLike(ctx context.Context, lt likeTable, postID, targetID, userID int) (int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var one int
	if err := tx.QueryRowContext(ctx, lt.exists, targetID, postID).Scan(&one); err != nil {
		return 0, notFound(err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM `+lt.table+` WHERE `+lt.column+` = $1 AND user_id = $2`, targetID, userID)
	if err != nil {
		return 0, err
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if removed == 0 {
		_, err := tx.ExecContext(ctx, `INSERT INTO `+lt.table+` (`+lt.column+`, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, targetID, userID)
		if err != nil {
			switch {
			case common.ForeignKeyViolation(err, lt.table+"_"+lt.column+"_fkey"):
				return 0, common.ErrRecordNotFound
			default:
				return 0, err
			}
		}
	}

	var count int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+lt.table+` WHERE `+lt.column+` = $1`, targetID).Scan(&count)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return count, nil
}

func (m *CommentModel) countComments(ctx context.Context, postID int) (int, error) {
	var total int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&total)
	return total, err
}

func (m *CommentModel) listComments(ctx context.Context, postID, limit, offset int) ([]Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.is_pinned DESC, c.created_at DESC, c.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := m.db.QueryContext(ctx, query, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

// listReplies returns the replies of the given comments, oldest first.
func (m *CommentModel) listReplies(ctx context.Context, commentIDs []int) ([]Reply, error) {
	query := `SELECT ` + replyColumns + `
		FROM replies r
		JOIN users u ON u.id = r.author_id
		WHERE r.comment_id = ANY($1)
		ORDER BY r.created_at, r.id`

	rows, err := m.db.QueryContext(ctx, query, pq.Array(commentIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies := []Reply{}
	for rows.Next() {
		r, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		replies = append(replies, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return replies, nil
}

// insertReply adds a reply to a comment of the given post.
func (m *CommentModel) insertReply(ctx context.Context, postID, commentID, authorID int, content string) (*Reply, error) {
	query := `
		INSERT INTO replies (comment_id, author_id, content)
		SELECT c.id, $3, $4
		FROM comments c
		WHERE c.id = $2 AND c.post_id = $1
		RETURNING id, created_at, updated_at`

	r := Reply{CommentID: commentID, AuthorID: authorID, Content: content}

	err := m.db.QueryRowContext(ctx, query, postID, commentID, authorID, content).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	return &r, nil
}

func (m *CommentModel) getReply(ctx context.Context, postID, commentID, replyID int) (*Reply, error) {
	query := `SELECT ` + replyColumns + `
		FROM replies r
		JOIN comments c ON c.id = r.comment_id
		JOIN users u ON u.id = r.author_id
		WHERE r.id = $1 AND r.comment_id = $2 AND c.post_id = $3`

	return scanReply(m.db.QueryRowContext(ctx, query, replyID, commentID, postID))
}

func (m *CommentModel) updateReply(ctx context.Context, r *Reply) error {
	query := `
		UPDATE replies
		SET content = $1, is_edited = true, updated_at = NOW()
		WHERE id = $2 AND comment_id = $3 AND author_id = $4
		RETURNING is_edited, updated_at`

	err := m.db.QueryRowContext(ctx, query, r.Content, r.ID, r.CommentID, r.AuthorID).Scan(&r.IsEdited, &r.UpdatedAt)
	return notFound(err)
}

func (m *CommentModel) deleteReply(ctx context.Context, commentID, replyID int) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM replies WHERE id = $1 AND comment_id = $2`, replyID, commentID)
	if err != nil {
		return err
	}

	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	switch {
	case rows == 0:
		return common.ErrRecordNotFound
	case rows > 1:
		return fmt.Errorf("expected 1 row to be affected, got %d", rows)
	}

	return nil
}
