package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/sushihentaime/dreamblog/internal/common"
)

// postColumns selects a post with its author name and its tags in order.
const postColumns = `
	p.id, p.title, p.content, p.author_id, u.username, p.read_time, p.images, p.status,
	p.reviewer_id, p.is_reviewed, p.public_comments_enabled, p.created_at, p.updated_at, p.version,
	ARRAY(SELECT pt.tag_id FROM post_tags pt WHERE pt.post_id = p.id ORDER BY pt.position),
	ARRAY(SELECT t.name FROM post_tags pt JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id = p.id ORDER BY pt.position)`

const postFrom = `
	FROM posts p
	JOIN users u ON u.id = p.author_id`

func newBlogModel(db *sql.DB) *BlogModel {
	return &BlogModel{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var (
		p          Post
		reviewerID sql.NullInt64
		tagIDs     pq.Int64Array
		tagNames   pq.StringArray
	)

	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.Author, &p.ReadTime, pq.Array(&p.Images), &p.Status,
		&reviewerID, &p.Review.IsReviewed, &p.PublicCommentsEnabled, &p.CreatedAt, &p.UpdatedAt, &p.Version,
		&tagIDs, &tagNames,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	if reviewerID.Valid {
		id := int(reviewerID.Int64)
		p.Review.ReviewerID = &id
	}

	p.Tags = make([]Tag, len(tagIDs))
	for i := range tagIDs {
		p.Tags[i] = Tag{ID: int(tagIDs[i]), Name: tagNames[i]}
	}

	return &p, nil
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

func tagIDs(tags []Tag) []int {
	ids := make([]int, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}

// insert stores the post and its tag references in one transaction.
func (m *BlogModel) insert(ctx context.Context, p *Post) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO posts (title, content, author_id, read_time, images, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, public_comments_enabled, created_at, updated_at, version`

	args := []any{p.Title, p.Content, p.AuthorID, p.ReadTime, pq.Array(p.Images), p.Status}

	err = tx.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.PublicCommentsEnabled, &p.CreatedAt, &p.UpdatedAt, &p.Version)
	if err != nil {
		return err
	}

	if err := setTags(ctx, tx, p.ID, tagIDs(p.Tags)); err != nil {
		return err
	}

	return tx.Commit()
}

// setTags replaces the tag references of a post, keeping their order.
func setTags(ctx context.Context, tx *sql.Tx, postID int, ids []int) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return err
	}

	if len(ids) == 0 {
		return nil
	}

	query := `
		INSERT INTO post_tags (post_id, tag_id, position)
		SELECT $1, t.tag_id, t.position
		FROM unnest($2::bigint[]) WITH ORDINALITY AS t(tag_id, position)`

	_, err := tx.ExecContext(ctx, query, postID, pq.Array(ids))
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "post_tags_tag_id_fkey"):
			return common.ErrInvalidTags
		default:
			return err
		}
	}

	return nil
}

func (m *BlogModel) get(ctx context.Context, id int) (*Post, error) {
	query := `SELECT ` + postColumns + postFrom + ` WHERE p.id = $1`
	return scanPost(m.db.QueryRowContext(ctx, query, id))
}

func (m *BlogModel) getReviewComments(ctx context.Context, postID int) ([]ReviewComment, error) {
	query := `
		SELECT id, reviewer_id, text, section, created_at
		FROM review_comments
		WHERE post_id = $1
		ORDER BY id`

	rows, err := m.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []ReviewComment{}
	for rows.Next() {
		var c ReviewComment
		if err := rows.Scan(&c.ID, &c.ReviewerID, &c.Text, &c.Section, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

// update saves the patched post if nobody else changed it since it was read. Tags are only
// rewritten when replaceTags is set.
func (m *BlogModel) update(ctx context.Context, p *Post, replaceTags bool) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE posts
		SET title = $1, content = $2, read_time = $3, images = $4, status = $5,
			updated_at = NOW(), version = version + 1
		WHERE id = $6 AND author_id = $7 AND version = $8
		RETURNING updated_at, version`

	args := []any{p.Title, p.Content, p.ReadTime, pq.Array(p.Images), p.Status, p.ID, p.AuthorID, p.Version}

	err = tx.QueryRowContext(ctx, query, args...).Scan(&p.UpdatedAt, &p.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrEditConflict
		default:
			return err
		}
	}

	if replaceTags {
		if err := setTags(ctx, tx, p.ID, tagIDs(p.Tags)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (m *BlogModel) setReviewer(ctx context.Context, postID, authorID, reviewerID int) error {
	query := `
		UPDATE posts
		SET reviewer_id = $3, is_reviewed = false, updated_at = NOW()
		WHERE id = $1 AND author_id = $2`

	res, err := m.db.ExecContext(ctx, query, postID, authorID, reviewerID)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "posts_reviewer_id_fkey"):
			return common.ValidationError{Errors: map[string]string{"reviewer_id": "does not exist"}}
		default:
			return err
		}
	}

	return expectOneRow(res)
}

// submitReview replaces the review comments and marks the post reviewed, provided reviewerID is
// still the designated reviewer when the statement runs.
func (m *BlogModel) submitReview(ctx context.Context, postID, reviewerID int, comments []ReviewCommentInput) ([]ReviewComment, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE posts
		SET is_reviewed = true, updated_at = NOW()
		WHERE id = $1 AND reviewer_id = $2`, postID, reviewerID)
	if err != nil {
		return nil, err
	}
	if err := expectOneRow(res); err != nil {
		if errors.Is(err, common.ErrRecordNotFound) {
			return nil, common.ErrForbidden
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM review_comments WHERE post_id = $1`, postID); err != nil {
		return nil, err
	}

	saved := make([]ReviewComment, len(comments))
	for i, c := range comments {
		saved[i] = ReviewComment{ReviewerID: reviewerID, Text: c.Text, Section: c.Section}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO review_comments (post_id, reviewer_id, text, section)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`, postID, reviewerID, c.Text, c.Section).Scan(&saved[i].ID, &saved[i].CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return saved, nil
}

func (m *BlogModel) delete(ctx context.Context, postID, authorID int) error {
	query := `
		DELETE FROM posts
		WHERE id = $1 AND author_id = $2`

	res, err := m.db.ExecContext(ctx, query, postID, authorID)
	if err != nil {
		return err
	}

	return expectOneRow(res)
}

func (m *BlogModel) list(ctx context.Context, limit, offset int) ([]Post, error) {
	query := `SELECT ` + postColumns + postFrom + `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $1 OFFSET $2`

	rows, err := m.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}

	return scanPosts(rows)
}

// postQuery is a resolved search: names have already been turned into ids.
type postQuery struct {
	title    string
	authorID int
	tagID    int
	status   Status
}

func (m *BlogModel) search(ctx context.Context, q postQuery) ([]Post, error) {
	var (
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.title != "" {
		where = append(where, "p.title ILIKE "+arg("%"+escapeLike(q.title)+"%"))
	}
	if q.authorID != 0 {
		where = append(where, "p.author_id = "+arg(q.authorID))
	}
	if q.tagID != 0 {
		where = append(where, "EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = "+arg(q.tagID)+")")
	}
	if q.status != "" {
		where = append(where, "p.status = "+arg(q.status))
	}

	query := `SELECT ` + postColumns + postFrom
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return scanPosts(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (m *BlogModel) userIDByUsername(ctx context.Context, username string) (int, error) {
	var id int
	err := m.db.QueryRowContext(ctx, `SELECT id FROM users WHERE username = $1`, username).Scan(&id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, common.ErrRecordNotFound
		default:
			return 0, err
		}
	}

	return id, nil
}

func (m *BlogModel) getTags(ctx context.Context) ([]Tag, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tags, nil
}

// insertTags creates the named tags, skipping names that already exist, and returns how many
// were created.
func (m *BlogModel) insertTags(ctx context.Context, names []string) (int, error) {
	query := `
		INSERT INTO tags (name)
		SELECT DISTINCT unnest($1::text[])
		ON CONFLICT (name) DO NOTHING`

	res, err := m.db.ExecContext(ctx, query, pq.Array(names))
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(n), nil
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
