package blogservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/sushihentaime/dreamblog/internal/common"
)

type Status string

const (
	StatusDraft     Status = "Draft"
	StatusInReview  Status = "InReview"
	StatusPublished Status = "Published"
	StatusArchived  Status = "Archived"
)

// wordsPerMinute is the reading speed read_time is derived from.
const wordsPerMinute = 200

func (s Status) IsValid() bool {
	return common.PermittedValue(s, StatusDraft, StatusInReview, StatusPublished, StatusArchived)
}

type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Post struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	// Content is stored in Markdown format.
	Content               string    `json:"content"`
	HTML                  string    `json:"html,omitempty"`
	AuthorID              int       `json:"author_id"`
	Author                string    `json:"author"`
	ReadTime              int       `json:"read_time"`
	Images                []string  `json:"images"`
	Tags                  []Tag     `json:"tags"`
	Status                Status    `json:"status"`
	Review                Review    `json:"review"`
	PublicCommentsEnabled bool      `json:"public_comments_enabled"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
	Version               int       `json:"version"`
}

// Review is the editorial bookkeeping of a post. It is independent of Status.
type Review struct {
	ReviewerID *int            `json:"reviewer_id"`
	Comments   []ReviewComment `json:"comments"`
	IsReviewed bool            `json:"is_reviewed"`
}

type ReviewComment struct {
	ID         int       `json:"id"`
	ReviewerID int       `json:"reviewer_id"`
	Text       string    `json:"text"`
	Section    string    `json:"section"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreatePostRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []int    `json:"tags"`
	Images  []string `json:"images"`
}

// PostPatch holds the author-editable fields of a post. Nil fields are left untouched.
type PostPatch struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	Tags    *[]int    `json:"tags"`
	Images  *[]string `json:"images"`
	Status  *Status   `json:"status"`
}

type ReviewCommentInput struct {
	Text    string `json:"text"`
	Section string `json:"section"`
}

// SearchFilter composes with logical AND. Empty fields do not filter.
type SearchFilter struct {
	Title  string
	Author string
	Tag    string
	Status string
}

type BlogModel struct {
	db *sql.DB
}

type BlogService struct {
	m        *BlogModel
	c        *common.Cache
	notifier *common.Notifier
	logger   *slog.Logger
}
