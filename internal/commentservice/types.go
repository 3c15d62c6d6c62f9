package commentservice

import (
	"database/sql"
	"log/slog"
	"math"
	"time"

	"github.com/sushihentaime/dreamblog/internal/common"
)

const (
	maxContentLength = 1000

	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps the row offset within 32 bits.
	MaxPage = math.MaxInt32/MaxPageSize + 1
)

type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	AuthorID  int       `json:"author_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Likes     int       `json:"likes"`
	IsPinned  bool      `json:"is_pinned"`
	IsEdited  bool      `json:"is_edited"`
	Replies   []Reply   `json:"replies"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Reply struct {
	ID        int       `json:"id"`
	CommentID int       `json:"comment_id"`
	AuthorID  int       `json:"author_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Likes     int       `json:"likes"`
	IsEdited  bool      `json:"is_edited"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Page is one page of a post's comments, pinned comments first.
type Page struct {
	Comments      []Comment `json:"comments"`
	CurrentPage   int       `json:"current_page"`
	PageSize      int       `json:"page_size"`
	TotalPages    int       `json:"total_pages"`
	TotalComments int       `json:"total_comments"`
}

// postState is what moderation needs to know about the parent post.
type postState struct {
	ID              int
	AuthorID        int
	Title           string
	CommentsEnabled bool
}

type CommentModel struct {
	db *sql.DB
}

type CommentService struct {
	m         *CommentModel
	blacklist *Blacklist
	notifier  *common.Notifier
	logger    *slog.Logger
}
