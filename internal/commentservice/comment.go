package commentservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/sushihentaime/dreamblog/internal/common"
)

// NewCommentService builds the moderation engine. The blacklist is fixed for the life of the
// service.
func NewCommentService(db *sql.DB, blacklist *Blacklist, notifier *common.Notifier, logger *slog.Logger) *CommentService {
	return &CommentService{
		m:         NewCommentModel(db),
		blacklist: blacklist,
		notifier:  notifier,
		logger:    logger,
	}
}

// checkContent validates a comment or reply body and runs it through the blacklist.
func (s *CommentService) checkContent(content string, ids map[string]int) error {
	v := common.NewValidator()
	validateContent(v, content)
	for name, id := range ids {
		validateInt(v, id, name)
	}
	if !v.Valid() {
		return v.ValidationError()
	}

	if s.blacklist.Contains(content) {
		return common.ErrContentRejected
	}

	return nil
}

func validateIDs(ids map[string]int) error {
	v := common.NewValidator()
	for name, id := range ids {
		validateInt(v, id, name)
	}
	if !v.Valid() {
		return v.ValidationError()
	}
	return nil
}

// AddComment appends a comment to a post that accepts comments and notifies the post author.
func (s *CommentService) AddComment(ctx context.Context, actorID, postID int, content string) (*Comment, error) {
	if err := s.checkContent(content, map[string]int{"user_id": actorID, "post_id": postID}); err != nil {
		return nil, err
	}

	c, err := s.m.insertComment(ctx, postID, actorID, content)
	if err != nil {
		return nil, err
	}

	p, err := s.m.getPost(ctx, postID)
	if err != nil {
		s.logger.Error("could not load post for comment notification", slog.Int("post_id", postID), slog.String("error", err.Error()))
		return c, nil
	}

	s.notifier.Notify(ctx, actorID, p.AuthorID, "New public comment on your blog post",
		fmt.Sprintf("A new public comment has been added to your blog post “%s”.", p.Title))

	return c, nil
}

// AddReply appends a reply to a comment and notifies the comment author.
func (s *CommentService) AddReply(ctx context.Context, actorID, postID, commentID int, content string) (*Reply, error) {
	if err := s.checkContent(content, map[string]int{"user_id": actorID, "post_id": postID, "comment_id": commentID}); err != nil {
		return nil, err
	}

	p, err := s.m.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	c, err := s.m.getComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}

	r, err := s.m.insertReply(ctx, postID, commentID, actorID, content)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, actorID, c.AuthorID, "New reply to your public comment",
		fmt.Sprintf("Someone replied to your public comment on the blog post “%s”.", p.Title))

	return r, nil
}

// EditComment replaces the content of a comment. Only its author may edit it.
func (s *CommentService) EditComment(ctx context.Context, actorID, postID, commentID int, content string) (*Comment, error) {
	if err := s.checkContent(content, map[string]int{"user_id": actorID, "post_id": postID, "comment_id": commentID}); err != nil {
		return nil, err
	}

	c, err := s.m.getComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}

	if c.AuthorID != actorID {
		return nil, common.ErrForbidden
	}

	c.Content = content
	if err := s.m.updateComment(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// DeleteComment removes a comment and its replies. Its author and admins may delete it.
func (s *CommentService) DeleteComment(ctx context.Context, actor common.Actor, postID, commentID int) error {
	if err := validateIDs(map[string]int{"user_id": actor.ID, "post_id": postID, "comment_id": commentID}); err != nil {
		return err
	}

	c, err := s.m.getComment(ctx, postID, commentID)
	if err != nil {
		return err
	}

	if c.AuthorID != actor.ID && !actor.HasRole(common.RoleAdmin) {
		return common.ErrForbidden
	}

	return s.m.deleteComment(ctx, postID, commentID)
}

// ToggleLike likes the comment for actorID, or removes the like if there already is one. It
// returns the resulting like count.
func (s *CommentService) ToggleLike(ctx context.Context, actorID, postID, commentID int) (int, error) {
	if err := validateIDs(map[string]int{"user_id": actorID, "post_id": postID, "comment_id": commentID}); err != nil {
		return 0, err
	}

	return s.m.toggleLike(ctx, commentLikes, postID, commentID, actorID)
}

// Pin toggles whether a comment is pinned. Only the post author may pin, whoever wrote the
// comment.
func (s *CommentService) Pin(ctx context.Context, actorID, postID, commentID int) (bool, error) {
	if err := validateIDs(map[string]int{"user_id": actorID, "post_id": postID, "comment_id": commentID}); err != nil {
		return false, err
	}

	p, err := s.m.getPost(ctx, postID)
	if err != nil {
		return false, err
	}

	if p.AuthorID != actorID {
		return false, common.ErrForbidden
	}

	return s.m.togglePin(ctx, postID, commentID)
}

// ToggleCommentsEnabled flips whether a post accepts new comments. Only the post author may do so.
func (s *CommentService) ToggleCommentsEnabled(ctx context.Context, actorID, postID int) (bool, error) {
	if err := validateIDs(map[string]int{"user_id": actorID, "post_id": postID}); err != nil {
		return false, err
	}

	p, err := s.m.getPost(ctx, postID)
	if err != nil {
		return false, err
	}

	if p.AuthorID != actorID {
		return false, common.ErrForbidden
	}

	return s.m.toggleCommentsEnabled(ctx, postID, actorID)
}

// ListComments returns one page of a post's comments with their replies. Pages start at 1.
func (s *CommentService) ListComments(ctx context.Context, postID, page, pageSize int) (*Page, error) {
	if err := validateIDs(map[string]int{"post_id": postID}); err != nil {
		return nil, err
	}

	page, pageSize = normalizePage(page, pageSize)

	if _, err := s.m.getPost(ctx, postID); err != nil {
		return nil, err
	}

	total, err := s.m.countComments(ctx, postID)
	if err != nil {
		return nil, err
	}

	comments, err := s.m.listComments(ctx, postID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	if len(comments) > 0 {
		ids := make([]int, len(comments))
		index := make(map[int]int, len(comments))
		for i, c := range comments {
			ids[i] = c.ID
			index[c.ID] = i
		}

		replies, err := s.m.listReplies(ctx, ids)
		if err != nil {
			return nil, err
		}

		for _, r := range replies {
			i := index[r.CommentID]
			comments[i].Replies = append(comments[i].Replies, r)
		}
	}

	return &Page{
		Comments:      comments,
		CurrentPage:   page,
		PageSize:      pageSize,
		TotalPages:    totalPages(total, pageSize),
		TotalComments: total,
	}, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func totalPages(total, pageSize int) int {
	return (total + pageSize - 1) / pageSize
}
