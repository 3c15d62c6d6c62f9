package commentservice

import (
	"context"

	"github.com/sushihentaime/dreamblog/internal/common"
)

// EditReply replaces the content of a reply. Only its author may edit it.
func (s *CommentService) EditReply(ctx context.Context, actorID, postID, commentID, replyID int, content string) (*Reply, error) {
	if err := s.checkContent(content, map[string]int{"user_id": actorID, "post_id": postID, "comment_id": commentID, "reply_id": replyID}); err != nil {
		return nil, err
	}

	r, err := s.m.getReply(ctx, postID, commentID, replyID)
	if err != nil {
		return nil, err
	}

	if r.AuthorID != actorID {
		return nil, common.ErrForbidden
	}

	r.Content = content
	if err := s.m.updateReply(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

// DeleteReply removes a reply. Its author and admins may delete it.
func (s *CommentService) DeleteReply(ctx context.Context, actor common.Actor, postID, commentID, replyID int) error {
	if err := validateIDs(map[string]int{"user_id": actor.ID, "post_id": postID, "comment_id": commentID, "reply_id": replyID}); err != nil {
		return err
	}

	r, err := s.m.getReply(ctx, postID, commentID, replyID)
	if err != nil {
		return err
	}

	if r.AuthorID != actor.ID && !actor.HasRole(common.RoleAdmin) {
		return common.ErrForbidden
	}

	return s.m.deleteReply(ctx, commentID, replyID)
}

// ToggleReplyLike is ToggleLike for replies.
func (s *CommentService) ToggleReplyLike(ctx context.Context, actorID, postID, commentID, replyID int) (int, error) {
	if err := validateIDs(map[string]int{"user_id": actorID, "post_id": postID, "comment_id": commentID, "reply_id": replyID}); err != nil {
		return 0, err
	}

	if _, err := s.m.getReply(ctx, postID, commentID, replyID); err != nil {
		return 0, err
	}

	return s.m.toggleLike(ctx, replyLikes, postID, replyID, actorID)
}
