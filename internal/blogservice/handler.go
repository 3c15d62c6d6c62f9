package blogservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/sushihentaime/dreamblog/internal/common"
)

func NewBlogService(db *sql.DB, cache *common.Cache, notifier *common.Notifier, logger *slog.Logger) *BlogService {
	return &BlogService{
		m:        newBlogModel(db),
		c:        cache,
		notifier: notifier,
		logger:   logger,
	}
}

// CreatePost stores a new draft owned by actorID. Every tag id must refer to an existing tag.
func (s *BlogService) CreatePost(ctx context.Context, actorID int, req CreatePostRequest) (*Post, error) {
	p := &Post{
		Title:    req.Title,
		Content:  sanitizeMarkdown(req.Content),
		AuthorID: actorID,
		Images:   req.Images,
		Status:   StatusDraft,
		Tags:     make([]Tag, len(req.Tags)),
	}
	for i, id := range req.Tags {
		p.Tags[i] = Tag{ID: id}
	}
	if p.Images == nil {
		p.Images = []string{}
	}

	v := common.NewValidator()
	validateInt(v, actorID, "author_id")
	validatePost(v, p)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if err := s.resolveTags(ctx, p.Tags); err != nil {
		return nil, err
	}

	p.ReadTime = readTime(p.Content)

	if err := s.m.insert(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// GetPost returns the post with its review comments and rendered HTML.
func (s *BlogService) GetPost(ctx context.Context, id int) (*Post, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	p, err := s.m.get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Review.Comments, err = s.m.getReviewComments(ctx, id)
	if err != nil {
		return nil, err
	}

	p.HTML, err = renderHTML(p.Content)
	if err != nil {
		return nil, fmt.Errorf("could not render post %d: %w", id, err)
	}

	return p, nil
}

// ListPosts returns the newest posts first. Default limit is 10 and default offset is 0.
func (s *BlogService) ListPosts(ctx context.Context, limit, offset int) ([]Post, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	if offset < 0 {
		offset = 0
	}

	return s.m.list(ctx, limit, offset)
}

// UpdatePost applies a partial update. Only the author may update a post.
func (s *BlogService) UpdatePost(ctx context.Context, actorID, postID int, patch PostPatch) (*Post, error) {
	p, err := s.authorPost(ctx, actorID, postID)
	if err != nil {
		return nil, err
	}

	patch.apply(p)

	v := common.NewValidator()
	validatePost(v, p)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if patch.Tags != nil {
		if err := s.resolveTags(ctx, p.Tags); err != nil {
			return nil, err
		}
	}

	p.ReadTime = readTime(p.Content)

	if err := s.m.update(ctx, p, patch.Tags != nil); err != nil {
		return nil, err
	}

	return p, nil
}

// apply copies every non-nil field of the patch onto p. Tags are replaced by bare ids and
// resolved by the caller.
func (patch PostPatch) apply(p *Post) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = sanitizeMarkdown(*patch.Content)
	}
	if patch.Images != nil {
		p.Images = *patch.Images
		if p.Images == nil {
			p.Images = []string{}
		}
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Tags != nil {
		p.Tags = make([]Tag, len(*patch.Tags))
		for i, id := range *patch.Tags {
			p.Tags[i] = Tag{ID: id}
		}
	}
}

// RequestReview designates reviewerID as the reviewer and resets the reviewed flag. Status is
// left untouched.
func (s *BlogService) RequestReview(ctx context.Context, actorID, postID, reviewerID int) error {
	v := common.NewValidator()
	validateInt(v, reviewerID, "reviewer_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	p, err := s.authorPost(ctx, actorID, postID)
	if err != nil {
		return err
	}

	if err := s.m.setReviewer(ctx, p.ID, actorID, reviewerID); err != nil {
		return err
	}

	s.notifier.Notify(ctx, actorID, reviewerID, "Review requested", fmt.Sprintf("You have been asked to review the blog post “%s”.", p.Title))

	return nil
}

// SubmitReview replaces the review comments of a post. Only the designated reviewer may submit.
func (s *BlogService) SubmitReview(ctx context.Context, actorID, postID int, comments []ReviewCommentInput) ([]ReviewComment, error) {
	v := common.NewValidator()
	validateInt(v, actorID, "reviewer_id")
	validateInt(v, postID, "id")
	validateReviewComments(v, comments)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	p, err := s.m.get(ctx, postID)
	if err != nil {
		return nil, err
	}

	if p.Review.ReviewerID == nil || *p.Review.ReviewerID != actorID {
		return nil, common.ErrForbidden
	}

	saved, err := s.m.submitReview(ctx, postID, actorID, comments)
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, actorID, p.AuthorID, "Your blog post has been reviewed", fmt.Sprintf("Your blog post “%s” has been reviewed.", p.Title))

	return saved, nil
}

// DeletePost removes a post together with its comments. Only the author may delete it.
func (s *BlogService) DeletePost(ctx context.Context, actorID, postID int) error {
	if _, err := s.authorPost(ctx, actorID, postID); err != nil {
		return err
	}

	return s.m.delete(ctx, postID, actorID)
}

// SearchPosts filters posts. Author and tag are looked up by name first; an unknown name fails
// with common.ErrRecordNotFound and an unknown status with common.ErrInvalidFilter.
func (s *BlogService) SearchPosts(ctx context.Context, f SearchFilter) ([]Post, error) {
	q := postQuery{title: f.Title}

	if f.Status != "" {
		q.status = Status(f.Status)
		if !q.status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", common.ErrInvalidFilter, f.Status)
		}
	}

	if f.Author != "" {
		id, err := s.m.userIDByUsername(ctx, f.Author)
		if err != nil {
			return nil, err
		}
		q.authorID = id
	}

	if f.Tag != "" {
		tag, err := s.tagByName(ctx, f.Tag)
		if err != nil {
			return nil, err
		}
		q.tagID = tag.ID
	}

	return s.m.search(ctx, q)
}

// authorPost loads a post and checks that actorID wrote it.
func (s *BlogService) authorPost(ctx context.Context, actorID, postID int) (*Post, error) {
	v := common.NewValidator()
	validateInt(v, actorID, "author_id")
	validateInt(v, postID, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	p, err := s.m.get(ctx, postID)
	if err != nil {
		return nil, err
	}

	if p.AuthorID != actorID {
		return nil, common.ErrForbidden
	}

	return p, nil
}

