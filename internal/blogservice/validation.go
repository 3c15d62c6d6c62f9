package blogservice

import (
	"net/url"

	"github.com/sushihentaime/dreamblog/internal/common"
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 3, 150), "title", "must be between 3 and 150 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
	v.Check(len(content) <= 100_000, "content", "must not be more than 100000 bytes long")
}

func validateTags(v *common.Validator, tags []int) {
	v.Check(len(tags) <= 10, "tags", "must not contain more than 10 tags")
	v.Check(common.Unique(tags), "tags", "must not contain duplicate values")
	for _, id := range tags {
		v.Check(id > 0, "tags", "must only contain positive ids")
	}
}

func validateImages(v *common.Validator, images []string) {
	v.Check(len(images) <= 20, "images", "must not contain more than 20 images")
	for _, img := range images {
		u, err := url.Parse(img)
		v.Check(err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "", "images", "must only contain http(s) urls")
	}
}

func validateStatus(v *common.Validator, status Status) {
	v.Check(status.IsValid(), "status", "must be one of Draft, InReview, Published, Archived")
}

func validateReviewComments(v *common.Validator, comments []ReviewCommentInput) {
	v.Check(len(comments) <= 100, "comments", "must not contain more than 100 comments")
	for _, c := range comments {
		v.Check(c.Text != "", "comments", "text must be provided")
		v.Check(c.Section != "", "comments", "section must be provided")
	}
}

func validatePost(v *common.Validator, p *Post) {
	validateTitle(v, p.Title)
	validateContent(v, p.Content)
	validateTags(v, tagIDs(p.Tags))
	validateImages(v, p.Images)
	validateStatus(v, p.Status)
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
