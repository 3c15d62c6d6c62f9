package blogservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/dreamblog/internal/common"
)

func TestPostPatchApply(t *testing.T) {
	newPost := func() *Post {
		return &Post{
			Title:   "Original title",
			Content: "original content",
			Images:  []string{"https://example.com/a.png"},
			Tags:    []Tag{{ID: 1, Name: "go"}},
			Status:  StatusDraft,
		}
	}

	title := "New title"
	content := "new <script>x</script>content"
	published := StatusPublished
	tags := []int{3, 2}
	var noImages []string

	testCases := []struct {
		name  string
		patch PostPatch
		check func(t *testing.T, p *Post)
	}{
		{
			name:  "empty patch",
			patch: PostPatch{},
			check: func(t *testing.T, p *Post) {
				assert.Equal(t, newPost(), p)
			},
		},
		{
			name:  "title only",
			patch: PostPatch{Title: &title},
			check: func(t *testing.T, p *Post) {
				assert.Equal(t, title, p.Title)
				assert.Equal(t, "original content", p.Content)
				assert.Equal(t, []Tag{{ID: 1, Name: "go"}}, p.Tags)
			},
		},
		{
			name:  "content is sanitised",
			patch: PostPatch{Content: &content},
			check: func(t *testing.T, p *Post) {
				assert.Equal(t, "new content", p.Content)
			},
		},
		{
			name:  "status and tags",
			patch: PostPatch{Status: &published, Tags: &tags},
			check: func(t *testing.T, p *Post) {
				assert.Equal(t, StatusPublished, p.Status)
				assert.Equal(t, []Tag{{ID: 3}, {ID: 2}}, p.Tags)
				assert.Equal(t, "Original title", p.Title)
			},
		},
		{
			name:  "nil images clear the list",
			patch: PostPatch{Images: &noImages},
			check: func(t *testing.T, p *Post) {
				assert.NotNil(t, p.Images)
				assert.Empty(t, p.Images)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := newPost()
			tc.patch.apply(p)
			tc.check(t, p)
		})
	}
}

func TestValidatePost(t *testing.T) {
	valid := func() *Post {
		return &Post{
			Title:   "A valid title",
			Content: "Some content",
			Images:  []string{"https://example.com/a.png"},
			Tags:    []Tag{{ID: 1}, {ID: 2}},
			Status:  StatusDraft,
		}
	}

	testCases := []struct {
		name   string
		modify func(p *Post)
		field  string
	}{
		{name: "valid", modify: func(p *Post) {}},
		{name: "short title", modify: func(p *Post) { p.Title = "ab" }, field: "title"},
		{name: "empty content", modify: func(p *Post) { p.Content = "" }, field: "content"},
		{name: "duplicate tags", modify: func(p *Post) { p.Tags = []Tag{{ID: 1}, {ID: 1}} }, field: "tags"},
		{name: "non-positive tag", modify: func(p *Post) { p.Tags = []Tag{{ID: 0}} }, field: "tags"},
		{name: "bad image url", modify: func(p *Post) { p.Images = []string{"ftp://example.com/a.png"} }, field: "images"},
		{name: "unknown status", modify: func(p *Post) { p.Status = "Deleted" }, field: "status"},
		{name: "legacy status spelling", modify: func(p *Post) { p.Status = "In Review" }, field: "status"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid()
			tc.modify(p)

			v := common.NewValidator()
			validatePost(v, p)

			if tc.field == "" {
				assert.True(t, v.Valid(), v.Errors)
				return
			}
			assert.Contains(t, v.Errors, tc.field)
		})
	}
}
