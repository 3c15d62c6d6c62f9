package blogservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/sushihentaime/dreamblog/internal/common"
)

// ListTags returns every tag ordered by name. Tags never change once created, so the list is
// cached until SeedTags adds new ones.
func (s *BlogService) ListTags(ctx context.Context) ([]Tag, error) {
	if cached, ok := s.c.Get(common.CacheKeyTags()); ok {
		return cached.([]Tag), nil
	}

	tags, err := s.m.getTags(ctx)
	if err != nil {
		return nil, err
	}

	s.c.Set(common.CacheKeyTags(), tags)
	for _, t := range tags {
		s.c.Set(common.CacheKeyTagByName(t.Name), t)
	}

	return tags, nil
}

// SeedTags creates the named tags, skipping blank names and names that already exist. It
// returns the number of tags created.
func (s *BlogService) SeedTags(ctx context.Context, names []string) (int, error) {
	clean := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if len(name) > 50 {
			return 0, common.ValidationError{Errors: map[string]string{"tags": fmt.Sprintf("%q must not be more than 50 bytes long", name)}}
		}
		clean = append(clean, name)
	}

	if len(clean) == 0 {
		return 0, nil
	}

	n, err := s.m.insertTags(ctx, clean)
	if err != nil {
		return 0, err
	}

	s.c.Delete(common.CacheKeyTags())

	return n, nil
}

// refreshTags drops the cached list and reads it again. Tags may be seeded by another process,
// so a lookup miss against the cache is confirmed against the store before failing.
func (s *BlogService) refreshTags(ctx context.Context) ([]Tag, error) {
	s.c.Delete(common.CacheKeyTags())
	return s.ListTags(ctx)
}

func findTag(tags []Tag, name string) (*Tag, bool) {
	for _, t := range tags {
		if t.Name == name {
			return &t, true
		}
	}
	return nil, false
}

func (s *BlogService) tagByName(ctx context.Context, name string) (*Tag, error) {
	if cached, ok := s.c.Get(common.CacheKeyTagByName(name)); ok {
		t := cached.(Tag)
		return &t, nil
	}

	tags, err := s.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	if t, ok := findTag(tags, name); ok {
		return t, nil
	}

	tags, err = s.refreshTags(ctx)
	if err != nil {
		return nil, err
	}

	if t, ok := findTag(tags, name); ok {
		return t, nil
	}

	return nil, fmt.Errorf("%w: tag %q", common.ErrRecordNotFound, name)
}

func nameTags(known, tags []Tag) bool {
	byID := make(map[int]string, len(known))
	for _, t := range known {
		byID[t.ID] = t.Name
	}

	resolved := 0
	for i := range tags {
		if name, ok := byID[tags[i].ID]; ok {
			tags[i].Name = name
			resolved++
		}
	}

	return resolved == len(tags)
}

// resolveTags fills in the names of tags and fails with common.ErrInvalidTags when any id does
// not refer to an existing tag.
func (s *BlogService) resolveTags(ctx context.Context, tags []Tag) error {
	if len(tags) == 0 {
		return nil
	}

	known, err := s.ListTags(ctx)
	if err != nil {
		return err
	}

	if nameTags(known, tags) {
		return nil
	}

	known, err = s.refreshTags(ctx)
	if err != nil {
		return err
	}

	if !nameTags(known, tags) {
		return common.ErrInvalidTags
	}

	return nil
}
