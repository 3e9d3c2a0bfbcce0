package service

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Loquest/Mentl2/internal"
	"github.com/Loquest/Mentl2/internal/storage"
)

const DefaultContentLimit = 50

//go:embed content_library.yaml
var defaultLibrary []byte

// libraryEpoch dates seeded items that carry no created_at, one second apart in file order.
var libraryEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type ContentQuery struct {
	Category    string `form:"category"`
	ContentType string `form:"content_type" validate:"omitempty,oneof=article video audio exercise"`
	Search      string `form:"search" validate:"max=200"`
	Limit       int    `form:"limit" validate:"gte=0,lte=500"`
}

type ContentService struct {
	content storage.ContentRepository
	logger  internal.Logger
}

func NewContentService(content storage.ContentRepository, logger internal.Logger) *ContentService {
	return &ContentService{content: content, logger: logger}
}

func (s *ContentService) List(ctx context.Context, q ContentQuery) ([]internal.Content, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}
	search := strings.TrimSpace(q.Search)
	if search != "" {
		if _, err := regexp.Compile(search); err != nil {
			return nil, invalid("search is not a valid pattern")
		}
	}
	limit := q.Limit
	if limit == 0 {
		limit = DefaultContentLimit
	}
	return s.content.ListContent(ctx, storage.ContentFilter{
		Category:    strings.TrimSpace(q.Category),
		ContentType: q.ContentType,
		Search:      search,
		Limit:       limit,
	})
}

func (s *ContentService) Get(ctx context.Context, id string) (*internal.Content, error) {
	return s.content.GetContent(ctx, id)
}

// Seed upserts every item, so reseeding an existing library only refreshes it.
func (s *ContentService) Seed(ctx context.Context, items []internal.Content) error {
	for i := range items {
		if err := s.content.UpsertContent(ctx, &items[i]); err != nil {
			return fmt.Errorf("seed content %s: %w", items[i].ID, err)
		}
	}
	s.logger.Infow("content library seeded", "items", len(items))
	return nil
}

// LoadLibrary reads a YAML list of items. An empty path yields the bundled library.
func LoadLibrary(path string) ([]internal.Content, error) {
	data := defaultLibrary
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("content: read library: %w", err)
		}
		data = b
	}
	return parseLibrary(data)
}

func parseLibrary(data []byte) ([]internal.Content, error) {
	var items []internal.Content
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("content: parse library: %w", err)
	}
	seen := make(map[string]bool, len(items))
	for i := range items {
		c := &items[i]
		if c.ID == "" || c.Title == "" {
			return nil, fmt.Errorf("content: item %d needs an id and a title", i)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("content: duplicate id %q", c.ID)
		}
		seen[c.ID] = true
		if c.Tags == nil {
			c.Tags = []string{}
		}
		for j, tag := range c.Tags {
			c.Tags[j] = strings.ToLower(strings.TrimSpace(tag))
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = libraryEpoch.Add(time.Duration(i) * time.Second)
		}
	}
	return items, nil
}
