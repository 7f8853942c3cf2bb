// Package catalog provides the static suggested-question sidebar:
// ordered categories of ready-made questions users can tap instead of
// typing.
package catalog

import (
	"encoding/json"
	"fmt"
	"io/fs"

	bertbot "github.com/haneul-dev/bertbot"
)

const catalogAsset = "assets/catalog.json"

type Category struct {
	Name      string   `json:"category"`
	Questions []string `json:"questions"`
}

// Catalog is loaded once at startup and read-only afterwards.
type Catalog struct {
	categories []Category
}

func Load() (*Catalog, error) {
	return LoadFS(bertbot.AssetsFS, catalogAsset)
}

func LoadFS(fsys fs.FS, path string) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var categories []Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &Catalog{categories: categories}, nil
}

// Categories returns the category list in asset order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Category returns the category at the given index.
func (c *Catalog) Category(i int) (Category, bool) {
	if i < 0 || i >= len(c.categories) {
		return Category{}, false
	}
	return c.categories[i], true
}

// Question resolves a (category, question) index pair.
func (c *Catalog) Question(catIdx, qIdx int) (string, bool) {
	cat, ok := c.Category(catIdx)
	if !ok || qIdx < 0 || qIdx >= len(cat.Questions) {
		return "", false
	}
	return cat.Questions[qIdx], true
}
