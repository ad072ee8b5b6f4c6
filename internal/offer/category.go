package offer

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// PathStep is the width of one level in a category path.
const PathStep = 4

// Category is a node of the catalogue tree. Path is a materialized path made
// of fixed-width steps, so ancestry is a prefix test.
type Category struct {
	ID   string
	Name string
	Path string
}

func (c Category) Depth() int {
	return len(c.Path) / PathStep
}

// IsDescendantOf reports whether c is anc or lies below it.
func (c Category) IsDescendantOf(anc Category) bool {
	if anc.Path == "" || c.Path == "" {
		return false
	}
	return strings.HasPrefix(c.Path, anc.Path)
}

// ValidPath reports whether path is a well formed materialized path.
func ValidPath(path string) bool {
	return path != "" && len(path)%PathStep == 0
}

// CategoryTree assigns materialized paths to categories as they are added.
type CategoryTree struct {
	byID     map[string]Category
	children map[string]int
	order    []string
}

func NewCategoryTree() *CategoryTree {
	return &CategoryTree{
		byID:     make(map[string]Category),
		children: make(map[string]int),
	}
}

// Add inserts a category under parentID. An empty parentID adds a root.
func (t *CategoryTree) Add(id, name, parentID string) (Category, error) {
	if id == "" {
		return Category{}, &ConfigError{Component: "category", Field: "id", Reason: "empty"}
	}
	if _, ok := t.byID[id]; ok {
		return Category{}, &ConfigError{Component: "category", Field: "id", Reason: "duplicate " + id}
	}
	prefix := ""
	if parentID != "" {
		parent, ok := t.byID[parentID]
		if !ok {
			return Category{}, &ConfigError{Component: "category", Field: "parent", Reason: "unknown parent " + parentID}
		}
		prefix = parent.Path
	}
	if t.children[parentID] >= maxSiblings {
		return Category{}, &ConfigError{Component: "category " + id, Field: "parent", Reason: "too many children under " + strconv.Quote(parentID)}
	}
	t.children[parentID]++
	c := Category{ID: id, Name: name, Path: prefix + pathStep(t.children[parentID])}
	t.byID[id] = c
	t.order = append(t.order, id)
	return c, nil
}

// Insert adds a category whose path is already known, e.g. loaded from storage.
func (t *CategoryTree) Insert(c Category) error {
	if !ValidPath(c.Path) {
		return errors.Wrapf(&ConfigError{Component: "category", Field: "path", Reason: "malformed path " + strconv.Quote(c.Path)}, "category %s", c.ID)
	}
	if _, ok := t.byID[c.ID]; !ok {
		t.order = append(t.order, c.ID)
	}
	t.byID[c.ID] = c
	return nil
}

func (t *CategoryTree) Get(id string) (Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Descendants returns the category and everything below it, in insertion order.
func (t *CategoryTree) Descendants(id string) []Category {
	root, ok := t.byID[id]
	if !ok {
		return nil
	}
	var out []Category
	for _, cid := range t.order {
		if c := t.byID[cid]; c.IsDescendantOf(root) {
			out = append(out, c)
		}
	}
	return out
}

// maxSiblings is the largest child number one path step can hold.
const maxSiblings = 36*36*36*36 - 1

func pathStep(n int) string {
	s := strings.ToUpper(strconv.FormatInt(int64(n), 36))
	if len(s) < PathStep {
		s = strings.Repeat("0", PathStep-len(s)) + s
	}
	return s
}
