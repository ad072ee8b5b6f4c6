package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-faster/errors"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

type RangeRepo struct {
	db *sql.DB
}

func NewRangeRepo(db *sql.DB) *RangeRepo {
	return &RangeRepo{db: db}
}

// ListCategories returns every category ordered by path, so parents come
// before their children.
func (r *RangeRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	query := `SELECT id, name, path FROM categories ORDER BY path`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Path); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListRanges loads every range together with its product, category and class
// memberships.
func (r *RangeRepo) ListRanges(ctx context.Context) ([]models.Range, error) {
	query := `SELECT id, name, includes_all_products, predicate FROM ranges ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list ranges")
	}

	var (
		ranges []models.Range
		index  = make(map[string]int)
	)
	for rows.Next() {
		var (
			rg        models.Range
			predicate []byte
		)
		if err := rows.Scan(&rg.ID, &rg.Name, &rg.IncludesAllProducts, &predicate); err != nil {
			rows.Close()
			return nil, err
		}
		if len(predicate) > 0 {
			rg.Predicate = json.RawMessage(predicate)
		}
		index[rg.ID] = len(ranges)
		ranges = append(ranges, rg)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := r.loadProducts(ctx, ranges, index); err != nil {
		return nil, err
	}
	if err := r.loadCategories(ctx, ranges, index); err != nil {
		return nil, err
	}
	if err := r.loadClasses(ctx, ranges, index); err != nil {
		return nil, err
	}
	return ranges, nil
}

func (r *RangeRepo) loadProducts(ctx context.Context, ranges []models.Range, index map[string]int) error {
	query := `SELECT range_id, product_id, excluded FROM range_products ORDER BY range_id, product_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, "list range products")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rangeID, productID string
			excluded           bool
		)
		if err := rows.Scan(&rangeID, &productID, &excluded); err != nil {
			return err
		}
		i, ok := index[rangeID]
		if !ok {
			continue
		}
		if excluded {
			ranges[i].ExcludedProducts = append(ranges[i].ExcludedProducts, productID)
		} else {
			ranges[i].IncludedProducts = append(ranges[i].IncludedProducts, productID)
		}
	}
	return rows.Err()
}

func (r *RangeRepo) loadCategories(ctx context.Context, ranges []models.Range, index map[string]int) error {
	query := `
		SELECT rc.range_id, c.id, c.name, c.path, rc.excluded
		FROM range_categories rc
		JOIN categories c ON c.id = rc.category_id
		ORDER BY rc.range_id, c.path
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, "list range categories")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rangeID  string
			c        models.Category
			excluded bool
		)
		if err := rows.Scan(&rangeID, &c.ID, &c.Name, &c.Path, &excluded); err != nil {
			return err
		}
		i, ok := index[rangeID]
		if !ok {
			continue
		}
		if excluded {
			ranges[i].ExcludedCategories = append(ranges[i].ExcludedCategories, c)
		} else {
			ranges[i].IncludedCategories = append(ranges[i].IncludedCategories, c)
		}
	}
	return rows.Err()
}

func (r *RangeRepo) loadClasses(ctx context.Context, ranges []models.Range, index map[string]int) error {
	query := `SELECT range_id, class_id FROM range_classes ORDER BY range_id, class_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, "list range classes")
	}
	defer rows.Close()

	for rows.Next() {
		var rangeID, classID string
		if err := rows.Scan(&rangeID, &classID); err != nil {
			return err
		}
		if i, ok := index[rangeID]; ok {
			ranges[i].Classes = append(ranges[i].Classes, classID)
		}
	}
	return rows.Err()
}
