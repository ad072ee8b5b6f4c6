package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/lib/pq"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

type ProductRepo struct {
	db *sql.DB
}

func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// GetProducts loads the given products, their parents and the categories of
// both. Missing IDs are simply absent from the result.
func (r *ProductRepo) GetProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT id, parent_id, structure, class_id, not_discountable, attributes
		FROM products
		WHERE id = ANY($1)
		   OR id IN (SELECT parent_id FROM products WHERE id = ANY($1) AND parent_id IS NOT NULL)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	var (
		products []models.Product
		index    = make(map[string]int)
		loaded   []string
	)
	for rows.Next() {
		var (
			p        models.Product
			parentID sql.NullString
			classID  sql.NullString
			attrs    []byte
		)
		if err := rows.Scan(&p.ID, &parentID, &p.Structure, &classID, &p.NotDiscountable, &attrs); err != nil {
			rows.Close()
			return nil, err
		}
		p.ParentID = parentID.String
		p.ClassID = classID.String
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
				rows.Close()
				return nil, errors.Wrapf(err, "product %s attributes", p.ID)
			}
		}
		index[p.ID] = len(products)
		products = append(products, p)
		loaded = append(loaded, p.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(loaded) == 0 {
		return nil, nil
	}
	if err := r.loadCategories(ctx, products, index, loaded); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepo) loadCategories(ctx context.Context, products []models.Product, index map[string]int, ids []string) error {
	query := `
		SELECT pc.product_id, c.id, c.name, c.path
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ANY($1)
		ORDER BY pc.product_id, c.path
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "get product categories")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID string
			c         models.Category
		)
		if err := rows.Scan(&productID, &c.ID, &c.Name, &c.Path); err != nil {
			return err
		}
		if i, ok := index[productID]; ok {
			products[i].Categories = append(products[i].Categories, c)
		}
	}
	return rows.Err()
}
