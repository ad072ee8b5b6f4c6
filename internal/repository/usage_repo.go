package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type UsageRepo struct {
	db *sql.DB
}

func NewUsageRepo(db *sql.DB) *UsageRepo {
	return &UsageRepo{db: db}
}

// UserUsage returns how often userID has had each of offerIDs applied in past
// orders. Offers never used are absent.
func (r *UsageRepo) UserUsage(ctx context.Context, userID string, offerIDs []string) (map[string]int, error) {
	usage := make(map[string]int)
	if userID == "" || len(offerIDs) == 0 {
		return usage, nil
	}

	query := `
		SELECT offer_id, usage_count
		FROM offer_usage
		WHERE user_id = $1 AND offer_id = ANY($2)
	`
	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(offerIDs))
	if err != nil {
		return nil, errors.Wrap(err, "query user usage")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			offerID string
			count   int
		)
		if err := rows.Scan(&offerID, &count); err != nil {
			return nil, errors.Wrap(err, "scan user usage")
		}
		usage[offerID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate user usage")
	}
	return usage, nil
}

// Get or create usage row AND lock it for update
func (r *UsageRepo) GetAndLockUsage(ctx context.Context, tx *sql.Tx, offerID, userID string) (int, error) {
	var usageCount int

	query := `
		SELECT usage_count
		FROM offer_usage
		WHERE offer_id = $1 AND user_id = $2
		FOR UPDATE
	`

	err := tx.QueryRowContext(ctx, query, offerID, userID).Scan(&usageCount)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			insert := `
				INSERT INTO offer_usage (offer_id, user_id, usage_count, last_used)
				VALUES ($1, $2, 0, NOW())
				RETURNING usage_count
			`

			err := tx.QueryRowContext(ctx, insert, offerID, userID).Scan(&usageCount)
			if err != nil {
				return 0, errors.Wrapf(err, "insert usage %s/%s", offerID, userID)
			}

			return usageCount, nil
		}
		return 0, errors.Wrapf(err, "lock usage %s/%s", offerID, userID)
	}

	return usageCount, nil
}

// IncrementUsage adds n applications to a row locked by GetAndLockUsage.
func (r *UsageRepo) IncrementUsage(ctx context.Context, tx *sql.Tx, offerID, userID string, n int) error {
	query := `
		UPDATE offer_usage
		SET usage_count = usage_count + $3,
		    last_used = $4
		WHERE offer_id = $1 AND user_id = $2
	`

	if _, err := tx.ExecContext(ctx, query, offerID, userID, n, time.Now()); err != nil {
		return errors.Wrapf(err, "increment usage %s/%s", offerID, userID)
	}
	return nil
}

// OfferTotals are the counters an offer keeps across all orders.
type OfferTotals struct {
	NumApplications       int
	MaxGlobalApplications int
	TotalDiscount         decimal.Decimal
	MaxDiscount           decimal.NullDecimal
}

// LockOffer locks the offer row and returns its counters.
func (r *UsageRepo) LockOffer(ctx context.Context, tx *sql.Tx, offerID string) (OfferTotals, error) {
	var t OfferTotals
	query := `
		SELECT num_applications, max_global_applications, total_discount, max_discount
		FROM offers
		WHERE id = $1
		FOR UPDATE
	`
	err := tx.QueryRowContext(ctx, query, offerID).Scan(&t.NumApplications, &t.MaxGlobalApplications, &t.TotalDiscount, &t.MaxDiscount)
	if err != nil {
		return OfferTotals{}, errors.Wrapf(err, "lock offer %s", offerID)
	}
	return t, nil
}

// RecordOfferUsage adds one order's applications and discount to the offer.
// An offer that reaches its global cap is marked consumed.
func (r *UsageRepo) RecordOfferUsage(ctx context.Context, tx *sql.Tx, offerID string, applications int, discount decimal.Decimal) error {
	query := `
		UPDATE offers
		SET num_applications = num_applications + $2,
		    num_orders = num_orders + 1,
		    total_discount = total_discount + $3,
		    status = CASE
		        WHEN max_global_applications > 0 AND num_applications + $2 >= max_global_applications THEN 'consumed'
		        ELSE status
		    END
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query, offerID, applications, discount); err != nil {
		return errors.Wrapf(err, "record offer usage %s", offerID)
	}
	return nil
}
