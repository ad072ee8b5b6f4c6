package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-faster/errors"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/models"
)

type OfferRepo struct {
	db *sql.DB
}

func NewOfferRepo(db *sql.DB) *OfferRepo {
	return &OfferRepo{db: db}
}

const offerColumns = `id, name, description, offer_type, priority, combinable, status,
		       start_at, end_at, max_global_applications, max_user_applications,
		       max_basket_applications, max_discount, total_discount, num_applications,
		       num_orders, created_at, condition_type, condition_value, condition_range_id,
		       benefit_type, benefit_value, benefit_range_id, benefit_max_affected_items,
		       benefit_description`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOffer(row rowScanner) (models.Offer, error) {
	var (
		o                       models.Offer
		startAt, endAt          sql.NullTime
		maxDiscount, benefitVal decimal.NullDecimal
		condRange, benRange     sql.NullString
		benDescription          sql.NullString
	)
	err := row.Scan(
		&o.ID,
		&o.Name,
		&o.Description,
		&o.OfferType,
		&o.Priority,
		&o.Combinable,
		&o.Status,
		&startAt,
		&endAt,
		&o.MaxGlobalApplications,
		&o.MaxUserApplications,
		&o.MaxBasketApplications,
		&maxDiscount,
		&o.TotalDiscount,
		&o.NumApplications,
		&o.NumOrders,
		&o.CreatedAt,
		&o.Condition.Type,
		&o.Condition.Value,
		&condRange,
		&o.Benefit.Type,
		&benefitVal,
		&benRange,
		&o.Benefit.MaxAffectedItems,
		&benDescription,
	)
	if err != nil {
		return models.Offer{}, err
	}
	if startAt.Valid {
		o.StartAt = &startAt.Time
	}
	if endAt.Valid {
		o.EndAt = &endAt.Time
	}
	if maxDiscount.Valid {
		o.MaxDiscount = &maxDiscount.Decimal
	}
	if benefitVal.Valid {
		o.Benefit.Value = &benefitVal.Decimal
	}
	o.Condition.RangeID = condRange.String
	o.Benefit.RangeID = benRange.String
	o.Benefit.Description = benDescription.String
	return o, nil
}

func collectOffers(rows *sql.Rows) ([]models.Offer, error) {
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// ListOpen returns offers that are open at now, highest priority first.
func (r *OfferRepo) ListOpen(ctx context.Context, now time.Time) ([]models.Offer, error) {
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE status = 'open'
		  AND (start_at IS NULL OR start_at <= $1)
		  AND (end_at IS NULL OR end_at > $1)
		ORDER BY priority DESC, created_at, id;
	`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, errors.Wrap(err, "list open offers")
	}
	return collectOffers(rows)
}

func (r *OfferRepo) ListByIDs(ctx context.Context, ids []string) ([]models.Offer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `
		SELECT ` + offerColumns + `
		FROM offers
		WHERE id = ANY($1)
		ORDER BY priority DESC, created_at, id;
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, errors.Wrap(err, "list offers by id")
	}
	return collectOffers(rows)
}

// Create inserts a new offer inside tx.
func (r *OfferRepo) Create(ctx context.Context, tx *sql.Tx, o models.Offer) error {
	query := `
		INSERT INTO offers (
			id, name, description, offer_type, priority, combinable, status,
			start_at, end_at, max_global_applications, max_user_applications,
			max_basket_applications, max_discount, condition_type, condition_value,
			condition_range_id, benefit_type, benefit_value, benefit_range_id,
			benefit_max_affected_items, benefit_description, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
	`
	_, err := tx.ExecContext(ctx, query,
		o.ID,
		o.Name,
		o.Description,
		o.OfferType,
		o.Priority,
		o.Combinable,
		o.Status,
		nullTime(o.StartAt),
		nullTime(o.EndAt),
		o.MaxGlobalApplications,
		o.MaxUserApplications,
		o.MaxBasketApplications,
		nullDecimal(o.MaxDiscount),
		o.Condition.Type,
		o.Condition.Value,
		nullString(o.Condition.RangeID),
		o.Benefit.Type,
		nullDecimal(o.Benefit.Value),
		nullString(o.Benefit.RangeID),
		o.Benefit.MaxAffectedItems,
		nullString(o.Benefit.Description),
		o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "insert offer %s", o.ID)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
