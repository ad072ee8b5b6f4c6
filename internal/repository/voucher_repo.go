package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/offer"
)

type VoucherRepo struct {
	db *sql.DB
}

func NewVoucherRepo(db *sql.DB) *VoucherRepo {
	return &VoucherRepo{db: db}
}

// GetByCode returns nil, nil when no voucher has the code.
func (r *VoucherRepo) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var (
		v              models.Voucher
		startAt, endAt sql.NullTime
	)

	query := `
		SELECT id, code, name, usage, start_at, end_at,
		       num_basket_additions, num_orders, total_discount
		FROM vouchers
		WHERE code = $1;
	`

	err := r.db.QueryRowContext(ctx, query, offer.NormalizeCode(code)).Scan(
		&v.ID,
		&v.Code,
		&v.Name,
		&v.Usage,
		&startAt,
		&endAt,
		&v.NumBasketAdditions,
		&v.NumOrders,
		&v.TotalDiscount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if startAt.Valid {
		v.StartAt = &startAt.Time
	}
	if endAt.Valid {
		v.EndAt = &endAt.Time
	}

	offerIDs, err := r.getOfferIDs(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	v.OfferIDs = offerIDs
	return &v, nil
}

func (r *VoucherRepo) getOfferIDs(ctx context.Context, voucherID string) ([]string, error) {
	query := `SELECT offer_id FROM voucher_offers WHERE voucher_id = $1 ORDER BY offer_id`
	rows, err := r.db.QueryContext(ctx, query, voucherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const historyQuery = `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE user_id = $2)
		FROM voucher_applications
		WHERE voucher_id = $1
	`

// History counts past redemptions overall and by userID.
func (r *VoucherRepo) History(ctx context.Context, voucherID, userID string) (models.VoucherHistory, error) {
	var h models.VoucherHistory
	err := r.db.QueryRowContext(ctx, historyQuery, voucherID, userID).Scan(&h.Total, &h.User)
	return h, err
}

// LockHistory locks the voucher row and then counts its redemptions, so two
// checkouts cannot both redeem a single use voucher.
func (r *VoucherRepo) LockHistory(ctx context.Context, tx *sql.Tx, voucherID, userID string) (models.VoucherHistory, error) {
	var id string
	lock := `SELECT id FROM vouchers WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, lock, voucherID).Scan(&id); err != nil {
		return models.VoucherHistory{}, err
	}

	var h models.VoucherHistory
	err := tx.QueryRowContext(ctx, historyQuery, voucherID, userID).Scan(&h.Total, &h.User)
	return h, err
}

// RecordUsage stores one redemption and updates the voucher counters.
func (r *VoucherRepo) RecordUsage(ctx context.Context, tx *sql.Tx, voucherID, userID, orderID string, discount decimal.Decimal) error {
	insert := `
		INSERT INTO voucher_applications (voucher_id, user_id, order_id, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, insert, voucherID, nullString(userID), orderID, time.Now()); err != nil {
		return err
	}

	update := `
		UPDATE vouchers
		SET num_orders = num_orders + 1,
		    total_discount = total_discount + $2
		WHERE id = $1
	`
	_, err := tx.ExecContext(ctx, update, voucherID, discount)
	return err
}
