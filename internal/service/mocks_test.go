package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/repository"
)

// MockOfferRepo
type MockOfferRepo struct {
	mock.Mock
}

func (m *MockOfferRepo) ListOpen(ctx context.Context, now time.Time) ([]models.Offer, error) {
	args := m.Called(ctx, now)
	offers, _ := args.Get(0).([]models.Offer)
	return offers, args.Error(1)
}

func (m *MockOfferRepo) Create(ctx context.Context, tx *sql.Tx, o models.Offer) error {
	args := m.Called(ctx, tx, o)
	return args.Error(0)
}

// MockRangeRepo
type MockRangeRepo struct {
	mock.Mock
}

func (m *MockRangeRepo) ListRanges(ctx context.Context) ([]models.Range, error) {
	args := m.Called(ctx)
	ranges, _ := args.Get(0).([]models.Range)
	return ranges, args.Error(1)
}

func (m *MockRangeRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	cats, _ := args.Get(0).([]models.Category)
	return cats, args.Error(1)
}

// MockProductRepo
type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) GetProducts(ctx context.Context, ids []string) ([]models.Product, error) {
	args := m.Called(ctx, ids)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

// MockVoucherRepo
type MockVoucherRepo struct {
	mock.Mock
}

func (m *MockVoucherRepo) GetByCode(ctx context.Context, code string) (*models.Voucher, error) {
	args := m.Called(ctx, code)
	v, _ := args.Get(0).(*models.Voucher)
	return v, args.Error(1)
}

func (m *MockVoucherRepo) History(ctx context.Context, voucherID, userID string) (models.VoucherHistory, error) {
	args := m.Called(ctx, voucherID, userID)
	return args.Get(0).(models.VoucherHistory), args.Error(1)
}

func (m *MockVoucherRepo) LockHistory(ctx context.Context, tx *sql.Tx, voucherID, userID string) (models.VoucherHistory, error) {
	args := m.Called(ctx, tx, voucherID, userID)
	return args.Get(0).(models.VoucherHistory), args.Error(1)
}

func (m *MockVoucherRepo) RecordUsage(ctx context.Context, tx *sql.Tx, voucherID, userID, orderID string, discount decimal.Decimal) error {
	args := m.Called(ctx, tx, voucherID, userID, orderID, discount)
	return args.Error(0)
}

// MockUsageRepo
type MockUsageRepo struct {
	mock.Mock
}

func (m *MockUsageRepo) UserUsage(ctx context.Context, userID string, offerIDs []string) (map[string]int, error) {
	args := m.Called(ctx, userID, offerIDs)
	usage, _ := args.Get(0).(map[string]int)
	return usage, args.Error(1)
}

func (m *MockUsageRepo) GetAndLockUsage(ctx context.Context, tx *sql.Tx, offerID, userID string) (int, error) {
	args := m.Called(ctx, tx, offerID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockUsageRepo) IncrementUsage(ctx context.Context, tx *sql.Tx, offerID, userID string, n int) error {
	args := m.Called(ctx, tx, offerID, userID, n)
	return args.Error(0)
}

func (m *MockUsageRepo) LockOffer(ctx context.Context, tx *sql.Tx, offerID string) (repository.OfferTotals, error) {
	args := m.Called(ctx, tx, offerID)
	return args.Get(0).(repository.OfferTotals), args.Error(1)
}

func (m *MockUsageRepo) RecordOfferUsage(ctx context.Context, tx *sql.Tx, offerID string, applications int, discount decimal.Decimal) error {
	args := m.Called(ctx, tx, offerID, applications, discount)
	return args.Error(0)
}
