package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/builder"
	"github.com/Cheertaboi/offer-engine/internal/cache"
	"github.com/Cheertaboi/offer-engine/internal/concurrency"
	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/offer"
	"github.com/Cheertaboi/offer-engine/internal/repository"
)

// Repos required by service (use interfaces to allow mocking)
type OfferRepo interface {
	ListOpen(ctx context.Context, now time.Time) ([]models.Offer, error)
	Create(ctx context.Context, tx *sql.Tx, o models.Offer) error
}

type RangeRepo interface {
	ListRanges(ctx context.Context) ([]models.Range, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type ProductRepo interface {
	GetProducts(ctx context.Context, ids []string) ([]models.Product, error)
}

type VoucherRepo interface {
	GetByCode(ctx context.Context, code string) (*models.Voucher, error)
	History(ctx context.Context, voucherID, userID string) (models.VoucherHistory, error)
	LockHistory(ctx context.Context, tx *sql.Tx, voucherID, userID string) (models.VoucherHistory, error)
	RecordUsage(ctx context.Context, tx *sql.Tx, voucherID, userID, orderID string, discount decimal.Decimal) error
}

type UsageRepo interface {
	UserUsage(ctx context.Context, userID string, offerIDs []string) (map[string]int, error)
	GetAndLockUsage(ctx context.Context, tx *sql.Tx, offerID, userID string) (int, error)
	IncrementUsage(ctx context.Context, tx *sql.Tx, offerID, userID string, n int) error
	LockOffer(ctx context.Context, tx *sql.Tx, offerID string) (repository.OfferTotals, error)
	RecordOfferUsage(ctx context.Context, tx *sql.Tx, offerID string, applications int, discount decimal.Decimal) error
}

// Deps wires the service. Cache and Logger are optional.
type Deps struct {
	DB       *sql.DB // used for transactions
	Offers   OfferRepo
	Ranges   RangeRepo
	Products ProductRepo
	Vouchers VoucherRepo
	Usage    UsageRepo
	Cache    cache.OfferSetCache
	Logger   *slog.Logger

	InclTax         bool
	Workers         int
	DefaultShipping decimal.Decimal
	Now             func() time.Time
}

type OfferService struct {
	db       *sql.DB
	offers   OfferRepo
	ranges   RangeRepo
	products ProductRepo
	vouchers VoucherRepo
	usage    UsageRepo
	cache    cache.OfferSetCache
	log      *slog.Logger

	inclTax         bool
	workers         int
	defaultShipping decimal.Decimal
	now             func() time.Time
}

func NewOfferService(d Deps) *OfferService {
	s := &OfferService{
		db:              d.DB,
		offers:          d.Offers,
		ranges:          d.Ranges,
		products:        d.Products,
		vouchers:        d.Vouchers,
		usage:           d.Usage,
		cache:           d.Cache,
		log:             d.Logger,
		inclTax:         d.InclTax,
		workers:         d.Workers,
		defaultShipping: d.DefaultShipping,
		now:             d.Now,
	}
	if s.cache == nil {
		s.cache = cache.NewMemoryCache(30 * time.Second)
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if s.workers < 1 {
		s.workers = 4
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// evaluation is one priced basket before it is turned into a response.
type evaluation struct {
	basket   offer.Basket
	ledger   *offer.Ledger
	offers   []*offer.ConditionalOffer
	vouchers []*offer.Voucher
	apps     *offer.OfferApplications
}

// PriceBasket runs the engine on a basket as displayed to the customer.
// Nothing is recorded.
func (s *OfferService) PriceBasket(ctx context.Context, req models.Basket) (*models.PricedBasket, error) {
	cat, err := s.catalogue(ctx)
	if err != nil {
		return nil, err
	}
	return s.price(ctx, cat, req)
}

func (s *OfferService) price(ctx context.Context, cat *catalogue, req models.Basket) (*models.PricedBasket, error) {
	now := s.now()
	basket, err := s.basket(ctx, cat, req)
	if err != nil {
		return nil, err
	}
	vouchers, err := s.resolveVouchers(ctx, req.VoucherCodes, req.UserID, now)
	if err != nil {
		return nil, err
	}
	for _, v := range vouchers {
		h, err := s.vouchers.History(ctx, v.ID, req.UserID)
		if err != nil {
			return nil, errors.Wrap(err, "voucher history")
		}
		if ok, msg := v.IsAvailableToUser(req.UserID, history(h)); !ok {
			return nil, errors.Wrap(ErrVoucherUnavailable, msg)
		}
	}

	offers := cat.offersFor(req.UserID, vouchers, now)
	usage, err := s.userUsage(ctx, req.UserID, offers)
	if err != nil {
		return nil, err
	}

	ev, err := s.evaluate(basket, offers, vouchers, req.UserID, usage, nil)
	if err != nil {
		return nil, err
	}
	return s.priced(ev, req), nil
}

// PriceBaskets prices each basket independently on the worker pool. A basket
// that fails carries its error in the result; only a failure to load the
// offers or a cancelled context fails the whole batch.
func (s *OfferService) PriceBaskets(ctx context.Context, reqs []models.Basket) ([]models.BatchResult, error) {
	cat, err := s.catalogue(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]models.BatchResult, len(reqs))
	err = concurrency.SimpleWorkerPool(ctx, s.workers, len(reqs), func(ctx context.Context, i int) {
		priced, err := s.price(ctx, cat, reqs[i])
		if err != nil {
			results[i].Error = err.Error()
			return
		}
		results[i].Basket = priced
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Checkout prices the basket for an order and records the usage of every
// applied offer and voucher. Caps are re-read under row locks, so concurrent
// checkouts cannot exceed them.
func (s *OfferService) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.PricedBasket, error) {
	// short request-scoped deadline to avoid long-running ops
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	if req.OrderID == "" {
		req.OrderID = uuid.NewString()
	}
	userID := req.Basket.UserID

	cat, err := s.catalogue(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	basket, err := s.basket(ctx, cat, req.Basket)
	if err != nil {
		return nil, err
	}
	vouchers, err := s.resolveVouchers(ctx, req.Basket.VoucherCodes, userID, now)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	// ensure rollback on any exit
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, v := range vouchers {
		h, err := s.vouchers.LockHistory(ctx, tx, v.ID, userID)
		if err != nil {
			return nil, errors.Wrap(err, "lock voucher")
		}
		if ok, msg := v.IsAvailableToUser(userID, history(h)); !ok {
			return nil, errors.Wrap(ErrVoucherUnavailable, msg)
		}
	}

	offers := cat.offersFor(userID, vouchers, now)
	usage := make(map[string]offer.Usage)
	for i, o := range offers {
		if o.MaxGlobalApplications > 0 || o.MaxDiscount.Valid {
			totals, err := s.usage.LockOffer(ctx, tx, o.ID)
			if err != nil {
				return nil, errors.Wrapf(err, "lock offer %s", o.ID)
			}
			cp := *o
			cp.NumApplications = totals.NumApplications
			cp.MaxGlobalApplications = totals.MaxGlobalApplications
			cp.TotalDiscount = totals.TotalDiscount
			cp.MaxDiscount = totals.MaxDiscount
			offers[i] = &cp
		}
		if userID != "" && o.MaxUserApplications > 0 {
			count, err := s.usage.GetAndLockUsage(ctx, tx, o.ID, userID)
			if err != nil {
				return nil, errors.Wrap(err, "get lock")
			}
			usage[o.ID] = offer.Usage{UserApplications: count}
		}
	}

	for _, o := range offers {
		if o.Voucher == nil || o.MaxApplications(userID, usage[o.ID]) > 0 {
			continue
		}
		s.log.Info("voucher offer cap reached",
			slog.String("offer", o.ID),
			slog.String("voucher", o.Voucher.Code),
			slog.String("user", userID),
		)
		return nil, errors.Wrapf(ErrUsageLimitReached, "voucher %s", o.Voucher.Code)
	}

	totals := offer.NewMemoryTotals()
	ev, err := s.evaluate(basket, offers, vouchers, userID, usage, totals)
	if err != nil {
		return nil, err
	}

	for _, app := range ev.apps.All() {
		o := app.Offer
		if userID != "" && o.MaxUserApplications > 0 && usage[o.ID].UserApplications+app.Frequency > o.MaxUserApplications {
			s.log.Info("user cap reached", slog.String("offer", o.ID), slog.String("user", userID))
			return nil, errors.Wrapf(ErrUsageLimitReached, "offer %s", o.ID)
		}
		if err := s.usage.RecordOfferUsage(ctx, tx, o.ID, app.Frequency, totals.Total(o.ID)); err != nil {
			return nil, errors.Wrapf(err, "record offer %s", o.ID)
		}
		if userID != "" {
			if _, ok := usage[o.ID]; !ok {
				if _, err := s.usage.GetAndLockUsage(ctx, tx, o.ID, userID); err != nil {
					return nil, errors.Wrap(err, "get lock")
				}
			}
			if err := s.usage.IncrementUsage(ctx, tx, o.ID, userID, app.Frequency); err != nil {
				return nil, errors.Wrap(err, "increment usage")
			}
		}
	}

	discounts := make(map[string]decimal.Decimal)
	for _, vd := range ev.apps.GroupedVoucherDiscounts() {
		discounts[vd.Voucher.ID] = vd.Discount
	}
	for _, v := range vouchers {
		d, ok := discounts[v.ID]
		if !ok {
			d = decimal.Zero
		}
		if err := s.vouchers.RecordUsage(ctx, tx, v.ID, userID, req.OrderID, d); err != nil {
			return nil, errors.Wrap(err, "record voucher usage")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "tx commit")
	}
	committed = true

	if ev.apps.Len() > 0 {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.log.Warn("offer cache invalidate failed", slog.Any("error", err))
		}
	}

	priced := s.priced(ev, req.Basket)
	priced.OrderID = req.OrderID
	s.log.Info("order checked out",
		slog.String("order", req.OrderID),
		slog.Int("applied", ev.apps.Len()),
		slog.String("discount", priced.Discount.StringFixed(2)),
	)
	return priced, nil
}

// ListOpenOffers returns the site, session and user offers open now.
func (s *OfferService) ListOpenOffers(ctx context.Context) ([]models.OfferSummary, error) {
	cat, err := s.catalogue(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := []models.OfferSummary{}
	for _, o := range offer.SortByPriority(offer.Eligible(cat.offers, now)) {
		if o.Type == offer.TypeVoucher {
			continue
		}
		sum := models.OfferSummary{
			ID:          o.ID,
			Name:        o.Name,
			Description: o.Describe(),
			OfferType:   string(o.Type),
			Priority:    o.Priority,
		}
		if !o.EndAt.IsZero() {
			end := o.EndAt
			sum.EndAt = &end
		}
		out = append(out, sum)
	}
	return out, nil
}

// CreateOffer validates a definition against the current ranges and stores it.
func (s *OfferService) CreateOffer(ctx context.Context, def models.Offer) (*models.Offer, error) {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	if def.OfferType == "" {
		def.OfferType = string(offer.TypeSite)
	}
	if def.Status == "" {
		def.Status = string(offer.StatusOpen)
	}
	def.CreatedAt = s.now().UTC()

	cat, err := s.catalogue(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := cat.builder.Offer(def); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.offers.Create(ctx, tx, def); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "tx commit")
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("offer cache invalidate failed", slog.Any("error", err))
	}
	s.log.Info("offer created", slog.String("offer", def.ID), slog.String("type", def.OfferType))
	return &def, nil
}

// VoucherStatus reports whether userID could use the voucher with code now.
func (s *OfferService) VoucherStatus(ctx context.Context, code, userID string) (*models.VoucherStatus, error) {
	def, err := s.vouchers.GetByCode(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "get voucher")
	}
	if def == nil {
		return nil, errors.Wrap(ErrVoucherNotFound, offer.NormalizeCode(code))
	}
	v, err := builder.Voucher(*def)
	if err != nil {
		return nil, err
	}

	status := &models.VoucherStatus{
		Code:     v.Code,
		Name:     v.Name,
		Active:   v.IsActive(s.now()),
		OfferIDs: v.OfferIDs,
	}
	if !status.Active {
		status.Message = "This voucher has expired"
		return status, nil
	}
	h, err := s.vouchers.History(ctx, v.ID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "voucher history")
	}
	status.Available, status.Message = v.IsAvailableToUser(userID, history(h))
	return status, nil
}

// basket loads the products of req and builds the engine snapshot.
func (s *OfferService) basket(ctx context.Context, cat *catalogue, req models.Basket) (offer.Basket, error) {
	if len(req.Lines) == 0 {
		return offer.Basket{}, ErrEmptyBasket
	}
	ids := make([]string, 0, len(req.Lines))
	seen := make(map[string]bool, len(req.Lines))
	for _, l := range req.Lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	defs, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return offer.Basket{}, errors.Wrap(err, "load products")
	}
	products, err := cat.builder.Products(defs)
	if err != nil {
		return offer.Basket{}, errors.Wrap(err, "compile products")
	}
	b, err := builder.Basket(req, products)
	switch {
	case errors.Is(err, builder.ErrUnknownProduct):
		return offer.Basket{}, errors.Wrap(ErrProductNotFound, err.Error())
	case errors.Is(err, builder.ErrInvalidQuantity):
		return offer.Basket{}, errors.Wrap(ErrInvalidBasket, err.Error())
	}
	return b, err
}

// resolveVouchers looks up each code and checks the voucher is active.
// Per-user availability needs the redemption history and is checked by the
// caller.
func (s *OfferService) resolveVouchers(ctx context.Context, codes []string, userID string, now time.Time) ([]*offer.Voucher, error) {
	var out []*offer.Voucher
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		norm := offer.NormalizeCode(code)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true

		def, err := s.vouchers.GetByCode(ctx, norm)
		if err != nil {
			return nil, errors.Wrap(err, "get voucher")
		}
		if def == nil {
			return nil, errors.Wrap(ErrVoucherNotFound, norm)
		}
		v, err := builder.Voucher(*def)
		if err != nil {
			return nil, err
		}
		if !v.IsActive(now) {
			return nil, errors.Wrap(ErrVoucherInactive, norm)
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *OfferService) userUsage(ctx context.Context, userID string, offers []*offer.ConditionalOffer) (map[string]offer.Usage, error) {
	var capped []string
	for _, o := range offers {
		if o.MaxUserApplications > 0 {
			capped = append(capped, o.ID)
		}
	}
	counts, err := s.usage.UserUsage(ctx, userID, capped)
	if err != nil {
		return nil, errors.Wrap(err, "load user usage")
	}
	usage := make(map[string]offer.Usage, len(counts))
	for id, n := range counts {
		usage[id] = offer.Usage{UserApplications: n}
	}
	return usage, nil
}

func (s *OfferService) evaluate(basket offer.Basket, offers []*offer.ConditionalOffer, vouchers []*offer.Voucher, userID string, usage map[string]offer.Usage, rec offer.DiscountRecorder) (*evaluation, error) {
	opts := []offer.Option{offer.WithInclTax(s.inclTax), offer.WithLogger(s.log)}
	if rec != nil {
		opts = append(opts, offer.WithRecorder(rec))
	}
	ledger := offer.NewLedger()
	apps, err := offer.NewApplicator(opts...).Evaluate(offer.Evaluation{
		Basket: basket,
		Ledger: ledger,
		Offers: offers,
		UserID: userID,
		Usage:  usage,
	})
	if err != nil {
		return nil, errors.Wrap(err, "apply offers")
	}
	s.log.Debug("basket evaluated",
		slog.String("basket", basket.ID),
		slog.Int("offers", len(offers)),
		slog.Int("applied", apps.Len()),
		slog.String("discount", apps.TotalBasketDiscount().StringFixed(2)),
	)
	return &evaluation{basket: basket, ledger: ledger, offers: offers, vouchers: vouchers, apps: apps}, nil
}

func history(h models.VoucherHistory) offer.VoucherHistory {
	return offer.VoucherHistory{TotalApplications: h.Total, UserApplications: h.User}
}
