// Command offer-eval prices a basket against a YAML offer catalogue and prints
// what the engine applied.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/offer-engine/internal/builder"
	"github.com/Cheertaboi/offer-engine/internal/loader"
	"github.com/Cheertaboi/offer-engine/internal/offer"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "offer-eval:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("offer-eval", flag.ContinueOnError)
	fs.SetOutput(stderr)
	offersPath := fs.String("offers", "", "YAML offer catalogue")
	basketPath := fs.String("basket", "", "YAML basket")
	inclTax := fs.Bool("incl-tax", false, "apply offers to tax-inclusive prices")
	shipping := fs.String("shipping", "", "shipping charge, overrides the basket's")
	verbose := fs.Bool("v", false, "log skipped offers")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *offersPath == "" || *basketPath == "" {
		fs.Usage()
		return errors.New("-offers and -basket are required")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cat, err := loader.LoadCatalogue(*offersPath)
	if err != nil {
		return err
	}
	compiled, err := cat.Compile()
	if err != nil {
		return errors.Wrap(err, "compile catalogue")
	}
	def, err := loader.LoadBasket(*basketPath)
	if err != nil {
		return err
	}
	basket, err := builder.Basket(def, compiled.Products)
	if err != nil {
		return err
	}

	charge := decimal.Zero
	if def.ShippingCharge != nil {
		charge = *def.ShippingCharge
	}
	if *shipping != "" {
		if charge, err = decimal.NewFromString(*shipping); err != nil {
			return errors.Wrap(err, "-shipping")
		}
	}

	candidates, unknown := compiled.OffersFor(def.UserID, def.VoucherCodes)
	for _, code := range unknown {
		log.Warn("unknown voucher", slog.String("code", code))
	}
	now := time.Now()
	for _, code := range def.VoucherCodes {
		if v, ok := compiled.Vouchers[offer.NormalizeCode(code)]; ok && !v.IsActive(now) {
			log.Warn("voucher not active", slog.String("code", v.Code))
		}
	}
	offers := offer.Eligible(candidates, now)

	ledger := offer.NewLedger()
	apps, err := offer.NewApplicator(offer.WithInclTax(*inclTax), offer.WithLogger(log)).Evaluate(offer.Evaluation{
		Basket: basket,
		Ledger: ledger,
		Offers: offers,
		UserID: def.UserID,
	})
	if err != nil {
		return err
	}

	total := basket.Total(*inclTax)
	discount := apps.TotalBasketDiscount()
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Basket\t%s\n", basket.ID)
	fmt.Fprintf(w, "Total\t%s\n", total.StringFixed(2))
	fmt.Fprintf(w, "Discount\t%s\n", discount.StringFixed(2))
	fmt.Fprintf(w, "To pay\t%s\n", decimal.Max(decimal.Zero, total.Sub(discount)).StringFixed(2))
	fmt.Fprintf(w, "Shipping\t%s (-%s)\n", charge.StringFixed(2), apps.ShippingDiscount(charge).StringFixed(2))
	if err := w.Flush(); err != nil {
		return err
	}

	if apps.Len() > 0 {
		fmt.Fprintln(stdout, "\nApplied")
		w = tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		for _, rec := range apps.Records() {
			fmt.Fprintf(w, "  %s\t%s\tx%d\t%s\t%s\n", rec.OfferID, rec.Effect, rec.Frequency, rec.Amount.StringFixed(2), rec.VoucherCode)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	for _, vd := range apps.GroupedVoucherDiscounts() {
		fmt.Fprintf(stdout, "Voucher %s saves %s\n", vd.Voucher.Code, vd.Discount.StringFixed(2))
	}
	for _, app := range apps.PostOrderActions() {
		fmt.Fprintf(stdout, "After checkout: %s\n", app.Result.Description)
	}

	scope := offer.Scope{Basket: &basket, Ledger: ledger, InclTax: *inclTax}
	var upsells []string
	for _, o := range offer.SortByPriority(offers) {
		if _, applied := apps.Get(o.ID); applied || !o.IsConditionPartiallySatisfied(scope) {
			continue
		}
		if msg := o.UpsellMessage(scope); msg != "" {
			upsells = append(upsells, msg)
		}
	}
	if len(upsells) > 0 {
		fmt.Fprintf(stdout, "\nAlmost there\n  %s\n", strings.Join(upsells, "\n  "))
	}
	return nil
}
