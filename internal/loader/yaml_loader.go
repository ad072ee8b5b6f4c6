// Package loader reads offer catalogues and baskets from YAML files.
package loader

import (
	"os"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"

	"github.com/Cheertaboi/offer-engine/internal/builder"
	"github.com/Cheertaboi/offer-engine/internal/models"
	"github.com/Cheertaboi/offer-engine/internal/offer"
)

// Catalogue is a self-contained set of definitions, as kept in a YAML file.
type Catalogue struct {
	Categories []models.Category `yaml:"categories"`
	Ranges     []models.Range    `yaml:"ranges"`
	Products   []models.Product  `yaml:"products"`
	Offers     []models.Offer    `yaml:"offers"`
	Vouchers   []models.Voucher  `yaml:"vouchers"`
}

// Compiled is a catalogue turned into engine objects.
type Compiled struct {
	Offers   []*offer.ConditionalOffer
	Products map[string]*offer.Product
	// Vouchers are keyed by normalized code.
	Vouchers map[string]*offer.Voucher
}

func LoadCatalogue(path string) (Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalogue{}, err
	}
	return ParseCatalogue(data)
}

func ParseCatalogue(data []byte) (Catalogue, error) {
	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalogue{}, errors.Wrap(err, "parse catalogue")
	}
	return cat, nil
}

func LoadBasket(path string) (models.Basket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Basket{}, err
	}
	var b models.Basket
	if err := yaml.Unmarshal(data, &b); err != nil {
		return models.Basket{}, errors.Wrap(err, "parse basket")
	}
	return b, nil
}

// Compile validates every definition in the catalogue.
func (c Catalogue) Compile() (*Compiled, error) {
	b, err := builder.New(c.Categories)
	if err != nil {
		return nil, err
	}
	if err := b.Ranges(c.Ranges); err != nil {
		return nil, err
	}
	products, err := b.Products(c.Products)
	if err != nil {
		return nil, err
	}
	offers, err := b.Offers(c.Offers)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*offer.ConditionalOffer, len(offers))
	for _, o := range offers {
		if _, dup := byID[o.ID]; dup {
			return nil, &offer.ConfigError{Component: "offer", Field: "id", Reason: "duplicate " + o.ID}
		}
		byID[o.ID] = o
	}

	vouchers := make(map[string]*offer.Voucher, len(c.Vouchers))
	for _, def := range c.Vouchers {
		v, err := builder.Voucher(def)
		if err != nil {
			return nil, err
		}
		for _, id := range v.OfferIDs {
			o, ok := byID[id]
			if !ok {
				return nil, &offer.ConfigError{Component: "voucher " + v.Code, Field: "offers", Reason: "unknown offer " + id}
			}
			if o.Type != offer.TypeVoucher {
				return nil, &offer.ConfigError{Component: "voucher " + v.Code, Field: "offers", Reason: "offer " + id + " is not a voucher offer"}
			}
		}
		vouchers[v.Code] = v
	}
	return &Compiled{Offers: offers, Products: products, Vouchers: vouchers}, nil
}

// OffersFor returns the offers a basket can receive: site and session offers,
// user offers when userID is known, and the offers unlocked by codes, each
// bound to its voucher. Unknown codes are reported back rather than failing
// the evaluation.
func (c *Compiled) OffersFor(userID string, codes []string) (offers []*offer.ConditionalOffer, unknown []string) {
	byID := make(map[string]*offer.ConditionalOffer, len(c.Offers))
	for _, o := range c.Offers {
		byID[o.ID] = o
		switch o.Type {
		case offer.TypeVoucher:
		case offer.TypeUser:
			if userID != "" {
				offers = append(offers, o)
			}
		default:
			offers = append(offers, o)
		}
	}
	for _, code := range codes {
		v, ok := c.Vouchers[offer.NormalizeCode(code)]
		if !ok {
			unknown = append(unknown, code)
			continue
		}
		linked := make([]*offer.ConditionalOffer, 0, len(v.OfferIDs))
		for _, id := range v.OfferIDs {
			linked = append(linked, byID[id])
		}
		offers = append(offers, v.Bind(linked)...)
	}
	return offers, unknown
}
