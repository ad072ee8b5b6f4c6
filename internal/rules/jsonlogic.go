// Package rules evaluates custom range membership rules written in JSONLogic.
package rules

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"
	"github.com/go-faster/errors"

	"github.com/Cheertaboi/offer-engine/internal/offer"
)

// Predicate is a compiled JSONLogic rule over product data. It implements
// offer.ProductPredicate.
type Predicate struct {
	rule []byte
}

// Compile validates rule and returns a predicate for it.
func Compile(rule json.RawMessage) (*Predicate, error) {
	trimmed := bytes.TrimSpace(rule)
	if len(trimmed) == 0 {
		return nil, &offer.ConfigError{Component: "range predicate", Reason: "empty rule"}
	}
	if !json.Valid(trimmed) {
		return nil, &offer.ConfigError{Component: "range predicate", Reason: "rule is not valid JSON"}
	}
	if !jsonlogic.IsValid(bytes.NewReader(trimmed)) {
		return nil, &offer.ConfigError{Component: "range predicate", Reason: "rule is not valid JSONLogic"}
	}
	return &Predicate{rule: append([]byte(nil), trimmed...)}, nil
}

// Contains evaluates the rule against p. Evaluation failures count as a miss.
func (pr *Predicate) Contains(p *offer.Product) bool {
	ok, err := pr.Eval(p)
	return err == nil && ok
}

// Eval evaluates the rule against p and reports the truthiness of the result.
func (pr *Predicate) Eval(p *offer.Product) (bool, error) {
	data, err := json.Marshal(productData(p))
	if err != nil {
		return false, errors.Wrap(err, "encode product")
	}
	var out bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(pr.rule), bytes.NewReader(data), &out); err != nil {
		return false, errors.Wrap(err, "apply rule")
	}
	var res any
	dec := json.NewDecoder(strings.NewReader(out.String()))
	dec.UseNumber()
	if err := dec.Decode(&res); err != nil {
		return false, errors.Wrap(err, "decode result")
	}
	return truthy(res), nil
}

func (pr *Predicate) String() string {
	return string(pr.rule)
}

// productData is the document rules see: id, class, structure, categories
// (ids and paths), attributes and the parent's id.
func productData(p *offer.Product) map[string]any {
	cats := p.EffectiveCategories()
	ids := make([]string, 0, len(cats))
	paths := make([]string, 0, len(cats))
	for _, c := range cats {
		ids = append(ids, c.ID)
		paths = append(paths, c.Path)
	}
	attrs := p.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	data := map[string]any{
		"id":               p.ID,
		"class":            p.EffectiveClass(),
		"structure":        string(p.Structure),
		"categories":       ids,
		"category_paths":   paths,
		"attributes":       attrs,
		"parent":           "",
		"not_discountable": p.NotDiscountable,
	}
	if p.IsChild() {
		data["parent"] = p.Parent.ID
	}
	return data
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	}
	return true
}
