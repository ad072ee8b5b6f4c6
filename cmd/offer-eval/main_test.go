package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogue = `
categories:
  - id: books
    name: Books
ranges:
  - id: all-books
    name: All books
    included_categories:
      - id: books
  - id: acme
    name: Acme goods
    predicate:
      "==": [{"var": "attributes.brand"}, "acme"]
products:
  - id: novel
    categories:
      - id: books
  - id: anvil
    attributes:
      brand: acme
offers:
  - id: books-3-for-2
    name: 3 for 2 on books
    priority: 10
    condition: {type: count, value: 3, range_id: all-books}
    benefit: {type: multibuy, range_id: all-books}
  - id: free-shipping
    name: Free shipping over 100
    condition: {type: value, value: 100, range_id: all-books}
    benefit: {type: shipping_percentage, value: 100}
  - id: acme-10
    name: 10% off Acme
    offer_type: voucher
    condition: {type: count, value: 1, range_id: acme}
    benefit: {type: percentage, value: 10, range_id: acme}
vouchers:
  - id: v1
    code: acme10
    name: Acme ten
    usage: multi_use
    offers: [acme-10]
`

const basket = `
id: b1
user: u1
vouchers: [ACME10, NOPE]
shipping_charge: "3.50"
lines:
  - product: novel
    quantity: 4
    price_excl_tax: "5.00"
  - product: anvil
    quantity: 1
    price_excl_tax: 20
`

func writeFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	offers := filepath.Join(dir, "offers.yaml")
	b := filepath.Join(dir, "basket.yaml")
	require.NoError(t, os.WriteFile(offers, []byte(catalogue), 0o600))
	require.NoError(t, os.WriteFile(b, []byte(basket), 0o600))
	return offers, b
}

func TestRunPrintsSummary(t *testing.T) {
	offers, b := writeFiles(t)
	var stdout, stderr bytes.Buffer

	require.NoError(t, run([]string{"-offers", offers, "-basket", b}, &stdout, &stderr))

	out := stdout.String()
	assert.Regexp(t, `Total\s+40\.00`, out)
	assert.Regexp(t, `Discount\s+7\.00`, out)
	assert.Regexp(t, `To pay\s+33\.00`, out)
	assert.Regexp(t, `Shipping\s+3\.50 \(-0\.00\)`, out)
	assert.Regexp(t, `books-3-for-2\s+basket\s+x1\s+5\.00`, out)
	assert.Contains(t, out, "Voucher ACME10 saves 2.00")
	assert.Contains(t, out, "Spend 95.00 more from All books")
	assert.Contains(t, stderr.String(), "unknown voucher")
}

func TestRunShippingFlag(t *testing.T) {
	offers, b := writeFiles(t)
	var stdout, stderr bytes.Buffer

	require.NoError(t, run([]string{"-offers", offers, "-basket", b, "-shipping", "4.99"}, &stdout, &stderr))
	assert.Regexp(t, `Shipping\s+4\.99`, stdout.String())

	err := run([]string{"-offers", offers, "-basket", b, "-shipping", "free"}, &stdout, &stderr)
	assert.Error(t, err)
}

func TestRunRequiresPaths(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run([]string{"-offers", "x.yaml"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}
