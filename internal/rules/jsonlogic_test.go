package rules

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/offer-engine/internal/offer"
)

func TestPredicateMatchesAttributes(t *testing.T) {
	pred, err := Compile(json.RawMessage(`{"==": [{"var": "attributes.brand"}, "acme"]}`))
	require.NoError(t, err)

	acme := &offer.Product{ID: "a", Attributes: map[string]any{"brand": "acme"}}
	other := &offer.Product{ID: "b", Attributes: map[string]any{"brand": "globex"}}
	assert.True(t, pred.Contains(acme))
	assert.False(t, pred.Contains(other))
	assert.False(t, pred.Contains(&offer.Product{ID: "c"}))
}

func TestPredicateSeesParentData(t *testing.T) {
	pred, err := Compile(json.RawMessage(`{"and": [{"==": [{"var": "class"}, "apparel"]}, {"in": ["sale", {"var": "categories"}]}]}`))
	require.NoError(t, err)

	parent := &offer.Product{
		ID:         "shirt",
		Structure:  offer.StructureParent,
		ClassID:    "apparel",
		Categories: []offer.Category{{ID: "sale", Path: "0001"}},
	}
	child := &offer.Product{ID: "shirt-red", Structure: offer.StructureChild, Parent: parent}
	assert.True(t, pred.Contains(child))
}

func TestPredicateInRange(t *testing.T) {
	pred, err := Compile(json.RawMessage(`{">=": [{"var": "attributes.weight"}, 10]}`))
	require.NoError(t, err)

	r := &offer.Range{Name: "heavy", Predicate: pred, ExcludedProducts: []string{"anvil"}}
	assert.True(t, r.Contains(&offer.Product{ID: "sofa", Attributes: map[string]any{"weight": 40}}))
	assert.False(t, r.Contains(&offer.Product{ID: "anvil", Attributes: map[string]any{"weight": 50}}))
	assert.False(t, r.Contains(&offer.Product{ID: "pen", Attributes: map[string]any{"weight": 1}}))
}

func TestCompileRejectsBadRules(t *testing.T) {
	for _, raw := range []string{``, `   `, `{"==": [1,`} {
		_, err := Compile(json.RawMessage(raw))
		require.Error(t, err, raw)
		assert.True(t, offer.IsConfigError(err))
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(json.Number("0")))
	assert.True(t, truthy(json.Number("2.5")))
	assert.False(t, truthy(""))
	assert.True(t, truthy([]any{1}))
	assert.False(t, truthy([]any{}))
	assert.True(t, truthy(map[string]any{}))
}
