package apiclient_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/waabox/shopdeck/internal/apiclient"
)

func TestExclusionSet_SubstringMatch(t *testing.T) {
	set := apiclient.NewExclusionSet("/auth/", "/cart/add")

	assert.True(t, set.Excludes("/auth/login"))
	assert.True(t, set.Excludes("/api/v1/cart/add"))
	assert.False(t, set.Excludes("/cart"))
	assert.False(t, set.Excludes("/products"))
}

func TestExclusionSet_WildcardEntry(t *testing.T) {
	set := apiclient.NewExclusionSet("/orders/*/invoice")

	assert.True(t, set.Excludes("/orders/42/invoice"))
	assert.True(t, set.Excludes("/orders//invoice"))
	assert.False(t, set.Excludes("/orders/42"))
}

func TestExclusionSet_WildcardQuotesOtherMetacharacters(t *testing.T) {
	set := apiclient.NewExclusionSet("/search.*")

	assert.True(t, set.Excludes("/search.json"))
	assert.False(t, set.Excludes("/searchXjson"))
}

func TestExclusionSet_WithAndWithoutReturnNewSets(t *testing.T) {
	base := apiclient.NewExclusionSet("/auth/", "/settings")

	added := base.With("/wishlist", "/auth/")
	removed := base.Without("/settings")

	assert.Equal(t, []string{"/auth/", "/settings"}, base.Entries())
	assert.Equal(t, []string{"/auth/", "/settings", "/wishlist"}, added.Entries())
	assert.Equal(t, []string{"/auth/"}, removed.Entries())
	assert.False(t, removed.Excludes("/settings/profile"))
}

func TestDefaultExclusions_CoverStockEndpoints(t *testing.T) {
	set := apiclient.DefaultExclusions()

	for _, path := range []string{
		"/auth/refresh-token",
		"/admin/products/12",
		"/upload/avatar",
		"/health",
		"/cart/add",
		"/payment/vnpay",
		"/socket.io/",
		"/search/suggestions",
		"/settings",
	} {
		assert.True(t, set.Excludes(path), path)
	}
	for _, path := range []string{"/cart", "/products", "/orders", "/categories"} {
		assert.False(t, set.Excludes(path), path)
	}
}

func TestNewExclusionSet_SkipsEmptyEntries(t *testing.T) {
	set := apiclient.NewExclusionSet("", "/health")
	assert.Equal(t, []string{"/health"}, set.Entries())
	assert.False(t, set.Excludes("/products"))
}
