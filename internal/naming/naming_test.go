package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseName(t *testing.T) {
	cases := map[string]string{
		"widget/widget.component":            "widget",
		"src/app/p-card/p-card.component.ts": "p-card",
		"productCard.ts":                     "productCard",
		"deep/nested/dir/file":               "file",
		`win\style\theme.scss`:               "theme",
		"":                                   "",
	}
	for in, want := range cases {
		assert.Equal(t, want, BaseName(in), in)
	}
}

func TestDasherize(t *testing.T) {
	cases := map[string]string{
		"productCard":       "product-card",
		"ProductCard":       "product-card",
		"product_card":      "product-card",
		"--product  card--": "product-card",
		"HTMLParser":        "html-parser",
		"widget2Box":        "widget2-box",
		"p-card":            "p-card",
		"Ünïcode Name":      "ünïcode-name",
		"":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Dasherize(in), in)
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "ProductCard", Classify("product-card"))
	assert.Equal(t, "ProductCard", Classify("productCard"))
	assert.Equal(t, "PCard", Classify("p-card"))
	assert.Equal(t, "HtmlParser", Classify("HTMLParser"))
	assert.Equal(t, "", Classify("---"))
}

func TestPathDerivedNames(t *testing.T) {
	t.Run("identifier", func(t *testing.T) {
		assert.Equal(t, "widget", Identifier("widget/widget.component"))
		assert.Equal(t, "product-card", Identifier("productCard/productCard.component.ts"))
	})

	t.Run("symbol name", func(t *testing.T) {
		assert.Equal(t, "WidgetComponent", SymbolName("widget/widget.component.ts"))
		assert.Equal(t, "CartService", SymbolName("cart.service.ts"))
		assert.Equal(t, "Widget", SymbolName("widget.ts"))
		assert.Equal(t, "ProductCard", ClassName("product-card/product-card.component.ts"))
	})

	t.Run("usage tag", func(t *testing.T) {
		assert.Equal(t, "app-product-card", UsageTag("app", "product-card/product-card.component.ts"))
		assert.Equal(t, "product-card", UsageTag("", "product-card.component.ts"))
		assert.Equal(t, "my-lib-widget", UsageTag("myLib", "widget.component.ts"))
	})
}
