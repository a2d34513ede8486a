package source

import "strings"

// MarketplaceConfig describes one regional Amazon storefront.
type MarketplaceConfig struct {
	Country       string
	Currency      string
	Host          string
	MarketplaceID string
}

var marketplaces = map[string]MarketplaceConfig{
	"US": {Country: "United States", Currency: "USD", Host: "www.amazon.com", MarketplaceID: "ATVPDKIKX0DER"},
	"CA": {Country: "Canada", Currency: "CAD", Host: "www.amazon.ca", MarketplaceID: "A2EUQ1WTGCTBG2"},
	"GB": {Country: "United Kingdom", Currency: "GBP", Host: "www.amazon.co.uk", MarketplaceID: "A1F83G8C2ARO7P"},
	"DE": {Country: "Germany", Currency: "EUR", Host: "www.amazon.de", MarketplaceID: "A1PA6795UKMFR9"},
	"FR": {Country: "France", Currency: "EUR", Host: "www.amazon.fr", MarketplaceID: "A13V1IB3VIYZZH"},
	"ES": {Country: "Spain", Currency: "EUR", Host: "www.amazon.es", MarketplaceID: "A1RKKUPIHCS9HS"},
	"IT": {Country: "Italy", Currency: "EUR", Host: "www.amazon.it", MarketplaceID: "APJ6JRA9NG5V4"},
	"IN": {Country: "India", Currency: "INR", Host: "www.amazon.in", MarketplaceID: "A21TJRUUN4KGV"},
	"JP": {Country: "Japan", Currency: "JPY", Host: "www.amazon.co.jp", MarketplaceID: "A1VC38T7YXB528"},
	"AU": {Country: "Australia", Currency: "AUD", Host: "www.amazon.com.au", MarketplaceID: "A39IBJ37TRP1C6"},
}

// UK is what sellers type, GB is what the storefront table is keyed by.
var marketplaceAliases = map[string]string{
	"UK": "GB",
}

// MarketplaceFor resolves a country code, falling back to the US storefront.
func MarketplaceFor(country string) MarketplaceConfig {
	code := strings.ToUpper(strings.TrimSpace(country))
	if canonical, ok := marketplaceAliases[code]; ok {
		code = canonical
	}
	if cfg, ok := marketplaces[code]; ok {
		return cfg
	}
	return marketplaces["US"]
}
