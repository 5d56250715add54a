package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/config"
	"github.com/tastemichigan/api-go/types"
	"github.com/tastemichigan/api-go/utils"
)

const (
	DefaultCategory = "General"
	defaultCurrency = "USD"
)

// publicFeedPaths are tried in order when the storefront API is unavailable.
var publicFeedPaths = []string{"/products.json", "/collections/all.json", "/collections.json"}

// ProductAdapter reads merch from the Fourthwall storefront.
type ProductAdapter struct {
	cfg     config.FourthwallConfig
	fetcher *Fetcher
}

func NewProductAdapter(cfg config.FourthwallConfig, client *http.Client) *ProductAdapter {
	return &ProductAdapter{cfg: cfg, fetcher: NewFetcher("fourthwall", cfg.Timeout, client)}
}

func (a *ProductAdapter) shopURL() string {
	return strings.TrimRight(a.cfg.ShopURL, "/")
}

// Fetch returns normalized products. The token API is tried first; without a
// token, or when it fails, the public feeds are tried.
func (a *ProductAdapter) Fetch(ctx context.Context) ([]types.Product, error) {
	if a.cfg.StorefrontToken == "" && a.shopURL() == "" {
		return nil, fmt.Errorf("fourthwall storefront: %w", ErrNotConfigured)
	}

	if a.cfg.StorefrontToken != "" {
		products, err := a.fetchStorefront(ctx)
		if err == nil {
			return products, nil
		}
		if a.shopURL() == "" {
			return nil, err
		}
		log.Warn().Err(err).Msg("storefront API failed, falling back to public feed")
	}
	return a.fetchPublicFeed(ctx)
}

func (a *ProductAdapter) fetchStorefront(ctx context.Context) ([]types.Product, error) {
	endpoint := strings.TrimRight(a.cfg.APIURL, "/") + "/collections/all/products?storefront_token=" + url.QueryEscape(a.cfg.StorefrontToken)
	body, err := a.fetcher.Get(ctx, endpoint, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, err
	}
	raw, err := decodeProducts(body)
	if err != nil {
		return nil, &UpstreamError{Source: "fourthwall", URL: a.cfg.APIURL, Err: err}
	}
	return a.normalizeAll(raw), nil
}

func (a *ProductAdapter) fetchPublicFeed(ctx context.Context) ([]types.Product, error) {
	var lastErr error
	for _, path := range publicFeedPaths {
		candidate := a.shopURL() + path
		body, err := a.fetcher.Get(ctx, candidate, http.Header{"Accept": {"application/json"}})
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			log.Debug().Err(err).Str("url", candidate).Msg("public product feed candidate failed")
			lastErr = err
			continue
		}
		raw, err := decodeProducts(body)
		if err != nil {
			return nil, &UpstreamError{Source: "fourthwall", URL: candidate, Err: err}
		}
		return a.normalizeAll(raw), nil
	}
	return nil, fmt.Errorf("no public product feed responded: %w", lastErr)
}

func (a *ProductAdapter) normalizeAll(raw []rawProduct) []types.Product {
	products := make([]types.Product, 0, len(raw))
	for _, r := range raw {
		products = append(products, a.normalize(r))
	}
	return products
}

func (a *ProductAdapter) normalize(r rawProduct) types.Product {
	name := CleanText(firstNonEmpty(r.Name, r.Title))

	p := types.Product{
		ID:          string(r.ID),
		Name:        name,
		Description: CleanDescription(firstNonEmpty(r.Description, r.BodyHTML)),
		Currency:    defaultCurrency,
		Category:    firstNonEmpty(strings.TrimSpace(r.Category), strings.TrimSpace(r.ProductType), DefaultCategory),
		InStock:     r.inStock(),
	}

	price, currency := r.price()
	if v, err := strconv.ParseFloat(strings.TrimSpace(price), 64); err == nil {
		p.Price = v
	}
	if c := firstNonEmpty(currency, r.Currency); c != "" {
		p.Currency = strings.ToUpper(c)
	}

	if len(r.Images) > 0 {
		p.ImageURL = firstNonEmpty(r.Images[0].URL, r.Images[0].Src)
	}

	handle := firstNonEmpty(r.Slug, r.Handle, utils.Slugify(name))
	if shop := a.shopURL(); shop != "" && handle != "" {
		p.CheckoutURL = shop + "/products/" + handle
	}
	return p
}

// decodeProducts accepts the storefront shape ({"results": [...]}) as well as
// the public shop feeds ({"products": [...]}, {"collections": [{"products": [...]}]})
// and a bare array.
func decodeProducts(body []byte) ([]rawProduct, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var list []rawProduct
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("failed to decode products: %w", err)
		}
		return list, nil
	}

	var envelope struct {
		Results     []rawProduct `json:"results"`
		Products    []rawProduct `json:"products"`
		Data        []rawProduct `json:"data"`
		Collections []struct {
			Products []rawProduct `json:"products"`
		} `json:"collections"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	switch {
	case envelope.Results != nil:
		return envelope.Results, nil
	case envelope.Products != nil:
		return envelope.Products, nil
	case envelope.Data != nil:
		return envelope.Data, nil
	case envelope.Collections != nil:
		var all []rawProduct
		for _, c := range envelope.Collections {
			all = append(all, c.Products...)
		}
		return all, nil
	}
	return nil, errors.New("response has no product list")
}

type rawProduct struct {
	ID          flexString   `json:"id"`
	Name        string       `json:"name"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	Handle      string       `json:"handle"`
	Description string       `json:"description"`
	BodyHTML    string       `json:"body_html"`
	Category    string       `json:"category"`
	ProductType string       `json:"product_type"`
	Currency    string       `json:"currency"`
	Price       flexString   `json:"price"`
	InStock     *bool        `json:"in_stock"`
	Available   *bool        `json:"available"`
	Images      []rawImage   `json:"images"`
	Variants    []rawVariant `json:"variants"`
}

type rawImage struct {
	URL string `json:"url"`
	Src string `json:"src"`
}

type rawVariant struct {
	Price     flexString `json:"price"`
	Available *bool      `json:"available"`
	UnitPrice *struct {
		Value    flexString `json:"value"`
		Currency string     `json:"currency"`
	} `json:"unitPrice"`
	Stock *struct {
		Type    string `json:"type"`
		InStock *int   `json:"inStock"`
	} `json:"stock"`
}

func (r rawProduct) price() (string, string) {
	if len(r.Variants) > 0 {
		v := r.Variants[0]
		if v.UnitPrice != nil {
			return string(v.UnitPrice.Value), v.UnitPrice.Currency
		}
		if v.Price != "" {
			return string(v.Price), ""
		}
	}
	return string(r.Price), ""
}

// inStock is true unless the product, or every one of its variants, says otherwise.
func (r rawProduct) inStock() bool {
	if r.InStock != nil && !*r.InStock {
		return false
	}
	if r.Available != nil && !*r.Available {
		return false
	}
	if len(r.Variants) == 0 {
		return true
	}
	for _, v := range r.Variants {
		if !v.soldOut() {
			return true
		}
	}
	return false
}

func (v rawVariant) soldOut() bool {
	if v.Available != nil && !*v.Available {
		return true
	}
	if v.Stock != nil && v.Stock.Type == "LIMITED" && v.Stock.InStock != nil && *v.Stock.InStock <= 0 {
		return true
	}
	return false
}

// flexString decodes a JSON string or number into its text form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
