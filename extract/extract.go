// Package extract converts fetched page bodies into product records.
package extract

import (
	"bytes"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-products/models"
	"github.com/aluiziolira/go-scrape-products/parser"
)

// Extractor is the pluggable page-to-record strategy. Page structure is
// site-specific; the engine depends only on this contract.
type Extractor interface {
	Parse(body []byte, sourceURL string) (*models.ProductRecord, error)
}

// Selectors names the CSS selectors a ProductExtractor queries. Zero-value
// fields fall back to the defaults.
type Selectors struct {
	Name         string
	SKU          string
	Price        string
	Description  string
	SpecRows     string
	Images       string
	Breadcrumbs  string
	Availability string
	Brand        string
}

// DefaultSelectors covers the markup conventions common product pages share.
func DefaultSelectors() Selectors {
	return Selectors{
		Name:         "h1.product-title, h1[itemprop=name], .product_main h1, h1",
		SKU:          "[itemprop=sku], .sku",
		Price:        ".price, [itemprop=price], .price_color, .product-price",
		Description:  "#product_description ~ p, [itemprop=description], .product-description",
		SpecRows:     "table.specs tr, table.table-striped tr, .product-specs tr",
		Images:       "#product_gallery img, .product-images img, .carousel img, .item img",
		Breadcrumbs:  ".breadcrumb li, nav[aria-label=breadcrumb] li, ul.breadcrumbs li",
		Availability: ".availability, .instock, [itemprop=availability], .stock-status",
		Brand:        "[itemprop=brand], .brand, .product-brand",
	}
}

// ProductExtractor is the reference Extractor. It requires a product name;
// everything else is best-effort.
type ProductExtractor struct {
	selectors Selectors
}

// NewProductExtractor builds the reference extractor. Unset selector fields
// use the defaults.
func NewProductExtractor(selectors Selectors) *ProductExtractor {
	defaults := DefaultSelectors()
	if selectors.Name == "" {
		selectors.Name = defaults.Name
	}
	if selectors.SKU == "" {
		selectors.SKU = defaults.SKU
	}
	if selectors.Price == "" {
		selectors.Price = defaults.Price
	}
	if selectors.Description == "" {
		selectors.Description = defaults.Description
	}
	if selectors.SpecRows == "" {
		selectors.SpecRows = defaults.SpecRows
	}
	if selectors.Images == "" {
		selectors.Images = defaults.Images
	}
	if selectors.Breadcrumbs == "" {
		selectors.Breadcrumbs = defaults.Breadcrumbs
	}
	if selectors.Availability == "" {
		selectors.Availability = defaults.Availability
	}
	if selectors.Brand == "" {
		selectors.Brand = defaults.Brand
	}
	return &ProductExtractor{selectors: selectors}
}

// Parse extracts a ProductRecord from body. A missing product name is a
// parse failure returned as a models.ExtractionError; the caller keeps
// processing other URLs.
func (e *ProductExtractor) Parse(body []byte, sourceURL string) (*models.ProductRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, models.ExtractionError{
			SourceURL:  sourceURL,
			Reason:     "parse html: " + err.Error(),
			OccurredAt: time.Now(),
		}
	}

	name := parser.NormalizeSpace(doc.Find(e.selectors.Name).First().Text())
	if name == "" {
		return nil, models.ExtractionError{
			SourceURL:  sourceURL,
			Reason:     "missing product name",
			OccurredAt: time.Now(),
		}
	}

	record := &models.ProductRecord{
		Name:         name,
		SKU:          parser.NormalizeSpace(doc.Find(e.selectors.SKU).First().Text()),
		Price:        parser.NormalizePrice(doc.Find(e.selectors.Price).First().Text()),
		Description:  parser.NormalizeSpace(doc.Find(e.selectors.Description).First().Text()),
		Availability: parser.NormalizeSpace(doc.Find(e.selectors.Availability).First().Text()),
		Brand:        parser.NormalizeSpace(doc.Find(e.selectors.Brand).First().Text()),
		SourceURL:    sourceURL,
		ScrapedAt:    time.Now(),
	}

	record.Specifications = e.extractSpecs(doc)
	record.Images = e.extractImages(doc, sourceURL)
	record.Categories = e.extractCategories(doc)

	if err := parser.ValidateProduct(record); err != nil {
		return nil, models.ExtractionError{
			SourceURL:  sourceURL,
			Reason:     err.Error(),
			OccurredAt: time.Now(),
		}
	}
	return record, nil
}

func (e *ProductExtractor) extractSpecs(doc *goquery.Document) []models.Specification {
	var specs []models.Specification
	doc.Find(e.selectors.SpecRows).Each(func(_ int, row *goquery.Selection) {
		key := parser.NormalizeSpace(row.Find("th").First().Text())
		value := parser.NormalizeSpace(row.Find("td").First().Text())
		if key == "" {
			// Two-column tables without header cells.
			cells := row.Find("td")
			if cells.Length() < 2 {
				return
			}
			key = parser.NormalizeSpace(cells.Eq(0).Text())
			value = parser.NormalizeSpace(cells.Eq(1).Text())
		}
		if key == "" || value == "" {
			return
		}
		specs = append(specs, models.Specification{Key: key, Value: value})
	})
	return specs
}

func (e *ProductExtractor) extractImages(doc *goquery.Document, sourceURL string) []string {
	var images []string
	seen := make(map[string]struct{})
	doc.Find(e.selectors.Images).Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok {
			return
		}
		abs := parser.AbsoluteURL(sourceURL, src)
		if abs == "" {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		images = append(images, abs)
	})
	return images
}

func (e *ProductExtractor) extractCategories(doc *goquery.Document) []string {
	var categories []string
	doc.Find(e.selectors.Breadcrumbs).Each(func(_ int, crumb *goquery.Selection) {
		text := parser.NormalizeSpace(crumb.Text())
		if text == "" {
			return
		}
		categories = append(categories, text)
	})
	// The last breadcrumb is usually the product itself, not a category.
	if len(categories) > 1 {
		categories = categories[:len(categories)-1]
	}
	return categories
}
