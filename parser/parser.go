// Package parser provides field validation and normalization helpers shared
// by the extractor and the export writers.
package parser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aluiziolira/go-scrape-products/models"
)

// ValidateProduct ensures the extractor captured the required fields.
func ValidateProduct(p *models.ProductRecord) error {
	if p == nil {
		return fmt.Errorf("product is nil")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product missing name")
	}
	if strings.TrimSpace(p.SourceURL) == "" {
		return fmt.Errorf("product missing source URL for %s", p.Name)
	}
	return nil
}

// NormalizeSpace collapses runs of whitespace into single spaces and trims.
func NormalizeSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizePrice trims the price display string. The currency symbol is kept:
// price formatting is site-specific and not parsed to a numeric type here.
func NormalizePrice(price string) string {
	return NormalizeSpace(price)
}

// AbsoluteURL resolves href against base, returning "" when either is
// unparseable.
func AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

// JoinSpecifications flattens a specification table into "key: value" pairs
// separated by "; ", preserving table order. Used by the CSV export.
func JoinSpecifications(specs []models.Specification) string {
	if len(specs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(specs))
	for _, spec := range specs {
		parts = append(parts, spec.Key+": "+spec.Value)
	}
	return strings.Join(parts, "; ")
}
