package parser

import (
	"testing"

	"github.com/aluiziolira/go-scrape-products/models"
)

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name    string
		product *models.ProductRecord
		wantErr bool
	}{
		{name: "nil product", product: nil, wantErr: true},
		{
			name:    "missing name",
			product: &models.ProductRecord{SourceURL: "http://example.test/p/1"},
			wantErr: true,
		},
		{
			name:    "missing source url",
			product: &models.ProductRecord{Name: "Widget"},
			wantErr: true,
		},
		{
			name:    "valid",
			product: &models.ProductRecord{Name: "Widget", SourceURL: "http://example.test/p/1"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProduct(tt.product)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateProduct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeSpace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  In   stock \n (22 available)  ", want: "In stock (22 available)"},
		{in: "\t\n", want: ""},
		{in: "plain", want: "plain"},
	}

	for _, tt := range tests {
		if got := NormalizeSpace(tt.in); got != tt.want {
			t.Fatalf("NormalizeSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{
			name: "relative path",
			base: "http://example.test/catalogue/widget/index.html",
			href: "../../media/widget.jpg",
			want: "http://example.test/media/widget.jpg",
		},
		{
			name: "already absolute",
			base: "http://example.test/p/1",
			href: "https://cdn.example.test/img.png",
			want: "https://cdn.example.test/img.png",
		},
		{
			name: "empty href",
			base: "http://example.test/p/1",
			href: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbsoluteURL(tt.base, tt.href); got != tt.want {
				t.Fatalf("AbsoluteURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
			}
		})
	}
}

func TestJoinSpecifications(t *testing.T) {
	specs := []models.Specification{
		{Key: "Color", Value: "Red"},
		{Key: "Weight", Value: "2 kg"},
	}
	want := "Color: Red; Weight: 2 kg"
	if got := JoinSpecifications(specs); got != want {
		t.Fatalf("JoinSpecifications() = %q, want %q", got, want)
	}
	if got := JoinSpecifications(nil); got != "" {
		t.Fatalf("JoinSpecifications(nil) = %q, want empty", got)
	}
}
