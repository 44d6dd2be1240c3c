// Package banner holds the storefront's promotional banners.
package banner

import (
	"github.com/utafrali/storefront/internal/domain"
)

const (
	ctaShop  = "Shop Now"
	ctaLearn = "Learn More"
)

// shopClasses are the banner slots whose call to action leads to shopping.
var shopClasses = map[string]bool{
	"banner-promo":   true,
	"banner-promo-2": true,
}

// Defaults returns the standard set of banners in display order.
func Defaults() []domain.Banner {
	return []domain.Banner{
		{Class: "banner-promo", Title: "Free Shipping", Text: "Enjoy free shipping on orders over $50", URL: "https://www.example.com/free-shipping"},
		{Class: "banner-winter", Title: "Winter Sale", Text: "Save 20% on winter essentials!", URL: "https://www.example.com/winter-sale"},
		{Class: "banner-summer", Title: "Summer Sale", Text: "Hot deals up to 50% off!", URL: "https://www.example.com/summer-sale"},
		{Class: "banner-autumn", Title: "Autumn Clearout", Text: "Clear out your autumn wardrobe with up to 70% off", URL: "https://www.example.com/autumn-clearout"},
		{Class: "banner-holiday", Title: "Holiday Sale", Text: "Shop our holiday collection and save up to 30% off", URL: "https://www.example.com/holiday-sale"},
		{Class: "banner-new-arrivals", Title: "New Arrivals", Text: "Explore our latest arrivals and find your next favorite piece", URL: "https://www.example.com/new-arrivals"},
		{Class: "banner-sale", Title: "Sale", Text: "Shop our sale section and find great deals on our best-selling items", URL: "https://www.example.com/sale"},
		{Class: "banner-promo-2", Title: "Spring Sale", Text: "Spring into savings with up to 40% off our seasonal collection", URL: "https://www.example.com/spring-sale"},
	}
}

// CTA returns the button label for a banner.
func CTA(b domain.Banner) string {
	if shopClasses[b.Class] {
		return ctaShop
	}
	return ctaLearn
}

// View is a banner ready for display, with its call-to-action label.
type View struct {
	domain.Banner
	CTA string `json:"cta"`
}

// Views pairs each banner with its label, preserving order.
func Views(banners []domain.Banner) []View {
	views := make([]View, 0, len(banners))
	for _, b := range banners {
		views = append(views, View{Banner: b, CTA: CTA(b)})
	}
	return views
}
