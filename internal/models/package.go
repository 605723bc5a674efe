package models

// PaymentPackage is a purchasable boost option for a listing.
type PaymentPackage struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DurationDays int     `json:"duration"`
	Price        float64 `json:"price"` // TL
	Popular      bool    `json:"popular,omitempty"`
}

// PriceKurus is the price in kurus, the unit PayTR uses on the wire.
func (p PaymentPackage) PriceKurus() int64 {
	return int64(p.Price*100 + 0.5)
}

// PaymentPackages is the closed catalog of boost packages. Package ids
// arriving from stored payments are validated against this list; an id
// outside it fails the transition instead of being silently coerced.
var PaymentPackages = []PaymentPackage{
	{ID: "daily", Name: "1 Günlük Öne Çıkarma", DurationDays: 1, Price: 9.99},
	{ID: "weekly", Name: "1 Haftalık Öne Çıkarma", DurationDays: 7, Price: 29.99, Popular: true},
	{ID: "monthly", Name: "1 Aylık Öne Çıkarma", DurationDays: 30, Price: 89.99},
}

// PackageByID looks up a package in the catalog.
func PackageByID(id string) (PaymentPackage, bool) {
	for _, p := range PaymentPackages {
		if p.ID == id {
			return p, true
		}
	}
	return PaymentPackage{}, false
}
