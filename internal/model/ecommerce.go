package model

import "time"

// CustomerUser is one order of the kibana_sample_data_ecommerce index.
type CustomerUser struct {
	Category            []string  `json:"category"`
	Currency            string    `json:"currency"`
	CustomerFirstName   string    `json:"customer_first_name"`
	CustomerFullName    string    `json:"customer_full_name"`
	CustomerGender      string    `json:"customer_gender"`
	CustomerID          int       `json:"customer_id"`
	CustomerLastName    string    `json:"customer_last_name"`
	CustomerPhone       string    `json:"customer_phone"`
	DayOfWeek           string    `json:"day_of_week"`
	DayOfWeekI          int       `json:"day_of_week_i"`
	Email               string    `json:"email"`
	Manufacturer        []string  `json:"manufacturer"`
	OrderDate           time.Time `json:"order_date"`
	OrderID             int       `json:"order_id"`
	Products            []Product `json:"products"`
	Sku                 []string  `json:"sku"`
	TaxfulTotalPrice    float64   `json:"taxful_total_price"`
	TaxlessTotalPrice   float64   `json:"taxless_total_price"`
	TotalQuantity       int       `json:"total_quantity"`
	TotalUniqueProducts int       `json:"total_unique_products"`
	Type                string    `json:"type"`
	User                string    `json:"user"`
	Geoip               Geoip     `json:"geoip"`
}

type Product struct {
	BasePrice          float64   `json:"base_price"`
	DiscountPercentage int       `json:"discount_percentage"`
	Quantity           int       `json:"quantity"`
	Manufacturer       string    `json:"manufacturer"`
	TaxAmount          int       `json:"tax_amount"`
	ProductID          int       `json:"product_id"`
	Category           string    `json:"category"`
	Sku                string    `json:"sku"`
	TaxlessPrice       float64   `json:"taxless_price"`
	UnitDiscountAmount int       `json:"unit_discount_amount"`
	MinPrice           float64   `json:"min_price"`
	ID                 string    `json:"_id"`
	DiscountAmount     int       `json:"discount_amount"`
	CreatedOn          time.Time `json:"created_on"`
	ProductName        string    `json:"product_name"`
	Price              float64   `json:"price"`
	TaxfulPrice        float64   `json:"taxful_price"`
	BaseUnitPrice      float64   `json:"base_unit_price"`
}

type Geoip struct {
	CountryIsoCode string   `json:"country_iso_code"`
	Location       Location `json:"location"`
	RegionName     string   `json:"region_name,omitempty"`
	ContinentName  string   `json:"continent_name"`
	CityName       string   `json:"city_name,omitempty"`
}

type Location struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// OrderProjection is the set of fields returned by the single-order lookup.
var OrderProjection = []string{"email", "order_id", "customer_full_name"}
