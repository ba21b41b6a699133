package model

import (
	"strconv"
	"time"
)

// DocumentID is the id an order is stored under.
func (o CustomerUser) DocumentID() string { return strconv.Itoa(o.OrderID) }

// SampleOrders is a small slice of the Kibana e-commerce sample data set, enough to exercise
// every search, query and aggregation endpoint.
func SampleOrders() []CustomerUser {
	return []CustomerUser{
		{
			Category:          []string{"Men's Clothing"},
			Currency:          "EUR",
			CustomerFirstName: "Eddie",
			CustomerFullName:  "Eddie Underwood",
			CustomerGender:    "MALE",
			CustomerID:        38,
			CustomerLastName:  "Underwood",
			DayOfWeek:         "Monday",
			DayOfWeekI:        0,
			Email:             "eddie@underwood-family.zzz",
			Manufacturer:      []string{"Elitelligence", "Oceanavigations"},
			OrderDate:         time.Date(2020, 3, 16, 9, 28, 48, 0, time.UTC),
			OrderID:           584677,
			Products: []Product{
				{BasePrice: 11.99, Quantity: 1, Manufacturer: "Elitelligence", ProductID: 6283, Category: "Men's Clothing",
					Sku: "ZO0549605496", TaxlessPrice: 11.99, MinPrice: 6.35, ProductName: "Basic T-shirt - dark blue/white",
					Price: 11.99, TaxfulPrice: 11.99, BaseUnitPrice: 11.99, CreatedOn: time.Date(2016, 12, 26, 9, 28, 48, 0, time.UTC)},
				{BasePrice: 24.99, Quantity: 1, Manufacturer: "Oceanavigations", ProductID: 19400, Category: "Men's Clothing",
					Sku: "ZO0299602996", TaxlessPrice: 24.99, MinPrice: 11.75, ProductName: "Sweatshirt - grey multicolor",
					Price: 24.99, TaxfulPrice: 24.99, BaseUnitPrice: 24.99, CreatedOn: time.Date(2016, 12, 26, 9, 28, 48, 0, time.UTC)},
			},
			Sku:                 []string{"ZO0549605496", "ZO0299602996"},
			TaxfulTotalPrice:    36.98,
			TaxlessTotalPrice:   36.98,
			TotalQuantity:       2,
			TotalUniqueProducts: 2,
			Type:                "order",
			User:                "eddie",
			Geoip: Geoip{CountryIsoCode: "EG", Location: Location{Lon: 31.3, Lat: 30.1},
				RegionName: "Cairo Governorate", ContinentName: "Africa", CityName: "Cairo"},
		},
		{
			Category:          []string{"Women's Clothing"},
			Currency:          "EUR",
			CustomerFirstName: "Mary",
			CustomerFullName:  "Mary Bailey",
			CustomerGender:    "FEMALE",
			CustomerID:        20,
			CustomerLastName:  "Bailey",
			DayOfWeek:         "Tuesday",
			DayOfWeekI:        1,
			Email:             "mary@bailey-family.zzz",
			Manufacturer:      []string{"Champion Arts", "Pyramidustries"},
			OrderDate:         time.Date(2020, 3, 17, 21, 59, 2, 0, time.UTC),
			OrderID:           584021,
			Sku:               []string{"ZO0489604896", "ZO0185501855"},
			TaxfulTotalPrice:  53.98,
			TaxlessTotalPrice: 53.98,
			TotalQuantity:     2,
			Type:              "order",
			User:              "mary",
			Geoip: Geoip{CountryIsoCode: "AE", Location: Location{Lon: 55.3, Lat: 25.3},
				RegionName: "Dubai", ContinentName: "Asia", CityName: "Dubai"},
		},
		{
			Category:          []string{"Women's Shoes", "Women's Clothing"},
			Currency:          "EUR",
			CustomerFirstName: "Gwen",
			CustomerFullName:  "Gwen Butler",
			CustomerGender:    "FEMALE",
			CustomerID:        26,
			CustomerLastName:  "Butler",
			DayOfWeek:         "Friday",
			DayOfWeekI:        4,
			Email:             "gwen@butler-family.zzz",
			Manufacturer:      []string{"Low Tide Media", "Oceanavigations"},
			OrderDate:         time.Date(2020, 3, 20, 22, 32, 10, 0, time.UTC),
			OrderID:           584058,
			Sku:               []string{"ZO0374603746", "ZO0272202722"},
			TaxfulTotalPrice:  199.98,
			TaxlessTotalPrice: 199.98,
			TotalQuantity:     2,
			Type:              "order",
			User:              "gwen",
			Geoip: Geoip{CountryIsoCode: "US", Location: Location{Lon: -118.2, Lat: 34.1},
				RegionName: "California", ContinentName: "North America", CityName: "Los Angeles"},
		},
		{
			Category:          []string{"Women's Clothing", "Women's Accessories"},
			Currency:          "EUR",
			CustomerFirstName: "Diane",
			CustomerFullName:  "Diane Chandler",
			CustomerGender:    "FEMALE",
			CustomerID:        22,
			CustomerLastName:  "Chandler",
			DayOfWeek:         "Sunday",
			DayOfWeekI:        6,
			Email:             "diane@chandler-family.zzz",
			Manufacturer:      []string{"Primemaster", "Elitelligence"},
			OrderDate:         time.Date(2020, 3, 22, 22, 58, 0, 0, time.UTC),
			OrderID:           584093,
			Sku:               []string{"ZO0360303603", "ZO0610506105"},
			TaxfulTotalPrice:  74.99,
			TaxlessTotalPrice: 74.99,
			TotalQuantity:     2,
			Type:              "order",
			User:              "diane",
			Geoip: Geoip{CountryIsoCode: "US", Location: Location{Lon: -74, Lat: 40.8},
				RegionName: "New York", ContinentName: "North America", CityName: "New York"},
		},
	}
}
