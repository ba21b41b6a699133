package elasticsearch

// EcommerceMapping returns the mapping of the sample e-commerce orders index.
// Fields: order_id/customer_id/email (keyword), customer names and manufacturer (text+keyword),
// order_date (date), products (object), geoip (object with geo_point location).
func EcommerceMapping() Mapping {
	keyword := Property{Type: "keyword"}
	return Mapping{Properties: map[string]Property{
		"category":              textWithKeyword(),
		"currency":              keyword,
		"customer_first_name":   textWithKeyword(),
		"customer_full_name":    textWithKeyword(),
		"customer_gender":       keyword,
		"customer_id":           keyword,
		"customer_last_name":    textWithKeyword(),
		"customer_phone":        keyword,
		"day_of_week":           keyword,
		"day_of_week_i":         {Type: "integer"},
		"email":                 keyword,
		"manufacturer":          textWithKeyword(),
		"order_date":            {Type: "date"},
		"order_id":              keyword,
		"sku":                   keyword,
		"taxful_total_price":    {Type: "half_float"},
		"taxless_total_price":   {Type: "half_float"},
		"total_quantity":        {Type: "integer"},
		"total_unique_products": {Type: "integer"},
		"type":                  keyword,
		"user":                  keyword,
		"products": {Type: "object", Properties: map[string]Property{
			"_id":                  textWithKeyword(),
			"base_price":           {Type: "half_float"},
			"base_unit_price":      {Type: "half_float"},
			"category":             textWithKeyword(),
			"created_on":           {Type: "date"},
			"discount_amount":      {Type: "half_float"},
			"discount_percentage":  {Type: "half_float"},
			"manufacturer":         textWithKeyword(),
			"min_price":            {Type: "half_float"},
			"price":                {Type: "half_float"},
			"product_id":           {Type: "long"},
			"product_name":         textWithKeyword(),
			"quantity":             {Type: "integer"},
			"sku":                  keyword,
			"tax_amount":           {Type: "half_float"},
			"taxful_price":         {Type: "half_float"},
			"taxless_price":        {Type: "half_float"},
			"unit_discount_amount": {Type: "half_float"},
		}},
		"geoip": {Type: "object", Properties: map[string]Property{
			"city_name":        keyword,
			"continent_name":   keyword,
			"country_iso_code": keyword,
			"location":         {Type: "geo_point"},
			"region_name":      keyword,
		}},
	}}
}
