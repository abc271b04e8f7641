package config

// Built-in defaults for the four demo sources. They mirror the synthetic
// adapters in internal/source so a bare `hopper run` exercises the whole
// pipeline without any configuration file.

func defaultSources() []Source {
	return []Source{
		{Type: "web", Target: "demo", MaxRecords: 500, Required: false},
		{Type: "api", Target: "demo", MaxRecords: 300, Required: false},
		{Type: "db", Target: "demo", MaxRecords: 800, Required: false},
		{Type: "stream", Target: "demo", MaxRecords: 200, Required: false},
	}
}

func defaultRules() []Rule {
	return []Rule{
		{Kind: "required", Field: "product_id", Source: "web"},
		{Kind: "required", Field: "price", Source: "web"},
		{Kind: "range", Field: "price", Source: "web", Min: f(0)},
		{Kind: "range", Field: "rating", Source: "web", Min: f(1), Max: f(5)},
		{Kind: "required", Field: "post_id", Source: "api"},
		{Kind: "range", Field: "sentiment_score", Source: "api", Min: f(-1), Max: f(1)},
		{Kind: "required", Field: "transaction_id", Source: "db"},
		{Kind: "range", Field: "quantity", Source: "db", Min: f(1)},
		{Kind: "range", Field: "unit_price", Source: "db", Min: f(0)},
		{Kind: "date", Field: "transaction_date", Source: "db", Layout: "2006-01-02T15:04:05Z07:00"},
		{Kind: "required", Field: "event_id", Source: "stream"},
		{Kind: "lookup", Field: "event_type", Source: "stream", Allowed: []string{"page_view", "click", "purchase", "signup", "logout"}},
	}
}

func f(v float64) *float64 { return &v }

func defaultFieldMapping() map[string]map[string]string {
	return map[string]map[string]string{
		"web": {
			"product_id":    "record_key",
			"product_name":  "title",
			"price":         "amount",
			"rating":        "rating",
			"reviews_count": "review_count",
			"category":      "category",
			"brand":         "brand",
			"availability":  "availability",
			"source_url":    "source_url",
		},
		"api": {
			"post_id":         "record_key",
			"user_id":         "actor_id",
			"content":         "title",
			"likes":           "likes",
			"shares":          "shares",
			"comments":        "comments",
			"sentiment_score": "sentiment",
			"location":        "location",
			"platform":        "category",
			"created_at":      "occurred_at",
		},
		"db": {
			"transaction_id":   "record_key",
			"customer_id":      "actor_id",
			"product_id":       "product_ref",
			"quantity":         "quantity",
			"unit_price":       "unit_amount",
			"total_amount":     "amount",
			"payment_method":   "category",
			"transaction_date": "occurred_at",
			"store_id":         "store_id",
			"discount_applied": "discount",
			"shipping_cost":    "shipping",
		},
		"stream": {
			"event_id":         "record_key",
			"user_id":          "actor_id",
			"event_type":       "title",
			"session_id":       "session_id",
			"page_url":         "page_url",
			"user_agent":       "user_agent",
			"ip_address":       "ip_address",
			"device_type":      "category",
			"referrer":         "referrer",
			"conversion_value": "conversion_value",
			"timestamp":        "occurred_at",
		},
	}
}

func defaultCanonicalTypes() map[string]string {
	return map[string]string{
		"record_key":       "string",
		"title":            "string",
		"amount":           "float",
		"rating":           "float",
		"review_count":     "int",
		"category":         "string",
		"brand":            "string",
		"availability":     "string",
		"source_url":       "string",
		"actor_id":         "string",
		"likes":            "int",
		"shares":           "int",
		"comments":         "int",
		"sentiment":        "float",
		"location":         "string",
		"occurred_at":      "time",
		"product_ref":      "string",
		"quantity":         "int",
		"unit_amount":      "float",
		"discount":         "float",
		"shipping":         "float",
		"store_id":         "string",
		"session_id":       "string",
		"page_url":         "string",
		"user_agent":       "string",
		"ip_address":       "string",
		"referrer":         "string",
		"conversion_value": "float",
	}
}

func defaultDerivations() []string {
	return []string{
		"price_category",
		"rating_category",
		"engagement_score",
		"sentiment_category",
		"day_of_week",
		"hour_of_day",
		"conversion_flag",
	}
}
