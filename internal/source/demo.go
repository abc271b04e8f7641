package source

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"hopper/internal/config"
	"hopper/internal/faults"
	"hopper/internal/record"
)

// The demo adapters generate the sample data sets the pipeline ships with:
// scraped product listings, social posts, sales transactions, and
// clickstream events. Generation is seeded per adapter so repeated runs over
// the same configuration produce identical batches. A small fraction of
// records carries injected defects (missing or out-of-range fields) so the
// quality stage has something to find.

const demoTarget = "demo"

const (
	webSeed    = 42
	apiSeed    = 43
	dbSeed     = 44
	streamSeed = 45
)

// defectRate is the fraction of demo records generated with a deliberate
// quality defect.
const defectRate = 0.03

func checkTarget(name string, cfg config.Source) error {
	if cfg.Target != demoTarget {
		return faults.Wrap(faults.ErrExtraction, name, "connect",
			fmt.Sprintf("unknown target %q (built-in adapter only supports %q)", cfg.Target, demoTarget), nil)
	}
	return nil
}

func batchSize(cfg config.Source, fallback int) int {
	if cfg.MaxRecords > 0 {
		return cfg.MaxRecords
	}
	return fallback
}

type webAdapter struct{}

func (a *webAdapter) Name() string { return "web" }

func (a *webAdapter) Extract(ctx context.Context, cfg config.Source) ([]record.Record, error) {
	if err := checkTarget(a.Name(), cfg); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(webSeed))
	now := time.Now().UTC()
	categories := []string{"Electronics", "Books", "Clothing", "Home & Garden"}
	brands := []string{"A", "B", "C", "D", "E"}

	n := batchSize(cfg, 500)
	records := make([]record.Record, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, faults.Wrap(faults.ErrExtraction, a.Name(), "extract", "canceled", err)
		}
		category := categories[rng.Intn(len(categories))]
		rec := record.New(fmt.Sprintf("PROD_%06d", i+1), record.SourceWeb, now)
		rec.SetField("product_id", fmt.Sprintf("PROD_%06d", i+1))
		rec.SetField("product_name", fmt.Sprintf("Product_%s_%d", category, i))
		rec.SetField("price", logNormal(rng, 3, 0.8))
		rec.SetField("rating", 1+rng.Float64()*4)
		rec.SetField("reviews_count", poisson(rng, 50))
		rec.SetField("category", category)
		rec.SetField("brand", "Brand_"+brands[rng.Intn(len(brands))])
		rec.SetField("availability", weightedChoice(rng, []string{"In Stock", "Out of Stock", "Limited"}, []float64{0.7, 0.2, 0.1}))
		rec.SetField("scraped_timestamp", now.Add(-time.Duration(rng.Intn(24))*time.Hour).Format(time.RFC3339))
		rec.SetField("source_url", fmt.Sprintf("https://example-ecommerce.com/product/%d", i+1))
		injectWebDefect(rng, &rec)
		records = append(records, rec)
	}
	return records, nil
}

func injectWebDefect(rng *rand.Rand, rec *record.Record) {
	if rng.Float64() >= defectRate {
		return
	}
	switch rng.Intn(3) {
	case 0:
		delete(rec.Fields, "price")
	case 1:
		rec.SetField("price", -1.0)
	default:
		rec.SetField("rating", 0.0)
	}
}

type apiAdapter struct{}

func (a *apiAdapter) Name() string { return "api" }

func (a *apiAdapter) Extract(ctx context.Context, cfg config.Source) ([]record.Record, error) {
	if err := checkTarget(a.Name(), cfg); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(apiSeed))
	now := time.Now().UTC()
	locations := []string{"New York", "Los Angeles", "Chicago", "Houston", "Phoenix"}
	platforms := []string{"Twitter", "Facebook", "Instagram", "LinkedIn"}

	n := batchSize(cfg, 300)
	records := make([]record.Record, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, faults.Wrap(faults.ErrExtraction, a.Name(), "extract", "canceled", err)
		}
		rec := record.New(fmt.Sprintf("POST_%08d", i+1), record.SourceAPI, now)
		rec.SetField("post_id", fmt.Sprintf("POST_%08d", i+1))
		rec.SetField("user_id", fmt.Sprintf("USER_%06d", 1+rng.Intn(9999)))
		rec.SetField("content", fmt.Sprintf("This is sample social media content #%d", i+1))
		rec.SetField("likes", poisson(rng, 25))
		rec.SetField("shares", poisson(rng, 5))
		rec.SetField("comments", poisson(rng, 8))
		rec.SetField("sentiment_score", rng.Float64()*2-1)
		rec.SetField("location", locations[rng.Intn(len(locations))])
		rec.SetField("created_at", now.Add(-time.Duration(rng.Intn(1440))*time.Minute).Format(time.RFC3339))
		rec.SetField("platform", platforms[rng.Intn(len(platforms))])
		if rng.Float64() < defectRate {
			rec.SetField("sentiment_score", 2.5)
		}
		records = append(records, rec)
	}
	return records, nil
}

type dbAdapter struct{}

func (a *dbAdapter) Name() string { return "db" }

func (a *dbAdapter) Extract(ctx context.Context, cfg config.Source) ([]record.Record, error) {
	if err := checkTarget(a.Name(), cfg); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(dbSeed))
	now := time.Now().UTC()
	payments := []string{"Credit Card", "Debit Card", "PayPal", "Cash"}

	n := batchSize(cfg, 800)
	records := make([]record.Record, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, faults.Wrap(faults.ErrExtraction, a.Name(), "extract", "canceled", err)
		}
		quantity := 1 + rng.Intn(9)
		unitPrice := logNormal(rng, 3, 0.5)
		discount := rng.Float64() * 0.3
		shipping := rng.Float64() * 25
		const taxRate = 0.08

		rec := record.New(fmt.Sprintf("TXN_%010d", i+1), record.SourceDB, now)
		rec.SetField("transaction_id", fmt.Sprintf("TXN_%010d", i+1))
		rec.SetField("customer_id", fmt.Sprintf("CUST_%06d", 1+rng.Intn(4999)))
		rec.SetField("product_id", fmt.Sprintf("PROD_%06d", 1+rng.Intn(999)))
		rec.SetField("quantity", quantity)
		rec.SetField("unit_price", unitPrice)
		rec.SetField("total_amount", float64(quantity)*unitPrice*(1-discount)*(1+taxRate)+shipping)
		rec.SetField("payment_method", payments[rng.Intn(len(payments))])
		rec.SetField("transaction_date", now.Add(-time.Duration(rng.Intn(365))*24*time.Hour).Format(time.RFC3339))
		rec.SetField("store_id", fmt.Sprintf("STORE_%03d", 1+rng.Intn(99)))
		rec.SetField("sales_rep_id", fmt.Sprintf("REP_%03d", 1+rng.Intn(199)))
		rec.SetField("discount_applied", discount)
		rec.SetField("tax_rate", taxRate)
		rec.SetField("shipping_cost", shipping)
		if rng.Float64() < defectRate {
			rec.SetField("quantity", 0)
		}
		records = append(records, rec)
	}
	return records, nil
}

type streamAdapter struct{}

func (a *streamAdapter) Name() string { return "stream" }

func (a *streamAdapter) Extract(ctx context.Context, cfg config.Source) ([]record.Record, error) {
	if err := checkTarget(a.Name(), cfg); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(streamSeed))
	now := time.Now().UTC()
	eventTypes := []string{"page_view", "click", "purchase", "signup", "logout"}
	pages := []string{"home", "products", "cart", "checkout", "profile"}
	agents := []string{"Chrome", "Firefox", "Safari", "Edge"}
	devices := []string{"Desktop", "Mobile", "Tablet"}
	referrers := []string{"google.com", "facebook.com", "direct", "twitter.com", "linkedin.com"}

	n := batchSize(cfg, 200)
	records := make([]record.Record, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, faults.Wrap(faults.ErrExtraction, a.Name(), "extract", "canceled", err)
		}
		rec := record.New(fmt.Sprintf("EVENT_%08d", i+1), record.SourceStream, now)
		rec.SetField("event_id", fmt.Sprintf("EVENT_%08d", i+1))
		rec.SetField("user_id", fmt.Sprintf("USER_%06d", 1+rng.Intn(9999)))
		rec.SetField("event_type", eventTypes[rng.Intn(len(eventTypes))])
		rec.SetField("timestamp", now.Add(-time.Duration(rng.Intn(3600))*time.Second).Format(time.RFC3339))
		rec.SetField("session_id", fmt.Sprintf("SESSION_%08d", 1+rng.Intn(49999)))
		rec.SetField("page_url", "/page/"+pages[rng.Intn(len(pages))])
		rec.SetField("user_agent", agents[rng.Intn(len(agents))])
		rec.SetField("ip_address", fmt.Sprintf("%d.%d.%d.%d", 1+rng.Intn(254), 1+rng.Intn(254), 1+rng.Intn(254), 1+rng.Intn(254)))
		rec.SetField("device_type", devices[rng.Intn(len(devices))])
		rec.SetField("referrer", referrers[rng.Intn(len(referrers))])
		conversion := 0.0
		if rng.Float64() < 0.1 {
			conversion = rng.ExpFloat64() * 50
		}
		rec.SetField("conversion_value", conversion)
		if rng.Float64() < defectRate {
			rec.SetField("event_type", "unknown")
		}
		records = append(records, rec)
	}
	return records, nil
}

func logNormal(rng *rand.Rand, mu, sigma float64) float64 {
	return math.Exp(rng.NormFloat64()*sigma + mu)
}

// poisson draws from a Poisson distribution using Knuth's method. The demo
// means are small enough that the multiplicative loop stays cheap.
func poisson(rng *rand.Rand, mean float64) int {
	limit := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= limit {
			return k
		}
		k++
	}
}

func weightedChoice(rng *rand.Rand, values []string, weights []float64) string {
	target := rng.Float64()
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if target < cumulative {
			return values[i]
		}
	}
	return values[len(values)-1]
}
