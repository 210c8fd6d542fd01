// Package main implements a standalone seed script that populates the
// catalog database with deterministic sample data: countries, categories,
// sources, suppliers, and a configurable number of products. Re-runs are
// idempotent because every row id is derived from its index.
//
// Run: go run ./scripts/seed
package main

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const batchSize = 500

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// deterministicID produces a stable id from a namespace and an index so
// re-runs always touch the same rows.
func deterministicID(namespace string, index int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", namespace, index)))
	return fmt.Sprintf("%s_%x", namespace, h[:8])
}

var countries = []string{"Mexico", "Peru", "Colombia", "Guatemala", "Ecuador", "Brazil"}

var categories = []string{
	"Textiles", "Ceramics", "Leather Goods", "Jewelry", "Home Decor",
	"Furniture", "Food & Beverage", "Apparel", "Footwear", "Accessories",
}

var sources = []string{"Alibaba", "Made-in-Mexico", "Directorio B2B"}

var productAdjectives = []string{
	"Handwoven", "Artisanal", "Embroidered", "Hand-painted", "Carved",
	"Organic", "Traditional", "Modern", "Rustic", "Premium",
}

var productNouns = []string{
	"Blanket", "Vase", "Wallet", "Necklace", "Lamp", "Chair", "Coffee",
	"Shirt", "Sandals", "Tote Bag", "Rug", "Bowl", "Belt", "Earrings",
}

func main() {
	productCount := 1000
	if v := os.Getenv("SEED_PRODUCT_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			log.Fatalf("invalid SEED_PRODUCT_COUNT %q", v)
		}
		productCount = n
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("POSTGRES_USER", "catalog"),
		getEnv("POSTGRES_PASSWORD", "catalog_secret"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB", "catalog"),
		getEnv("POSTGRES_SSLMODE", "disable"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	start := time.Now()

	countryIDs := seedLookup(ctx, pool, "Countries", "Country_ID", "Country_Title", "country", countries)
	categoryIDs := seedLookup(ctx, pool, "Categories", "Category_ID", "Category_Title", "category", categories)
	sourceIDs := seedLookup(ctx, pool, "Sources", "Source_ID", "Source_Title", "source", sources)
	supplierIDs := seedSuppliers(ctx, pool, countryIDs, sourceIDs)
	seedProducts(ctx, pool, productCount, countryIDs, categoryIDs, supplierIDs, sourceIDs)

	log.Printf("seeded %d products across %d suppliers in %s",
		productCount, len(supplierIDs), time.Since(start).Round(time.Millisecond))
}

func seedLookup(ctx context.Context, pool *pgxpool.Pool, table, idCol, titleCol, namespace string, titles []string) []string {
	ids := make([]string, len(titles))
	batch := &pgx.Batch{}
	query := fmt.Sprintf(
		`INSERT INTO %q (%q, %q) VALUES ($1, $2) ON CONFLICT (%q) DO UPDATE SET %q = EXCLUDED.%q`,
		table, idCol, titleCol, idCol, titleCol, titleCol,
	)
	for i, title := range titles {
		ids[i] = deterministicID(namespace, i)
		batch.Queue(query, ids[i], title)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		log.Fatalf("seed %s: %v", table, err)
	}
	log.Printf("seeded %d rows into %s", len(titles), table)
	return ids
}

func seedSuppliers(ctx context.Context, pool *pgxpool.Pool, countryIDs, sourceIDs []string) []string {
	const supplierCount = 50
	ids := make([]string, supplierCount)

	batch := &pgx.Batch{}
	for i := 0; i < supplierCount; i++ {
		ids[i] = deterministicID("supplier", i)
		country := countries[i%len(countries)]
		batch.Queue(`
			INSERT INTO "Supplier" (
				"Supplier_ID", "Supplier_Title", "Supplier_Description",
				"Supplier_Website", "Supplier_Email", "Supplier_Location",
				"Supplier_Country_Name", "Supplier_City_Name", "Supplier_Source_ID"
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT ("Supplier_ID") DO UPDATE SET "Supplier_Title" = EXCLUDED."Supplier_Title"`,
			ids[i],
			fmt.Sprintf("Supplier %03d Trading Co", i+1),
			fmt.Sprintf("Wholesale exporter of regional goods, est. %d", 1980+i%40),
			fmt.Sprintf("https://supplier-%03d.example", i+1),
			fmt.Sprintf("sales@supplier-%03d.example", i+1),
			country,
			country,
			fmt.Sprintf("City %d", i%10+1),
			sourceIDs[i%len(sourceIDs)],
		)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		log.Fatalf("seed suppliers: %v", err)
	}
	log.Printf("seeded %d suppliers", supplierCount)
	return ids
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, count int, countryIDs, categoryIDs, supplierIDs, sourceIDs []string) {
	inserted := 0
	for from := 0; from < count; from += batchSize {
		batch := &pgx.Batch{}
		to := from + batchSize
		if to > count {
			to = count
		}

		for i := from; i < to; i++ {
			adjective := productAdjectives[i%len(productAdjectives)]
			noun := productNouns[(i/len(productAdjectives))%len(productNouns)]
			batch.Queue(`
				INSERT INTO "Products" (
					"Product_ID", "Product_Title", "Product_Price",
					"Product_Image_URL", "Product_Title_URL", "Product_MOQ",
					"Product_Country_ID", "Product_Category_ID",
					"Product_Supplier_ID", "Product_Source_ID"
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT ("Product_ID") DO UPDATE SET "Product_Title" = EXCLUDED."Product_Title"`,
				deterministicID("product", i),
				fmt.Sprintf("%s %s #%d", adjective, noun, i+1),
				fmt.Sprintf("%d.%02d", 5+i%200, i%100),
				fmt.Sprintf("https://img.example/products/%d.jpg", i),
				fmt.Sprintf("https://market.example/products/%d", i),
				strconv.Itoa(10*(1+i%20)),
				countryIDs[i%len(countryIDs)],
				categoryIDs[i%len(categoryIDs)],
				supplierIDs[i%len(supplierIDs)],
				sourceIDs[i%len(sourceIDs)],
			)
		}

		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			log.Fatalf("seed products batch at %d: %v", from, err)
		}
		inserted += to - from
		log.Printf("seeded %d/%d products", inserted, count)
	}
}
