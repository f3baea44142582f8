package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/odyssey-erp/odyssey-billing/internal/app"
	"github.com/odyssey-erp/odyssey-billing/internal/catalog"
	"github.com/odyssey-erp/odyssey-billing/internal/platform/db"
)

var sampleProducts = []catalog.ProductInput{
	{Name: "Hydraulic Hose 1/2in", UnitPrice: "450.00", MaterialCode: "HH-050"},
	{Name: "Ball Bearing 6204", UnitPrice: "120.00", MaterialCode: "BB-6204"},
	{Name: "V-Belt A42", UnitPrice: "210.50", MaterialCode: "VB-A42"},
	{Name: "Gear Oil 5L", UnitPrice: "1325.00", MaterialCode: "GO-5L"},
	{Name: "Pressure Gauge 0-10 bar", UnitPrice: "780.00", MaterialCode: "PG-10"},
}

func main() {
	force := flag.Bool("force", false, "seed even when the catalog already has products")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()

	var repo catalog.Repository
	if cfg.CatalogBackend == app.BackendPostgres {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		pgRepo := catalog.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		repo = pgRepo
	} else {
		repo = catalog.NewFileRepository(cfg.CatalogPath, nil)
	}
	svc := catalog.NewService(repo, app.NewLogger(cfg), nil)

	existing, err := svc.List(ctx)
	if err != nil {
		log.Fatalf("list catalog: %v", err)
	}
	if len(existing) > 0 && !*force {
		fmt.Printf("Catalog already has %d products, skipping (use -force to add anyway)\n", len(existing))
		return
	}

	fmt.Println("→ Seeding catalog...")
	for _, in := range sampleProducts {
		if _, err := svc.Add(ctx, in); err != nil {
			log.Fatalf("seed %s: %v", in.Name, err)
		}
	}
	fmt.Printf("✓ Seeded %d products into %s catalog\n", len(sampleProducts), cfg.CatalogBackend)
}
