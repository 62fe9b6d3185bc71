package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"localbazaar/internal/config"
	"localbazaar/internal/db"
	"localbazaar/internal/domain"
	"localbazaar/internal/importer"
	"localbazaar/internal/logging"
	categoryrepo "localbazaar/internal/repository/category"
	productrepo "localbazaar/internal/repository/product"
	shoprepo "localbazaar/internal/repository/shop"
)

func main() {
	var (
		filePath string
		shopID   int64
	)
	flag.StringVar(&filePath, "file", "", "Path to product CSV (name,description,price,stock_quantity,category,is_active)")
	flag.Int64Var(&shopID, "shop", 0, "ID of the shop to import into")
	flag.Parse()

	if filePath == "" || shopID <= 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, "importer")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	shop, err := shoprepo.NewPostgres(pool, logger).GetByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Fatal("shop does not exist", zap.Int64("shop_id", shopID))
		}
		logger.Fatal("load shop", zap.Error(err))
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, productrepo.NewPostgres(pool, logger), categoryrepo.NewPostgres(pool), shop.ID, logger)

	start := time.Now()
	var created []domain.Product
	err = db.NewTxRunner(pool).WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = imp.Run(ctx)
		return err
	})
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	fmt.Printf("Imported %d products into shop %q in %s\n", len(created), shop.Name, time.Since(start).Truncate(time.Millisecond))
}
