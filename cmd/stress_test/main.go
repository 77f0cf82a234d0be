package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/rl1809/shopping-cart/internal/adapter/storage"
	"github.com/rl1809/shopping-cart/internal/core/service"
)

const (
	mysqlDSN      = "root:root@tcp(localhost:3306)/shoppingcart?parseTime=true"
	ownerID       = "stress-owner"
	productID     = "stress-product"
	totalRequests = 50
)

// Fires concurrent adds of the same product into one cart and verifies the
// (owner, product) uniqueness constraint merges them into a single row.
func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	// Clear previous test data and seed the product
	db.ExecContext(ctx, `DELETE FROM cart_items WHERE owner_id = ?`, ownerID)
	_, err = db.ExecContext(ctx, `
		INSERT INTO products (id, name, price, image) VALUES (?, 'Stress Product', 9.99, '')
		ON DUPLICATE KEY UPDATE price = 9.99`, productID)
	if err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}

	cartStore := storage.NewMySQLAdapter(db)
	catalogSource := storage.NewMySQLCatalog(db)
	cartService := service.NewCartService(cartStore, catalogSource)

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := cartService.Add(ctx, ownerID, productID, 1)
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	var rowCount, quantity int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cart_items WHERE owner_id = ?`, ownerID).Scan(&rowCount)
	db.QueryRowContext(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM cart_items WHERE owner_id = ?`, ownerID).Scan(&quantity)

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Printf("Rows:             %d\n", rowCount)
	fmt.Printf("Merged Quantity:  %d\n", quantity)
	fmt.Println("==========================================")

	if rowCount == 1 && quantity == int(successCount.Load()) {
		fmt.Println("PASS: Concurrent adds merged into a single row")
	} else {
		fmt.Printf("FAIL: Expected 1 row with quantity %d, got %d rows with quantity %d\n",
			successCount.Load(), rowCount, quantity)
	}
}
