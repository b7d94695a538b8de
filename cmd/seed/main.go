package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	_ "github.com/lib/pq"

	"github.com/joho/godotenv"

	"github.com/Alias1177/Railwatch/internal/config"
	"github.com/Alias1177/Railwatch/internal/database"
	"github.com/Alias1177/Railwatch/models"
)

var labels = []string{
	"", // some rows carry no label
	"scalper-burst",
	"duplicate-booking",
	"suspicious-refunds",
	"multiple-failed-payments",
	"high-value-ticket",
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, relying on actual environment variables")
	}
}

// seed inserts sample flagged transactions. Each insert fires the notify
// trigger, so a running monitor picks them up live and the full
// insert-to-alert path can be exercised without real traffic.
func main() {
	count := flag.Int("n", 10, "number of transactions to insert")
	delay := flag.Duration("delay", 500*time.Millisecond, "pause between inserts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	statuses := []string{"", "active", "investigating", "resolved"}

	for i := 0; i < *count; i++ {
		tx := models.Transaction{
			ID:             fmt.Sprintf("seed-%d-%04d", time.Now().Unix(), i),
			AnomalyScore:   rand.Float64(),
			ReviewStatus:   statuses[rand.Intn(len(statuses))],
			CreatedAt:      time.Now().Format(time.RFC3339),
			AnomalyLabelID: labels[rand.Intn(len(labels))],
			NumTickets:     1 + rand.Intn(15),
			TotalAmount:    int64(150000 * (1 + rand.Intn(20))), // IDR
			FraudFlag:      true,
		}

		if err := db.InsertTransaction(ctx, tx); err != nil {
			log.Fatalf("Failed to insert transaction %s: %v", tx.ID, err)
		}
		log.Printf("inserted %s (score=%.2f)", tx.ID, tx.AnomalyScore)

		if i < *count-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("Seeded %d flagged transactions", *count)
}
