package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/Alias1177/Railwatch/internal/classify"
	"github.com/Alias1177/Railwatch/internal/config"
	"github.com/Alias1177/Railwatch/internal/database"
	"github.com/Alias1177/Railwatch/internal/feed"
	"github.com/Alias1177/Railwatch/models"
)

func init() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, relying on actual environment variables")
	}
}

// digest pushes a one-shot summary of the flagged-transaction feed to the
// operator chat. Meant to run from cron.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN not set in environment")
	}
	if cfg.TelegramChatID == 0 {
		log.Fatal("TELEGRAM_CHAT_ID not set in environment")
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	txs, err := db.FlaggedTransactions(ctx)
	if err != nil {
		log.Fatalf("Failed to load flagged transactions: %v", err)
	}

	f := feed.New(0)
	items := make([]models.Anomaly, 0, len(txs))
	for _, tx := range txs {
		items = append(items, classify.Classify(tx))
	}
	f.LoadBatch(items)

	counts := f.Counts()
	resolvedToday := f.ResolvedToday(time.Now())

	bySeverity := map[models.Severity]int{}
	for _, item := range items {
		bySeverity[item.Severity]++
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	msg := tgbotapi.NewMessage(cfg.TelegramChatID, buildDigest(counts, resolvedToday, bySeverity, len(items)))
	msg.ParseMode = "Markdown"

	if _, err := bot.Send(msg); err != nil {
		log.Fatalf("Failed to send digest: %v", err)
	}

	log.Printf("Digest sent: %d anomalies (%d active, %d investigating, %d resolved)",
		len(items), counts.Active, counts.Investigating, counts.Resolved)
}

func buildDigest(counts models.Counts, resolvedToday int, bySeverity map[models.Severity]int, total int) string {
	var b strings.Builder

	b.WriteString("📋 *Fraud Monitoring Digest*\n\n")
	fmt.Fprintf(&b, "Flagged transactions: %d\n\n", total)
	fmt.Fprintf(&b, "🔴 Active: %d\n", counts.Active)
	fmt.Fprintf(&b, "🟡 Investigating: %d\n", counts.Investigating)
	fmt.Fprintf(&b, "🟢 Resolved: %d (today: %d)\n\n", counts.Resolved, resolvedToday)
	fmt.Fprintf(&b, "Severity: %d high / %d medium / %d low",
		bySeverity[models.SeverityHigh],
		bySeverity[models.SeverityMedium],
		bySeverity[models.SeverityLow])

	return b.String()
}
