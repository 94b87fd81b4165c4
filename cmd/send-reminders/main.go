package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"workflow-automation-api/config"
	"workflow-automation-api/services"

	"github.com/joho/godotenv"
)

// Sends reminder emails for overdue requests. Intended to be run from cron or
// a scheduled task; each sweep is independent and holds no state.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.ReloadMailerConfig()
	config.InitDB()

	summary, err := services.NewReminderService(nil).Run(time.Now())
	if err != nil {
		log.Fatalf("reminder sweep failed: %v", err)
	}

	fmt.Printf("Overdue requests processed: %d\n", summary.Processed)
	fmt.Printf("Reminders sent: %d, skipped (no assignee/email): %d, failed: %d\n",
		summary.Sent,
		summary.Skipped,
		summary.Failed,
	)

	if summary.Failed > 0 {
		os.Exit(2)
	}
}
