package main

import (
	"log"

	_ "github.com/dhima/change-monitor/docs" // Import generated docs
	"github.com/dhima/change-monitor/internal/api"
)

// @title Change Monitor API
// @version 1.0
// @description Change log service for the URL change monitor.
// @description
// @description ## Features
// @description - **Change Log**: Durable append-only log of detected changes with retention-window queries and statistics
// @description - **Pruning**: Removes entries older than the retention window while keeping unparseable lines
// @description - **Fetch Proxy**: Server-side retrieval of monitored resources for browser clients
// @description - **Notifications**: E-mail delivery of change alerts through SendGrid, Mailgun or SMTP
// @description - **Kafka Integration**: Every recorded change is published for downstream consumers

// @contact.name API Support
// @contact.url https://github.com/dhima/change-monitor
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	srv := api.NewServer()
	if err := srv.Serve(); err != nil {
		log.Fatalf("api server stopped: %v", err)
	}
}
