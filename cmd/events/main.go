package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"campaign-session/internal/pkg/logger"
	"campaign-session/pkg/events"
	pktNats "campaign-session/pkg/nats"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

// events tails the session lifecycle stream and prints each event.
func main() {
	eventType := flag.String("type", "", "only show this event type, e.g. USER_SIGNED_IN")
	durable := flag.String("durable", "", "durable consumer name; ephemeral when empty")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		color.White("Info: No .env file found, using system env")
	}

	url := os.Getenv("NATS_URL")
	if url == "" {
		color.Red("Error: NATS_URL is not set")
		os.Exit(1)
	}

	log := logger.NewZapLogger("logs/events.log", false)
	defer log.Sync()

	sub, err := pktNats.NewSubscriber(url, log)
	if err != nil {
		color.Red("Error: Failed to connect to NATS: %v", err)
		os.Exit(1)
	}
	defer sub.Close()

	subject := pktNats.SubjectPrefix + ">"
	if *eventType != "" {
		subject = pktNats.Subject(*eventType)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cc, err := sub.Subscribe(ctx, subject, *durable, func(_ context.Context, e events.Event) error {
		payload, err := json.Marshal(e.Payload())
		if err != nil {
			return err
		}
		color.Cyan("%s  %s", e.Timestamp().Format("15:04:05.000"), e.EventType())
		color.White("  id=%s %s", e.EventID(), payload)
		return nil
	})
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
	defer cc.Stop()

	color.Green("Tailing %s, Ctrl+C to stop", subject)
	<-ctx.Done()
}
