// Command invalidate publishes a cache invalidation event to the
// content-invalidate topic so every running frontend drops stale content.
//
// Usage:
//
//	go run ./cmd/invalidate -type post.updated -lang tr -slug hello-world
//	go run ./cmd/invalidate -type all
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/invalidation"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	eventType := flag.String("type", string(invalidation.All), "event type: settings.updated, post.updated, post.deleted or all")
	lang := flag.String("lang", "", "post language (optional)")
	slug := flag.String("slug", "", "post slug (required for post events)")
	timeout := flag.Duration("timeout", 10*time.Second, "publish timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ev := invalidation.Event{
		Type: invalidation.EventType(*eventType),
		Lang: *lang,
		Slug: *slug,
	}
	if err := ev.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid event: %v\n", err)
		os.Exit(2)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.ContentInvalidate)
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := invalidation.NewPublisher(producer).Publish(ctx, ev); err != nil {
		slog.Error("failed to publish invalidation event", "error", err)
		os.Exit(1)
	}
	slog.Info("invalidation event published",
		"topic", cfg.Kafka.Topics.ContentInvalidate,
		"type", ev.Type,
		"lang", ev.Lang,
		"slug", ev.Slug,
	)
}
