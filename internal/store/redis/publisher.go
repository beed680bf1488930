// Package redis publishes finished replay reports to Redis so dashboards
// and downstream jobs can pick them up without touching the replay
// process. Publishing is best-effort: a dead Redis never fails a run.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"quant-replayv1/internal/report"

	goredis "github.com/go-redis/redis/v8"
)

const (
	reportStream    = "replay:reports"
	reportStreamMax = 1000
	latestTTL       = 24 * time.Hour
	pubsubChannel   = "pub:replay:report"
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes replay reports to Redis behind a circuit breaker.
type Publisher struct {
	client  *goredis.Client
	breaker *CircuitBreaker
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	breaker := NewCircuitBreaker(5, 10*time.Second)
	breaker.OnStateChange = func(from, to State) {
		log.Printf("[redis] circuit breaker %s -> %s", from, to)
	}
	return &Publisher{client: client, breaker: breaker}, nil
}

// PublishReport writes one finished report: SET latest per account,
// XADD to the report stream, and PUBLISH for live subscribers, in one
// pipeline. The account id keys the "latest" slot so concurrent runs on
// different accounts never clobber each other.
func (p *Publisher) PublishReport(ctx context.Context, accountID string, rep *report.Report) error {
	jsonData := string(rep.CompactJSON())
	latestKey := "replay:report:latest:" + accountID

	return p.breaker.Execute(func() error {
		pipe := p.client.Pipeline()
		pipe.Set(ctx, latestKey, jsonData, latestTTL)
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: reportStream,
			MaxLen: reportStreamMax,
			Approx: true,
			Values: map[string]interface{}{
				"account": accountID,
				"data":    jsonData,
			},
		})
		pipe.Publish(ctx, pubsubChannel, jsonData)
		_, err := pipe.Exec(ctx)
		if err != nil {
			return fmt.Errorf("redis report pipeline for %s: %w", accountID, err)
		}
		return nil
	})
}

// LatestReport fetches the most recent published report for an account.
// Returns nil with no error when none has been published.
func (p *Publisher) LatestReport(ctx context.Context, accountID string) ([]byte, error) {
	data, err := p.client.Get(ctx, "replay:report:latest:"+accountID).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET latest report: %w", err)
	}
	return data, nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
