// Command simulate publishes synthetic hazard reports to the live feed topic
// so the dashboard can be exercised without real reporters.
//
// Usage:
//
//	KAFKA_BROKERS=localhost:9092 go run ./cmd/simulate -interval 30s -batch 1
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	kafkaadapter "github.com/couchcryptid/coastal-hazard-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/config"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/domain"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/observability"
	"github.com/couchcryptid/coastal-hazard-dashboard/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

func main() {
	if err := run(); err != nil {
		slog.Error("simulate failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	interval := flag.Duration("interval", 30*time.Second, "time between batches")
	batch := flag.Int("batch", 1, "reports per batch")
	count := flag.Int("count", 0, "stop after this many batches (0 runs until interrupted)")
	seed := flag.Uint64("seed", 0, "random seed (0 picks one from the clock)")
	flag.Parse()

	if *interval <= 0 || *batch <= 0 || *count < 0 {
		flag.Usage()
		return fmt.Errorf("interval and batch must be positive, count must not be negative")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg)

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(*seed, *seed>>1))

	writer := kafkaadapter.NewWriter(cfg, logger)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("publishing synthetic hazard reports",
		"topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers,
		"interval", *interval, "batch", *batch, "seed", *seed)

	p := publisher{
		loader:   writer,
		clock:    clockwork.NewRealClock(),
		rng:      rng,
		interval: *interval,
		batch:    *batch,
		logger:   logger,
	}
	sent, err := p.run(ctx, *count)
	logger.Info("simulator stopped", "reports_sent", sent)
	return err
}

// publisher sends a batch of random reports immediately and then on every
// interval.
type publisher struct {
	loader   pipeline.BatchLoader
	clock    clockwork.Clock
	rng      domain.Rand
	interval time.Duration
	batch    int
	logger   *slog.Logger
}

// run publishes until ctx ends or count batches were sent (count 0 means no
// limit). It returns the number of reports sent. A failed batch is logged
// and skipped.
func (p publisher) run(ctx context.Context, count int) (int, error) {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	sent := 0
	for batches := 0; count == 0 || batches < count; batches++ {
		if batches > 0 {
			select {
			case <-ctx.Done():
				return sent, nil
			case <-ticker.Chan():
			}
		}

		now := p.clock.Now()
		reports := make([]domain.HazardReport, p.batch)
		for i := range reports {
			reports[i] = domain.RandomReport(p.rng, now)
		}
		if err := p.loader.LoadBatch(ctx, reports); err != nil {
			if ctx.Err() != nil {
				return sent, nil
			}
			p.logger.Warn("publish failed", "error", err, "reports", len(reports))
			continue
		}
		sent += len(reports)
		p.logger.Debug("published reports", "count", len(reports), "total", sent)
	}
	return sent, nil
}
