package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"voxelstream/internal/config"
	"voxelstream/internal/game"
	"voxelstream/internal/logging"
	"voxelstream/internal/streaming"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/xlab/closer"
	_ "go.uber.org/automaxprocs"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $"+config.EnvPath+")")
	steps := flag.Int("steps", 120, "number of scripted frames")
	hold := flag.Bool("hold", false, "keep serving metrics after the script until interrupted")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := logging.New(cfg.Log.Level, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	metrics := streaming.NewMetrics(prometheus.DefaultRegisterer)
	if cfg.Metrics.Addr != "" {
		closer.Bind(serveMetrics(cfg.Metrics.Addr, log))
	}

	pool := streaming.NewMemoryPool(log, metrics)
	session, err := game.NewSession(cfg, pool, log, metrics)
	if err != nil {
		log.WithError(err).Error("session setup failed")
		closer.Exit(1)
	}
	closer.Bind(session.Cleanup)

	sum, err := RunScript(context.Background(), session, *steps)
	if err != nil {
		log.WithError(err).Error("script failed")
		closer.Exit(1)
	}
	logSummary(log, sum, pool, session)

	if *hold {
		closer.Hold()
		return
	}
	closer.Close()
}

func logSummary(log logrus.FieldLogger, sum Summary, pool *streaming.MemoryPool, s *game.Session) {
	log.WithFields(logrus.Fields{
		"frames":    sum.Frames,
		"crossings": sum.Crossings,
		"edits":     sum.Edits,
		"meshed":    humanize.Comma(int64(sum.Meshed)),
		"uploads":   humanize.Comma(int64(pool.Uploads())),
		"skipped":   humanize.Comma(int64(sum.Skipped)),
		"slots":     pool.Slots(),
		"budget":    s.Streaming.SlotBudget(),
		"allocated": s.World.AllocatedChunks(),
	}).Info("script finished")
}
