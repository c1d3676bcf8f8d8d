// Package node assembles a ledger process from a config.Config: logger,
// metrics recorder, checkpoint database, execution environment and router.
package node

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/bitfsorg/librbf-go/chain"
	"github.com/bitfsorg/librbf-go/config"
	"github.com/bitfsorg/librbf-go/logging"
	"github.com/bitfsorg/librbf-go/metrics"
	"github.com/bitfsorg/librbf-go/router"
	"github.com/bitfsorg/librbf-go/store"
)

// Governance is the router's initial administration.
type Governance struct {
	Router    common.Address
	Owner     common.Address
	Signers   []common.Address
	Threshold int
}

// Node owns the long-lived components of one ledger process.
type Node struct {
	Config  config.Config
	Log     *zap.Logger
	Metrics *metrics.Recorder
	Env     *chain.Env
	Router  *router.Router

	db *store.BoltStore
}

// Open validates cfg and builds a node. clock may be nil for wall time.
func Open(cfg config.Config, gov Governance, clock chain.Clock) (*Node, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	log, err := logging.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("node: create data dir: %w", err)
	}
	db, err := store.OpenBoltStore(config.DBPath(cfg.DataDir))
	if err != nil {
		return nil, err
	}

	if clock == nil {
		clock = chain.SystemClock{}
	}
	rec := metrics.New()
	env := chain.NewEnv(clock, chain.WithLogger(log.Named("env")), chain.WithObserver(rec))
	r, err := router.New(env, gov.Router, gov.Owner, gov.Signers, gov.Threshold,
		router.WithLogger(log.Named("router")),
		router.WithStore(db.Checkpoints(), db.Prices()))
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Info("node opened",
		zap.String("datadir", cfg.DataDir),
		zap.Int("signers", len(gov.Signers)),
		zap.Int("threshold", gov.Threshold))
	return &Node{Config: cfg, Log: log, Metrics: rec, Env: env, Router: r, db: db}, nil
}

// Store returns the checkpoint database.
func (n *Node) Store() *store.BoltStore { return n.db }

// Run checkpoints every interval and serves metrics when configured, until
// ctx is done. A final checkpoint is taken on shutdown.
func (n *Node) Run(ctx context.Context, interval time.Duration) error {
	errc := make(chan error, 1)
	if n.Config.MetricsAddr != "" {
		go func() { errc <- n.Metrics.Serve(ctx, n.Config.MetricsAddr, n.Log) }()
	} else {
		close(errc)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.checkpoint(ctx)
		case err, ok := <-errc:
			if ok && err != nil {
				return fmt.Errorf("node: metrics: %w", err)
			}
			errc = nil
		case <-ctx.Done():
			n.checkpoint(context.Background())
			if errc != nil {
				if err := <-errc; err != nil {
					return fmt.Errorf("node: metrics: %w", err)
				}
			}
			return nil
		}
	}
}

// checkpoint stores a checkpoint unless one exists for the current height.
func (n *Node) checkpoint(ctx context.Context) {
	_, err := n.Router.Checkpoint(ctx)
	switch {
	case errors.Is(err, store.ErrDuplicateCheckpoint):
		n.Log.Debug("no calls since last checkpoint")
	case err != nil:
		n.Log.Warn("checkpoint failed", zap.Error(err))
	}
}

// Close flushes the logger and closes the database.
func (n *Node) Close() error {
	_ = n.Log.Sync()
	return n.db.Close()
}
