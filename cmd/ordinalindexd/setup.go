package main

import (
	"fmt"
	"path/filepath"

	"github.com/akaitrade/ordinalindex/pkg/bridge"
	"github.com/akaitrade/ordinalindex/pkg/checkpoint"
	"github.com/akaitrade/ordinalindex/pkg/config"
	"github.com/akaitrade/ordinalindex/pkg/kv"
	"github.com/akaitrade/ordinalindex/pkg/metrics"
	"github.com/akaitrade/ordinalindex/pkg/notify"
	"github.com/akaitrade/ordinalindex/pkg/oic"
	"github.com/akaitrade/ordinalindex/pkg/qss"
)

// components bundles the wired-up pieces a subcommand needs. Assembling the
// dependency graph once here, rather than through a DI framework, keeps the
// construction order (config, then store, then checkpoint, then core)
// explicit and easy to follow.
type components struct {
	cfg       *config.Config
	store     *kv.Store
	cp        *checkpoint.File
	core      *oic.Core
	bridge    *bridge.Bridge
	server    *qss.Server
	collector *metrics.Collector

	// fatalCh receives the first error the kv store reports through
	// OnFailure. The hook fires on the failing operation itself, before
	// Core's one reopen attempt runs, so any kv failure, transient or not,
	// reaches it. serve's run loop treats this the same as a termination
	// signal.
	fatalCh chan error
}

func wire(configPath string) (*components, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	fatalCh := make(chan error, 1)

	store := kv.New(filepath.Join(cfg.DBRoot, "ordinaldb"))
	store.SetMapSize(cfg.MapSizeBytes)
	store.OnFailure(func(err error) {
		metrics.UpdateComponent("kv", false, err.Error())
		select {
		case fatalCh <- err:
		default:
		}
	})
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}
	metrics.RegisterComponent("kv", true, "")

	cp, err := checkpoint.Open(cfg.DBRoot)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	metrics.RegisterComponent("checkpoint", true, "")

	core := oic.New(store, cp, bridge.Base58Resolver{})
	br := bridge.New(core)

	server := qss.NewServer(core, qss.Config{Port: cfg.WebsocketPort})
	metrics.RegisterComponent("qss", true, "")
	router := notify.NewRouter(server)
	core.OnEvent(router.Dispatch)

	collector := metrics.NewCollector(core)

	return &components{
		cfg:       cfg,
		store:     store,
		cp:        cp,
		core:      core,
		bridge:    br,
		server:    server,
		collector: collector,
		fatalCh:   fatalCh,
	}, nil
}

func (c *components) Close() {
	_ = c.cp.Close()
	_ = c.store.Close()
}
