package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Tiliavir/tasker/internal/config"
	"github.com/Tiliavir/tasker/internal/storage"
	"github.com/Tiliavir/tasker/internal/tracker"
)

// session bundles what every command needs: the loaded config, the open
// store and a tracker that has already read the saved snapshots.
type session struct {
	cfg     config.Config
	store   storage.KV
	tracker *tracker.Tracker
}

// openSession opens the store selected in cfg and loads the tracker from
// it. Diagnostics go to logOut. With dryRun the saved snapshots are copied
// into memory and the configured store is closed again, so nothing the
// session changes is written back.
func openSession(cfg config.Config, logOut io.Writer, dryRun bool) (*session, error) {
	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Storage.Backend, err)
	}
	if dryRun {
		mem, err := storage.CopyToMemory(context.Background(), store)
		closeErr := store.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s store: %w", cfg.Storage.Backend, err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("closing %s store: %w", cfg.Storage.Backend, closeErr)
		}
		store = mem
	}
	tr := tracker.New(store, tracker.WithLogger(log.New(logOut, "tasker: ", log.LstdFlags)))
	tr.Load(context.Background())
	return &session{cfg: cfg, store: store, tracker: tr}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: closing store:", err)
	}
}

// mustOpenSession is openSession for one-shot commands: storage and config
// failures end the process with status 2.
func mustOpenSession() *session {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	s, err := openSession(cfg, os.Stderr, dryRun)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return s
}
