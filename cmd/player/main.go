package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jscyril/concerto/api"
	"github.com/jscyril/concerto/internal/audio"
	"github.com/jscyril/concerto/internal/catalog"
	"github.com/jscyril/concerto/internal/config"
	"github.com/jscyril/concerto/internal/library"
	"github.com/jscyril/concerto/internal/playlist"
	"github.com/jscyril/concerto/internal/ui"
	"github.com/jscyril/concerto/pkg/events"
	"github.com/jscyril/concerto/pkg/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := config.GetConfigPath()
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	log.Setup(filepath.Join(cfg.DataDir, "logs"), cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cat, err := catalog.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer cat.Close()

	// Configured music directories become catalog roots.
	for _, dir := range cfg.MusicDirectories {
		if err := cat.AddRoot(dir); err != nil {
			log.Warnf("register root %s: %v", dir, err)
		}
	}

	lib := library.New()
	songs, err := cat.Songs()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	lib.Load(songs)
	log.Infof("loaded %d songs from catalog", lib.Len())

	if err := rescan(ctx, cat, lib); err != nil {
		log.Warnf("rescan: %v", err)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return fmt.Errorf("open audio backend: %w", err)
	}
	player := audio.NewHandle(backend)
	defer player.Close()

	// Fan the engine's events out to the UI and the history recorder.
	bus := events.NewBus()
	defer bus.Close()
	go bus.Forward(player.Events())

	history := bus.Subscribe(api.EventTrackStarted)
	go func() {
		for event := range history {
			if err := cat.RecordPlay(event.Track.ID); err != nil {
				log.Warnf("record play: %v", err)
			}
		}
	}()

	playlists := playlist.NewManager(cat, lib)
	if err := playlists.Load(); err != nil {
		log.Warnf("load playlists: %v", err)
	}

	var volume ui.VolumeControl
	if v, ok := backend.(ui.VolumeControl); ok {
		volume = v
	}

	err = ui.Run(ui.Options{
		Player:    player,
		Library:   lib,
		Playlists: playlists,
		Events:    bus.SubscribeAll(),
		Volume:    volume,
		Store:     cat,
		Session:   cat,
		Config:    cfg,
		Gapless:   backend.SupportsGapless(),
	})
	if err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	return nil
}

// rescan diffs the configured roots against the catalog and persists the
// result.
func rescan(ctx context.Context, cat *catalog.Catalog, lib *library.Library) error {
	roots, err := cat.Roots()
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		return nil
	}

	known, err := cat.KnownSignatures()
	if err != nil {
		return err
	}

	diff := lib.Scan(ctx, roots, known)
	for _, scanErr := range diff.Errors {
		log.Warnf("scan: %v", scanErr)
	}
	if len(diff.Added) > 0 {
		if err := cat.SaveSongs(diff.Added); err != nil {
			return err
		}
		log.Infof("added %d new songs", len(diff.Added))
	}
	if len(diff.Updated) > 0 {
		if err := cat.SaveSongs(diff.Updated); err != nil {
			return err
		}
		log.Infof("refreshed %d moved songs", len(diff.Updated))
	}
	if len(diff.Removed) > 0 {
		if err := cat.PruneSongs(diff.Removed); err != nil {
			return err
		}
		for _, id := range diff.Removed {
			lib.RemoveSong(id)
		}
		log.Infof("pruned %d missing songs", len(diff.Removed))
	}
	return nil
}

func openBackend(cfg *config.Config) (audio.Backend, error) {
	switch cfg.AudioBackend {
	case config.BackendStream:
		return audio.NewStreamBackend(), nil
	default:
		return audio.NewMixerBackend()
	}
}
