package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/TheBitDrifter/foundry"
	"github.com/TheBitDrifter/foundry/checkpoint"
	"github.com/TheBitDrifter/foundry/production"
	"github.com/TheBitDrifter/foundry/shape"
	"github.com/pkg/profile"
)

func main() {
	var (
		configPath   = flag.String("config", "", "engine config YAML (optional)")
		settingsPath = flag.String("settings", "", "production settings YAML (optional)")
		ticks        = flag.Int("ticks", 600, "number of ticks to run")
		dt           = flag.Float64("dt", 0, "seconds per tick, 0 uses the configured tick rate")
		item         = flag.String("item", "Cu------", "short key of the emitted item")
		profileMode  = flag.String("profile", "", "cpu or mem")
		savePath     = flag.String("checkpoint", "", "write the final state to this path (optional)")
	)
	flag.Parse()

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		fmt.Fprintln(os.Stderr, "unknown -profile mode:", *profileMode)
		os.Exit(2)
	}

	if err := run(*configPath, *settingsPath, *ticks, *dt, *item, *savePath); err != nil {
		fmt.Fprintln(os.Stderr, "foundrysim:", err)
		os.Exit(1)
	}
}

func run(configPath, settingsPath string, ticks int, dt float64, itemKey, savePath string) error {
	cfg := foundry.DefaultConfig()
	if configPath != "" {
		loaded, err := foundry.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	cfg.Logger = logger

	settings := production.DefaultSettings()
	if settingsPath != "" {
		if settings, err = production.LoadSettings(settingsPath); err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
	}
	item, err := shape.Decode(itemKey)
	if err != nil {
		return err
	}
	if dt <= 0 {
		dt = cfg.TickInterval()
	}

	reg := foundry.Factory.NewRegistry(cfg)
	sched := foundry.Factory.NewScheduler(reg, cfg)
	network, err := production.Install(sched, settings, logger)
	if err != nil {
		return err
	}

	// emitter -> belt -> rotator -> checker -> hub; checker rejects leave downwards
	for _, building := range [][]foundry.ComponentValue{
		production.EmitterAt(0, 0, production.Right, item, 1, 0),
		production.BeltAt(1, 0, production.Right),
		production.RotatorAt(2, 0, production.Right, false),
		production.CheckerAt(3, 0, production.Right),
		production.HubAt(4, -1, 4),
	} {
		if _, err := network.Build(building); err != nil {
			return fmt.Errorf("build: %w", err)
		}
	}

	clock := foundry.NewClock(0)
	for i := 0; i < ticks; i++ {
		if err := sched.Tick(clock.Advance(dt)); err != nil {
			return err
		}
	}

	doc, err := checkpoint.CaptureScheduler(sched)
	if err != nil {
		return err
	}
	digest, err := checkpoint.Digest(doc)
	if err != nil {
		return err
	}
	if savePath != "" {
		if err := checkpoint.Write(savePath, doc); err != nil {
			return fmt.Errorf("write checkpoint: %w", err)
		}
	}

	goals := network.Goals()
	fmt.Printf("tick=%d now=%.3f level=%d goal=%s entities=%d digest=%s\n",
		sched.TickNumber(), sched.Now(), goals.Level(), goals.CurrentGoalKey(), reg.Len(), digest)
	delivered := goals.Snapshot()
	for _, key := range slices.Sorted(maps.Keys(delivered)) {
		fmt.Printf("  delivered %s x%d\n", key, delivered[key])
	}
	return nil
}
