package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/waypost/waypost/internal/services"
	"github.com/waypost/waypost/internal/store"
	"github.com/waypost/waypost/internal/utils"
	"github.com/waypost/waypost/pkg/access"
	"github.com/waypost/waypost/pkg/arbiter"
	"github.com/waypost/waypost/pkg/file"
	"github.com/waypost/waypost/pkg/location"
)

const usage = `Usage: waypost [-config path] <command>

Commands:
  add <name>   acquire the current position and save it under <name>
  check        acquire the current position and report the nearest saved location
  list         list all saved locations
  rm <id>      delete the saved location with the given id
`

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Secrets live in the environment, optionally seeded from a .env file.
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	fileClient := file.NewFileService()
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil {
		logger.Fatal().Err(err).Str("level", config.Log.Level).Msg("Invalid log level")
	}
	logger = logger.Level(level)

	if key := os.Getenv("WAYPOST_MAPS_API_KEY"); key != "" {
		config.Network.MapsAPIKey = key
	}

	// The store handle is opened once here and handed to the service; nothing
	// else in the program opens the database.
	locationStore, err := store.Open(config.Store.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open location store")
	}
	defer locationStore.Close()

	gpsWatcher := location.NewGPSSensorWatcher(config.GPS.DevicePort, config.GPS.BaudRate, logger)
	networkWatcher, err := location.NewNetworkGeolocationWatcher(
		config.Network.MapsAPIKey,
		time.Duration(config.Network.PollInterval)*time.Second,
		config.Network.ModemIndex,
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create network geolocation watcher")
	}

	accessCtl := access.NewConsentController(config.Access.ConsentFile, fileClient, os.Stdin, os.Stderr, logger)

	arb := arbiter.New(gpsWatcher, networkWatcher, accessCtl, arbiter.Config{
		Deadline:                 time.Duration(config.Arbiter.Deadline) * time.Second,
		GraceDelay:               time.Duration(config.Arbiter.GraceDelay) * time.Second,
		PreciseGoodAccuracy:      config.Arbiter.PreciseGoodAccuracyM,
		ApproxAcceptableAccuracy: config.Arbiter.ApproxAcceptableAccuracyM,
	}, logger)

	service := services.NewWaypointService(locationStore, arb, config.Match.ThresholdM, logger)

	// Ctrl-C aborts an in-flight acquisition instead of killing the process
	// mid-write.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, service, args, logger); err != nil {
		logger.Fatal().Err(err).Str("command", args[0]).Msg("Command failed")
	}
}

func run(ctx context.Context, service *services.WaypointService, args []string, logger zerolog.Logger) error {
	switch args[0] {
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("add requires a name")
		}
		saved, err := service.SaveCurrentLocation(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Saved %q (id %d) at %.6f, %.6f\n", saved.Name, saved.ID, saved.Latitude, saved.Longitude)
		return nil

	case "check":
		result, err := service.CheckCurrentLocation(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Current position: %.6f, %.6f (%s source)\n",
			result.Position.Latitude, result.Position.Longitude, result.Position.Source)
		if result.Nearest == nil {
			fmt.Println("No saved locations to compare against.")
			return nil
		}
		verdict := "not matched"
		if result.Matched {
			verdict = "matched"
		}
		fmt.Printf("Nearest: %q (id %d), %.1f m away — %s (threshold %.0f m)\n",
			result.Nearest.Name, result.Nearest.ID, result.DistanceMeters, verdict, result.ThresholdMeters)
		return nil

	case "list":
		saved, err := service.ListLocations()
		if err != nil {
			return err
		}
		if len(saved) == 0 {
			fmt.Println("No saved locations.")
			return nil
		}
		for _, loc := range saved {
			fmt.Printf("%4d  %-20s  %.6f, %.6f  %s\n", loc.ID, loc.Name, loc.Latitude, loc.Longitude, loc.Timestamp)
		}
		return nil

	case "rm":
		if len(args) < 2 {
			return fmt.Errorf("rm requires an id")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[1], err)
		}
		removed, err := service.RemoveLocation(id)
		if err != nil {
			return err
		}
		if removed {
			fmt.Printf("Deleted saved location %d\n", id)
		} else {
			fmt.Printf("No saved location with id %d\n", id)
		}
		return nil

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}
