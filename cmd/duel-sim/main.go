package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/plus3/arenaduel/duel"
	"github.com/plus3/arenaduel/log"
)

var (
	moveRight = []byte(`{"type":"move","direction":"right"}`)
	shootLeft = []byte(fmt.Sprintf(`{"type":"shoot","angle":%v}`, math.Pi))
	blockOn   = []byte(`{"type":"block","active":true}`)
	blockOff  = []byte(`{"type":"block","active":false}`)
	playerOne = duel.EntityID("1")
	playerTwo = duel.EntityID("2")
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file. Built-in defaults are used when empty.")
	rounds := flag.Int("rounds", 10, "Number of scripted input rounds to play.")
	interval := flag.Duration("interval", 250*time.Millisecond, "Simulated time between input rounds.")
	seed := flag.Uint64("seed", 0, "Obstacle layout seed. Zero keeps the configured seed.")
	logLevel := flag.String("log-level", "", "Overrides the configured log level.")
	printStates := flag.Bool("states", true, "Print the JSON state after every round.")
	flag.Parse()

	cfg := duel.DefaultConfig()
	if *configPath != "" {
		loaded, err := duel.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logger := log.New(level)
	defer logger.Sync()

	engine, err := duel.NewEngine(cfg, duel.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create engine", log.Error(err))
		os.Exit(1)
	}
	if err := engine.Start(playerOne, playerTwo); err != nil {
		logger.Error("failed to start session", log.Error(err))
		os.Exit(1)
	}

	report := &Report{
		Rounds:     *rounds,
		Interval:   *interval,
		Tick:       cfg.Loop.Tick,
		Background: cfg.Loop.Background,
		Obstacles:  cfg.Arena.Obstacles,
		Session:    engine.Session(),
	}

	startTime := time.Now()
	for round := range *rounds {
		engine.ProcessInput(playerOne, moveRight)
		if round%2 == 0 {
			engine.ProcessInput(playerOne, blockOn)
		} else {
			engine.ProcessInput(playerOne, blockOff)
		}
		engine.ProcessInput(playerTwo, shootLeft)

		advance(engine, cfg, *interval)
		report.PlayedRounds++

		if *printStates {
			data, err := engine.State().JSON()
			if err != nil {
				logger.Error("failed to encode state", log.Error(err))
				os.Exit(1)
			}
			fmt.Printf("State: %s\n", data)
		}
		if engine.IsGameOver() {
			break
		}
	}

	report.Storage = engine.StorageStats()
	engine.End()
	report.TotalTime = time.Since(startTime)

	final := engine.State()
	report.Winner = final.Winner
	report.GameOver = final.GameOver
	report.Ticks = engine.Ticks()
	report.Bullets = engine.BulletsFired()
	report.Hits = engine.Hits()
	report.Scheduler = engine.Stats()
	report.Players = playerSummaries(final)
	if err := report.measureEncodings(final); err != nil {
		logger.Error("failed to encode final state", log.Error(err))
		os.Exit(1)
	}

	fmt.Println("\n--- Duel Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		logger.Error("failed to generate report", log.Error(err))
		os.Exit(1)
	}
	fmt.Println("--- End of Report ---")
}

// advance lets interval of simulated time pass. Pull-model engines are
// ticked directly, background engines are given wall-clock time.
func advance(engine *duel.Engine, cfg duel.Config, interval time.Duration) {
	if cfg.Loop.Background {
		time.Sleep(interval)
		return
	}
	for range int(interval / cfg.Loop.Tick) {
		engine.Update()
	}
}
