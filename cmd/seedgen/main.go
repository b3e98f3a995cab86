package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aditya13504/partner-recommender/internal/seed"
)

// Default generation constants.
const (
	defaultCompanies    = 200
	defaultEmbeddingDim = 128
	defaultSeed         = 1
)

func main() {
	var (
		companies = flag.Int("companies", defaultCompanies, "Number of synthetic companies to generate")
		dim       = flag.Int("dim", defaultEmbeddingDim, "Culture vector dimension")
		seedVal   = flag.Int64("seed", defaultSeed, "Random seed; same seed yields the same universe")
		output    = flag.String("output", "", "Write the universe to this JSON file instead of serving")
		addr      = flag.String("addr", ":8001", "Listen address for the feature service")
	)
	flag.Parse()

	universe := seed.Generate(*companies, *dim, *seedVal)

	if *output != "" {
		if err := seed.WriteFile(*output, universe); err != nil {
			os.Stderr.WriteString("write failed: " + err.Error() + "\n")
			os.Exit(1)
		}
		os.Stdout.WriteString("wrote " + strconv.Itoa(len(universe)) + " companies to " + *output + "\n")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Stdout.WriteString("serving " + strconv.Itoa(len(universe)) + " companies on " + *addr + "\n")
	if err := seed.Serve(ctx, *addr, universe); err != nil {
		os.Stderr.WriteString("serve failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
