package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"pickup-route-service/internal/adapters/distance"
	"pickup-route-service/internal/api/dto"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/services"
)

// routetool runs one solve from the command line: a JSON stop list in, the
// solution JSON out. Useful for planning from a cron job or inspecting a
// request that failed in the service.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to the service configuration")
	inPath := flag.String("stops", "", "path to a JSON stop list (default: stdin)")
	vehicles := flag.Int("vehicles", 0, "override the configured fleet size")
	flag.Parse()

	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	var req dto.SolveRequest
	if err := readRequest(*inPath, &req); err != nil {
		log.Fatal(err)
	}
	if len(req.Stops) == 0 {
		log.Fatal("no stops in input")
	}
	if *vehicles > 0 {
		req.Vehicles = *vehicles
	}

	// The CLI always runs without a persistent cache; one-shot invocations
	// rarely repeat a coordinate set.
	provider, err := distance.NewProvider(cfg.Matrix, os.Getenv("MATRIX_API_KEY"), nil)
	if err != nil {
		log.Fatal(err)
	}

	planner := services.NewPlanner(provider, cfg.Depot, cfg.Solve)
	res, err := planner.Plan(context.Background(), req.ToStops(), req.Vehicles)
	if err != nil {
		if res != nil && len(res.Prechecks) > 0 {
			for _, finding := range res.Prechecks {
				fmt.Fprintln(os.Stderr, "precheck:", finding)
			}
		}
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dto.FromPlanResult(res)); err != nil {
		log.Fatal(err)
	}
}

func readRequest(path string, req *dto.SolveRequest) error {
	in := os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open stops file: %w", err)
		}
		defer f.Close()
		in = f
	}
	if err := json.NewDecoder(in).Decode(req); err != nil {
		return fmt.Errorf("decode stops: %w", err)
	}
	return nil
}
