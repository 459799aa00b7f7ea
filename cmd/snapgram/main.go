package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/docopt/docopt-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/lucidfort/snapgram/config"
	"github.com/lucidfort/snapgram/pkg/di"
)

const Version = "0.1.0"

func main() {
	usage := `Snapgram data layer.

Usage:
    snapgram demo [--config=<path>]
    snapgram schema [--config=<path>]
    snapgram -h | --help
    snapgram --version

Options:
    -h --help          Show this screen.
    --version          Show version.
    --config=<path>    YAML configuration file. SNAPGRAM_* variables override it.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], Version)
	if err != nil {
		log.Fatal(err)
	}

	path, _ := opts.String("--config")
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if demo, _ := opts.Bool("demo"); demo {
		err = runDemo(ctx, cfg, os.Stdout)
	} else if schema, _ := opts.Bool("schema"); schema {
		err = runSchema(ctx, cfg, os.Stdout)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// runSchema creates the tables and indexes of the configured store.
func runSchema(ctx context.Context, cfg config.Config, out io.Writer) error {
	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	fmt.Fprintf(out, "schema ready on %s\n", cfg.Store.Driver)
	return nil
}
