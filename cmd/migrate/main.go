package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Mikbal34/muhasebe-sub003/internal/config"
	"github.com/Mikbal34/muhasebe-sub003/internal/migrations"
)

func main() {
	config.LoadDotEnvUp(8)

	var (
		direction = flag.String("direction", "up", "up|down")
		steps     = flag.Int("steps", 0, "number of steps (0 = all)")
	)
	flag.Parse()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "POSTGRES_DSN is required")
		os.Exit(2)
	}

	r, err := migrations.NewRunner(dsn)
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate init error:", err)
		os.Exit(1)
	}
	defer r.Close()

	switch *direction {
	case "up":
		if *steps > 0 {
			err = r.Steps(*steps)
		} else {
			err = r.Up()
		}
	case "down":
		if *steps > 0 {
			err = r.Steps(-*steps)
		} else {
			err = r.Down()
		}
	default:
		fmt.Fprintln(os.Stderr, "invalid -direction, must be up|down")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "migration error:", err)
		os.Exit(1)
	}

	v, dirty, err := r.Version()
	if err != nil {
		fmt.Fprintln(os.Stderr, "version error:", err)
		os.Exit(1)
	}
	fmt.Printf("migrations: %s ok (version %d, dirty %v)\n", *direction, v, dirty)
}
