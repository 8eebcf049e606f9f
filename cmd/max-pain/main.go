package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Rumble43/Max-Pain-Calculator/internal/config"
	"github.com/Rumble43/Max-Pain-Calculator/internal/data"
	"github.com/Rumble43/Max-Pain-Calculator/internal/logger"
	"github.com/Rumble43/Max-Pain-Calculator/internal/maxpain"
	"github.com/Rumble43/Max-Pain-Calculator/internal/scheduler"
	"github.com/Rumble43/Max-Pain-Calculator/internal/store"
)

type RunArgs struct {
	Ticker         string
	Once           bool
	Daemon         bool
	Expiration     string
	AllExpirations bool
}

var rootCmd = &cobra.Command{
	Use:   "max-pain",
	Short: "Calculate the max pain price for a ticker's option chain",
	Run: func(cmd *cobra.Command, args []string) {
		ticker, err := cmd.Flags().GetString("ticker")
		if err != nil {
			log.Fatalf("error getting ticker: %v", err)
		}

		once, err := cmd.Flags().GetBool("once")
		if err != nil {
			log.Fatalf("error getting once: %v", err)
		}

		daemon, err := cmd.Flags().GetBool("daemon")
		if err != nil {
			log.Fatalf("error getting daemon: %v", err)
		}

		expiration, err := cmd.Flags().GetString("expiration")
		if err != nil {
			log.Fatalf("error getting expiration: %v", err)
		}

		allExpirations, err := cmd.Flags().GetBool("all-expirations")
		if err != nil {
			log.Fatalf("error getting all-expirations: %v", err)
		}

		if err := Run(RunArgs{
			Ticker:         ticker,
			Once:           once,
			Daemon:         daemon,
			Expiration:     expiration,
			AllExpirations: allExpirations,
		}); err != nil {
			log.Fatalf("Error: %v", err)
		}
	},
}

func Run(args RunArgs) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %v", err)
	}

	if args.Ticker != "" {
		cfg.Ticker = args.Ticker
	}

	logger.Setup(cfg.LogLevel, cfg.LogDir)

	// choose provider
	var prov data.Provider
	if cfg.DemoMode() {
		prov = data.NewDemoProvider(cfg.DemoSeed)
		log.Infof("demo provider enabled")
	} else {
		prov = data.NewPolygonProvider(cfg.PolygonAPIKey)
		log.Infof("polygon provider enabled")
	}

	st, err := store.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("error opening result store: %v", err)
	}

	sched, err := scheduler.New(cfg, prov, st)
	if err != nil {
		return fmt.Errorf("error creating scheduler: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case args.Daemon:
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("error running scheduler: %v", err)
		}
		log.Infof("scheduler stopped")
		return nil

	case args.AllExpirations:
		out, err := sched.RunAllExpirations(ctx)
		if err != nil {
			return fmt.Errorf("error calculating all expirations: %v", err)
		}
		fmt.Println(out)
		return nil

	case args.Expiration != "":
		exp, err := time.Parse(maxpain.ExpirationDateLayout, args.Expiration)
		if err != nil {
			return fmt.Errorf("invalid expiration %q, want YYYY-MM-DD", args.Expiration)
		}

		res, err := sched.RunForExpiration(ctx, exp)
		if err != nil {
			return fmt.Errorf("error calculating expiration %s: %v", args.Expiration, err)
		}
		if res == nil {
			return fmt.Errorf("no contracts found for expiration %s", args.Expiration)
		}
		fmt.Println(res.Report)
		return nil

	default:
		res, err := sched.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("error running calculation: %v", err)
		}
		if res == nil {
			log.Warnf("nothing calculated: market closed or no options data")
			return nil
		}
		if !args.Once {
			fmt.Println(res.Report)
		}
		return nil
	}
}

func main() {
	rootCmd.PersistentFlags().String("ticker", "", "Override the TICKER environment variable.")
	rootCmd.PersistentFlags().Bool("once", false, "Run one calculation and exit without printing the report.")
	rootCmd.PersistentFlags().Bool("daemon", false, "Keep running and recalculate every market day at RUN_AT.")
	rootCmd.PersistentFlags().String("expiration", "", "Calculate a single expiration date (YYYY-MM-DD) instead of the nearest liquid one.")
	rootCmd.PersistentFlags().Bool("all-expirations", false, "Calculate every expiration in the chain and print the comparison table.")

	rootCmd.Execute()
}
