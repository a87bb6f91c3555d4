package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rl1809/retail-ops/internal/adapter/storage"
	"github.com/rl1809/retail-ops/internal/config"
)

type LoadOptions struct {
	Driver    string
	DSN       string
	DataDir   string
	RedisAddr string
}

// LoadSummary reports what a reload wrote.
type LoadSummary struct {
	Driver    string `json:"driver"`
	Locations int    `json:"locations"`
	Products  int    `json:"products"`
	Inventory int    `json:"inventory"`
	Tickets   int    `json:"tickets"`
	RedisSKUs int64  `json:"redis_skus,omitempty"`
}

func NewLoadCommand(_ *RootOptions) *cobra.Command {
	opts := &LoadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Replace persisted state with the demo CSVs",
		Long: `Wholesale-replace the database contents with stores.csv, products.csv,
inventory.csv and tickets.csv from --data-dir. Tokens, transfers and the
audit log are cleared. With --redis the SKU set is republished too.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := RunLoad(cmd.Context(), *opts)
			if err != nil {
				return WrapExitError(ExitCommandError, "load failed", err)
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", config.DriverSQLite, "database driver (sqlite|mysql)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "./data/retail.db", "database DSN or SQLite path")
	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "./data", "directory holding the demo CSVs")
	cmd.Flags().StringVar(&opts.RedisAddr, "redis", "", "Redis address for the shared SKU set")

	return cmd
}

// OpenStore opens the store named by driver and dsn.
func OpenStore(ctx context.Context, driver, dsn string) (*storage.SQLStore, error) {
	switch driver {
	case config.DriverSQLite:
		return storage.OpenSQLite(ctx, dsn)
	case config.DriverMySQL:
		return storage.OpenMySQL(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}
}

func RunLoad(ctx context.Context, opts LoadOptions) (*LoadSummary, error) {
	snap, err := storage.ReadSnapshot(opts.DataDir)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err := store.Replace(ctx, snap); err != nil {
		return nil, err
	}

	summary := &LoadSummary{
		Driver:    store.Driver(),
		Locations: len(snap.Locations),
		Products:  len(snap.Products),
		Inventory: len(snap.Inventory),
		Tickets:   len(snap.Tickets),
	}

	if opts.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		defer rdb.Close()

		catalog := storage.NewRedisCatalog(rdb)
		skus := make([]string, 0, len(snap.Products))
		for _, p := range snap.Products {
			skus = append(skus, p.SKU)
		}
		if err := catalog.Publish(ctx, skus); err != nil {
			return nil, err
		}
		if summary.RedisSKUs, err = catalog.Count(ctx); err != nil {
			return nil, err
		}
	}

	return summary, nil
}
