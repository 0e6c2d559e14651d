package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"metalspot-service/internal/application"
	"metalspot-service/internal/bootstrap"
	"metalspot-service/internal/config"
	"metalspot-service/internal/domain"
	"metalspot-service/internal/infrastructure/logx"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type fetchOutput struct {
	Prices    map[string]string `json:"prices"`
	FetchedAt time.Time         `json:"fetchedAt"`
	Source    string            `json:"source"`
	Status    string            `json:"cacheStatus"`
}

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run one coordinated refresh and print the snapshot",
		RunE:  runFetch,
	}
	cmd.Flags().String("symbols", "", "Override SYMBOLS, e.g. gold:xauusd,silver:xagusd")
	cmd.Flags().String("provider", "", "Override PROVIDER (stooq or fake)")
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Load()
	if v, _ := cmd.Flags().GetString("symbols"); v != "" {
		cfg.Symbols = v
	}
	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		cfg.Provider = v
	}
	// the CLI never touches the snapshot store
	cfg.SnapshotStore = "none"
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	svc, err := bootstrap.NewFetchService(ctx, cfg, logx.L())
	if err != nil {
		return err
	}

	reqCtx, reqCancel := context.WithTimeout(ctx, cfg.RefreshTimeout+time.Second)
	defer reqCancel()
	res, err := svc.Get(reqCtx)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	return printResult(cmd, res, svc.Symbols())
}

func printResult(cmd *cobra.Command, res application.Result, order []domain.Symbol) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if asJSON {
		body := fetchOutput{
			Prices:    make(map[string]string, len(res.Snapshot.Quotes)),
			FetchedAt: res.Snapshot.FetchedAt.UTC(),
			Source:    res.Snapshot.Source,
			Status:    string(res.Status),
		}
		for sym, q := range res.Snapshot.Quotes {
			body.Prices[string(sym)] = q.Price.String()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(body)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tPRICE\tAS OF")
	for _, sym := range order {
		q := res.Snapshot.Quotes[sym]
		fmt.Fprintf(w, "%s\t%s\t%s\n", sym, q.Price.String(), q.AsOf.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(w, "\nsource=%s fetched_at=%s\n", res.Snapshot.Source, res.Snapshot.FetchedAt.UTC().Format(time.RFC3339))
	return w.Flush()
}
