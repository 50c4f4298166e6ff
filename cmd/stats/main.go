// Package main prints aggregate attack statistics from the transactional
// store: most profitable attackers and most targeted pools.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"solana-sandwich-watch/internal/storage"
	pgstore "solana-sandwich-watch/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	limit := flag.Int("limit", 10, "Rows per ranking")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *postgresDSN == "" {
		fmt.Fprintln(os.Stderr, "--postgres-dsn is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := pgstore.NewAttackStore(pool)

	attackers, err := store.TopAttackers(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query top attackers: %v\n", err)
		os.Exit(1)
	}
	pools, err := store.MostTargetedPools(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "query most targeted pools: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		out := struct {
			TopAttackers      []storage.AttackerProfit  `json:"top_attackers"`
			MostTargetedPools []storage.PoolAttackCount `json:"most_targeted_pools"`
		}{attackers, pools}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Top attackers by net profit (SOL):")
	for i, row := range attackers {
		fmt.Printf("%2d. %s attacks=%d profit=%.6f\n", i+1, row.Attacker, row.AttackCount, row.TotalProfit)
	}
	fmt.Println()
	fmt.Println("Most targeted pools:")
	for i, row := range pools {
		fmt.Printf("%2d. %s attacks=%d victims=%d\n", i+1, row.Pool, row.AttackCount, row.VictimCount)
	}
}
