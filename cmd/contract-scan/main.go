// contract-scan resolves the spam status of one or more contract addresses
// from the command line and prints the results as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
	"github.com/mikey/contract-spam-filter/internal/di"
)

func main() {
	flags := di.ParseFlags()
	if len(flags.Addresses) == 0 {
		fmt.Fprintln(os.Stderr, "usage: contract-scan [flags] address [address...]")
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Scan error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	logger *zap.Logger,
	flags *di.CLIFlags,
	service *core.AggregatorService,
	classifier core.SpamClassifier,
) error {
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	results, err := service.HandleContractStatus(ctx, core.ChainID(flags.ChainID), flags.Addresses)
	if err != nil {
		return err
	}

	if closer, ok := classifier.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	ordered := make([]core.ContractStatusResult, 0, len(results))
	for _, r := range results {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Address < ordered[j].Address })

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ordered)
}
