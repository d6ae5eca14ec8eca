package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picstash/picstash"
)

var rmCmd = &cobra.Command{
	Use:   "rm <name1> [name2] ...",
	Short: "Delete blobs from the bucket",
	Long: `Delete blobs from the configured bucket by name. Names may contain
path separators. Absent blobs are reported, not treated as errors.

Examples:
  picstash rm cat.png
  picstash rm holidays/beach.jpg holidays/sunset.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := configFromContext(ctx)
	if err != nil {
		return err
	}

	store, _, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	defer cleanup()

	service, err := newService(cfg, store)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	removed := 0
	notFound := 0

	for _, name := range args {
		err := service.Delete(ctx, name)
		if errors.Is(err, picstash.ErrNotFound) {
			fmt.Printf("not found: %s\n", name)
			notFound++
			continue
		}
		if err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", name)
		removed++
	}

	fmt.Printf("%d deleted, %d not found\n", removed, notFound)
	return nil
}
