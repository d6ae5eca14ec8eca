package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List blobs in the bucket",
	Long: `List every blob in the configured bucket with its size and
modification time.

Examples:
  # List blob metadata
  picstash ls

  # Print a signed URL per blob instead
  picstash ls --urls`,
	RunE: runLs,
}

var lsURLs bool

func init() {
	lsCmd.Flags().BoolVar(&lsURLs, "urls", false, "print signed URLs instead of metadata")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
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

	if lsURLs {
		urls, err := service.ListURLs(ctx)
		if err != nil {
			return err
		}
		for _, u := range urls {
			fmt.Println(u)
		}
		return nil
	}

	images, err := service.ListImages(ctx)
	if err != nil {
		return err
	}

	for _, img := range images {
		updated := "-"
		if img.Updated != nil {
			updated = *img.Updated
		}
		fmt.Printf("%12d  %-25s  %s\n", img.Size, updated, img.Name)
	}
	fmt.Printf("%d blob(s)\n", len(images))
	return nil
}
