package main

import (
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put [flags] <file1> [file2] ...",
	Short: "Import files into the bucket",
	Long: `Import local files into the configured bucket. Files are keyed by
their base name, optionally under a destination prefix. An existing blob
with the same name is overwritten unless --no-clobber is given.

Examples:
  # Import a single file
  picstash put photo.jpg

  # Import under a prefix
  picstash put --dest holidays/ photo.jpg

  # Skip blobs that already exist
  picstash put --no-clobber photo.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPut,
}

var (
	putDest      string
	putNoClobber bool
)

func init() {
	putCmd.Flags().StringVarP(&putDest, "dest", "d", "", "destination prefix in the bucket")
	putCmd.Flags().BoolVarP(&putNoClobber, "no-clobber", "n", false, "skip existing blobs instead of overwriting")
	rootCmd.AddCommand(putCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
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

	uploaded := 0
	skipped := 0

	for _, src := range args {
		name := path.Join(putDest, filepath.Base(src))

		if putNoClobber {
			exists, err := store.Exists(ctx, name)
			if err != nil {
				return fmt.Errorf("check '%s': %w", name, err)
			}
			if exists {
				fmt.Printf("skip %s (exists)\n", name)
				skipped++
				continue
			}
		}

		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("open '%s': %w", src, err)
		}

		contentType := mime.TypeByExtension(filepath.Ext(src))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		uploadErr := service.Upload(ctx, name, f, contentType)
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: close '%s': %v\n", src, closeErr)
		}
		if uploadErr != nil {
			return uploadErr
		}

		fmt.Printf("put  %s\n", name)
		uploaded++
	}

	fmt.Printf("%d uploaded, %d skipped\n", uploaded, skipped)
	return nil
}
