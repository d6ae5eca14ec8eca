package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/picstash/picstash/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "picstash",
	Short:   "Image gateway over an object store",
	Long: `Picstash is a small HTTP gateway that lets a browser upload, list,
and delete images held in a private object store bucket, and view them
through short-lived signed URLs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init writes the config file; it must not require one.
		if cmd.Name() == "init" {
			setupLogging("info")
			return nil
		}

		configFiles, _ := cmd.Flags().GetStringSlice("config")
		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log.Level)
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path(s) (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("backend", "", "store backend: s3, filesystem, memory (env: PICSTASH_STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("bucket", "", "target bucket, required (env: PICSTASH_STORAGE_BUCKET)")
	rootCmd.PersistentFlags().String("region", "", "bucket region (env: PICSTASH_STORAGE_REGION)")
	rootCmd.PersistentFlags().String("credentials-file", "", "explicit credentials file; empty uses the ambient identity")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem backend root directory (default: ./data)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
