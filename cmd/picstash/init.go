package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file interactively",
	Long: `Create a picstash config file by answering a few prompts.

You will be asked for the store backend, the target bucket, credentials,
and the listen port. The result is written as YAML; pass it to other
commands with --config or place it as ./config.yaml.`,
	RunE: runInit,
}

var initOutput string

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "config.yaml", "path of the config file to write")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initOutput); err == nil {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("%s exists, overwrite", initOutput),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			return errors.New("aborted")
		}
	}

	backendSelect := promptui.Select{
		Label: "Store backend",
		Items: []string{"s3", "filesystem", "memory"},
	}
	_, backend, err := backendSelect.Run()
	if err != nil {
		return err
	}

	bucket, err := promptRequired("Bucket name")
	if err != nil {
		return err
	}

	storage := map[string]any{
		"backend": backend,
		"bucket":  bucket,
	}

	switch backend {
	case "s3":
		region, err := promptDefault("Region", "us-east-1")
		if err != nil {
			return err
		}
		storage["region"] = region

		credsFile, err := promptDefault("Credentials file (empty for ambient identity)", "")
		if err != nil {
			return err
		}
		if credsFile != "" {
			storage["credentials_file"] = credsFile
		}

		endpoint, err := promptDefault("Custom endpoint (empty for AWS)", "")
		if err != nil {
			return err
		}
		if endpoint != "" {
			storage["endpoint"] = endpoint
			storage["use_path_style"] = true
		}

	case "filesystem":
		path, err := promptDefault("Storage directory", "./data")
		if err != nil {
			return err
		}
		storage["path"] = path
	}

	portStr, err := promptDefault("Listen port", "8080")
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %s", portStr)
	}

	staticDir, err := promptDefault("Frontend asset directory", "./frontend")
	if err != nil {
		return err
	}

	cfg := map[string]any{
		"server": map[string]any{
			"port":       port,
			"static_dir": staticDir,
		},
		"storage": storage,
		"log":     map[string]any{"level": "info"},
	}

	// The local signer only matters for backends served through /media.
	if backend != "s3" {
		accessKey, err := promptDefault("Signing access key", "picstash")
		if err != nil {
			return err
		}
		secretKey, err := promptRequired("Signing secret key")
		if err != nil {
			return err
		}
		baseURL, err := promptDefault("Public base URL for signed links", fmt.Sprintf("http://localhost:%d/media", port))
		if err != nil {
			return err
		}
		cfg["sign"] = map[string]any{
			"access_key": accessKey,
			"secret_key": secretKey,
			"base_url":   baseURL,
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(initOutput, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Printf("wrote %s\n", initOutput)
	return nil
}

func promptRequired(label string) (string, error) {
	p := promptui.Prompt{
		Label: label,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("value cannot be empty")
			}
			return nil
		},
	}
	return p.Run()
}

func promptDefault(label, def string) (string, error) {
	p := promptui.Prompt{Label: label, Default: def, AllowEdit: true}
	return p.Run()
}
