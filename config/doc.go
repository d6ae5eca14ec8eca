// Package config loads and validates picstash configuration.
//
// Configuration is layered, highest precedence first: CLI flags, environment
// variables with the PICSTASH_ prefix, YAML config files, built-in defaults.
//
// The target bucket is the one setting with no default: loading fails without
// it, and the process refuses to start rather than serve half-configured.
//
// # Example
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
