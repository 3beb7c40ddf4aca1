package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	corelink "github.com/talentsphere/corelink-go"
	"github.com/talentsphere/corelink-go/config"
	"github.com/talentsphere/corelink-go/events"
	"github.com/talentsphere/corelink-go/rpc"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	var (
		serviceName string
		verbose     bool
	)

	rootCmd := &cobra.Command{
		Use:   "corelink-probe",
		Short: "Probe a service's eventing and RPC wiring",
		Long: `corelink-probe validates a service's environment configuration and can
exercise the event publisher and a peer service call against the live
infrastructure, so deployments can be checked before the service starts.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, gitCommit),
	}

	rootCmd.PersistentFlags().StringVarP(&serviceName, "service", "s", "probe", "name of the service whose configuration to use")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Validate environment configuration",
		Long:  "Validate the environment against the configuration schema and print the full report.",
		RunE: func(cmd *cobra.Command, args []string) error {
			result := config.NewValidator(config.WithValidatorLogger(newLogger(verbose))).Validate(serviceName)
			printReport(result)
			if !result.IsValid {
				return fmt.Errorf("configuration for %s is invalid", serviceName)
			}
			return nil
		},
	}

	var (
		routingKey string
		dataJSON   string
	)
	eventCmd := &cobra.Command{
		Use:   "event",
		Short: "Publish a probe event",
		Long:  "Publish a single probe event to the configured exchange and report the publisher state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			client, err := newClient(ctx, serviceName, verbose)
			if err != nil {
				return err
			}
			defer client.Close()

			payload := map[string]interface{}{"probe": true, "sentAt": time.Now().UTC()}
			if dataJSON != "" {
				payload = nil
				if err := json.Unmarshal([]byte(dataJSON), &payload); err != nil {
					return fmt.Errorf("invalid --data payload: %w", err)
				}
			}

			fmt.Printf("publisher state: %s\n", client.Events().State())
			if err := client.Events().TryPublish(ctx, routingKey, payload); err != nil {
				return fmt.Errorf("probe publish failed: %w", err)
			}
			fmt.Printf("published %s to %s\n", routingKey, client.Config().ExchangeName)
			return nil
		},
	}
	eventCmd.Flags().StringVarP(&routingKey, "routing-key", "k", "probe.ping", "routing key for the probe event")
	eventCmd.Flags().StringVarP(&dataJSON, "data", "d", "", "JSON payload for the probe event")

	var pingPath string
	pingCmd := &cobra.Command{
		Use:   "ping [peer-service]",
		Short: "Call a peer service's health endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client, err := newClient(ctx, serviceName, verbose)
			if err != nil {
				return err
			}
			defer client.Close()

			peer := args[0]
			resp, err := client.RPC().Get(ctx, peer, pingPath, rpc.RequestConfig{})
			if err != nil {
				return fmt.Errorf("ping %s failed: %w", peer, err)
			}
			fmt.Printf("%s %s -> %d %s (%dms)\n", peer, pingPath, resp.Status, resp.StatusText, resp.ResponseTimeMs)
			return nil
		},
	}
	pingCmd.Flags().StringVarP(&pingPath, "path", "p", "/health", "path to request on the peer")

	rootCmd.AddCommand(configCmd, eventCmd, pingCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(ctx context.Context, serviceName string, verbose bool) (*corelink.Client, error) {
	return corelink.NewClient(ctx,
		corelink.WithServiceName(serviceName),
		corelink.WithLogger(newLogger(verbose)),
		corelink.WithPublisherOptions(events.WithConnectTimeout(10*time.Second)),
	)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func printReport(result *config.Result) {
	status := "VALID"
	if !result.IsValid {
		status = "INVALID"
	}
	fmt.Printf("Configuration for %s: %s\n", result.ServiceName, status)

	if len(result.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range result.Errors {
			fmt.Printf("  ✗ %s\n", e.Error())
		}
	}
	if len(result.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range result.Warnings {
			fmt.Printf("  ! %s\n", w)
		}
	}
	if result.Config != nil && result.IsValid {
		fmt.Println("\nResolved:")
		fmt.Printf("  broker        %s:%d\n", result.Config.RabbitHost, result.Config.RabbitPort)
		fmt.Printf("  exchange      %s\n", result.Config.ExchangeName)
		fmt.Printf("  http timeout  %s\n", result.Config.HTTPTimeout)
		fmt.Printf("  max retries   %d\n", result.Config.MaxRetries)
		fmt.Printf("  retry delay   %s\n", result.Config.RetryDelay)
	}
}
