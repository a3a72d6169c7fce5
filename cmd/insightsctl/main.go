// Command insightsctl is a terminal front end for the PsychInsights API:
// classes, students, AI analysis and the Linguistic Lab tools.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"psychinsights-backend/internal/client"
	"psychinsights-backend/internal/labstate"
	"psychinsights-backend/internal/scope"
)

var (
	serverURL string
	dataDir   string
	localLab  bool
)

var rootCmd = &cobra.Command{
	Use:   "insightsctl",
	Short: "Teacher dashboard for student insights",
	Long: `insightsctl manages classes and students, runs AI analysis of
observation notes and drives the Linguistic Lab tools.

Data is partitioned by a short device token kept in the data directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultDir := ".psychinsights"
	if dir, err := os.UserConfigDir(); err == nil {
		defaultDir = filepath.Join(dir, "psychinsights")
	}

	defaultURL := os.Getenv("PSYCHINSIGHTS_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultURL, "API base URL")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDir, "directory for the device token and local lab state")
	rootCmd.PersistentFlags().BoolVar(&localLab, "local-lab", false, "keep lab state in the data directory instead of on the server")

	rootCmd.AddCommand(tokenCmd, classCmd, studentCmd, labCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func deviceToken() (string, error) {
	return scope.New(scope.NewFileSource(dataDir)).Token()
}

func newClient() (*client.Client, error) {
	token, err := deviceToken()
	if err != nil {
		return nil, err
	}

	var opts []client.Option
	if localLab {
		opts = append(opts, client.WithLabStore(labstate.NewFileStore(dataDir)))
	}
	return client.New(serverURL, token, opts...), nil
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print this device's scope token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := deviceToken()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
