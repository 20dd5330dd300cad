package command

// root.go defines the root command and the global flags.

import (
	"os"

	"mapportal/cmd/cli/authentication"
	"mapportal/cmd/cli/command/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var apiURL string // Global flag for API server URL

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mapportal",
	Short: "mapportal - BAR community map portal CLI",
	Long: `mapportal talks to the map portal API. Use it to:
- Browse, filter and download community maps
- Upload your own maps
- Rate and comment on maps

Use "mapportal [command] --help" to see all available commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	defaultURL := os.Getenv("MAPPORTAL_API")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "API server URL")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(mapsCmd)
	rootCmd.AddCommand(ratingCmd)
	rootCmd.AddCommand(commentCmd)
}

// GetAuthenticatedClient returns a client carrying the stored token.
func GetAuthenticatedClient() (*client.HTTPClient, error) {
	creds, err := authentication.GetTokens()
	if err != nil {
		return nil, err
	}
	httpClient := client.NewHTTPClient(apiURL)
	httpClient.SetToken(creds.AccessToken)
	return httpClient, nil
}

// GetPublicClient attaches a token when one is stored, so reads work logged out.
func GetPublicClient() *client.HTTPClient {
	httpClient := client.NewHTTPClient(apiURL)
	if creds, err := authentication.GetTokens(); err == nil {
		httpClient.SetToken(creds.AccessToken)
	}
	return httpClient
}
