package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fetchkit/fetchkit/internal/manifest"
	"github.com/fetchkit/fetchkit/internal/output"
	"github.com/fetchkit/fetchkit/internal/runner"
	"github.com/fetchkit/fetchkit/internal/utils"
)

var (
	timeout          time.Duration
	kaTimeout        time.Duration
	userAgent        string
	proxyURL         string
	proxyUsername    string
	proxyPassword    string
	headers          []string
	debug            bool
	fileLog          bool
	globalHTTPConfig utils.HTTPClientConfig
)

var FetchkitVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "fetchkit",
	Short:   "Fetchkit is a bulk fetch-and-extract utility for URL manifests",
	Version: FetchkitVersion,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		if userAgent == "randomize" {
			userAgent = utils.GetRandomUserAgent()
		}
		// Check if proxy URL contains auth
		parsedProxy, err := u.Parse(proxyURL)
		if err == nil && parsedProxy.User != nil && proxyUsername == "" {
			proxyUsername = parsedProxy.User.Username()
			if password, set := parsedProxy.User.Password(); set {
				proxyPassword = password
			}
			// Remove auth from URL to send in clientConfig
			parsedProxy.User = nil
			proxyURL = parsedProxy.String()
		}
		globalHTTPConfig = utils.HTTPClientConfig{
			Timeout:       timeout,
			KATimeout:     kaTimeout,
			ProxyURL:      proxyURL,
			ProxyUsername: proxyUsername,
			ProxyPassword: proxyPassword,
			UserAgent:     userAgent,
			Headers:       utils.ParseHeaderArgs(headers),
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runEntries is the shared tail of every download command: run the entries,
// then map the result onto the exit code (any item failure is non-zero).
func runEntries(entries []manifest.Entry, destDir string, extractArchives bool, s3Profile string) {
	res, err := runner.Run(entries, runner.Options{
		DestDir:    destDir,
		Extract:    extractArchives,
		S3Profile:  s3Profile,
		HTTPConfig: globalHTTPConfig,
		FileLog:    fileLog,
	})
	if err != nil {
		output.PrintError(fmt.Sprintf("Fatal: %v", err))
		os.Exit(1)
	}
	if len(res.Failures) > 0 {
		fmt.Println()
		output.PrintError("Encountered failed operation(s)")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Connection timeout (eg. 5s, 10m)")
	rootCmd.PersistentFlags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent ('randomize' picks a browser UA)")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.PersistentFlags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")

	// flags without shorthand
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&fileLog, "log-file", false, "Write the structured log to "+utils.LogFile)

	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newCleanCmd())
}
