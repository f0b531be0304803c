// Command claimctl administers the claims platform: schema migrations,
// policy and member records, reviewer tokens and sample documents.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/claimwise/platform/pkg/common/config"
	"github.com/claimwise/platform/pkg/common/logger"
)

var (
	cfg     *config.Config
	timeout time.Duration
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "claimctl",
	Short: "Administer the claims adjudication platform",
	Long: `claimctl manages the data the claims service relies on.

Database commands read DATABASE_URL; token commands read JWT_SECRET,
JWT_ISSUER and JWT_AUDIENCE.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if os.Getenv("LOG_FORMAT") == "" {
			os.Setenv("LOG_FORMAT", "text")
		}
		logger.Init()
		if verbose {
			logger.Log.SetLevel(logrus.DebugLevel)
		}
		cfg = config.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(gendocsCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
