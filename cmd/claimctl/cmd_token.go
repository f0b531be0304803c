package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claimwise/platform/pkg/common/config"
	"github.com/claimwise/platform/pkg/gateway/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage reviewer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for the claim history endpoints",
	RunE:  runTokenIssue,
}

var reviewer auth.Reviewer

func init() {
	tokenIssueCmd.Flags().StringVar(&reviewer.ID, "id", "", "Reviewer id (required)")
	tokenIssueCmd.Flags().StringVar(&reviewer.Name, "name", "", "Reviewer name")
	tokenIssueCmd.Flags().StringVar(&reviewer.Email, "email", "", "Reviewer email")
	tokenIssueCmd.Flags().StringVar(&reviewer.Role, "role", "reviewer", "Reviewer role")
	tokenIssueCmd.MarkFlagRequired("id")

	tokenCmd.AddCommand(tokenIssueCmd)
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	token, err := issueToken(cfg, reviewer)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func issueToken(c *config.Config, r auth.Reviewer) (string, error) {
	if c.JWTSecret == "" {
		return "", fmt.Errorf("JWT_SECRET is not set")
	}
	manager, err := auth.NewJWTManager(c.JWTSecret, c.JWTIssuer, c.JWTAudience, c.JWTTTL)
	if err != nil {
		return "", err
	}
	return manager.IssueToken(r)
}
