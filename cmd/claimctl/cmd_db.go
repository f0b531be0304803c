package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/claimwise/platform/pkg/claims"
	"github.com/claimwise/platform/pkg/common/database"
	"github.com/claimwise/platform/pkg/ledger"
	"github.com/claimwise/platform/pkg/policy"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the claims schema",
	RunE:  runMigrate,
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage stored policies",
}

var policyImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Store a policy from a JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyImport,
}

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage covered members",
}

var memberAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a covered member to a policy",
	Example: `  claimctl member add --id MEM-42 --policy PLUM_OPD_2024 \
    --employee EMP001 --name "Rajesh Kumar" --dob 1985-04-12`,
	RunE: runMemberAdd,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print claim statistics as JSON",
	RunE:  runStats,
}

var (
	member    claims.Member
	memberDOB string

	statsPolicy string
	statsDays   int
)

func init() {
	memberAddCmd.Flags().StringVar(&member.MemberID, "id", "", "Member id (required)")
	memberAddCmd.Flags().StringVar(&member.PolicyID, "policy", "", "Policy id (required)")
	memberAddCmd.Flags().StringVar(&member.EmployeeID, "employee", "", "Employee id")
	memberAddCmd.Flags().StringVar(&member.MemberName, "name", "", "Member name (required)")
	memberAddCmd.Flags().StringVar(&memberDOB, "dob", "", "Date of birth, YYYY-MM-DD")
	memberAddCmd.Flags().StringVar(&member.Gender, "gender", "", "Gender")
	memberAddCmd.Flags().StringVar(&member.Relationship, "relationship", "self", "Relationship to the employee")
	memberAddCmd.MarkFlagRequired("id")
	memberAddCmd.MarkFlagRequired("policy")
	memberAddCmd.MarkFlagRequired("name")

	statsCmd.Flags().StringVar(&statsPolicy, "policy", "", "Restrict to one policy")
	statsCmd.Flags().IntVar(&statsDays, "days", 0, "Only claims from the last N days")

	policyCmd.AddCommand(policyImportCmd)
	memberCmd.AddCommand(memberAddCmd)
}

func openDB() (*gorm.DB, func(), error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = closeDB(db) }, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, done, err := openDB()
	if err != nil {
		return err
	}
	defer done()

	steps := []struct {
		name    string
		migrate func() error
	}{
		{"policies", policy.NewRepository(db).AutoMigrate},
		{"claims", claims.NewRepository(db).AutoMigrate},
		{"ledger", ledger.NewRepository(db).AutoMigrate},
	}
	for _, step := range steps {
		if err := step.migrate(); err != nil {
			return fmt.Errorf("migrating %s: %w", step.name, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", step.name)
	}
	return nil
}

func runPolicyImport(cmd *cobra.Command, args []string) error {
	p, err := policy.Load(args[0])
	if err != nil {
		return err
	}
	if p.PolicyID == "" {
		return fmt.Errorf("%s: policy_id is required", args[0])
	}

	db, done, err := openDB()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rec, err := policy.NewRepository(db).Create(ctx, p)
	if err != nil {
		return fmt.Errorf("storing policy %s: %w", p.PolicyID, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored policy %s (%s)\n", rec.PolicyID, rec.PolicyName)
	return nil
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
	if memberDOB != "" {
		dob, err := time.Parse("2006-01-02", memberDOB)
		if err != nil {
			return fmt.Errorf("--dob: %w", err)
		}
		member.DateOfBirth = &dob
	}

	db, done, err := openDB()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if _, err := policy.NewRepository(db).Get(ctx, member.PolicyID); err != nil {
		return fmt.Errorf("policy %s: %w", member.PolicyID, err)
	}
	repo := claims.NewRepository(db)
	if _, err := repo.GetMember(ctx, member.MemberID); err == nil {
		return fmt.Errorf("member %s already exists", member.MemberID)
	} else if !errors.Is(err, claims.ErrNotFound) {
		return err
	}
	if err := repo.CreateMember(ctx, &member); err != nil {
		return fmt.Errorf("adding member %s: %w", member.MemberID, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added member %s to %s\n", member.MemberID, member.PolicyID)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	db, done, err := openDB()
	if err != nil {
		return err
	}
	defer done()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	filter := claims.StatisticsFilter{PolicyID: statsPolicy}
	if statsDays > 0 {
		from := time.Now().AddDate(0, 0, -statsDays)
		filter.From = &from
	}
	stats, err := claims.NewRepository(db).Statistics(ctx, filter)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
