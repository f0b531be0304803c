package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/claimwise/platform/pkg/sampledocs"
)

var gendocsCmd = &cobra.Command{
	Use:   "gendocs",
	Short: "Write sample claim documents as text files",
	Long: `Writes sample prescriptions, bills and lab reports for demos and
manual testing. Each claim set shares one patient, doctor and visit date, so
the files of a set can be uploaded together as one claim.`,
	RunE: runGendocs,
}

var (
	gendocsOut  string
	gendocsSeed uint64
	gendocsSets int
)

func init() {
	gendocsCmd.Flags().StringVar(&gendocsOut, "out", "sample_documents", "Output directory")
	gendocsCmd.Flags().Uint64Var(&gendocsSeed, "seed", 42, "Random seed")
	gendocsCmd.Flags().IntVar(&gendocsSets, "sets", 3, "Number of claim sets")
}

func runGendocs(cmd *cobra.Command, args []string) error {
	return writeSampleDocs(cmd.OutOrStdout(), gendocsOut, gendocsSeed, gendocsSets, time.Now())
}

// writeSampleDocs writes each claim set into its own claim_NN directory.
func writeSampleDocs(out io.Writer, dir string, seed uint64, sets int, now time.Time) error {
	if sets < 1 {
		return fmt.Errorf("--sets must be at least 1")
	}
	gen := sampledocs.New(seed, now)
	for i := 1; i <= sets; i++ {
		setDir := filepath.Join(dir, fmt.Sprintf("claim_%02d", i))
		if err := os.MkdirAll(setDir, 0o755); err != nil {
			return err
		}
		for j, doc := range gen.ClaimSet() {
			path := filepath.Join(setDir, doc.FileName(j+1))
			if err := os.WriteFile(path, []byte(doc.Text+"\n"), 0o644); err != nil {
				return err
			}
		}
		fmt.Fprintf(out, "wrote %s\n", setDir)
	}
	return nil
}
