package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quotedeck/internal/backend"
)

var genOutPath string

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Write the mock backend seed dataset to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGen(genOutPath)
	},
}

func init() {
	genCmd.Flags().StringVarP(&genOutPath, "output", "o", "seed.json", "seed file path")
	rootCmd.AddCommand(genCmd)
}

func runGen(path string) error {
	seed := backend.DefaultSeed()

	raw, err := json.MarshalIndent(seed, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding seed: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing seed file %s: %w", path, err)
	}

	fmt.Printf("Wrote %d quotes to %s\n", len(seed.Quotes), path)
	return nil
}
