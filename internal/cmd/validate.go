package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veilware/veil/internal/checksum"
)

// cliValidators mirrors the HTTP validate endpoint: one checksum
// routine per verifiable category.
var cliValidators = map[string]func(string) bool{
	"pesel":   checksum.PESEL,
	"nip":     checksum.NIP,
	"regon":   checksum.REGON,
	"id_card": checksum.IDCard,
	"iban":    checksum.IBAN,
	"card":    checksum.Luhn,
}

var validateCmd = &cobra.Command{
	Use:   "validate <category> <value>",
	Short: "Check an identifier's control digit",
	Long: `Validate runs the checksum routine for a single identifier and reports
whether it passes. Categories: ` + validatorNames() + `.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := strings.ToLower(args[0])
		fn, ok := cliValidators[category]
		if !ok {
			return fmt.Errorf("unknown category %q (want one of %s)", args[0], validatorNames())
		}
		if fn(args[1]) {
			fmt.Println("valid")
			return nil
		}
		fmt.Println("invalid")
		// Nonzero exit so scripts can branch on the verdict.
		cmd.SilenceUsage = true
		return fmt.Errorf("checksum failed for %s", category)
	},
}

func validatorNames() string {
	names := make([]string, 0, len(cliValidators))
	for name := range cliValidators {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
