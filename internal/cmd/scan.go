package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/veilware/veil/internal/config"
)

var scanFlags struct {
	jsonOut bool
}

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Detect PII without rewriting the document",
	Long: `Scan reads a document (file argument or stdin) and prints every
resolved finding with its category and byte offsets. The document
itself is never modified.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args)
		if err != nil {
			return err
		}

		operator, err := config.Load()
		if err != nil {
			return err
		}
		anonymizer, err := buildAnonymizer(operator)
		if err != nil {
			return err
		}

		matches := anonymizer.Detect(cmd.Context(), text)
		if scanFlags.jsonOut {
			return json.NewEncoder(os.Stdout).Encode(matches)
		}

		if len(matches) == 0 {
			fmt.Println("no findings")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tSTART\tEND\tVALUE")
		for _, m := range matches {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", m.Category, m.Start, m.End, m.Value)
		}
		return w.Flush()
	},
}

func init() {
	scanCmd.Flags().BoolVar(&scanFlags.jsonOut, "json", false, "emit findings as JSON")
	addDetectionFlags(scanCmd.Flags())
	rootCmd.AddCommand(scanCmd)
}
