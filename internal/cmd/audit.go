package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/veilware/veil/internal/audit"
	"github.com/veilware/veil/internal/config"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the anonymization run ledger",
}

func openAuditStore() (*audit.Store, error) {
	operator, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := operator.EnsureDataDir(); err != nil {
		return nil, err
	}
	key, err := operator.AuditKeyBytes()
	if err != nil {
		return nil, err
	}
	return audit.NewStore(operator.AuditDBPath(), key)
}

var auditListFlags struct {
	limit   int
	jsonOut bool
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openAuditStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(cmd.Context(), auditListFlags.limit)
		if err != nil {
			return err
		}
		if auditListFlags.jsonOut {
			return json.NewEncoder(os.Stdout).Encode(runs)
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN ID\tTIMESTAMP\tSOURCE\tSTRATEGY\tFINDINGS")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				r.ID, r.Timestamp.Format(time.RFC3339), r.Source, r.Strategy, r.FindingCount)
		}
		return w.Flush()
	},
}

var auditShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run's findings (originals stay sealed)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openAuditStore()
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		findings, err := store.Findings(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := struct {
			Run      *audit.Run      `json:"run"`
			Findings []audit.Finding `json:"findings"`
		}{run, findings}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

var auditRevealCmd = &cobra.Command{
	Use:   "reveal <run-id> <finding-index>",
	Short: "Decrypt one finding's original value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("finding index must be an integer: %w", err)
		}
		store, err := openAuditStore()
		if err != nil {
			return err
		}
		defer store.Close()

		original, err := store.RevealOriginal(cmd.Context(), args[0], index)
		if err != nil {
			return err
		}
		fmt.Println(original)
		return nil
	},
}

var auditPurgeFlags struct {
	olderThan time.Duration
}

var auditPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete runs older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		age := auditPurgeFlags.olderThan
		if age <= 0 {
			operator, err := config.Load()
			if err != nil {
				return err
			}
			age = time.Duration(operator.RetentionDays) * 24 * time.Hour
		}
		store, err := openAuditStore()
		if err != nil {
			return err
		}
		defer store.Close()

		purged, err := store.PurgeOlderThan(cmd.Context(), age)
		if err != nil {
			return err
		}
		fmt.Printf("purged %d runs\n", purged)
		return nil
	},
}

func init() {
	auditListCmd.Flags().IntVar(&auditListFlags.limit, "limit", 50, "maximum runs to list")
	auditListCmd.Flags().BoolVar(&auditListFlags.jsonOut, "json", false, "emit JSON")
	auditPurgeCmd.Flags().DurationVar(&auditPurgeFlags.olderThan, "older-than", 0, "purge runs older than this (default: configured retention)")

	auditCmd.AddCommand(auditListCmd, auditShowCmd, auditRevealCmd, auditPurgeCmd)
	rootCmd.AddCommand(auditCmd)
}
