package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/veilware/veil/internal/audit"
	"github.com/veilware/veil/internal/config"
	"github.com/veilware/veil/internal/detect"
	"github.com/veilware/veil/internal/faker"
	"github.com/veilware/veil/internal/ner"
	"github.com/veilware/veil/internal/redact"
)

var anonymizeFlags struct {
	strategy       string
	normalization  string
	salt           string
	fake           bool
	seed           int64
	names          bool
	firstNamesFile string
	surnamesFile   string
	patternFile    string
	aggressive     bool
	minNumeric     int
	alphanum       bool
	alphanumMin    int
	shapeMetadata  bool
	retainLast4    bool
	useNER         bool
	recordAudit    bool
	jsonOut        bool
}

var anonymizeCmd = &cobra.Command{
	Use:   "anonymize [file]",
	Short: "Replace detected PII in a document",
	Long: `Anonymize reads a document (file argument or stdin), detects PII and
writes the redacted text to stdout. With --fake, findings are replaced
by plausible fake values (valid check digits included) instead of the
configured strategy.`,
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
		operator.WarnIfDefaultKeys()

		anonymizer, err := buildAnonymizer(operator)
		if err != nil {
			return err
		}

		var res *redact.Result
		if anonymizeFlags.fake {
			matches := anonymizer.Detect(cmd.Context(), text)
			res = applyFake(text, matches, faker.New(anonymizeFlags.seed))
		} else {
			res = anonymizer.Anonymize(cmd.Context(), text)
		}

		if anonymizeFlags.recordAudit {
			if err := recordRun(cmd.Context(), operator, args, res); err != nil {
				return err
			}
		}

		if anonymizeFlags.jsonOut {
			return json.NewEncoder(os.Stdout).Encode(res)
		}
		fmt.Println(res.Text)
		return nil
	},
}

func readInput(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// buildAnonymizer resolves the redaction config from flags plus the
// operator config (salt, dictionaries, pattern file).
func buildAnonymizer(operator *config.Config) (*redact.Anonymizer, error) {
	cfg := redact.DefaultConfig()
	cfg.Strategy = redact.Strategy(anonymizeFlags.strategy)
	cfg.NormalizationStrategy = redact.Normalization(anonymizeFlags.normalization)
	cfg.EnableNames = anonymizeFlags.names
	cfg.AggressiveNumericRedaction = anonymizeFlags.aggressive
	if anonymizeFlags.minNumeric > 0 {
		cfg.MinNumericLength = anonymizeFlags.minNumeric
	}
	cfg.AlphanumericIDRedaction = anonymizeFlags.alphanum
	if anonymizeFlags.alphanumMin > 0 {
		cfg.AlphanumericMinLength = anonymizeFlags.alphanumMin
	}
	cfg.IncludeShapeMetadata = anonymizeFlags.shapeMetadata
	cfg.RetainCardLast4 = anonymizeFlags.retainLast4

	cfg.HashSalt = operator.HashSalt
	if anonymizeFlags.salt != "" {
		cfg.HashSalt = anonymizeFlags.salt
	}

	cfg.PatternFile = operator.PatternFile
	if anonymizeFlags.patternFile != "" {
		cfg.PatternFile = anonymizeFlags.patternFile
	}

	firstFile := operator.FirstNamesFile
	if anonymizeFlags.firstNamesFile != "" {
		firstFile = anonymizeFlags.firstNamesFile
	}
	if firstFile != "" {
		names, err := redact.LoadNameFile(firstFile)
		if err != nil {
			return nil, err
		}
		cfg.FirstNames = names
	}
	surFile := operator.SurnamesFile
	if anonymizeFlags.surnamesFile != "" {
		surFile = anonymizeFlags.surnamesFile
	}
	if surFile != "" {
		names, err := redact.LoadNameFile(surFile)
		if err != nil {
			return nil, err
		}
		cfg.Surnames = names
	}

	var opts []detect.Option
	if anonymizeFlags.useNER {
		if operator.NERAPIKey == "" {
			return nil, fmt.Errorf("--use-ner requires VEIL_NER_API_KEY")
		}
		var recognizer *ner.Recognizer
		if operator.NERBaseURL != "" {
			recognizer = ner.NewWithBaseURL(operator.NERAPIKey, operator.NERModel, operator.NERBaseURL)
		} else {
			recognizer = ner.New(operator.NERAPIKey, operator.NERModel)
		}
		opts = append(opts, detect.WithExternalRecognizer(recognizer))
	}

	return redact.New(cfg, opts...)
}

// applyFake splices faker replacements over the resolved matches.
func applyFake(text string, matches []detect.Match, gen *faker.Generator) *redact.Result {
	findings := make([]redact.Finding, 0, len(matches))
	var out strings.Builder
	out.Grow(len(text))

	last := 0
	for _, m := range matches {
		if m.Start < last {
			continue
		}
		repl := gen.Replacement(m.Category, m.Value)
		out.WriteString(text[last:m.Start])
		out.WriteString(repl)
		findings = append(findings, redact.Finding{
			Start:       m.Start,
			End:         m.End,
			Category:    m.Category,
			Original:    m.Value,
			Replacement: repl,
		})
		last = m.End
	}
	out.WriteString(text[last:])
	return &redact.Result{Text: out.String(), Findings: findings}
}

func recordRun(ctx context.Context, operator *config.Config, args []string, res *redact.Result) error {
	if err := operator.EnsureDataDir(); err != nil {
		return err
	}
	key, err := operator.AuditKeyBytes()
	if err != nil {
		return err
	}
	store, err := audit.NewStore(operator.AuditDBPath(), key)
	if err != nil {
		return err
	}
	defer store.Close()

	source := "stdin"
	if len(args) == 1 && args[0] != "-" {
		source = args[0]
	}
	strategy := anonymizeFlags.strategy
	if anonymizeFlags.fake {
		strategy = "fake"
	}
	runID, err := store.RecordRun(ctx, source, strategy, res.Findings)
	if err != nil {
		return err
	}
	log.Info().Str("run_id", runID).Int("findings", len(res.Findings)).Msg("audit run recorded")
	return nil
}

// addDetectionFlags registers the flags shared by every command that
// runs the detection engine (anonymize and scan). The backing fields are
// shared too; only one command runs per invocation.
func addDetectionFlags(f *pflag.FlagSet) {
	f.BoolVar(&anonymizeFlags.names, "names", true, "detect person names")
	f.StringVar(&anonymizeFlags.firstNamesFile, "first-names", "", "first-name dictionary file to gate name detection")
	f.StringVar(&anonymizeFlags.surnamesFile, "surnames", "", "surname dictionary file to gate name detection")
	f.StringVar(&anonymizeFlags.patternFile, "patterns", "", "operator recognizer YAML layered over the defaults")
	f.BoolVar(&anonymizeFlags.aggressive, "aggressive-numeric", false, "redact long numbers no category claimed")
	f.IntVar(&anonymizeFlags.minNumeric, "min-numeric-length", 0, "minimum digits for --aggressive-numeric (default from config)")
	f.BoolVar(&anonymizeFlags.alphanum, "alphanum-ids", false, "redact mixed letter-digit identifiers")
	f.IntVar(&anonymizeFlags.alphanumMin, "alphanum-min-length", 0, "minimum length for --alphanum-ids (default from config)")
	f.BoolVar(&anonymizeFlags.useNER, "use-ner", false, "merge spans from the configured NER model")
}

func init() {
	f := anonymizeCmd.Flags()
	f.StringVar(&anonymizeFlags.strategy, "strategy", "placeholder", "replacement strategy (placeholder, preserve_shape, hash)")
	f.StringVar(&anonymizeFlags.normalization, "normalization", "digits_only", "number normalization before hashing (digits_only, canonical, none)")
	f.StringVar(&anonymizeFlags.salt, "salt", "", "hash salt (overrides VEIL_HASH_SALT)")
	f.BoolVar(&anonymizeFlags.fake, "fake", false, "replace findings with fake values instead of the strategy output")
	f.Int64Var(&anonymizeFlags.seed, "seed", 42, "random seed for --fake")
	f.BoolVar(&anonymizeFlags.shapeMetadata, "shape-metadata", false, "append digit-shape metadata to generic number tags")
	f.BoolVar(&anonymizeFlags.retainLast4, "retain-last4", false, "keep the last four digits of card numbers")
	f.BoolVar(&anonymizeFlags.recordAudit, "audit", false, "record the run in the audit ledger")
	f.BoolVar(&anonymizeFlags.jsonOut, "json", false, "emit JSON (text plus findings) instead of plain text")
	addDetectionFlags(f)

	rootCmd.AddCommand(anonymizeCmd)
}
