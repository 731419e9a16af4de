package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veilware/veil/internal/checksum"
	"github.com/veilware/veil/internal/detect"
	"github.com/veilware/veil/internal/redact"
)

const maxBodyBytes = 4 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

// requestOptions are the per-call overrides of the server's base
// anonymization config. Pointer fields distinguish "omitted" from the
// zero value.
type requestOptions struct {
	Strategy              *string                   `json:"strategy,omitempty"`
	EnableNames           *bool                     `json:"enable_names,omitempty"`
	FirstNames            []string                  `json:"first_names,omitempty"`
	Surnames              []string                  `json:"surnames,omitempty"`
	AggressiveNumeric     *bool                     `json:"aggressive_numeric_redaction,omitempty"`
	MinNumericLength      *int                      `json:"min_numeric_length,omitempty"`
	PreserveSmallIntegers *bool                     `json:"preserve_small_integers,omitempty"`
	SmallIntegerMax       *int                      `json:"small_integer_max,omitempty"`
	AlphanumIDs           *bool                     `json:"alphanumeric_id_redaction,omitempty"`
	AlphanumMinLength     *int                      `json:"alphanumeric_min_length,omitempty"`
	IncludeShapeMetadata  *bool                     `json:"include_shape_metadata,omitempty"`
	RetainCardLast4       *bool                     `json:"retain_card_last4,omitempty"`
	Normalization         *string                   `json:"normalization,omitempty"`
	CustomRecognizers     []detect.RecognizerConfig `json:"custom_recognizers,omitempty"`
	EnabledEntities       []string                  `json:"enabled_entities,omitempty"`
	DisabledEntities      []string                  `json:"disabled_entities,omitempty"`
	UseNER                bool                      `json:"use_ner,omitempty"`
}

type detectRequest struct {
	Text string `json:"text"`
	requestOptions
}

type anonymizeRequest struct {
	Text          string        `json:"text"`
	Source        string        `json:"source,omitempty"`
	ExternalSpans []detect.Span `json:"external_spans,omitempty"`
	requestOptions
}

// buildAnonymizer layers request overrides over the base config.
func (s *Server) buildAnonymizer(opts requestOptions) (*redact.Anonymizer, error) {
	cfg := s.baseConfig
	if opts.Strategy != nil {
		cfg.Strategy = redact.Strategy(*opts.Strategy)
	}
	if opts.EnableNames != nil {
		cfg.EnableNames = *opts.EnableNames
	}
	if len(opts.FirstNames) > 0 {
		cfg.FirstNames = opts.FirstNames
	}
	if len(opts.Surnames) > 0 {
		cfg.Surnames = opts.Surnames
	}
	if opts.AggressiveNumeric != nil {
		cfg.AggressiveNumericRedaction = *opts.AggressiveNumeric
	}
	if opts.MinNumericLength != nil {
		cfg.MinNumericLength = *opts.MinNumericLength
	}
	if opts.PreserveSmallIntegers != nil {
		cfg.PreserveSmallIntegers = *opts.PreserveSmallIntegers
	}
	if opts.SmallIntegerMax != nil {
		cfg.SmallIntegerMax = *opts.SmallIntegerMax
	}
	if opts.AlphanumIDs != nil {
		cfg.AlphanumericIDRedaction = *opts.AlphanumIDs
	}
	if opts.AlphanumMinLength != nil {
		cfg.AlphanumericMinLength = *opts.AlphanumMinLength
	}
	if opts.IncludeShapeMetadata != nil {
		cfg.IncludeShapeMetadata = *opts.IncludeShapeMetadata
	}
	if opts.RetainCardLast4 != nil {
		cfg.RetainCardLast4 = *opts.RetainCardLast4
	}
	if opts.Normalization != nil {
		cfg.NormalizationStrategy = redact.Normalization(*opts.Normalization)
	}

	var detectOpts []detect.Option
	if len(opts.CustomRecognizers) > 0 {
		detectOpts = append(detectOpts, detect.WithCustomRecognizers(opts.CustomRecognizers))
	}
	if len(opts.EnabledEntities) > 0 {
		detectOpts = append(detectOpts, detect.WithEnabledEntities(opts.EnabledEntities))
	}
	if len(opts.DisabledEntities) > 0 {
		detectOpts = append(detectOpts, detect.WithDisabledEntities(opts.DisabledEntities))
	}
	if opts.UseNER && s.external != nil {
		detectOpts = append(detectOpts, detect.WithExternalRecognizer(s.external))
	}

	return redact.New(cfg, detectOpts...)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	a, err := s.buildAnonymizer(req.requestOptions)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_options", err.Error())
		return
	}

	matches := a.Detect(r.Context(), req.Text)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	var req anonymizeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	a, err := s.buildAnonymizer(req.requestOptions)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_options", err.Error())
		return
	}

	res := a.AnonymizeWithSpans(r.Context(), req.Text, req.ExternalSpans)

	resp := map[string]interface{}{
		"text":     res.Text,
		"findings": res.Findings,
	}
	if s.auditStore != nil {
		strategy := string(s.baseConfig.Strategy)
		if req.Strategy != nil {
			strategy = *req.Strategy
		}
		runID, err := s.auditStore.RecordRun(r.Context(), req.Source, strategy, res.Findings)
		if err != nil {
			log.Error().Err(err).Msg("recording audit run failed")
		} else {
			resp["run_id"] = runID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type validateRequest struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

// validators maps validatable categories to their check functions.
var validators = map[detect.Category]func(string) bool{
	detect.CategoryCard:   checksum.Luhn,
	detect.CategoryPESEL:  checksum.PESEL,
	detect.CategoryNIP:    checksum.NIP,
	detect.CategoryREGON:  checksum.REGON,
	detect.CategoryIDCard: checksum.IDCard,
	detect.CategoryIBAN:   checksum.IBAN,
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON: "+err.Error())
		return
	}

	validate, ok := validators[detect.Category(req.Category)]
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_category",
			"category has no checksum validator: "+req.Category)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"category": req.Category,
		"valid":    validate(req.Value),
	})
}
