package references

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/citations"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/metrics"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/sources"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/tracing"
	"github.com/Kocoro-lab/Shannon/go/refcheck/internal/validator"
)

// DefaultMaxReferences caps a section's reference list.
const DefaultMaxReferences = 10

// URLValidator validates a batch of URLs, returning results in input order.
type URLValidator interface {
	ValidateMany(ctx context.Context, urls []string) []validator.Result
}

// Config controls acceptance.
type Config struct {
	Policy        Policy
	MaxReferences int
	Defaults      SectorDefaults
}

// Assembler turns a section's text and supplied citations into its final
// reference list. It holds no mutable state; one Assembler serves
// concurrent sections.
type Assembler struct {
	registry  *sources.Registry
	extractor *citations.Extractor
	validator URLValidator
	policy    Policy
	maxRefs   int
	defaults  SectorDefaults
	logger    *zap.Logger
}

// NewAssembler wires an assembler. The registry both classifies references
// and resolves prose citations.
func NewAssembler(registry *sources.Registry, v URLValidator, cfg Config, logger *zap.Logger) (*Assembler, error) {
	if registry == nil {
		return nil, errors.New("references: registry is required")
	}
	if v == nil {
		return nil, errors.New("references: validator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	policy, err := ParsePolicy(string(cfg.Policy))
	if err != nil {
		return nil, err
	}
	maxRefs := cfg.MaxReferences
	if maxRefs <= 0 {
		maxRefs = DefaultMaxReferences
	}
	defaults := cfg.Defaults
	if defaults == nil {
		defaults = BuiltinSectorDefaults()
	}
	return &Assembler{
		registry:  registry,
		extractor: citations.NewExtractor(registry),
		validator: v,
		policy:    policy,
		maxRefs:   maxRefs,
		defaults:  defaults,
		logger:    logger,
	}, nil
}

// Policy returns the configured default policy.
func (a *Assembler) Policy() Policy { return a.policy }

// Assemble returns the section's references. Under the strict policy an
// empty result is reported as an error matching ErrNoWorkingReferences.
func (a *Assembler) Assemble(ctx context.Context, section Section) ([]Reference, error) {
	report, err := a.AssembleReport(ctx, section)
	if err != nil {
		return nil, err
	}
	return report.References, nil
}

// AssembleReport is Assemble plus the candidate and rejection details. The
// report is returned alongside ErrNoWorkingReferences so callers can record
// what was rejected.
func (a *Assembler) AssembleReport(ctx context.Context, section Section) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	policy := a.policy
	if section.Policy != "" {
		p, err := ParsePolicy(string(section.Policy))
		if err != nil {
			return nil, err
		}
		policy = p
	}

	ctx, span := tracing.StartSpan(ctx, "refcheck.assemble",
		attribute.String("refcheck.section_id", section.ID),
		attribute.String("refcheck.sector", section.Sector),
		attribute.String("refcheck.policy", string(policy)),
	)
	defer span.End()

	candidates := citations.Merge(
		a.extractor.Extract(section.Content),
		citations.FromRaw(section.Citations),
	)
	for _, c := range candidates {
		metrics.CandidatesExtracted.WithLabelValues(string(c.Origin)).Inc()
	}

	report := &Report{
		SectionID:  section.ID,
		Sector:     section.Sector,
		Policy:     policy,
		Candidates: len(candidates),
	}

	if len(candidates) == 0 {
		a.assembleWithoutCandidates(report)
	} else {
		a.assembleValidated(ctx, report, candidates)
	}

	span.SetAttributes(
		attribute.Int("refcheck.candidates", report.Candidates),
		attribute.Int("refcheck.references", len(report.References)),
		attribute.String("refcheck.outcome", string(report.Outcome)),
	)
	metrics.SectionsAssembled.WithLabelValues(string(policy), string(report.Outcome)).Inc()
	metrics.ReferencesPerSection.Observe(float64(len(report.References)))

	a.logger.Info("Section references assembled",
		zap.String("section_id", section.ID),
		zap.String("sector", section.Sector),
		zap.String("policy", string(policy)),
		zap.String("outcome", string(report.Outcome)),
		zap.Int("candidates", report.Candidates),
		zap.Int("references", len(report.References)),
		zap.Int("rejected", len(report.Rejections)),
	)

	if report.Outcome == OutcomeNoWorkingReferences {
		return report, &NoWorkingReferencesError{
			SectionID:  section.ID,
			Candidates: report.Candidates,
			Rejections: report.Rejections,
		}
	}
	return report, nil
}

func (a *Assembler) assembleWithoutCandidates(report *Report) {
	if report.Policy == PolicyStrict {
		report.Outcome = OutcomeNoWorkingReferences
		return
	}

	defaults := a.defaults.For(report.Sector)
	if len(defaults) == 0 {
		report.Outcome = OutcomeEmpty
		return
	}

	refs := make([]Reference, 0, len(defaults))
	for _, d := range defaults {
		refs = append(refs, a.classify(d.URL, d.Title, ""))
	}
	report.References = capUnique(refs, a.maxRefs)
	report.Outcome = OutcomeSectorDefaults
}

func (a *Assembler) assembleValidated(ctx context.Context, report *Report, candidates []citations.Candidate) {
	urls := make([]string, len(candidates))
	for i, c := range candidates {
		urls[i] = c.URL
	}
	results := a.validator.ValidateMany(ctx, urls)

	refs := make([]Reference, 0, len(candidates))
	for i, c := range candidates {
		var res validator.Result
		if i < len(results) {
			res = results[i]
		}
		if !res.IsValid {
			reason := string(res.RejectionReason)
			if reason == "" {
				reason = string(validator.ReasonNetworkError)
			}
			report.Rejections = append(report.Rejections, Rejection{
				URL:    c.URL,
				Reason: reason,
				Status: res.HTTPStatus,
			})
			continue
		}
		refs = append(refs, a.classify(c.URL, c.Title, res.Title))
	}

	report.References = capUnique(refs, a.maxRefs)
	switch {
	case len(report.References) > 0:
		report.Outcome = OutcomeAccepted
	case report.Policy == PolicyStrict:
		report.Outcome = OutcomeNoWorkingReferences
	default:
		report.Outcome = OutcomeEmpty
	}
}

// classify builds a Reference whose source and category come only from the
// registry. Title preference: cited title, page title, publisher name.
func (a *Assembler) classify(rawURL, citedTitle, pageTitle string) Reference {
	desc := a.registry.Lookup(rawURL)
	title := citedTitle
	if title == "" {
		title = pageTitle
	}
	if title == "" {
		title = desc.DisplayName
	}
	return Reference{
		Title:    title,
		URL:      rawURL,
		Source:   desc.DisplayName,
		Category: desc.Category,
	}
}

// capUnique drops repeated normalized URLs and truncates to limit, keeping
// first-seen order.
func capUnique(refs []Reference, limit int) []Reference {
	out := make([]Reference, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		key, err := citations.NormalizeURL(r.URL)
		if err != nil {
			key = r.URL
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}
