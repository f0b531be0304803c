package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claimwise/platform/pkg/cache"
	"github.com/claimwise/platform/pkg/common/logger"
)

var ErrEmptyDocument = errors.New("document text is empty or too short to process")

const minDocumentText = 10

// Extractor turns document text into structured claim data with an LLM.
type Extractor struct {
	llm   LLM
	cache *cache.JSONCache
	now   func() time.Time
}

func NewExtractor(llm LLM, c *cache.JSONCache) *Extractor {
	return &Extractor{llm: llm, cache: c, now: time.Now}
}

// modelNamer is implemented by LLM clients that report which model they call.
type modelNamer interface {
	Model() string
}

func (e *Extractor) model() string {
	if m, ok := e.llm.(modelNamer); ok {
		return m.Model()
	}
	return ""
}

// cacheKey covers everything that shapes an extraction: the model, the
// prompt revision, the document type and its text.
func cacheKey(model, version, docType, text string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{model, version, docType, text}, "\x00")))
	return "extract:" + hex.EncodeToString(sum[:])
}

// Extract returns the structured content of one document. claimDate is
// copied onto the result; when empty, today's date is used.
func (e *Extractor) Extract(ctx context.Context, text, claimDate, docType string) (*Document, error) {
	if len(strings.TrimSpace(text)) < minDocumentText {
		return nil, ErrEmptyDocument
	}

	key := cacheKey(e.model(), promptVersion, docType, text)
	var doc Document
	err := e.cache.Get(ctx, key, &doc)
	switch {
	case err == nil:
		logger.Log.WithField("document_type", docType).Debug("Extraction cache hit")
	case errors.Is(err, cache.ErrMiss):
		parsed, err := e.extract(ctx, text, docType)
		if err != nil {
			return nil, err
		}
		doc = *parsed
		if err := e.cache.Set(ctx, key, doc); err != nil {
			logger.Log.WithError(err).Warn("Failed to cache extraction result")
		}
	default:
		logger.Log.WithError(err).Warn("Extraction cache unavailable")
		parsed, err := e.extract(ctx, text, docType)
		if err != nil {
			return nil, err
		}
		doc = *parsed
	}

	if claimDate != "" {
		doc.ClaimDate = claimDate
	} else {
		doc.ClaimDate = e.now().Format("2006-01-02")
	}
	return &doc, nil
}

func (e *Extractor) extract(ctx context.Context, text, docType string) (*Document, error) {
	raw, err := e.llm.Generate(ctx, extractionPrompt(docType, text), GenerateOptions{
		Temperature:     0.1,
		MaxOutputTokens: 2000,
	})
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", docType, err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(stripFences(raw)), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse extracted data for %s: %w", docType, err)
	}

	if doc.TotalAmount == nil {
		var sum Amount
		for _, item := range doc.Items {
			sum += item.Amount
		}
		doc.TotalAmount = &sum
	}
	return &doc, nil
}

const necessityParseFallback = "Could not parse LLM response, defaulting to approval"

// ReviewNecessity asks the model whether the treatment was medically
// necessary. Any failure yields a "necessary" assessment so the claim is not
// rejected on an unreadable answer.
func (e *Extractor) ReviewNecessity(ctx context.Context, req NecessityRequest) NecessityAssessment {
	fallback := NecessityAssessment{IsNecessary: true, Reason: necessityParseFallback, Warnings: []string{}}

	raw, err := e.llm.Generate(ctx, necessityPrompt(req), GenerateOptions{
		Temperature:     0.1,
		MaxOutputTokens: 1000,
	})
	if err != nil {
		logger.Log.WithError(err).Warn("Medical necessity review failed")
		return fallback
	}

	var assessment NecessityAssessment
	if err := json.Unmarshal([]byte(stripFences(raw)), &assessment); err != nil {
		logger.Log.WithError(err).Warn("Medical necessity response unreadable")
		return fallback
	}
	return assessment
}

// MatchesCoveredTest reports whether an item description names one of the
// covered tests: by substring, then by all words of a test name, then by
// asking the model.
func (e *Extractor) MatchesCoveredTest(ctx context.Context, description string, coveredTests []string) bool {
	desc := strings.ToLower(description)

	for _, test := range coveredTests {
		if test != "" && strings.Contains(desc, strings.ToLower(test)) {
			return true
		}
	}

	for _, test := range coveredTests {
		tokens := strings.Fields(strings.ReplaceAll(strings.ToLower(test), "-", " "))
		if len(tokens) == 0 {
			continue
		}
		all := true
		for _, tok := range tokens {
			if !strings.Contains(desc, tok) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}

	if len(coveredTests) == 0 {
		return false
	}
	raw, err := e.llm.Generate(ctx, coveredTestPrompt(description, coveredTests), GenerateOptions{})
	if err != nil {
		logger.Log.WithError(err).Warn("Covered test lookup failed")
		return false
	}
	return strings.Contains(strings.ToLower(raw), "true")
}
