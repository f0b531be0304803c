package claims

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claimwise/platform/pkg/adjudication"
	"github.com/claimwise/platform/pkg/common/logger"
	"github.com/claimwise/platform/pkg/common/models"
	"github.com/claimwise/platform/pkg/document"
	"github.com/claimwise/platform/pkg/extraction"
	"github.com/claimwise/platform/pkg/observability/metrics"
	"github.com/claimwise/platform/pkg/policy"
	"github.com/claimwise/platform/pkg/storage"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// Store is the persistence the service needs. *Repository implements it.
type Store interface {
	ClaimExists(ctx context.Context, claimID string) (bool, error)
	CreateClaim(ctx context.Context, c *Claim) error
	CreateItems(ctx context.Context, items []ClaimItem) error
	CreateIssues(ctx context.Context, issues []AdjudicationIssue) error
	CreateFraudIndicators(ctx context.Context, indicators []FraudIndicator) error
	UpdateDecision(ctx context.Context, claimID string, d *adjudication.Decision) error
	LogAudit(ctx context.Context, entry *AuditEntry) error
	CreateDocumentUpload(ctx context.Context, upload *DocumentUpload) error
	GetMemberByEmployeeID(ctx context.Context, employeeID string) (*Member, error)
	GetClaim(ctx context.Context, claimID string) (*Claim, error)
	ListIssues(ctx context.Context, claimID string) ([]AdjudicationIssue, error)
	ListFraudIndicators(ctx context.Context, claimID string) ([]FraudIndicator, error)
	ListAudit(ctx context.Context, claimID string) ([]AuditEntry, error)
	ListDocuments(ctx context.Context, claimID string) ([]DocumentUpload, error)
	RecentClaims(ctx context.Context, days, limit int) ([]Claim, error)
	ClaimsByPolicy(ctx context.Context, policyID string, limit int) ([]Claim, error)
	Statistics(ctx context.Context, f StatisticsFilter) (*Statistics, error)
}

type PolicyStore interface {
	Get(ctx context.Context, policyID string) (*policy.Record, error)
	GetByNumber(ctx context.Context, number string) (*policy.Record, error)
}

type DocumentReader interface {
	Read(ctx context.Context, path string) (string, error)
}

type DocumentExtractor interface {
	Extract(ctx context.Context, text, claimDate, docType string) (*extraction.Document, error)
}

type Archive interface {
	Store(ctx context.Context, claimID, docType, localPath string) (string, error)
}

type ReviewQueue interface {
	Enqueue(ctx context.Context, ticket storage.ReviewTicket) error
}

type Publisher interface {
	PublishEvent(ctx context.Context, eventType, key string, data map[string]interface{}) error
}

// Redactor masks personal identifiers in data leaving the service.
type Redactor interface {
	Sanitize(data map[string]interface{}) map[string]interface{}
}

// Options wires the service. Archive, Review, Publisher, DeadLetter,
// Redactor and Utilization are optional.
type Options struct {
	Store       Store
	Policies    PolicyStore
	Reader      DocumentReader
	Extractor   DocumentExtractor
	Engine      *adjudication.Engine
	Validator   *Validator
	Archive     Archive
	Review      ReviewQueue
	Publisher   Publisher
	DeadLetter  Publisher
	Redactor    Redactor
	Utilization adjudication.UtilizationSource
	// Invalidator defaults to Utilization when it can invalidate.
	Invalidator UtilizationInvalidator
	// Concurrency bounds how many documents are read at once.
	Concurrency int
}

type Service struct {
	store       Store
	policies    PolicyStore
	reader      DocumentReader
	extractor   DocumentExtractor
	engine      *adjudication.Engine
	validator   *Validator
	archive     Archive
	review      ReviewQueue
	publisher   Publisher
	dlq         Publisher
	redactor    Redactor
	utilization adjudication.UtilizationSource
	invalidator UtilizationInvalidator
	concurrency int
	now         func() time.Time
}

func NewService(opts Options) *Service {
	s := &Service{
		store:       opts.Store,
		policies:    opts.Policies,
		reader:      opts.Reader,
		extractor:   opts.Extractor,
		engine:      opts.Engine,
		validator:   opts.Validator,
		archive:     opts.Archive,
		review:      opts.Review,
		publisher:   opts.Publisher,
		dlq:         opts.DeadLetter,
		redactor:    opts.Redactor,
		utilization: opts.Utilization,
		invalidator: opts.Invalidator,
		concurrency: opts.Concurrency,
		now:         time.Now,
	}
	if s.validator == nil {
		s.validator = NewValidator(nil)
	}
	if s.invalidator == nil {
		if inv, ok := opts.Utilization.(UtilizationInvalidator); ok {
			s.invalidator = inv
		}
	}
	if s.archive == nil {
		s.archive = storage.NoopArchive{}
	}
	if s.review == nil {
		s.review = storage.NoopReviewQueue{}
	}
	if s.concurrency <= 0 {
		s.concurrency = len(extraction.DocumentTypes)
	}
	return s
}

// Policy returns the policy applied when a claim names no other.
func (s *Service) Policy() *policy.Policy {
	return s.engine.Policy()
}

// ProcessClaim reads every document, merges them into one claim, stores it
// and adjudicates it. Errors after the claim row exists are audited on it.
func (s *Service) ProcessClaim(ctx context.Context, req ProcessRequest) (*adjudication.Decision, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	metrics.ClaimReceived()

	claimDate := req.ClaimDate
	if claimDate == "" {
		claimDate = s.now().Format(policy.DateLayout)
	}

	merged, err := s.readDocuments(ctx, req.Documents, claimDate)
	if err != nil {
		metrics.ClaimFailed()
		return nil, err
	}
	merged.PolicyID = req.PolicyID
	merged.MemberID = req.MemberID

	engine := s.resolvePolicy(ctx, merged)
	s.resolveMember(ctx, merged)

	claimID, err := s.newClaimID(ctx)
	if err != nil {
		metrics.ClaimFailed()
		return nil, err
	}
	merged.ClaimID = claimID

	record, err := newClaimRecord(merged, claimDate)
	if err != nil {
		metrics.ClaimFailed()
		return nil, err
	}
	if err := s.store.CreateClaim(ctx, record); err != nil {
		metrics.ClaimFailed()
		return nil, fmt.Errorf("persisting claim: %w", err)
	}

	log := logger.Log.WithFields(map[string]interface{}{
		"claim_id":  claimID,
		"policy_id": merged.PolicyID,
		"documents": merged.DocumentTypes,
	})
	log.Info("Claim created")

	s.audit(ctx, claimID, AuditCreated, map[string]interface{}{
		"file_paths":     fileNames(req.Documents),
		"claim_date":     claimDate,
		"document_types": merged.DocumentTypes,
	})

	decision, err := s.adjudicate(ctx, engine, merged, req.Documents)
	if err != nil {
		metrics.ClaimFailed()
		log.WithError(err).Error("Claim processing failed")
		s.audit(ctx, claimID, AuditError, map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"decision":        decision.Decision,
		"approved_amount": decision.ApprovedAmount,
	}).Info("Claim adjudicated")
	return decision, nil
}

// readDocuments reads and extracts the documents concurrently and merges
// them in canonical document order.
func (s *Service) readDocuments(ctx context.Context, docs map[string]string, claimDate string) (*adjudication.Claim, error) {
	order := lo.Filter(extraction.DocumentTypes, func(t string, _ int) bool {
		_, ok := docs[t]
		return ok
	})
	results := make([]*extraction.Document, len(order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, docType := range order {
		path := docs[docType]
		g.Go(func() error {
			doc, err := s.ExtractOnly(gctx, path, docType, claimDate)
			if err != nil {
				return err
			}
			results[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &adjudication.Claim{}
	for i, docType := range order {
		adjudication.Merge(merged, results[i], docType)
	}
	merged.ClaimDate = claimDate
	return merged, nil
}

// ExtractOnly reads one document and extracts its structured data without
// adjudicating anything.
func (s *Service) ExtractOnly(ctx context.Context, path, docType, claimDate string) (*extraction.Document, error) {
	text, err := s.reader.Read(ctx, path)
	metrics.DocumentRead(err == nil)
	if err != nil {
		if errors.Is(err, document.ErrUnsupportedType) || errors.Is(err, document.ErrInsufficientText) {
			return nil, ValidationError{reason: fmt.Errorf("%s: %w", docType, err)}
		}
		return nil, fmt.Errorf("reading %s: %w", docType, err)
	}

	doc, err := s.extractor.Extract(ctx, text, claimDate, docType)
	if err != nil {
		if errors.Is(err, extraction.ErrEmptyDocument) {
			return nil, ValidationError{reason: fmt.Errorf("%s: %w", docType, err)}
		}
		return nil, fmt.Errorf("extracting %s: %w", docType, err)
	}
	return doc, nil
}

// resolvePolicy picks the policy to apply: the one named by the request, else
// the one whose number appears on the documents, else the default policy.
func (s *Service) resolvePolicy(ctx context.Context, c *adjudication.Claim) *adjudication.Engine {
	engine := s.engine
	if s.policies == nil {
		if c.PolicyID == "" {
			c.PolicyID = engine.Policy().PolicyID
		}
		return engine
	}

	var (
		rec *policy.Record
		err error
	)
	switch {
	case c.PolicyID != "":
		rec, err = s.policies.Get(ctx, c.PolicyID)
	case c.PolicyNumber != "":
		rec, err = s.policies.GetByNumber(ctx, c.PolicyNumber)
	}

	if err != nil && !errors.Is(err, policy.ErrNotFound) {
		logger.Log.WithError(err).WithField("policy_number", c.PolicyNumber).Warn("Policy lookup failed, using default policy")
	}
	if rec != nil && err == nil {
		p, perr := rec.Policy()
		if perr == nil {
			c.PolicyID = rec.PolicyID
			return engine.ForPolicy(p)
		}
		logger.Log.WithError(perr).WithField("policy_id", rec.PolicyID).Warn("Stored policy is unreadable, using default policy")
	}
	if c.PolicyID == "" {
		c.PolicyID = engine.Policy().PolicyID
	}
	return engine
}

func (s *Service) resolveMember(ctx context.Context, c *adjudication.Claim) {
	if c.MemberID != "" || c.EmployeeID == "" {
		return
	}
	m, err := s.store.GetMemberByEmployeeID(ctx, c.EmployeeID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Log.WithError(err).WithField("employee_id", c.EmployeeID).Warn("Member lookup failed")
		}
		return
	}
	c.MemberID = m.MemberID
}

func formatClaimID(now time.Time, hexChars int) string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("CLM_%s_%s", now.Format("20060102150405"), hex[:hexChars])
}

// newClaimID returns CLM_<timestamp>_<8 hex>, widening to 12 hex characters
// if that id is already taken.
func (s *Service) newClaimID(ctx context.Context) (string, error) {
	id := formatClaimID(s.now(), 8)
	exists, err := s.store.ClaimExists(ctx, id)
	if err != nil {
		return "", fmt.Errorf("checking claim id: %w", err)
	}
	if exists {
		id = formatClaimID(s.now(), 12)
	}
	return id, nil
}

func newClaimRecord(c *adjudication.Claim, claimDate string) (*Claim, error) {
	filed, err := time.Parse(policy.DateLayout, claimDate)
	if err != nil {
		return nil, ValidationError{reason: fmt.Errorf("%w: %q", errInvalidDate, claimDate)}
	}
	extracted, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding extracted data: %w", err)
	}

	rec := &Claim{
		ClaimID:                c.ClaimID,
		PolicyID:               c.PolicyID,
		MemberID:               c.MemberID,
		PatientName:            c.PatientName,
		PatientAge:             c.PatientAge,
		PatientGender:          c.PatientGender,
		PatientDOB:             c.PatientDOB,
		EmployeeID:             c.EmployeeID,
		ClaimDate:              filed,
		DocumentTypes:          datatypes.NewJSONSlice(c.DocumentTypes),
		TotalClaimedAmount:     c.TotalAmount,
		Diagnosis:              c.Diagnosis,
		DiagnosisCode:          c.DiagnosisCode,
		Symptoms:               c.Symptoms,
		TreatmentSummary:       c.TreatmentSummary,
		EmergencyTreatment:     c.EmergencyTreatment,
		FollowUpRequired:       c.FollowUpRequired,
		HospitalName:           c.HospitalName,
		HospitalRegistration:   c.HospitalRegistration,
		HospitalAddress:        c.HospitalAddress,
		DoctorName:             c.DoctorName,
		DoctorRegistration:     c.DoctorRegistration,
		DoctorSpecialization:   c.DoctorSpecialization,
		PreAuthorizationNumber: c.PreAuthorizationNumber,
		ExtractedData:          datatypes.JSON(extracted),
		Decision:               adjudication.DecisionPending,
	}
	if t, err := time.Parse(policy.DateLayout, c.EffectiveTreatmentDate()); err == nil {
		rec.TreatmentDate = &t
	}
	return rec, nil
}

// adjudicate runs the engine on a stored claim and records everything it
// produced.
func (s *Service) adjudicate(ctx context.Context, engine *adjudication.Engine, c *adjudication.Claim, docs map[string]string) (*adjudication.Decision, error) {
	if err := s.recordUploads(ctx, c.ClaimID, docs); err != nil {
		return nil, err
	}

	outcome, err := engine.Adjudicate(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("adjudicating: %w", err)
	}

	if err := s.store.CreateIssues(ctx, issueRows(c.ClaimID, outcome.Issues())); err != nil {
		return nil, fmt.Errorf("persisting issues: %w", err)
	}
	decision := outcome.Decision
	if err := s.store.CreateItems(ctx, itemRows(c.ClaimID, decision.ItemBreakdown)); err != nil {
		return nil, fmt.Errorf("persisting items: %w", err)
	}
	if err := s.store.CreateFraudIndicators(ctx, fraudRows(c.ClaimID, outcome.Fraud.Indicators)); err != nil {
		return nil, fmt.Errorf("persisting fraud indicators: %w", err)
	}

	if err := s.store.UpdateDecision(ctx, c.ClaimID, decision); err != nil {
		return nil, fmt.Errorf("updating decision: %w", err)
	}
	s.invalidateUtilization(ctx, c, decision)
	s.audit(ctx, c.ClaimID, decision.Decision, map[string]interface{}{
		"approved_amount":  decision.ApprovedAmount,
		"confidence_score": decision.ConfidenceScore,
	})
	metrics.ClaimDecided(decision.Decision, decision.ApprovedAmount)

	s.publish(ctx, c, decision)
	if decision.Decision == adjudication.DecisionManualReview {
		s.enqueueReview(ctx, c, decision)
	}
	return decision, nil
}

// invalidateUtilization drops the cached year-to-date usage once an approval
// has been persisted, so the member's next claim sees it.
func (s *Service) invalidateUtilization(ctx context.Context, c *adjudication.Claim, d *adjudication.Decision) {
	if s.invalidator == nil {
		return
	}
	if d.Decision != adjudication.DecisionApproved && d.Decision != adjudication.DecisionPartial {
		return
	}
	if err := s.invalidator.Invalidate(ctx, c.PolicyID); err != nil {
		logger.WithClaim(c.ClaimID).WithError(err).Warn("Utilization cache invalidation failed")
	}
}

func (s *Service) recordUploads(ctx context.Context, claimID string, docs map[string]string) error {
	for _, docType := range extraction.DocumentTypes {
		path, ok := docs[docType]
		if !ok {
			continue
		}
		upload := &DocumentUpload{
			ID:           uuid.NewString(),
			ClaimID:      claimID,
			DocumentType: docType,
			FileName:     filepath.Base(path),
			FileType:     document.Extension(path),
			FilePath:     path,
		}
		if info, err := os.Stat(path); err == nil {
			upload.FileSize = info.Size()
		}

		url, err := s.archive.Store(ctx, claimID, docType, path)
		if err != nil {
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"claim_id":      claimID,
				"document_type": docType,
			}).Warn("Document archive failed")
		}
		upload.StorageURL = url

		if err := s.store.CreateDocumentUpload(ctx, upload); err != nil {
			return fmt.Errorf("recording %s upload: %w", docType, err)
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, c *adjudication.Claim, d *adjudication.Decision) {
	if s.publisher == nil {
		return
	}
	event := models.ClaimDecisionEvent{
		ClaimID:        c.ClaimID,
		PolicyID:       c.PolicyID,
		MemberID:       c.MemberID,
		Decision:       d.Decision,
		TotalClaimed:   d.TotalClaimed,
		ApprovedAmount: d.ApprovedAmount,
		Confidence:     d.ConfidenceScore,
		FraudScore:     d.FraudScore,
		DecidedAt:      s.now().UTC(),
	}
	payload := s.sanitize(event.ToMap())

	err := s.publisher.PublishEvent(ctx, models.EventClaimAdjudicated, c.ClaimID, payload)
	if err == nil {
		metrics.EventPublished(false)
		return
	}
	logger.WithClaim(c.ClaimID).WithError(err).Error("Failed to publish claim decision")
	if s.dlq == nil {
		return
	}
	payload["error"] = err.Error()
	if dlqErr := s.dlq.PublishEvent(ctx, models.EventClaimDLQ, c.ClaimID, payload); dlqErr != nil {
		logger.WithClaim(c.ClaimID).WithError(dlqErr).Error("Failed to push claim decision to DLQ")
		return
	}
	metrics.EventPublished(true)
}

func (s *Service) enqueueReview(ctx context.Context, c *adjudication.Claim, d *adjudication.Decision) {
	ticket := storage.ReviewTicket{
		ClaimID:        c.ClaimID,
		PolicyID:       c.PolicyID,
		PatientName:    c.PatientName,
		TotalClaimed:   d.TotalClaimed,
		ApprovedAmount: d.ApprovedAmount,
		Confidence:     d.ConfidenceScore,
		FraudScore:     d.FraudScore,
		Reason:         d.Reason,
		Indicators: lo.Map(d.FraudIndicators, func(i adjudication.FraudIndicator, _ int) string {
			return i.Type
		}),
	}
	if err := s.review.Enqueue(ctx, ticket); err != nil {
		logger.WithClaim(c.ClaimID).WithError(err).Error("Failed to enqueue claim for manual review")
	}
}

func (s *Service) audit(ctx context.Context, claimID, action string, details map[string]interface{}) {
	entry := &AuditEntry{
		ClaimID: claimID,
		Action:  action,
		Details: datatypes.JSONMap(s.sanitize(details)),
	}
	if err := s.store.LogAudit(ctx, entry); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"claim_id": claimID,
			"action":   action,
		}).Warn("Could not write audit entry")
	}
}

func (s *Service) sanitize(data map[string]interface{}) map[string]interface{} {
	if s.redactor == nil {
		return data
	}
	return s.redactor.Sanitize(data)
}

func fileNames(docs map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(docs))
	for docType, path := range docs {
		out[docType] = filepath.Base(path)
	}
	return out
}

func issueRows(claimID string, issues []adjudication.Issue) []AdjudicationIssue {
	return lo.Map(issues, func(i adjudication.Issue, _ int) AdjudicationIssue {
		return AdjudicationIssue{
			ClaimID:         claimID,
			IssueCode:       i.Code,
			Severity:        string(i.Severity),
			Message:         i.Message,
			Step:            i.Step,
			ItemDescription: i.Item,
		}
	})
}

func itemRows(claimID string, items []adjudication.ItemAnalysis) []ClaimItem {
	return lo.Map(items, func(i adjudication.ItemAnalysis, _ int) ClaimItem {
		qty := i.Quantity
		if qty == 0 {
			qty = 1
		}
		return ClaimItem{
			ClaimID:          claimID,
			Description:      i.Description,
			Category:         i.Category,
			SourceDocument:   i.SourceDocument,
			Quantity:         qty,
			UnitPrice:        i.UnitPrice,
			ClaimedAmount:    i.ClaimedAmount,
			ApprovedAmount:   i.ApprovedAmount,
			RejectedAmount:   i.RejectedAmount,
			CopayAmount:      i.CopayAmount,
			FinalApproved:    i.FinalApprovedAmount,
			Status:           i.Status,
			CoverageReason:   i.Reason,
			SubLimitExceeded: i.SubLimitExceeded,
		}
	})
}

func fraudRows(claimID string, indicators []adjudication.FraudIndicator) []FraudIndicator {
	return lo.Map(indicators, func(i adjudication.FraudIndicator, _ int) FraudIndicator {
		return FraudIndicator{
			ClaimID:       claimID,
			IndicatorType: i.Type,
			Severity:      i.Severity,
			Message:       i.Message,
			Score:         i.Score,
		}
	})
}
