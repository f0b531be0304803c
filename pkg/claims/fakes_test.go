package claims

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/claimwise/platform/pkg/adjudication"
	"github.com/claimwise/platform/pkg/extraction"
	"github.com/claimwise/platform/pkg/policy"
	"github.com/claimwise/platform/pkg/storage"
	"github.com/claimwise/platform/pkg/terminology"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memoryStore struct {
	mu        sync.Mutex
	claims    map[string]*Claim
	items     []ClaimItem
	issues    []AdjudicationIssue
	fraud     []FraudIndicator
	audit     []AuditEntry
	uploads   []DocumentUpload
	members   map[string]*Member
	taken     map[string]bool
	issuesErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		claims:  map[string]*Claim{},
		members: map[string]*Member{},
		taken:   map[string]bool{},
	}
}

func (s *memoryStore) ClaimExists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.claims[id]
	return ok || s.taken[id], nil
}

func (s *memoryStore) CreateClaim(_ context.Context, c *Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.claims[c.ClaimID] = &cp
	return nil
}

func (s *memoryStore) CreateItems(_ context.Context, items []ClaimItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
	return nil
}

func (s *memoryStore) CreateIssues(_ context.Context, issues []AdjudicationIssue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.issuesErr != nil {
		return s.issuesErr
	}
	s.issues = append(s.issues, issues...)
	return nil
}

func (s *memoryStore) CreateFraudIndicators(_ context.Context, indicators []FraudIndicator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fraud = append(s.fraud, indicators...)
	return nil
}

func (s *memoryStore) UpdateDecision(_ context.Context, id string, d *adjudication.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[id]
	if !ok {
		return ErrNotFound
	}
	c.Decision = d.Decision
	c.DecisionReason = d.Reason
	c.ApprovedAmount = d.ApprovedAmount
	c.ConfidenceScore = d.ConfidenceScore
	c.FraudScore = d.FraudScore
	return nil
}

func (s *memoryStore) LogAudit(_ context.Context, e *AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, *e)
	return nil
}

func (s *memoryStore) CreateDocumentUpload(_ context.Context, u *DocumentUpload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, *u)
	return nil
}

func (s *memoryStore) GetMemberByEmployeeID(_ context.Context, employeeID string) (*Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[employeeID]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *memoryStore) GetClaim(_ context.Context, id string) (*Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	for _, it := range s.items {
		if it.ClaimID == id {
			cp.Items = append(cp.Items, it)
		}
	}
	return &cp, nil
}

func (s *memoryStore) ListIssues(_ context.Context, id string) ([]AdjudicationIssue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AdjudicationIssue
	for _, i := range s.issues {
		if i.ClaimID == id {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *memoryStore) ListFraudIndicators(_ context.Context, id string) ([]FraudIndicator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []FraudIndicator
	for _, f := range s.fraud {
		if f.ClaimID == id {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *memoryStore) ListAudit(_ context.Context, id string) ([]AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []AuditEntry
	for _, a := range s.audit {
		if a.ClaimID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memoryStore) ListDocuments(_ context.Context, id string) ([]DocumentUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []DocumentUpload
	for _, u := range s.uploads {
		if u.ClaimID == id {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *memoryStore) ClaimsByPolicy(_ context.Context, policyID string, limit int) ([]Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Claim
	for _, c := range s.claims {
		if c.PolicyID == policyID && len(out) < limit {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memoryStore) RecentClaims(_ context.Context, days, limit int) ([]Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Claim, 0, len(s.claims))
	for _, c := range s.claims {
		out = append(out, *c)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) Statistics(_ context.Context, f StatisticsFilter) (*Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &Statistics{}
	for _, c := range s.claims {
		if f.PolicyID != "" && c.PolicyID != f.PolicyID {
			continue
		}
		stats.TotalClaims++
		stats.TotalApproved += c.ApprovedAmount
		if c.Decision == adjudication.DecisionApproved {
			stats.ApprovedCount++
		}
	}
	return stats, nil
}

func (s *memoryStore) auditActions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.audit))
	for _, a := range s.audit {
		out = append(out, a.Action)
	}
	return out
}

// textReader returns the file's base name as its text so the extractor
// fake can key off it.
type textReader struct{ err error }

func (r textReader) Read(_ context.Context, path string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return filepath.Base(path), nil
}

type docExtractor struct {
	mu    sync.Mutex
	docs  map[string]*extraction.Document
	dates []string
}

func (e *docExtractor) Extract(_ context.Context, _ string, claimDate, docType string) (*extraction.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dates = append(e.dates, claimDate)
	doc, ok := e.docs[docType]
	if !ok {
		return nil, extraction.ErrEmptyDocument
	}
	cp := *doc
	return &cp, nil
}

type recordedEvent struct {
	eventType string
	key       string
	data      map[string]interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	events []recordedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, eventType, key string, data map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, recordedEvent{eventType: eventType, key: key, data: data})
	return nil
}

type recordingArchive struct {
	mu     sync.Mutex
	stored []string
}

func (a *recordingArchive) Store(_ context.Context, claimID, docType, localPath string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := storage.ObjectKey(claimID, docType, localPath)
	a.stored = append(a.stored, key)
	return "s3://test-bucket/" + key, nil
}

type recordingQueue struct {
	mu      sync.Mutex
	tickets []storage.ReviewTicket
}

func (q *recordingQueue) Enqueue(_ context.Context, t storage.ReviewTicket) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tickets = append(q.tickets, t)
	return nil
}

type policyStore struct {
	records map[string]*policy.Record
}

func (p policyStore) Get(_ context.Context, id string) (*policy.Record, error) {
	if rec, ok := p.records[id]; ok {
		return rec, nil
	}
	return nil, policy.ErrNotFound
}

func (p policyStore) GetByNumber(_ context.Context, number string) (*policy.Record, error) {
	for _, rec := range p.records {
		pol, err := rec.Policy()
		if err == nil && pol.PolicyNumber == number {
			return rec, nil
		}
	}
	return nil, policy.ErrNotFound
}

var errBoom = errors.New("boom")

func loadPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.Load(filepath.Join("..", "..", "policy.json"))
	require.NoError(t, err)
	return p
}

func amount(v float64) *extraction.Amount {
	a := extraction.Amount(v)
	return &a
}

// clinicDocuments is a prescription and medical bill that adjudicate to a
// full approval of ₹1,200.
func clinicDocuments() map[string]*extraction.Document {
	return map[string]*extraction.Document{
		extraction.DocPrescription: {
			PatientName:        "Rajesh Kumar",
			EmployeeID:         "EMP001",
			PolicyNumber:       "PLUM-OPD-2024-001",
			TreatmentDate:      "2024-11-10",
			DoctorName:         "Dr. Anita Sharma",
			DoctorRegistration: "KA/12345/2015",
			Diagnosis:          "Viral fever",
		},
		extraction.DocMedicalBill: {
			PatientName:   "Rajesh Kumar",
			TreatmentDate: "2024-11-10",
			HospitalName:  "City Care Clinic",
			Items: []extraction.Item{
				{Description: "Paracetamol generic", Category: "pharmacy", Amount: 800},
				{Description: "Eye examination", Category: "vision", Amount: 400},
			},
			TotalAmount: amount(1200),
		},
	}
}

type testEnv struct {
	service   *Service
	store     *memoryStore
	extractor *docExtractor
	publisher *recordingPublisher
	dlq       *recordingPublisher
	archive   *recordingArchive
	queue     *recordingQueue
}

func newTestEnv(t *testing.T, docs map[string]*extraction.Document) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     newMemoryStore(),
		extractor: &docExtractor{docs: docs},
		publisher: &recordingPublisher{},
		dlq:       &recordingPublisher{},
		archive:   &recordingArchive{},
		queue:     &recordingQueue{},
	}
	engine := adjudication.NewEngine(loadPolicy(t), terminology.DefaultCatalog(), adjudication.Dependencies{})
	env.service = NewService(Options{
		Store:      env.store,
		Reader:     textReader{},
		Extractor:  env.extractor,
		Engine:     engine,
		Validator:  NewValidator(nil),
		Archive:    env.archive,
		Review:     env.queue,
		Publisher:  env.publisher,
		DeadLetter: env.dlq,
	})
	return env
}

func documentPaths(t *testing.T, docTypes ...string) map[string]string {
	t.Helper()
	dir := t.TempDir()
	out := make(map[string]string, len(docTypes))
	for _, docType := range docTypes {
		out[docType] = filepath.Join(dir, docType+".txt")
	}
	return out
}
