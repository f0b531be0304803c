package claims

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/claimwise/platform/pkg/adjudication"
	"github.com/claimwise/platform/pkg/common/models"
	"github.com/claimwise/platform/pkg/document"
	"github.com/claimwise/platform/pkg/extraction"
	"github.com/claimwise/platform/pkg/policy"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var claimIDPattern = regexp.MustCompile(`^CLM_\d{14}_[0-9A-F]{8}$`)

func TestProcessClaimApprovesAndRecordsEverything(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	paths := documentPaths(t, extraction.DocMedicalBill, extraction.DocPrescription)

	d, err := env.service.ProcessClaim(context.Background(), ProcessRequest{Documents: paths, ClaimDate: "2024-11-15"})
	require.NoError(t, err)

	assert.Equal(t, adjudication.DecisionApproved, d.Decision)
	assert.InDelta(t, 1200.0, d.ApprovedAmount, 0.001)
	assert.Regexp(t, claimIDPattern, d.ClaimID)
	assert.Equal(t, "PLUM_OPD_2024", d.PolicyID)

	stored, ok := env.store.claims[d.ClaimID]
	require.True(t, ok)
	assert.Equal(t, adjudication.DecisionApproved, stored.Decision)
	assert.Equal(t, datatypes.JSONSlice[string]{extraction.DocPrescription, extraction.DocMedicalBill}, stored.DocumentTypes)
	assert.Equal(t, "2024-11-10", stored.TreatmentDate.Format(policy.DateLayout))
	assert.Equal(t, "2024-11-15", stored.ClaimDate.Format(policy.DateLayout))

	assert.Equal(t, []string{AuditCreated, adjudication.DecisionApproved}, env.store.auditActions())
	require.Len(t, env.store.items, 2)
	assert.Equal(t, "Paracetamol generic", env.store.items[0].Description)
	assert.Equal(t, float64(1), env.store.items[0].Quantity)
	assert.Len(t, env.store.uploads, 2)
	for _, u := range env.store.uploads {
		assert.Equal(t, d.ClaimID, u.ClaimID)
		assert.Contains(t, u.StorageURL, "s3://test-bucket/claims/"+d.ClaimID+"/")
	}

	require.Len(t, env.publisher.events, 1)
	ev := env.publisher.events[0]
	assert.Equal(t, models.EventClaimAdjudicated, ev.eventType)
	assert.Equal(t, d.ClaimID, ev.key)
	decoded := models.ClaimDecisionFromMap(ev.data)
	assert.Equal(t, adjudication.DecisionApproved, decoded.Decision)
	assert.InDelta(t, 1200.0, decoded.ApprovedAmount, 0.001)

	assert.Empty(t, env.dlq.events)
	assert.Empty(t, env.queue.tickets)
	if diff := cmp.Diff([]string{"2024-11-15", "2024-11-15"}, env.extractor.dates); diff != "" {
		t.Errorf("claim dates passed to extractor (-want +got):\n%s", diff)
	}
}

func TestProcessClaimDefaultsClaimDateToToday(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	env.service.now = func() time.Time { return time.Date(2024, 11, 20, 8, 0, 0, 0, time.UTC) }

	d, err := env.service.ProcessClaim(context.Background(), ProcessRequest{
		Documents: documentPaths(t, extraction.DocPrescription, extraction.DocMedicalBill),
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-11-20", env.store.claims[d.ClaimID].ClaimDate.Format(policy.DateLayout))
	assert.Regexp(t, `^CLM_20241120080000_`, d.ClaimID)
}

func TestProcessClaimWidensIDOnConflict(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	now := time.Date(2024, 11, 15, 9, 0, 0, 0, time.UTC)
	env.service.now = func() time.Time { return now }
	taken := &takenStore{memoryStore: env.store}
	env.service.store = taken

	d, err := env.service.ProcessClaim(context.Background(), ProcessRequest{
		Documents: documentPaths(t, extraction.DocPrescription, extraction.DocMedicalBill),
		ClaimDate: "2024-11-15",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^CLM_20241115090000_[0-9A-F]{12}$`, d.ClaimID)
}

// takenStore reports every eight-character claim id as already used.
type takenStore struct {
	*memoryStore
}

func (s *takenStore) ClaimExists(_ context.Context, id string) (bool, error) {
	return claimIDPattern.MatchString(id), nil
}

func TestProcessClaimSendsManualReviewToQueue(t *testing.T) {
	docs := clinicDocuments()
	docs[extraction.DocMedicalBill].Items = []extraction.Item{
		{Description: "Paracetamol generic", Category: "pharmacy", Amount: 30000},
	}
	docs[extraction.DocMedicalBill].TotalAmount = amount(30000)
	env := newTestEnv(t, docs)

	d, err := env.service.ProcessClaim(context.Background(), ProcessRequest{
		Documents: documentPaths(t, extraction.DocPrescription, extraction.DocMedicalBill),
		ClaimDate: "2024-11-15",
	})
	require.NoError(t, err)
	assert.Equal(t, adjudication.DecisionManualReview, d.Decision)

	require.Len(t, env.queue.tickets, 1)
	ticket := env.queue.tickets[0]
	assert.Equal(t, d.ClaimID, ticket.ClaimID)
	assert.Equal(t, "Rajesh Kumar", ticket.PatientName)
	assert.Contains(t, ticket.Indicators, adjudication.IndicatorHighValue)
	assert.NotEmpty(t, env.store.fraud)
}

func TestProcessClaimDeadLettersFailedPublish(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	env.publisher.err = errBoom

	d, err := env.service.ProcessClaim(context.Background(), ProcessRequest{
		Documents: documentPaths(t, extraction.DocPrescription, extraction.DocMedicalBill),
		ClaimDate: "2024-11-15",
	})
	require.NoError(t, err)

	require.Len(t, env.dlq.events, 1)
	ev := env.dlq.events[0]
	assert.Equal(t, models.EventClaimDLQ, ev.eventType)
	assert.Equal(t, d.ClaimID, ev.key)
	assert.Equal(t, "boom", ev.data["error"])
}

func TestProcessClaimRejectsUnreadableDocument(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	env.service.reader = textReader{err: document.ErrInsufficientText}

	_, err := env.service.ProcessClaim(context.Background(), ProcessRequest{
		Documents: documentPaths(t, extraction.DocPrescription),
		ClaimDate: "2024-11-15",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, err, document.ErrInsufficientText)
	assert.Empty(t, env.store.claims)
}

func TestProcessClaimRejectsEmptyExtraction(t *testing.T) {
	env := newTestEnv(t, map[string]*extraction.Document{})

	_, err := env.service.ProcessClaim(context.Background(), ProcessRequest{
		Documents: documentPaths(t, extraction.DocLabResults),
		ClaimDate: "2024-11-15",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestProcessClaimAuditsFailureAfterCreation(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	env.store.issuesErr = errBoom

	_, err := env.service.ProcessClaim(context.Background(), ProcessRequest{
		Documents: documentPaths(t, extraction.DocPrescription, extraction.DocMedicalBill),
		ClaimDate: "2024-11-15",
	})
	require.ErrorIs(t, err, errBoom)
	assert.False(t, IsValidationError(err))
	assert.Equal(t, []string{AuditCreated, AuditError}, env.store.auditActions())
	require.Len(t, env.store.claims, 1)
	for _, c := range env.store.claims {
		assert.Equal(t, adjudication.DecisionPending, c.Decision)
	}
	assert.Empty(t, env.publisher.events)
}

func TestProcessClaimValidatesRequest(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	cases := map[string]ProcessRequest{
		"no documents":   {},
		"unknown type":   {Documents: map[string]string{"xray": "scan.png"}},
		"bad extension":  {Documents: map[string]string{extraction.DocMedicalBill: "bill.exe"}},
		"bad claim date": {Documents: map[string]string{extraction.DocMedicalBill: "bill.pdf"}, ClaimDate: "15/11/2024"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.service.ProcessClaim(context.Background(), req)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
	assert.Empty(t, env.store.claims)
}

func TestProcessClaimResolvesPolicyAndMember(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())

	custom := loadPolicy(t)
	custom.PolicyID = "CORP_OPD_2024"
	custom.CoverageDetails.Vision.Covered = false
	raw, err := json.Marshal(custom)
	require.NoError(t, err)
	env.service.policies = policyStore{records: map[string]*policy.Record{
		custom.PolicyID: {PolicyID: custom.PolicyID, PolicyConfig: datatypes.JSON(raw)},
	}}
	env.store.members["EMP001"] = &Member{MemberID: "MEM-42", EmployeeID: "EMP001", PolicyID: custom.PolicyID}

	d, err := env.service.ProcessClaim(context.Background(), ProcessRequest{
		Documents: documentPaths(t, extraction.DocPrescription, extraction.DocMedicalBill),
		ClaimDate: "2024-11-15",
	})
	require.NoError(t, err)

	assert.Equal(t, "CORP_OPD_2024", d.PolicyID)
	assert.Equal(t, adjudication.DecisionPartial, d.Decision)
	assert.InDelta(t, 800.0, d.ApprovedAmount, 0.001)
	stored := env.store.claims[d.ClaimID]
	assert.Equal(t, "MEM-42", stored.MemberID)
	assert.Equal(t, "CORP_OPD_2024", stored.PolicyID)
}

func TestGetClaimIncludesHistory(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	d, err := env.service.ProcessClaim(context.Background(), ProcessRequest{
		Documents: documentPaths(t, extraction.DocPrescription, extraction.DocMedicalBill),
		ClaimDate: "2024-11-15",
	})
	require.NoError(t, err)

	detail, err := env.service.GetClaim(context.Background(), d.ClaimID)
	require.NoError(t, err)
	assert.Len(t, detail.Items, 2)
	assert.Len(t, detail.Audit, 2)
	assert.Len(t, detail.Documents, 2)

	_, err = env.service.GetClaim(context.Background(), "CLM_MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

type staticUtilization struct{ u adjudication.Utilization }

func (s staticUtilization) Utilization(context.Context, string) (*adjudication.Utilization, error) {
	u := s.u
	return &u, nil
}

func TestUtilizationReportsRemainingLimit(t *testing.T) {
	env := newTestEnv(t, clinicDocuments())
	env.service.utilization = staticUtilization{u: adjudication.Utilization{
		PolicyID:         "PLUM_OPD_2024",
		TotalApprovedYTD: 12000,
		TotalClaims:      4,
		CategoryUsage:    map[string]float64{"pharmacy": 12000},
	}}

	u, err := env.service.Utilization(context.Background(), "PLUM_OPD_2024")
	require.NoError(t, err)
	assert.InDelta(t, 50000.0, u.AnnualLimit, 0.001)
	assert.InDelta(t, 38000.0, u.RemainingLimit, 0.001)
	assert.Equal(t, int64(4), u.TotalClaims)
}

func TestPolicySummaryListsCoveredCategories(t *testing.T) {
	env := newTestEnv(t, nil)
	s := env.service.PolicySummary()
	assert.Equal(t, "PLUM_OPD_2024", s.PolicyID)
	assert.Equal(t, []string{"consultation_fees", "diagnostic_tests", "pharmacy", "dental", "vision", "alternative_medicine"}, s.CoverageCategories)
	assert.Equal(t, 4, s.ExclusionsCount)
}

func TestFormatClaimID(t *testing.T) {
	now := time.Date(2024, 11, 15, 9, 5, 7, 0, time.UTC)
	assert.Regexp(t, `^CLM_20241115090507_[0-9A-F]{8}$`, formatClaimID(now, 8))
	assert.Regexp(t, `^CLM_20241115090507_[0-9A-F]{12}$`, formatClaimID(now, 12))
}

func TestItemRowsPersistFinalAmounts(t *testing.T) {
	rows := itemRows("CLM_1", []adjudication.ItemAnalysis{
		{Description: "Paracetamol generic", Category: "pharmacy", ClaimedAmount: 4000, ApprovedAmount: 4000, FinalApprovedAmount: 3500},
		{Description: "Eye examination", Category: "vision", ClaimedAmount: 400, ApprovedAmount: 400},
	})
	require.Len(t, rows, 2)
	assert.InDelta(t, 4000.0, rows[0].ApprovedAmount, 0.001)
	assert.InDelta(t, 3500.0, rows[0].FinalApproved, 0.001)
	assert.InDelta(t, 0.0, rows[1].FinalApproved, 0.001)
	assert.Equal(t, float64(1), rows[1].Quantity)
}
