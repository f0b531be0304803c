package adjudication

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/claimwise/platform/pkg/extraction"
	"github.com/claimwise/platform/pkg/policy"
	"github.com/claimwise/platform/pkg/terminology"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 11, 15, 10, 30, 0, 0, time.UTC)

func loadPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.Load(filepath.Join("..", "..", "policy.json"))
	require.NoError(t, err)
	return p
}

func newTestEngine(t *testing.T, deps Dependencies) *Engine {
	t.Helper()
	e := NewEngine(loadPolicy(t), terminology.DefaultCatalog(), deps)
	e.now = func() time.Time { return fixedNow }
	return e
}

func item(description, category string, amount float64) extraction.Item {
	return extraction.Item{Description: description, Category: category, Amount: extraction.Amount(amount)}
}

// cleanClaim returns a claim with every provider detail present so only the
// items decide the outcome.
func cleanClaim(items ...extraction.Item) *Claim {
	return &Claim{
		ClaimID:            "CLM_TEST",
		PolicyID:           "PLUM_OPD_2024",
		PatientName:        "Rajesh Kumar",
		EmployeeID:         "EMP001",
		TreatmentDate:      "2024-11-10",
		ClaimDate:          "2024-11-15",
		HospitalName:       "City Care Clinic",
		DoctorName:         "Dr. Anita Sharma",
		DoctorRegistration: "KA/12345/2015",
		Diagnosis:          "Viral fever",
		DocumentTypes:      []string{extraction.DocPrescription, extraction.DocMedicalBill},
		Items:              items,
		TotalAmount:        lo.SumBy(items, func(i extraction.Item) float64 { return float64(i.Amount) }),
	}
}

type fakeMembers map[string]bool

func (f fakeMembers) MemberExists(_ context.Context, id string) (bool, error) {
	return f[id], nil
}

type fakeUtilization struct{ u *Utilization }

func (f fakeUtilization) Utilization(context.Context, string) (*Utilization, error) {
	return f.u, nil
}

type fakeReviewer struct {
	assessment extraction.NecessityAssessment
}

func (f fakeReviewer) ReviewNecessity(context.Context, extraction.NecessityRequest) extraction.NecessityAssessment {
	return f.assessment
}

func codes(issues []Issue) []string {
	return lo.Map(issues, func(i Issue, _ int) string { return i.Code })
}
