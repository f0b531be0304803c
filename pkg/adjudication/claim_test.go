package adjudication

import (
	"testing"

	"github.com/claimwise/platform/pkg/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func total(v float64) *extraction.Amount {
	a := extraction.Amount(v)
	return &a
}

func TestMergePrefersOwningDocument(t *testing.T) {
	bill := &extraction.Document{
		PatientName:  "Rajesh Kumar",
		DoctorName:   "Dr. Sharma",
		HospitalName: "City Care Clinic",
		Items: []extraction.Item{
			item("Consultation", "consultation", 1000),
			item("Registration", "consultation", 0),
		},
		TotalAmount: total(1000),
	}
	prescription := &extraction.Document{
		PatientName:        "R. Kumar",
		DoctorName:         "Dr. Anita Sharma",
		DoctorRegistration: "KA/12345/2015",
		Diagnosis:          "Viral fever",
		HospitalName:       "Sharma Clinic",
		Items:              []extraction.Item{item("Paracetamol 650mg", "pharmacy", 0)},
	}

	c := &Claim{}
	Merge(c, bill, extraction.DocMedicalBill)
	Merge(c, prescription, extraction.DocPrescription)

	assert.Equal(t, "Rajesh Kumar", c.PatientName)
	assert.Equal(t, "Dr. Anita Sharma", c.DoctorName)
	assert.Equal(t, "KA/12345/2015", string(c.DoctorRegistration))
	assert.Equal(t, "City Care Clinic", c.HospitalName)

	require.Len(t, c.Items, 1)
	assert.Equal(t, extraction.DocMedicalBill, c.Items[0].SourceDocument)
	require.Len(t, c.PrescriptionItems, 1)
	assert.Equal(t, []string{extraction.DocMedicalBill, extraction.DocPrescription}, c.DocumentTypes)
}

func TestMergeAppliesRulesToFirstDocument(t *testing.T) {
	c := &Claim{}
	Merge(c, &extraction.Document{
		Items: []extraction.Item{item("Zero line", "pharmacy", 0), item("Crocin", "pharmacy", 120)},
	}, extraction.DocPharmacyBill)

	require.Len(t, c.Items, 1)
	assert.Equal(t, "Crocin", c.Items[0].Description)
	assert.InDelta(t, 120.0, c.TotalAmount, 0.001)
}

func TestMergeTotalsSumBills(t *testing.T) {
	c := &Claim{}
	Merge(c, &extraction.Document{
		Items:       []extraction.Item{item("Consultation", "consultation", 800)},
		TotalAmount: total(944),
	}, extraction.DocMedicalBill)
	Merge(c, &extraction.Document{
		Items: []extraction.Item{item("Crocin", "pharmacy", 150)},
	}, extraction.DocPharmacyBill)

	// The pharmacy bill states no total so only the medical bill counts.
	assert.InDelta(t, 944.0, c.TotalAmount, 0.001)

	Merge(c, &extraction.Document{TotalAmount: total(150)}, extraction.DocPharmacyBill)
	assert.InDelta(t, 1094.0, c.TotalAmount, 0.001)
	assert.Len(t, c.DocumentTypes, 2)
}

func TestMergeFallsBackToItemSum(t *testing.T) {
	c := &Claim{}
	Merge(c, &extraction.Document{
		Items: []extraction.Item{item("Consultation", "consultation", 500), item("ECG", "diagnostic", 300)},
	}, extraction.DocMedicalBill)
	assert.InDelta(t, 800.0, c.TotalAmount, 0.001)
}

func TestMergeIgnoresNilDocument(t *testing.T) {
	c := &Claim{}
	Merge(c, nil, extraction.DocMedicalBill)
	assert.Empty(t, c.DocumentTypes)
}

func TestEffectiveTreatmentDate(t *testing.T) {
	c := &Claim{ClaimDate: "2024-11-15"}
	assert.Equal(t, "2024-11-15", c.EffectiveTreatmentDate())
	c.TreatmentDate = "2024-11-10"
	assert.Equal(t, "2024-11-10", c.EffectiveTreatmentDate())
}
