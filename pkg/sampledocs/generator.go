// Package sampledocs generates realistic OPD claim documents as plain text
// for demos and end-to-end tests. Output is reproducible for a given seed.
package sampledocs

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/claimwise/platform/pkg/extraction"
)

// Document is one generated document and the facts it states.
type Document struct {
	Type     string
	Patient  string
	Doctor   string
	Hospital string
	Date     time.Time
	Total    float64
	Text     string
}

// FileName is a stable name for writing the document to disk.
func (d Document) FileName(index int) string {
	return fmt.Sprintf("%02d_%s.txt", index, d.Type)
}

type Generator struct {
	rng *rand.Rand
	now time.Time
}

// New returns a generator whose dates fall within the 30 days before now.
func New(seed uint64, now time.Time) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), now: now}
}

// visit is the encounter every document of a claim describes.
type visit struct {
	patient   string
	age       int
	sex       string
	doctor    doctor
	hospital  hospital
	diagnosis diagnosis
	date      time.Time
}

func (g *Generator) visit() visit {
	return visit{
		patient:   pick(g.rng, patientNames),
		age:       g.between(18, 75),
		sex:       pick(g.rng, []string{"M", "F"}),
		doctor:    pick(g.rng, doctors),
		hospital:  pick(g.rng, hospitals),
		diagnosis: pick(g.rng, diagnoses),
		date:      g.now.AddDate(0, 0, -g.between(0, 30)),
	}
}

// Generate produces a single document of docType for a random visit.
func (g *Generator) Generate(docType string) (Document, error) {
	return g.render(docType, g.visit())
}

// ClaimSet produces one document of every type for the same visit, in
// merge order.
func (g *Generator) ClaimSet() []Document {
	v := g.visit()
	out := make([]Document, 0, len(extraction.DocumentTypes))
	for _, docType := range extraction.DocumentTypes {
		doc, _ := g.render(docType, v)
		out = append(out, doc)
	}
	return out
}

// Batch produces count documents of random types.
func (g *Generator) Batch(count int) []Document {
	out := make([]Document, 0, count)
	for i := 0; i < count; i++ {
		doc, _ := g.Generate(pick(g.rng, extraction.DocumentTypes))
		out = append(out, doc)
	}
	return out
}

func (g *Generator) render(docType string, v visit) (Document, error) {
	doc := Document{
		Type:     docType,
		Patient:  v.patient,
		Doctor:   v.doctor.Name,
		Hospital: v.hospital.Name,
		Date:     v.date,
	}
	switch docType {
	case extraction.DocPrescription:
		doc.Text = g.prescription(v)
	case extraction.DocMedicalBill:
		doc.Text, doc.Total = g.medicalBill(v)
	case extraction.DocPharmacyBill:
		doc.Text, doc.Total = g.pharmacyBill(v)
	case extraction.DocLabResults:
		doc.Text = g.labReport(v)
	default:
		return Document{}, fmt.Errorf("unknown document type %q", docType)
	}
	return doc, nil
}

func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func pick[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}

// sample returns n distinct items in a seeded order.
func sample[T any](rng *rand.Rand, items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	out := make([]T, 0, n)
	for _, i := range rng.Perm(len(items))[:n] {
		out = append(out, items[i])
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
