package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
)

var (
	claimsReceived     atomic.Int64
	claimsApproved     atomic.Int64
	claimsPartial      atomic.Int64
	claimsRejected     atomic.Int64
	claimsManualReview atomic.Int64
	claimsFailed       atomic.Int64
	documentsRead      atomic.Int64
	documentsFailed    atomic.Int64
	ocrImages          atomic.Int64
	llmCalls           atomic.Int64
	llmFailures        atomic.Int64
	eventsPublished    atomic.Int64
	eventsDeadLettered atomic.Int64
	approvedPaise      atomic.Int64
)

func ClaimReceived() { claimsReceived.Add(1) }

func ClaimFailed() { claimsFailed.Add(1) }

// ClaimDecided counts a decision and the approved amount in rupees.
func ClaimDecided(decision string, approved float64) {
	switch decision {
	case "APPROVED":
		claimsApproved.Add(1)
	case "PARTIAL":
		claimsPartial.Add(1)
	case "REJECTED":
		claimsRejected.Add(1)
	case "MANUAL_REVIEW":
		claimsManualReview.Add(1)
	}
	approvedPaise.Add(int64(approved*100 + 0.5))
}

func DocumentRead(ok bool) {
	if ok {
		documentsRead.Add(1)
		return
	}
	documentsFailed.Add(1)
}

func OCRImage() { ocrImages.Add(1) }

func LLMCall(err error) {
	llmCalls.Add(1)
	if err != nil {
		llmFailures.Add(1)
	}
}

func EventPublished(deadLettered bool) {
	if deadLettered {
		eventsDeadLettered.Add(1)
		return
	}
	eventsPublished.Add(1)
}

type sample struct {
	name  string
	help  string
	kind  string
	value int64
}

func snapshot() []sample {
	return []sample{
		{"claimwise_claims_received_total", "Claims accepted for processing.", "counter", claimsReceived.Load()},
		{"claimwise_claims_approved_total", "Claims fully approved.", "counter", claimsApproved.Load()},
		{"claimwise_claims_partial_total", "Claims partially approved.", "counter", claimsPartial.Load()},
		{"claimwise_claims_rejected_total", "Claims rejected.", "counter", claimsRejected.Load()},
		{"claimwise_claims_manual_review_total", "Claims escalated to manual review.", "counter", claimsManualReview.Load()},
		{"claimwise_claims_failed_total", "Claims that failed before a decision.", "counter", claimsFailed.Load()},
		{"claimwise_documents_read_total", "Documents whose text was extracted.", "counter", documentsRead.Load()},
		{"claimwise_documents_failed_total", "Documents that could not be read.", "counter", documentsFailed.Load()},
		{"claimwise_ocr_images_total", "Images sent to OCR.", "counter", ocrImages.Load()},
		{"claimwise_llm_calls_total", "Generative model calls.", "counter", llmCalls.Load()},
		{"claimwise_llm_failures_total", "Generative model calls that failed.", "counter", llmFailures.Load()},
		{"claimwise_events_published_total", "Decision events published to Kafka.", "counter", eventsPublished.Load()},
		{"claimwise_events_dead_lettered_total", "Decision events routed to the dead-letter topic.", "counter", eventsDeadLettered.Load()},
		{"claimwise_approved_amount_paise_total", "Approved amount in paise across all decisions.", "counter", approvedPaise.Load()},
	}
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	writeSamples(w)
}

func writeSamples(w io.Writer) {
	for _, s := range snapshot() {
		fmt.Fprintf(w, "# HELP %s %s\n", s.name, s.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", s.name, s.kind)
		fmt.Fprintf(w, "%s %d\n", s.name, s.value)
	}
}

// Handler serves the metrics in Prometheus text format.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WritePrometheus(w)
	})
}
