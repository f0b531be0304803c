package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerExposesDecisionCounters(t *testing.T) {
	before := claimsPartial.Load()
	ClaimDecided("PARTIAL", 1234.5)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "# TYPE claimwise_claims_partial_total counter") {
		t.Fatalf("missing TYPE line:\n%s", body)
	}
	if claimsPartial.Load() != before+1 {
		t.Fatalf("partial counter not incremented")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
}
