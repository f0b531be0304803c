package dlp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorDetectsPatterns(t *testing.T) {
	detector, err := NewDetector(DefaultRules())
	require.NoError(t, err)

	text := "Rajesh Kumar, Aadhaar 1234 5678 9012, PAN ABCPK1234F, mobile +91 98765 43210, rajesh@example.com"
	res := detector.Detect(text)

	require.True(t, res.Detected)
	assert.Equal(t, []string{"aadhaar", "email", "pan", "phone"}, res.Types)
}

func TestSanitizeMasksNestedValues(t *testing.T) {
	detector, err := NewDetector(DefaultRules())
	require.NoError(t, err)

	data := map[string]interface{}{
		"patient": "call 9876543210",
		"nested":  map[string]interface{}{"email": "a.b@clinic.in"},
		"list":    []interface{}{"PAN ABCPK1234F", 42},
		"files":   map[string]string{"medical_bill": "bill_9876543210.pdf"},
		"amount":  1200.5,
	}
	out := detector.Sanitize(data)

	assert.Equal(t, "call XXXXX-XXXXX", out["patient"])
	assert.Equal(t, "***@***", out["nested"].(map[string]interface{})["email"])
	assert.Equal(t, []interface{}{"PAN XXXXX0000X", 42}, out["list"])
	assert.Equal(t, 1200.5, out["amount"])
	assert.Equal(t, "call 9876543210", data["patient"], "input must not be modified")
}

func TestNilDetectorIsPassThrough(t *testing.T) {
	var d *Detector
	assert.Equal(t, "9876543210", d.MaskText("9876543210"))
	assert.False(t, d.Detect("9876543210").Detected)
}

func TestLoadRulesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := `
rules:
  - name: Member
    type: member_id
    pattern: 'MEM-\d+'
    mask: MEM-XXX
    enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadRules(path)
	require.NoError(t, err)
	detector, err := NewDetector(cfg)
	require.NoError(t, err)
	assert.Equal(t, "member MEM-XXX", detector.MaskText("member MEM-20931"))

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("rules: []\n"), 0o600))
	_, err = LoadRules(empty)
	assert.Error(t, err)
}

func TestNewDetectorRejectsBadPattern(t *testing.T) {
	_, err := NewDetector(RulesConfig{Rules: []Rule{{Name: "bad", Pattern: "(", Enabled: true}}})
	assert.Error(t, err)
}
