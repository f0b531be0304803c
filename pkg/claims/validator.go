package claims

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/claimwise/platform/pkg/document"
	"github.com/claimwise/platform/pkg/extraction"
	"github.com/claimwise/platform/pkg/policy"
)

var (
	errNoDocuments     = errors.New("at least one document is required")
	errUnknownDocument = errors.New("unknown document type")
	errInvalidFileType = errors.New("invalid file type")
	errInvalidDate     = errors.New("date must be in YYYY-MM-DD format")
)

type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// ProcessRequest names the uploaded documents by type. Paths point at files
// already saved locally.
type ProcessRequest struct {
	Documents map[string]string
	ClaimDate string
	PolicyID  string
	MemberID  string
}

type Validator struct {
	allowedExtensions map[string]struct{}
}

// NewValidator accepts files whose extension is in allowed and that the
// document reader can handle.
func NewValidator(allowed map[string]struct{}) *Validator {
	return &Validator{allowedExtensions: allowed}
}

func (v *Validator) Validate(req ProcessRequest) error {
	if v == nil {
		return ValidationError{reason: errors.New("validator not initialised")}
	}
	if len(req.Documents) == 0 {
		return ValidationError{reason: errNoDocuments}
	}

	types := make([]string, 0, len(req.Documents))
	for docType := range req.Documents {
		types = append(types, docType)
	}
	sort.Strings(types)
	for _, docType := range types {
		if !extraction.IsDocumentType(docType) {
			return ValidationError{reason: fmt.Errorf("%w: %s", errUnknownDocument, docType)}
		}
		if err := v.CheckFile(req.Documents[docType]); err != nil {
			return err
		}
	}

	if req.ClaimDate != "" {
		if err := ValidateDate(req.ClaimDate); err != nil {
			return err
		}
	}
	return nil
}

// CheckFile validates a single upload by its name.
func (v *Validator) CheckFile(name string) error {
	ext := document.Extension(name)
	if ext == "" {
		return ValidationError{reason: fmt.Errorf("%w: %s has no extension", errInvalidFileType, name)}
	}
	if len(v.allowedExtensions) > 0 {
		if _, ok := v.allowedExtensions[ext]; !ok {
			return ValidationError{reason: fmt.Errorf("%w: %s (allowed: %s)", errInvalidFileType, name, v.allowedList())}
		}
	}
	if !document.Supported(ext) {
		return ValidationError{reason: fmt.Errorf("%w: %s", errInvalidFileType, name)}
	}
	return nil
}

func (v *Validator) allowedList() string {
	list := make([]string, 0, len(v.allowedExtensions))
	for ext := range v.allowedExtensions {
		list = append(list, ext)
	}
	sort.Strings(list)
	return strings.Join(list, ",")
}

func ValidateDate(s string) error {
	if _, err := time.Parse(policy.DateLayout, s); err != nil {
		return ValidationError{reason: fmt.Errorf("%w: %q", errInvalidDate, s)}
	}
	return nil
}
