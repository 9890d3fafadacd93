package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/serialguard/serialguard-backend/pkg/errors"
)

type samplePayload struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	Name         string `json:"name" validate:"required,min=2"`
	Contact      string `json:"contact_email" validate:"omitempty,email"`
	Status       string `json:"status" validate:"omitempty,oneof=for_sale locked stolen"`
}

func decode(t *testing.T, body string) (*samplePayload, error) {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	var dest samplePayload
	err := DecodeJSONBody(req, &dest)
	return &dest, err
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	dest, err := decode(t, `{"serial_number":"SN-001","name":"Phone","status":"locked"}`)
	if err != nil {
		t.Fatalf("DecodeJSONBody: %v", err)
	}
	if dest.SerialNumber != "SN-001" || dest.Status != "locked" {
		t.Fatalf("decoded = %+v", dest)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	_, err := decode(t, `{"serial_number":"SN-001","name":"Phone","bogus":true}`)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}
}

func TestDecodeJSONBodyRejectsMalformedJSON(t *testing.T) {
	_, err := decode(t, `{"serial_number":`)
	if code := pkgerrors.As(err).Code(); code != pkgerrors.CodeValidation {
		t.Fatalf("code = %s, want %s", code, pkgerrors.CodeValidation)
	}
}

func TestValidationDetailsUseJSONFieldNames(t *testing.T) {
	_, err := decode(t, `{"name":"P","contact_email":"not-an-email","status":"smashed"}`)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("err = %v, want VALIDATION_ERROR", err)
	}

	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("details type = %T", typed.Details())
	}
	expect := map[string]string{
		"serial_number": "is required",
		"name":          "must be at least 2",
		"contact_email": "must be a valid email",
		"status":        "must be one of for_sale locked stolen",
	}
	for field, message := range expect {
		if details[field] != message {
			t.Errorf("details[%s] = %q, want %q", field, details[field], message)
		}
	}
}
