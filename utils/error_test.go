package utils_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/venturatrading/commerce_backend/utils"
)

func TestKindOfAndHTTPStatus(t *testing.T) {
	cases := []struct {
		err        error
		wantKind   utils.ErrorKind
		wantStatus int
	}{
		{utils.NewValidationError("bad input"), utils.ErrorKindValidation, http.StatusBadRequest},
		{utils.NewConflictError("already done"), utils.ErrorKindConflict, http.StatusBadRequest},
		{utils.NewAuthorizationError("not yours"), utils.ErrorKindAuthorization, http.StatusForbidden},
		{utils.NewNotFoundError("missing"), utils.ErrorKindNotFound, http.StatusNotFound},
		{utils.NewUpstreamGatewayError("gateway down", errors.New("503")), utils.ErrorKindUpstreamGateway, http.StatusInternalServerError},
		{errors.New("raw"), utils.ErrorKindPersistence, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := utils.KindOf(tc.err); got != tc.wantKind {
			t.Errorf("KindOf(%v) = %v, want %v", tc.err, got, tc.wantKind)
		}
		if got := utils.HTTPStatus(tc.err); got != tc.wantStatus {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.wantStatus)
		}
	}
}

func TestKindOfWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("while approving: %w", utils.NewConflictError("already approved"))
	if got := utils.KindOf(wrapped); got != utils.ErrorKindConflict {
		t.Errorf("KindOf(wrapped) = %v, want conflict", got)
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	if msg := utils.PublicMessage(utils.NewValidationError("amount must be positive")); msg != "amount must be positive" {
		t.Errorf("validation message = %q, want passthrough", msg)
	}
	if msg := utils.PublicMessage(errors.New("dial tcp 10.0.0.3: connection refused")); msg == "dial tcp 10.0.0.3: connection refused" {
		t.Error("persistence detail leaked to the public message")
	}
}

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"1,234.50", "1234.50", false},
		{"PHP 500", "500", false},
		{"  42 ", "42", false},
		{"-10.25", "-10.25", false},
		{"", "", true},
		{"abc", "", true},
	}

	for _, tc := range cases {
		got, err := utils.ParseDecimal(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDecimal(%q) = %s, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDecimal(%q): %v", tc.in, err)
			continue
		}
		if got.String() != tc.want && got.StringFixed(2) != tc.want {
			t.Errorf("ParseDecimal(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
