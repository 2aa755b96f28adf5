package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kopesha/loan-core/internal/money"
)

func TestLoanTermsRequestValidate(t *testing.T) {
	valid := loanTermsRequest{
		BorrowerName:    "Wanjiku Mwangi",
		PrincipalUnits:  10000000,
		InterestRateBps: 500,
		InterestType:    "flat",
		TermPeriods:     6,
	}

	tests := []struct {
		name      string
		mutate    func(*loanTermsRequest)
		wantField string
	}{
		{name: "valid", mutate: func(r *loanTermsRequest) {}},
		{name: "missing borrower", mutate: func(r *loanTermsRequest) { r.BorrowerName = "" }, wantField: "borrower_name"},
		{name: "zero principal", mutate: func(r *loanTermsRequest) { r.PrincipalUnits = 0 }, wantField: "principal_units"},
		{name: "negative rate", mutate: func(r *loanTermsRequest) { r.InterestRateBps = -1 }, wantField: "interest_rate_bps"},
		{name: "bad interest type", mutate: func(r *loanTermsRequest) { r.InterestType = "balloon" }, wantField: "interest_type"},
		{name: "zero term", mutate: func(r *loanTermsRequest) { r.TermPeriods = 0 }, wantField: "term_periods"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			errs := req.Validate(true)

			if tc.wantField == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tc.wantField, errs[0].Field)
		})
	}
}

func TestPreviewComputesWithoutService(t *testing.T) {
	// Preview never touches the service; a nil implementation proves it.
	h := NewLoanHandler(nil, money.CurrencyKES)

	body := `{"principal_units":10000000,"interest_rate_bps":500,"interest_type":"flat","term_periods":6}`
	req := httptest.NewRequest(http.MethodPost, "/loans/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Preview(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			MonthlyInstallment money.Money `json:"monthly_installment"`
			TotalInterest      money.Money `json:"total_interest"`
			TotalPayable       money.Money `json:"total_payable"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(2166667), resp.Data.MonthlyInstallment.Units)
	assert.Equal(t, int64(3000000), resp.Data.TotalInterest.Units)
	assert.Equal(t, int64(13000000), resp.Data.TotalPayable.Units)
}

func TestPreviewRejectsInvalidTerms(t *testing.T) {
	h := NewLoanHandler(nil, money.CurrencyKES)

	body := `{"principal_units":10000000,"interest_rate_bps":500,"interest_type":"flat","term_periods":0}`
	req := httptest.NewRequest(http.MethodPost, "/loans/preview", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Preview(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}

func TestPaginationParams(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", query: "", wantLimit: 50, wantOffset: 0},
		{name: "explicit", query: "?limit=20&offset=40", wantLimit: 20, wantOffset: 40},
		{name: "limit capped", query: "?limit=500", wantLimit: 50},
		{name: "garbage ignored", query: "?limit=abc&offset=-1", wantLimit: 50, wantOffset: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/loans"+tc.query, nil)
			limit, offset := paginationParams(req)
			assert.Equal(t, tc.wantLimit, limit)
			assert.Equal(t, tc.wantOffset, offset)
		})
	}
}
