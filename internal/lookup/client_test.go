// internal/lookup/client_test.go
package lookup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
)

func oracleSuccessBody() map[string]interface{} {
	return map[string]interface{}{
		"error": false,
		"vehicle": map[string]interface{}{
			"make":              "RENAULT",
			"model":             "CLIO V",
			"plate":             "AB-123-CD",
			"firstRegistration": "2020-03-15",
			"fiscalPower":       5,
			"co2Emissions":      112,
			"energyType":        "ESSENCE",
			"bodyType":          "CI",
		},
		"price": map[string]string{
			"y1":    "150.00",
			"y1Bis": "0.00",
			"y2":    "11.00",
			"y3":    "0.00",
			"y4":    "0.00",
			"y5":    "43.76",
			"total": "204.76",
		},
	}
}

func TestLookup_Success(t *testing.T) {
	var captured struct {
		Plate         string `json:"plate"`
		Department    string `json:"department"`
		ProcedureCode string `json:"procedureCode"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/registration-cost", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(oracleSuccessBody())
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 5*time.Second, logger.NewTestLogger(t))

	result, err := client.Lookup(context.Background(), "AB-123-CD", "75011", "CHANGEMENT_TITULAIRE")
	require.NoError(t, err)

	assert.Equal(t, "75", captured.Department)
	assert.Equal(t, "RENAULT", result.Vehicle.Make)
	assert.Equal(t, "204.76", result.Price.Total.StringFixed(2))
	assert.True(t, result.Price.CheckTotal())
}

func TestLookup_MissingCredentials(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, logger.NewTestLogger(t))

	_, err := client.Lookup(context.Background(), "AB-123-CD", "75011", "CHANGEMENT_TITULAIRE")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingCredentials))
	assert.False(t, called, "no request must be made without credentials")
}

func TestLookup_UpstreamUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 5*time.Second, logger.NewTestLogger(t))

	_, err := client.Lookup(context.Background(), "AB-123-CD", "75011", "CHANGEMENT_TITULAIRE")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUpstreamUnavailable))

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.True(t, stdErr.Retryable)
}

func TestLookup_UpstreamRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   true,
			"message": "Plaque d'immatriculation inconnue",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 5*time.Second, logger.NewTestLogger(t))

	_, err := client.Lookup(context.Background(), "ZZ-999-ZZ", "75011", "CHANGEMENT_TITULAIRE")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUpstreamRejected))

	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, "Plaque d'immatriculation inconnue", stdErr.Message)
	assert.False(t, stdErr.Retryable)
}

func TestBreakdown_CheckTotal(t *testing.T) {
	good := Breakdown{}
	var err error
	good, err = parseBreakdownFromStrings("150.00", "0.00", "11.00", "0.00", "0.00", "43.76", "204.76")
	require.NoError(t, err)
	assert.True(t, good.CheckTotal())

	drifted, err := parseBreakdownFromStrings("150.00", "0.00", "11.00", "0.00", "0.00", "43.76", "210.00")
	require.NoError(t, err)
	assert.False(t, drifted.CheckTotal())
}

func parseBreakdownFromStrings(y1, y1bis, y2, y3, y4, y5, total string) (Breakdown, error) {
	var resp oracleResponse
	resp.Price.Y1 = y1
	resp.Price.Y1Bis = y1bis
	resp.Price.Y2 = y2
	resp.Price.Y3 = y3
	resp.Price.Y4 = y4
	resp.Price.Y5 = y5
	resp.Price.Total = total
	return parseBreakdown(resp)
}
