// internal/lookup/client.go
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
	"garage-backoffice/internal/common/metrics"
	"garage-backoffice/internal/common/validation"
)

// Oracle is the tax-lookup capability the wizard depends on.
type Oracle interface {
	Lookup(ctx context.Context, plate, postalCode, procedureCode string) (*Result, error)
}

// Client calls the third-party registration-cost API. The oracle is untrusted
// and may fail; nothing here retries automatically.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

type oracleRequest struct {
	Plate         string `json:"plate"`
	Department    string `json:"department"`
	ProcedureCode string `json:"procedureCode"`
}

type oracleResponse struct {
	Error   bool        `json:"error"`
	Message string      `json:"message,omitempty"`
	Vehicle VehicleInfo `json:"vehicle"`
	Price   struct {
		Y1    string `json:"y1"`
		Y1Bis string `json:"y1Bis"`
		Y2    string `json:"y2"`
		Y3    string `json:"y3"`
		Y4    string `json:"y4"`
		Y5    string `json:"y5"`
		Total string `json:"total"`
	} `json:"price"`
}

// Lookup fetches vehicle attributes and the tax breakdown for a plate. The
// department code is the first two characters of the postal code. Callers can
// tell the three failure modes apart through the error code: missing
// credentials (no call is made), transport or non-2xx failures, and the
// oracle's own rejection carrying its message verbatim.
func (c *Client) Lookup(ctx context.Context, plate, postalCode, procedureCode string) (*Result, error) {
	if c.apiKey == "" {
		metrics.LookupRequests.WithLabelValues("missing_credentials").Inc()
		return nil, errors.NewMissingCredentialsError("vehicle lookup")
	}

	payload := oracleRequest{
		Plate:         plate,
		Department:    validation.DepartmentCode(postalCode),
		ProcedureCode: procedureCode,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lookup request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/registration-cost", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.LookupRequests.WithLabelValues("unavailable").Inc()
		return nil, errors.NewUpstreamUnavailableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.LookupRequests.WithLabelValues("unavailable").Inc()
		return nil, errors.NewUpstreamUnavailableError(err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.LookupRequests.WithLabelValues("unavailable").Inc()
		return nil, errors.NewUpstreamUnavailableError(
			fmt.Errorf("lookup oracle returned status %d: %s", resp.StatusCode, string(body)))
	}

	var oracleResp oracleResponse
	if err := json.Unmarshal(body, &oracleResp); err != nil {
		metrics.LookupRequests.WithLabelValues("unavailable").Inc()
		return nil, errors.NewUpstreamUnavailableError(fmt.Errorf("failed to unmarshal response: %w", err))
	}

	if oracleResp.Error {
		metrics.LookupRequests.WithLabelValues("rejected").Inc()
		return nil, errors.NewUpstreamRejectedError(oracleResp.Message)
	}

	breakdown, err := parseBreakdown(oracleResp)
	if err != nil {
		metrics.LookupRequests.WithLabelValues("unavailable").Inc()
		return nil, errors.NewUpstreamUnavailableError(err)
	}

	if !breakdown.CheckTotal() {
		c.logger.Warn("Lookup oracle total drifts from component sum", map[string]interface{}{
			"plate":        plate,
			"oracle_total": breakdown.Total.String(),
			"computed_sum": breakdown.Sum().String(),
		})
	}

	metrics.LookupRequests.WithLabelValues("success").Inc()

	return &Result{
		Vehicle: oracleResp.Vehicle,
		Price:   breakdown,
	}, nil
}

func parseBreakdown(resp oracleResponse) (Breakdown, error) {
	fields := map[string]string{
		"y1":    resp.Price.Y1,
		"y1Bis": resp.Price.Y1Bis,
		"y2":    resp.Price.Y2,
		"y3":    resp.Price.Y3,
		"y4":    resp.Price.Y4,
		"y5":    resp.Price.Y5,
		"total": resp.Price.Total,
	}

	parsed := make(map[string]decimal.Decimal, len(fields))
	for name, raw := range fields {
		if raw == "" {
			parsed[name] = decimal.Zero
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return Breakdown{}, fmt.Errorf("invalid price component %q: %w", name, err)
		}
		parsed[name] = value
	}

	return Breakdown{
		Y1:    parsed["y1"],
		Y1Bis: parsed["y1Bis"],
		Y2:    parsed["y2"],
		Y3:    parsed["y3"],
		Y4:    parsed["y4"],
		Y5:    parsed["y5"],
		Total: parsed["total"],
	}, nil
}
