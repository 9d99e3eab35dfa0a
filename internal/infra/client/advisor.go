// Package client provides HTTP clients for external services.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/finaura/finaura-go/internal/domain"
	"github.com/finaura/finaura-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// AdvisorClient calls the external advisor agent service (FinAura Bot).
type AdvisorClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewAdvisorClient creates a new AdvisorClient.
func NewAdvisorClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *AdvisorClient {
	return &AdvisorClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// Call invokes the advisor agent with the user's message and chat history.
func (c *AdvisorClient) Call(ctx context.Context, req *domain.AdvisorRequest) (*domain.AdvisorResponse, error) {
	ctx, span := tracer.Start(ctx, "AdvisorClient.Call")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", req.SessionID))

	var advisorResp domain.AdvisorResponse

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(req)
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/v1/advisor/invoke", c.baseURL)
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("advisor API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&advisorResp)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &advisorResp, nil
	})

	if err != nil {
		if resilience.IsCircuitOpen(err) {
			return nil, &domain.ErrCircuitOpen{Service: "advisor"}
		}
		return nil, &domain.ErrExternalService{Service: "advisor", Err: err}
	}

	return result.(*domain.AdvisorResponse), nil
}
