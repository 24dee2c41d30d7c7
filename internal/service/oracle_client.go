package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"zk-lending-engine/pkg/apperror"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// AttestationClient implements ports.AttestationOracle against the external
// HTTP verifier. Authorization is an API key header; the verifier performs
// the actual zero-knowledge checks off-process.
type AttestationClient struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewAttestationClient creates a new AttestationClient.
func NewAttestationClient(baseURL, apiKey string, httpClient HTTPClient, log zerolog.Logger) *AttestationClient {
	return &AttestationClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		log:        log,
	}
}

type oracleVerifyResponse struct {
	Valid bool `json:"valid"`
}

type oracleScoreResponse struct {
	Score int64 `json:"score"`
}

// Verify asks the verifier whether the proof blob is valid.
func (c *AttestationClient) Verify(ctx context.Context, proof []byte) (bool, error) {
	var out oracleVerifyResponse
	if err := c.post(ctx, "/v1/verify", proof, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

// ExtractScore reads the reputation score carried in the proof's public
// inputs.
func (c *AttestationClient) ExtractScore(ctx context.Context, proof []byte) (int64, error) {
	var out oracleScoreResponse
	if err := c.post(ctx, "/v1/score", proof, &out); err != nil {
		return 0, err
	}
	return out.Score, nil
}

func (c *AttestationClient) post(ctx context.Context, path string, proof []byte, out interface{}) error {
	body, err := json.Marshal(map[string]string{
		"proof": string(proof),
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Oracle-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.ErrOracleUnavailable(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperror.ErrCallerNotAuthorized()
	case resp.StatusCode != http.StatusOK:
		return apperror.ErrOracleUnavailable(fmt.Errorf("verifier returned %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.ErrOracleUnavailable(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
