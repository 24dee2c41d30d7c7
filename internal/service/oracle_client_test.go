package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHTTPClient returns canned responses and records the last request.
type stubHTTPClient struct {
	status  int
	body    string
	err     error
	lastReq *http.Request
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return &http.Response{
		StatusCode: c.status,
		Body:       io.NopCloser(bytes.NewBufferString(c.body)),
	}, nil
}

func TestAttestationClient_Verify(t *testing.T) {
	stub := &stubHTTPClient{status: http.StatusOK, body: `{"valid":true}`}
	client := NewAttestationClient("http://oracle.local", "key-123", stub, zerolog.Nop())

	valid, err := client.Verify(context.Background(), []byte("proof"))
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t, "http://oracle.local/v1/verify", stub.lastReq.URL.String())
	assert.Equal(t, "key-123", stub.lastReq.Header.Get("X-Oracle-Api-Key"))
}

func TestAttestationClient_ExtractScore(t *testing.T) {
	stub := &stubHTTPClient{status: http.StatusOK, body: `{"score":715}`}
	client := NewAttestationClient("http://oracle.local", "key-123", stub, zerolog.Nop())

	score, err := client.ExtractScore(context.Background(), []byte("proof"))
	require.NoError(t, err)
	assert.Equal(t, int64(715), score)
	assert.Equal(t, "http://oracle.local/v1/score", stub.lastReq.URL.String())
}

func TestAttestationClient_UnauthorizedKey(t *testing.T) {
	stub := &stubHTTPClient{status: http.StatusUnauthorized, body: `{}`}
	client := NewAttestationClient("http://oracle.local", "bad-key", stub, zerolog.Nop())

	_, err := client.Verify(context.Background(), []byte("proof"))
	assert.Equal(t, "caller not authorized", appMessage(t, err))
}

func TestAttestationClient_Unreachable(t *testing.T) {
	stub := &stubHTTPClient{err: context.DeadlineExceeded}
	client := NewAttestationClient("http://oracle.local", "key", stub, zerolog.Nop())

	_, err := client.Verify(context.Background(), []byte("proof"))
	assert.Equal(t, "SYS_002", appCode(t, err))
}

func TestAttestationClient_ServerError(t *testing.T) {
	stub := &stubHTTPClient{status: http.StatusInternalServerError, body: ``}
	client := NewAttestationClient("http://oracle.local", "key", stub, zerolog.Nop())

	_, err := client.ExtractScore(context.Background(), []byte("proof"))
	assert.Equal(t, "SYS_002", appCode(t, err))
}
