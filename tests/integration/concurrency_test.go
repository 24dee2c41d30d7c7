package integration

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The engine serializes mutating operations; these tests hammer single
// resources from many goroutines and assert the serialized outcomes.

func TestIntegration_ConcurrentLoanRequests_SingleWinner(t *testing.T) {
	app := newTestApp(t)

	_, lenderToken := app.registerAndLogin(t, "lender-c1")
	app.deposit(t, lenderToken, 1000)

	code, resp := app.do(t, http.MethodPost, "/api/v1/offers", lenderToken, map[string]int64{
		"amount":           100,
		"interest_rate":    1000,
		"duration":         3600,
		"collateral_ratio": 15000,
		"min_score":        600,
	})
	require.Equal(t, http.StatusCreated, code)
	offerID := int64(data(t, resp)["id"].(float64))

	const contenders = 6
	tokens := make([]string, contenders)
	hashes := make([]string, contenders)
	for i := 0; i < contenders; i++ {
		id, token := app.registerAndLogin(t, fmt.Sprintf("borrower-c1-%d", i))
		app.deposit(t, token, 500)
		hashes[i] = proofHashFor(100 + i)
		app.recordVerification(t, hashes[i], id, true, 700)
		tokens[i] = token
	}

	codes := make([]int, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/loans",
				jsonBody(t, map[string]interface{}{
					"offer_id":   offerID,
					"proof_hash": hashes[i],
					"collateral": 150,
				}))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+tokens[i])
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			codes[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	var created, conflicted int
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		}
	}
	assert.Equal(t, 1, created, "exactly one origination may consume the offer: %v", codes)
	assert.Equal(t, contenders-1, conflicted, "losers must see the deactivated offer: %v", codes)
}

func TestIntegration_ConcurrentDeposits(t *testing.T) {
	app := newTestApp(t)

	_, token := app.registerAndLogin(t, "depositor-c2")

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/accounts/deposit",
				jsonBody(t, map[string]int64{"amount": 5}))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			resp.Body.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers*5), app.balance(t, token))
}

func TestIntegration_ConcurrentPartialPayments(t *testing.T) {
	app := newTestApp(t)

	_, lenderToken := app.registerAndLogin(t, "lender-c3")
	borrowerID, borrowerToken := app.registerAndLogin(t, "borrower-c3")
	app.deposit(t, lenderToken, 1000)
	app.deposit(t, borrowerToken, 1000)

	code, resp := app.do(t, http.MethodPost, "/api/v1/offers", lenderToken, map[string]int64{
		"amount":           100,
		"interest_rate":    1000,
		"duration":         3600,
		"collateral_ratio": 15000,
		"min_score":        600,
	})
	require.Equal(t, http.StatusCreated, code)
	offerID := int64(data(t, resp)["id"].(float64))

	hash := proofHashFor(200)
	app.recordVerification(t, hash, borrowerID, true, 700)

	code, resp = app.do(t, http.MethodPost, "/api/v1/loans", borrowerToken, map[string]interface{}{
		"offer_id":   offerID,
		"proof_hash": hash,
		"collateral": 150,
	})
	require.Equal(t, http.StatusCreated, code)
	loanID := int64(data(t, resp)["id"].(float64))

	// Five partial payments of 10 in parallel. Total due is 110, so the
	// loan stays active and every payment lands.
	const payments = 5
	var wg sync.WaitGroup
	for i := 0; i < payments; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/v1/loans/%d/payments", app.server.URL, loanID),
				jsonBody(t, map[string]int64{"amount": 10}))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+borrowerToken)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			resp.Body.Close()
		}()
	}
	wg.Wait()

	code, resp = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/loans/%d", loanID), borrowerToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(50), data(t, resp)["amount_repaid"])
	assert.Equal(t, "ACTIVE", data(t, resp)["status"])

	// Lender received every partial payment immediately.
	assert.Equal(t, int64(950), app.balance(t, lenderToken))
}
