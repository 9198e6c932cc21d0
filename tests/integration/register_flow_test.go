package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminPassword  = "AdminPassword123!"
	holderPassword = "HolderPassword123!"
)

func TestRegisterFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	defer testDB.Teardown(ctx)

	require.NoError(t, SeedCompany(ctx, testDB.Pool, "Test Company", 1000000))

	admin, err := SeedAdmin(ctx, testDB.Pool, "admin@example.com", adminPassword)
	require.NoError(t, err)

	holder, err := SeedHolder(ctx, testDB.Pool, "holder@example.com", "Ada Lovelace", holderPassword, 250000)
	require.NoError(t, err)

	ts := NewTestServer(testDB.DB)
	defer ts.Close()

	login := func(t *testing.T, email, password string) (string, *http.Response) {
		t.Helper()
		resp, body, err := ts.PostJSON("/auth/login", "", map[string]string{
			"email":    email,
			"password": password,
		})
		require.NoError(t, err)
		if resp.StatusCode != http.StatusOK {
			return "", resp
		}
		var result struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(body, &result))
		return result.Token, resp
	}

	adminToken, resp := login(t, "admin@example.com", adminPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, adminToken)

	holderToken, resp := login(t, "holder@example.com", holderPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("holder sees own holding with percentage", func(t *testing.T) {
		resp, body, err := ts.GetJSON("/me/holding", holderToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var view struct {
			ShareCount  int64   `json:"share_count"`
			TotalShares int64   `json:"total_shares"`
			Percentage  float64 `json:"percentage"`
		}
		require.NoError(t, json.Unmarshal(body, &view))
		assert.Equal(t, int64(250000), view.ShareCount)
		assert.Equal(t, int64(1000000), view.TotalShares)
		assert.InDelta(t, 25.0, view.Percentage, 1e-9)
	})

	t.Run("holder cannot access admin surface", func(t *testing.T) {
		resp, _, err := ts.GetJSON("/holders", holderToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin lists register summary", func(t *testing.T) {
		resp, body, err := ts.GetJSON("/holders", adminToken)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var summary struct {
			Holders []struct {
				ID         string  `json:"id"`
				Percentage float64 `json:"percentage"`
			} `json:"holders"`
			TotalShares       int64 `json:"total_shares"`
			UnallocatedShares int64 `json:"unallocated_shares"`
		}
		require.NoError(t, json.Unmarshal(body, &summary))
		require.Len(t, summary.Holders, 1)
		assert.Equal(t, holder.ID, summary.Holders[0].ID)
		assert.Equal(t, int64(750000), summary.UnallocatedShares)
	})

	t.Run("admin creates and deletes holder", func(t *testing.T) {
		resp, body, err := ts.PostJSON("/holders", adminToken, map[string]interface{}{
			"email":       "new.holder@example.com",
			"name":        "Grace Hopper",
			"password":    "NewHolderPass123!",
			"share_count": 50000,
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(body, &created))
		require.NotEmpty(t, created.ID)

		// Duplicate email is rejected
		resp, _, err = ts.PostJSON("/holders", adminToken, map[string]interface{}{
			"email":       "new.holder@example.com",
			"name":        "Grace Hopper",
			"password":    "NewHolderPass123!",
			"share_count": 0,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		resp, _, err = ts.Delete("/holders/"+created.ID, adminToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("admin cannot be deleted through holder surface", func(t *testing.T) {
		resp, _, err := ts.Delete("/holders/"+admin.ID, adminToken)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		token, resp := login(t, "holder@example.com", holderPassword)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _, err := ts.PostJSON("/auth/logout", token, nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _, err = ts.GetJSON("/me/holding", token)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("lockout rejects correct password after five failures", func(t *testing.T) {
		victim, err := SeedHolder(ctx, testDB.Pool, "victim@example.com", "Victim Holder", holderPassword, 0)
		require.NoError(t, err)
		_ = victim

		require.NoError(t, SeedFailedLogins(ctx, testDB.Pool, "victim@example.com", "192.0.2.1", 4, 0))

		_, resp := login(t, "victim@example.com", holderPassword)
		assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	})
}
