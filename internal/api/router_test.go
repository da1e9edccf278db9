package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"finfeathers_tokens/internal/api"
	"finfeathers_tokens/internal/domain"
	"finfeathers_tokens/internal/ledger"
	"finfeathers_tokens/internal/storage"
	"finfeathers_tokens/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logrus.SetLevel(logrus.PanicLevel)
	decimal.MarshalJSONWithoutQuotes = true // USD amounts serialize as JSON numbers
	os.Exit(m.Run())
}

// newTestRouter builds the full route table over an in-memory store, no Redis
func newTestRouter() (*gin.Engine, *storage.Memory) {
	store := storage.NewMemory()
	svc := ledger.New(store)
	return api.Router(store, svc, nil, testSecret), store
}

func seed(t *testing.T, store *storage.Memory, role string, tokens int64, cashoutUSD string) *domain.Account {
	t.Helper()
	account := &domain.Account{
		ID:             uuid.New().String(),
		Name:           "Account " + uuid.New().String()[:8],
		Email:          uuid.New().String() + "@example.com",
		Role:           role,
		TokenBalance:   tokens,
		CashoutBalance: decimal.RequireFromString(cashoutUSD),
	}
	require.NoError(t, store.InsertAccount(context.Background(), account))
	return account
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func adminToken(t *testing.T, store *storage.Memory) string {
	t.Helper()
	admin := seed(t, store, domain.RoleAdmin, 0, "0")
	token, err := utils.GenerateJWT(admin.ID, testSecret)
	require.NoError(t, err)
	return token
}

func TestLogin(t *testing.T) {
	r, store := newTestRouter()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
	require.NoError(t, err)
	username := "frontdesk"
	require.NoError(t, store.InsertAccount(context.Background(), &domain.Account{
		ID:           uuid.New().String(),
		Name:         "Front Desk",
		Email:        "frontdesk@example.com",
		Username:     &username,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}))

	w := doJSON(t, r, http.MethodPost, "/auth/login", gin.H{"username": "frontdesk", "password": "hunter2"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])

	w = doJSON(t, r, http.MethodPost, "/auth/login", gin.H{"username": "frontdesk", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", gin.H{"username": "nobody", "password": "hunter2"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateAndFetchProfile(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/user/profile", gin.H{
		"name":         "Robin",
		"email":        "robin@example.com",
		"avatar_emoji": "🐦",
	})
	require.Equal(t, http.StatusOK, w.Code)
	created := decode(t, w)
	assert.Equal(t, domain.RoleCustomer, created["role"])
	id := created["id"].(string)

	w = doJSON(t, r, http.MethodGet, "/user/profile/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Robin", decode(t, w)["name"])

	w = doJSON(t, r, http.MethodGet, "/user/profile/by-email/robin@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w)["id"])

	// Duplicate email is rejected
	w = doJSON(t, r, http.MethodPost, "/user/profile", gin.H{"name": "Robin Again", "email": "robin@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/user/profile/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProfilePartial(t *testing.T) {
	r, store := newTestRouter()
	account := seed(t, store, domain.RoleCustomer, 0, "0")

	w := doJSON(t, r, http.MethodPut, "/user/profile/"+account.ID, gin.H{
		"avatar_emoji": "🦆",
		"birthdate":    "03-14",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "🦆", body["avatar_emoji"])
	assert.Equal(t, "03-14", body["birthdate"])
	assert.Equal(t, account.Name, body["name"], "unsupplied fields stay put")
}

func TestPurchaseEndpoint(t *testing.T) {
	r, store := newTestRouter()
	customer := seed(t, store, domain.RoleCustomer, 0, "0")

	w := doJSON(t, r, http.MethodPost, "/tokens/purchase/"+customer.ID, gin.H{"amount_usd": 5, "payment_method": "card"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(50), body["new_balance"])

	w = doJSON(t, r, http.MethodPost, "/tokens/purchase/"+customer.ID, gin.H{"payment_method": "card"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/tokens/purchase/"+uuid.New().String(), gin.H{"amount_usd": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBalanceEndpoint(t *testing.T) {
	r, store := newTestRouter()
	staff := seed(t, store, domain.RoleStaff, 120, "7.50")

	w := doJSON(t, r, http.MethodGet, "/tokens/balance/"+staff.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(120), body["token_balance"])
	assert.Equal(t, 7.5, body["cashout_balance"], "USD amounts are JSON numbers")
}

func TestTransferEndpoint(t *testing.T) {
	r, store := newTestRouter()
	customer := seed(t, store, domain.RoleCustomer, 100, "0")
	staff := seed(t, store, domain.RoleStaff, 0, "0")

	w := doJSON(t, r, http.MethodPost, "/tokens/transfer/"+customer.ID, gin.H{
		"to_user_id":    staff.ID,
		"amount":        50,
		"transfer_type": domain.TransferTip,
		"message":       "great service",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(50), body["sender_new_balance"])
	assert.Equal(t, staff.Name, body["recipient_name"])

	// Tip to staff lands in the cashout balance, not tokens
	staffAfter, _ := store.Account(context.Background(), staff.ID)
	assert.Equal(t, int64(0), staffAfter.TokenBalance)
	assert.True(t, staffAfter.CashoutBalance.Equal(decimal.NewFromInt(5)))

	w = doJSON(t, r, http.MethodPost, "/tokens/transfer/"+customer.ID, gin.H{
		"to_user_id": staff.ID,
		"amount":     500,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSpendEndpoint(t *testing.T) {
	r, store := newTestRouter()
	customer := seed(t, store, domain.RoleCustomer, 30, "0")

	w := doJSON(t, r, http.MethodPost, "/tokens/spend/"+customer.ID, gin.H{"amount": 10})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(20), decode(t, w)["new_balance"])

	records, err := store.TransfersByAccount(context.Background(), customer.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.TransferDrink, records[0].TransferType)
}

func TestCheckoutWebhookFlow(t *testing.T) {
	r, store := newTestRouter()
	customer := seed(t, store, domain.RoleCustomer, 0, "0")

	w := doJSON(t, r, http.MethodPost, "/tokens/checkout", gin.H{"user_id": customer.ID, "package_id": "50"})
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := decode(t, w)["session_id"].(string)
	require.NotEmpty(t, sessionID)

	// No credit until the provider confirms
	account, _ := store.Account(context.Background(), customer.ID)
	assert.Equal(t, int64(0), account.TokenBalance)

	w = doJSON(t, r, http.MethodPost, "/webhook/payment", gin.H{"session_id": sessionID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["credited"])

	account, _ = store.Account(context.Background(), customer.ID)
	assert.Equal(t, int64(50), account.TokenBalance)

	// Duplicate notification acknowledges but does not credit again
	w = doJSON(t, r, http.MethodPost, "/webhook/payment", gin.H{"session_id": sessionID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["credited"])
	account, _ = store.Account(context.Background(), customer.ID)
	assert.Equal(t, int64(50), account.TokenBalance)

	w = doJSON(t, r, http.MethodPost, "/tokens/checkout", gin.H{"user_id": customer.ID, "package_id": "999"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/webhook/payment", gin.H{"session_id": "cs_unknown"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaffListEndpoint(t *testing.T) {
	r, store := newTestRouter()
	seed(t, store, domain.RoleCustomer, 0, "0")
	staff := seed(t, store, domain.RoleStaff, 0, "0")

	w := doJSON(t, r, http.MethodGet, "/staff/list", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, staff.ID, entries[0]["id"])
}

func TestCashoutEndpoints(t *testing.T) {
	r, store := newTestRouter()
	staff := seed(t, store, domain.RoleStaff, 0, "25.00")

	w := doJSON(t, r, http.MethodPost, "/staff/cashout/"+staff.ID, gin.H{
		"amount_tokens":   200,
		"payment_method":  "venmo",
		"payment_details": "@tester",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(16), body["payout_amount"])
	assert.Equal(t, float64(5), body["new_cashout_balance"])

	w = doJSON(t, r, http.MethodGet, "/staff/cashout/history/"+staff.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, domain.CashoutPending, history[0]["status"])

	// Below the $20 balance minimum now
	w = doJSON(t, r, http.MethodPost, "/staff/cashout/"+staff.ID, gin.H{
		"amount_tokens":  10,
		"payment_method": "venmo",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	customer := seed(t, store, domain.RoleCustomer, 0, "100.00")
	w = doJSON(t, r, http.MethodPost, "/staff/cashout/"+customer.ID, gin.H{
		"amount_tokens":  200,
		"payment_method": "venmo",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTransferToPersonalEndpoint(t *testing.T) {
	r, store := newTestRouter()
	staff := seed(t, store, domain.RoleStaff, 0, "10.00")

	w := doJSON(t, r, http.MethodPost, "/staff/transfer-to-personal/"+staff.ID+"?amount=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(20), body["tokens_added"])
	assert.Equal(t, float64(8), body["new_cashout_balance"])

	w = doJSON(t, r, http.MethodPost, "/staff/transfer-to-personal/"+staff.ID+"?amount=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/staff/transfer-to-personal/"+staff.ID+"?amount=9999", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	r, store := newTestRouter()

	// No token
	w := doJSON(t, r, http.MethodGet, "/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token
	w = doJSON(t, r, http.MethodGet, "/admin/users", nil, "Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token for a non-admin account
	customer := seed(t, store, domain.RoleCustomer, 0, "0")
	token, err := utils.GenerateJWT(customer.ID, testSecret)
	require.NoError(t, err)
	w = doJSON(t, r, http.MethodGet, "/admin/users", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin gets through
	w = doJSON(t, r, http.MethodGet, "/admin/users", nil, "Authorization", "Bearer "+adminToken(t, store))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, false, body["cached"])
}

func TestAdminGiftEndpoint(t *testing.T) {
	r, store := newTestRouter()
	token := adminToken(t, store)
	customer := seed(t, store, domain.RoleCustomer, 10, "0")

	w := doJSON(t, r, http.MethodPost, "/admin/tokens/gift", gin.H{
		"user_id": customer.ID,
		"tokens":  25,
		"message": "welcome back",
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(35), body["new_balance"])

	gift := body["gift"].(map[string]any)
	assert.Equal(t, "gift", gift["payment_method"])
}

func TestSetRoleEndpoint(t *testing.T) {
	r, store := newTestRouter()
	token := adminToken(t, store)
	customer := seed(t, store, domain.RoleCustomer, 0, "0")

	w := doJSON(t, r, http.MethodPost, "/admin/users/role", gin.H{
		"user_id":     customer.ID,
		"new_role":    domain.RoleStaff,
		"staff_title": "Bartender",
	}, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)

	updated, _ := store.Account(context.Background(), customer.ID)
	assert.Equal(t, domain.RoleStaff, updated.Role)
	assert.Equal(t, "Bartender", updated.StaffTitle)

	w = doJSON(t, r, http.MethodPost, "/admin/users/role", gin.H{
		"user_id":  customer.ID,
		"new_role": "overlord",
	}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessCashoutEndpoint(t *testing.T) {
	r, store := newTestRouter()
	token := adminToken(t, store)
	staff := seed(t, store, domain.RoleStaff, 0, "25.00")
	svc := ledger.New(store)
	result, err := svc.RequestCashout(context.Background(), staff.ID, 200, "venmo", "@tester")
	require.NoError(t, err)

	path := fmt.Sprintf("/admin/cashouts/%s?status=%s", result.Request.ID, domain.CashoutApproved)
	w := doJSON(t, r, http.MethodPut, path, nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, domain.CashoutApproved, body["status"])
	assert.NotNil(t, body["processed_at"])

	w = doJSON(t, r, http.MethodPut, "/admin/cashouts/"+result.Request.ID+"?status=shredded", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/admin/cashouts", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 1)
}

func TestAdminListTransfersEndpoint(t *testing.T) {
	r, store := newTestRouter()
	token := adminToken(t, store)
	sender := seed(t, store, domain.RoleCustomer, 100, "0")
	receiver := seed(t, store, domain.RoleCustomer, 0, "0")
	svc := ledger.New(store)
	_, err := svc.Transfer(context.Background(), sender.ID, receiver.ID, 10, domain.TransferGift, "")
	require.NoError(t, err)
	_, err = svc.Transfer(context.Background(), sender.ID, receiver.ID, 20, domain.TransferGeneric, "")
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/admin/transfers?type=gift", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["total"])
}
