package sales

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mandi-backend/internal/auth"
	"mandi-backend/internal/config"
	"mandi-backend/internal/ledger"
	"mandi-backend/internal/models"
	"mandi-backend/internal/realtime"
	"mandi-backend/internal/receipt"
	"mandi-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "owner-1"

type testEnv struct {
	app   *fiber.App
	store *store.MemoryStore
	fruit *models.Fruit
	ravi  *models.Customer
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	st := store.NewMemoryStore()
	svc := ledger.NewService(st, realtime.NewHub(log), log, config.OverpaymentReject)
	f := receipt.NewFormatter("Green Mandi", time.UTC)
	d := receipt.NewDispatcher("https://wa.me", "IN")

	ctx := context.Background()
	fruit := &models.Fruit{Name: "Apple", PricePerKg: decimal.NewFromInt(50), Unit: models.UnitKg}
	require.NoError(t, st.CreateFruit(ctx, fruit))
	phone := "+16502530000"
	ravi := &models.Customer{OwnerID: owner, Name: "Ravi", Phone: &phone, Balance: decimal.Zero, Visible: true}
	require.NoError(t, st.CreateCustomer(ctx, ravi))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	api := app.Group("/api", func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id != "" {
			c.Locals(auth.CtxUserIDKey, id)
		}
		return c.Next()
	})
	api.Post("/transactions", CreateSaleHandler(svc, log))
	api.Get("/transactions", ListSalesHandler(st, log))
	api.Get("/transactions/:id", GetSaleHandler(st, log))
	api.Put("/transactions/:id/payment", UpdatePaymentHandler(svc, log))
	api.Post("/transactions/:id/cancel", CancelSaleHandler(svc, log))
	api.Get("/transactions/:id/receipt", ReceiptHandler(st, f, log))
	api.Post("/transactions/:id/receipt/send", SendReceiptHandler(st, f, d, log))

	return &testEnv{app: app, store: st, fruit: fruit, ravi: ravi}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", owner)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

type createResponse struct {
	Transaction     models.SaleTransaction  `json:"transaction"`
	CustomerBalance decimal.Decimal         `json:"customer_balance"`
	Tray            *models.TrayTransaction `json:"tray_transaction"`
}

func (e *testEnv) createSale(t *testing.T, body fiber.Map) createResponse {
	t.Helper()
	resp, out := e.do(t, http.MethodPost, "/api/transactions", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(out))
	var cr createResponse
	require.NoError(t, json.Unmarshal(out, &cr))
	return cr
}

func TestCreateSaleAndSettle(t *testing.T) {
	e := newEnv(t)

	cr := e.createSale(t, fiber.Map{
		"customer_id": e.ravi.ID,
		"fruit_id":    e.fruit.ID,
		"quantity":    "10",
		"rate":        "50",
		"paid_amount": "200",
	})
	assert.True(t, cr.Transaction.TotalAmount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, models.StatusPending, cr.Transaction.Status)
	assert.True(t, cr.CustomerBalance.Equal(decimal.NewFromInt(300)))
	assert.Nil(t, cr.Tray)

	resp, out := e.do(t, http.MethodPut, "/api/transactions/"+cr.Transaction.ID+"/payment", fiber.Map{"paid_amount": "500"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(out))
	var pr struct {
		Transaction     models.SaleTransaction `json:"transaction"`
		BalanceChange   decimal.Decimal        `json:"balance_change"`
		CustomerBalance decimal.Decimal        `json:"customer_balance"`
		Changed         bool                   `json:"changed"`
	}
	require.NoError(t, json.Unmarshal(out, &pr))
	assert.Equal(t, models.StatusCompleted, pr.Transaction.Status)
	assert.True(t, pr.BalanceChange.Equal(decimal.NewFromInt(-300)))
	assert.True(t, pr.CustomerBalance.IsZero())
	assert.True(t, pr.Changed)
}

func TestCreateSaleWithTrays(t *testing.T) {
	e := newEnv(t)
	cr := e.createSale(t, fiber.Map{
		"customer_id":     e.ravi.ID,
		"fruit_id":        e.fruit.ID,
		"quantity":        "4",
		"rate":            "50",
		"number_of_trays": 2,
	})
	require.NotNil(t, cr.Tray)
	assert.Equal(t, 2, cr.Tray.NumberOfTrays)
	assert.True(t, strings.HasPrefix(cr.Tray.TrayNumber, "TXN-"))
	assert.True(t, cr.CustomerBalance.Equal(decimal.NewFromInt(200)))
}

func TestCreateSaleErrors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		body fiber.Map
		code int
	}{
		{"missing fruit", fiber.Map{"customer_id": e.ravi.ID, "quantity": "1", "rate": "1"}, http.StatusBadRequest},
		{"bad pricing mode", fiber.Map{"fruit_id": e.fruit.ID, "quantity": "1", "rate": "1", "pricing_mode": "per_ton"}, http.StatusBadRequest},
		{"zero quantity", fiber.Map{"customer_id": e.ravi.ID, "fruit_id": e.fruit.ID, "quantity": "0", "rate": "1"}, http.StatusBadRequest},
		{"unknown customer", fiber.Map{"customer_id": "nope", "fruit_id": e.fruit.ID, "quantity": "1", "rate": "1"}, http.StatusBadRequest},
		{"overpaid", fiber.Map{"customer_id": e.ravi.ID, "fruit_id": e.fruit.ID, "quantity": "1", "rate": "10", "paid_amount": "11"}, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := e.do(t, http.MethodPost, "/api/transactions", tc.body)
			assert.Equal(t, tc.code, resp.StatusCode, string(out))
			assert.Contains(t, string(out), `"error"`)
		})
	}

	list, err := e.store.ListSales(context.Background(), owner, store.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateSaleValidationMessages(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		body fiber.Map
		want string
	}{
		{"missing fruit", fiber.Map{"quantity": "1", "rate": "1"}, "fruit_id: is required"},
		{"long notes", fiber.Map{"fruit_id": e.fruit.ID, "quantity": "1", "rate": "1", "notes": strings.Repeat("n", 1001)}, "notes: must be at most 1000 characters"},
		{"negative trays", fiber.Map{"fruit_id": e.fruit.ID, "quantity": "1", "rate": "1", "number_of_trays": -1}, "number_of_trays: must be at least 0"},
		{"bad pricing mode", fiber.Map{"fruit_id": e.fruit.ID, "quantity": "1", "rate": "1", "pricing_mode": "per_ton"}, "pricing_mode: must be one of per_kg, per_box"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, out := e.do(t, http.MethodPost, "/api/transactions", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(out))
			var body struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(out, &body))
			assert.Equal(t, tc.want, body.Error)
		})
	}
}

func TestUnauthenticatedRequestTouchesNothing(t *testing.T) {
	e := newEnv(t)
	b, _ := json.Marshal(fiber.Map{"customer_id": e.ravi.ID, "fruit_id": e.fruit.ID, "quantity": "1", "rate": "1"})
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	list, err := e.store.ListSales(context.Background(), owner, store.SaleFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListAndCancel(t *testing.T) {
	e := newEnv(t)
	first := e.createSale(t, fiber.Map{"customer_id": e.ravi.ID, "fruit_id": e.fruit.ID, "quantity": "1", "rate": "100"})
	e.createSale(t, fiber.Map{"customer_id": e.ravi.ID, "fruit_id": e.fruit.ID, "quantity": "1", "rate": "40", "paid_amount": "40"})

	resp, out := e.do(t, http.MethodPost, "/api/transactions/"+first.Transaction.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(out))

	resp, _ = e.do(t, http.MethodPost, "/api/transactions/"+first.Transaction.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, out = e.do(t, http.MethodGet, "/api/transactions?status=cancelled", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.SaleTransaction
	require.NoError(t, json.Unmarshal(out, &list))
	require.Len(t, list, 1)
	assert.Equal(t, first.Transaction.ID, list[0].ID)

	resp, _ = e.do(t, http.MethodGet, "/api/transactions?status=lost", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	c, err := e.store.GetCustomer(context.Background(), owner, e.ravi.ID)
	require.NoError(t, err)
	assert.True(t, c.Balance.IsZero(), c.Balance.String())
}

func TestGetSaleNotFound(t *testing.T) {
	e := newEnv(t)
	resp, out := e.do(t, http.MethodGet, "/api/transactions/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"record not found"}`, string(out))
}

func TestReceiptEndpoints(t *testing.T) {
	e := newEnv(t)
	cr := e.createSale(t, fiber.Map{"customer_id": e.ravi.ID, "fruit_id": e.fruit.ID, "quantity": "10", "rate": "50", "paid_amount": "200"})
	id := cr.Transaction.ID

	resp, out := e.do(t, http.MethodGet, "/api/transactions/"+id+"/receipt", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(out), "*GREEN MANDI*")
	assert.Contains(t, string(out), "Receipt #"+receipt.ReceiptID(id))
	assert.Contains(t, string(out), "*BALANCE DUE*")

	resp, out = e.do(t, http.MethodGet, "/api/transactions/"+id+"/receipt?format=html", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(out), "Ravi")

	resp, _ = e.do(t, http.MethodGet, "/api/transactions/"+id+"/receipt?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, out = e.do(t, http.MethodPost, "/api/transactions/"+id+"/receipt/send", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(out))
	var share receipt.Share
	require.NoError(t, json.Unmarshal(out, &share))
	assert.Equal(t, "16502530000", share.Phone)
	assert.True(t, strings.HasPrefix(share.URL, "https://wa.me/16502530000?text="))

	resp, _ = e.do(t, http.MethodPost, "/api/transactions/"+id+"/receipt/send", fiber.Map{"phone": "12"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestSendReceiptWithoutPhone(t *testing.T) {
	e := newEnv(t)
	cr := e.createSale(t, fiber.Map{"fruit_id": e.fruit.ID, "quantity": "1", "rate": "30", "paid_amount": "30"})

	resp, out := e.do(t, http.MethodPost, "/api/transactions/"+cr.Transaction.ID+"/receipt/send", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(out), receipt.ErrNoPhone.Error())
}
