package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/compartmentdesk/backend/src/bondcalc"
	"github.com/username/compartmentdesk/backend/src/cache"
	"github.com/username/compartmentdesk/backend/src/database"
	"github.com/username/compartmentdesk/backend/src/jobs"
	"github.com/username/compartmentdesk/backend/src/models"
	"github.com/username/compartmentdesk/backend/src/processors"
	"github.com/username/compartmentdesk/backend/src/security"
	"github.com/username/compartmentdesk/backend/src/services"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	router http.Handler
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	conn, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	svc := services.NewBuySellService(
		conn,
		processors.NewTradeProcessor(bondcalc.DefaultSettings()),
		processors.NewPositionProcessor(),
		cache.NewMemory(time.Minute),
		time.Minute,
	)
	auth := security.NewAuthService(testSecret, time.Hour)
	token, err := auth.GenerateToken("desk-user")
	require.NoError(t, err)

	isinHandler := NewIsinHandler(svc)
	buySellHandler := NewBuySellHandler(svc)
	ciHandler := NewCouponInterestHandler(svc)
	uploadHandler := NewUploadHandler(svc, 1<<20)
	calcHandler := NewCalcHandler(svc)
	jobHandler := NewJobHandler(jobs.NewRunner(conn, svc))

	r := chi.NewRouter()
	r.Use(ContextualLoggerMiddleware)
	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(auth))
		r.Get("/isins", isinHandler.HandleListIsins)
		r.Get("/isins/check", isinHandler.HandleCheckIsin)
		r.Post("/isins", isinHandler.HandleCreateIsin)
		r.Get("/isins/{isinID}", isinHandler.HandleGetIsin)
		r.Get("/isins/{isinID}/buysell", buySellHandler.HandleGetBuySellView)
		r.Get("/isins/{isinID}/coupon-dates", buySellHandler.HandleGetCouponDates)
		r.Post("/isins/{isinID}/trades", buySellHandler.HandleCreateTrade)
		r.Post("/isins/{isinID}/trades/recalculate", buySellHandler.HandleRecalculate)
		r.Post("/isins/{isinID}/trades/import", uploadHandler.HandleImportTrades)
		r.Put("/trades/{tradeID}", buySellHandler.HandleUpdateTrade)
		r.Delete("/trades/{tradeID}", buySellHandler.HandleDeleteTrade)
		r.Get("/isins/{isinID}/coupon-interests", ciHandler.HandleList)
		r.Post("/isins/{isinID}/coupon-interests", ciHandler.HandleCreate)
		r.Patch("/coupon-interests/{id}/interest-rate", ciHandler.HandleUpdateInterestRate)
		r.Patch("/coupon-interests/{id}/coupon-rate", ciHandler.HandleUpdateCouponRate)
		r.Delete("/coupon-interests/{id}", ciHandler.HandleDelete)
		r.Post("/calc/economics", calcHandler.HandleEconomics)
		r.Post("/jobs/{name}/run", jobHandler.HandleRunJob)
	})
	return &testServer{router: r, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) seed(t *testing.T) models.Isin {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/isins", models.Isin{
		IsinNumber:        "PTD123456781",
		IssuePrice:        100,
		CurrencyShortName: "EUR",
		IssueDate:         "2024-01-15",
		MaturityDate:      "2025-01-15",
		CouponFrequency:   "Semi-Annually",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	isin := decode[models.Isin](t, rec)

	rec = s.do(t, http.MethodPost, "/api/isins/"+isin.ID+"/coupon-interests", map[string]any{
		"interest_rate": 5, "event_date": "2024-07-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return isin
}

var buyTrade = map[string]any{
	"trade_type":    "Buy",
	"trade_date":    "2024-07-10",
	"value_date":    "2024-08-01",
	"notional":      1_000_000,
	"price_clean":   99.5,
	"tranfee":       0.001,
	"counterparty":  "Bank A",
	"bank_investor": "Investor B",
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/isins", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/api/isins", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIsinEndpoints(t *testing.T) {
	s := newTestServer(t)
	isin := s.seed(t)

	rec := s.do(t, http.MethodGet, "/api/isins", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Isin](t, rec), 1)

	rec = s.do(t, http.MethodGet, "/api/isins/"+isin.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[models.Isin](t, rec).CouponInterests, 1)

	rec = s.do(t, http.MethodGet, "/api/isins/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/isins", models.Isin{IsinNumber: "PTD123456782"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/isins", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckIsinEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/isins/check?value=ptd12345678", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[IsinCheckResponse](t, rec)
	assert.True(t, resp.Valid)
	assert.Equal(t, "PTD123456781", resp.Completed)
	assert.Equal(t, "PT D 12345678 1", resp.Formatted)

	rec = s.do(t, http.MethodGet, "/api/isins/check?value=PTD123456782", nil)
	resp = decode[IsinCheckResponse](t, rec)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Error, "check digit")
}

func TestTradeEndpoints(t *testing.T) {
	s := newTestServer(t)
	isin := s.seed(t)

	rec := s.do(t, http.MethodPost, "/api/isins/"+isin.ID+"/trades", buyTrade)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decode[models.TradeTransaction](t, rec)
	assert.Equal(t, 16, tx.DaysAccrued)
	assert.InDelta(t, 2222.2222, tx.AccruedCurrency, 1e-3)
	assert.InDelta(t, 998_222.2222, tx.SettlementAmount, 1e-3)

	rec = s.do(t, http.MethodGet, "/api/isins/"+isin.ID+"/buysell", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[services.BuySellView](t, rec)
	require.Len(t, view.Transactions, 1)
	assert.Len(t, view.CouponDates, 3)
	assert.Empty(t, view.Warnings)

	rec = s.do(t, http.MethodGet, "/api/isins/"+isin.ID+"/coupon-dates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.CouponDate](t, rec), 3)

	update := map[string]any{}
	for k, v := range buyTrade {
		update[k] = v
	}
	update["notional"] = 500_000
	rec = s.do(t, http.MethodPut, "/api/trades/"+tx.ID, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.TradeTransaction](t, rec)
	assert.InDelta(t, 1111.1111, updated.AccruedCurrency, 1e-3)
	assert.Equal(t, models.TranStatusModified, updated.TranStatus)

	rec = s.do(t, http.MethodDelete, "/api/trades/"+tx.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/trades/"+tx.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	xss := map[string]any{}
	for k, v := range buyTrade {
		xss[k] = v
	}
	xss["reference"] = `<script>alert(1)</script>`
	rec = s.do(t, http.MethodPost, "/api/isins/"+isin.ID+"/trades", xss)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bad := map[string]any{"trade_type": "Hold"}
	rec = s.do(t, http.MethodPost, "/api/isins/"+isin.ID+"/trades", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecalculateEndpoint(t *testing.T) {
	s := newTestServer(t)
	isin := s.seed(t)

	rec := s.do(t, http.MethodPost, "/api/isins/"+isin.ID+"/trades/recalculate", RecalculateRequest{
		Transaction: models.TradeTransaction{Trade: models.Trade{
			TradeDate:  "2024-07-10",
			ValueDate:  "2024-08-01",
			Notional:   1_000_000,
			PriceClean: 99.5,
			TranFee:    0.001,
		}},
		Field: "value_date",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tx := decode[models.TradeTransaction](t, rec)
	assert.Equal(t, 16, tx.DaysAccrued)
	assert.InDelta(t, 99.82222, tx.PriceDirty, 1e-4)
}

func TestCouponInterestEndpoints(t *testing.T) {
	s := newTestServer(t)
	isin := s.seed(t)

	rec := s.do(t, http.MethodGet, "/api/isins/"+isin.ID+"/coupon-interests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]models.CouponInterest](t, rec)
	require.Len(t, history, 1)
	id := history[0].ID

	rec = s.do(t, http.MethodPatch, "/api/coupon-interests/"+id+"/interest-rate", map[string]any{"rate": 6})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodPatch, "/api/coupon-interests/"+id+"/coupon-rate", map[string]any{"rate": 0.5})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodPatch, "/api/coupon-interests/"+id+"/coupon-rate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/isins/"+isin.ID+"/coupon-interests", nil)
	history = decode[[]models.CouponInterest](t, rec)
	assert.Equal(t, 6.0, history[0].InterestRate)
	assert.Equal(t, 0.5, history[0].CouponRate)

	rec = s.do(t, http.MethodDelete, "/api/coupon-interests/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodPatch, "/api/coupon-interests/"+id+"/interest-rate", map[string]any{"rate": 6})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalcEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/calc/economics", map[string]any{
		"issue_date":       "2024-01-15",
		"maturity_date":    "2025-01-15",
		"coupon_frequency": "Semi-Annually",
		"trade":            buyTrade,
		"coupon_interests": []map[string]any{{"interest_rate": 5, "event_date": "2024-07-01", "status": 1}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	econ := decode[bondcalc.Economics](t, rec)
	assert.Equal(t, 16, econ.DaysAccrued)
	assert.InDelta(t, 998_222.2222, econ.SettlementAmount, 1e-3)
}

func TestImportEndpoint(t *testing.T) {
	s := newTestServer(t)
	isin := s.seed(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="blotter.csv"`)
	h.Set("Content-Type", "text/csv")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(strings.Join([]string{
		"trade_type,trade_date,value_date,notional,price_clean,tranfee,counterparty,bank_investor",
		"Buy,2024-07-10,2024-08-01,1000000,99.5,0.001,Bank A,Investor B",
	}, "\n")))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/isins/"+isin.ID+"/trades/import", &body)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.ImportResult](t, rec)
	assert.Equal(t, 1, res.Imported)

	rec = s.do(t, http.MethodPost, "/api/isins/"+isin.ID+"/trades/import", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobEndpoint(t *testing.T) {
	s := newTestServer(t)
	isin := s.seed(t)

	rec := s.do(t, http.MethodPost, "/api/jobs/"+jobs.UpdateCompartmentStatus2Maturity+"/run?date=2025-01-15", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[jobRunResponse](t, rec)
	assert.Equal(t, int64(1), res.Affected)
	assert.Equal(t, "2025-01-15", res.AsOf)

	rec = s.do(t, http.MethodGet, "/api/isins/"+isin.ID, nil)
	assert.Equal(t, models.IsinStatusMatured, decode[models.Isin](t, rec).Status)

	rec = s.do(t, http.MethodPost, "/api/jobs/Nope/run", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/jobs/"+jobs.UpdateCouponInterestRate+"/run?date=15/01/2025", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
