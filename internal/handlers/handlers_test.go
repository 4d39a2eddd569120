package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/movelane/payments/internal/health"
	"github.com/movelane/payments/internal/models"
	"github.com/movelane/payments/internal/service"
	"github.com/movelane/payments/internal/webhook"
)

type fakePayments struct {
	result  *service.InitiatePaymentResult
	initErr error
	txn     *models.PaymentTransaction
	getErr  error
}

func (f *fakePayments) Initiate(context.Context, service.InitiatePaymentRequest) (*service.InitiatePaymentResult, error) {
	return f.result, f.initErr
}

func (f *fakePayments) GetByCheckoutID(context.Context, string) (*models.PaymentTransaction, error) {
	return f.txn, f.getErr
}

func (f *fakePayments) GetByExternalRef(context.Context, string) (*models.PaymentTransaction, error) {
	return f.txn, f.getErr
}

type fakeRefunds struct {
	refund  *models.RefundTransaction
	initErr error
	list    []*models.RefundTransaction
	listErr error
}

func (f *fakeRefunds) Initiate(context.Context, string, int64, string, string) (*models.RefundTransaction, error) {
	return f.refund, f.initErr
}

func (f *fakeRefunds) ListByCheckoutID(context.Context, string) ([]*models.RefundTransaction, error) {
	return f.list, f.listErr
}

type fakeWebhooks struct {
	outcome service.ProcessOutcome
	err     error
	body    []byte
}

func (f *fakeWebhooks) Process(_ context.Context, body []byte, _ http.Header) (service.ProcessOutcome, error) {
	f.body = body
	return f.outcome, f.err
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

type fakeMonitor struct{ snap health.Snapshot }

func (f fakeMonitor) Snapshot() health.Snapshot { return f.snap }

type testDeps struct {
	payments *fakePayments
	refunds  *fakeRefunds
	webhooks *fakeWebhooks
	pinger   fakePinger
	monitor  fakeMonitor
}

func newTestServer(t *testing.T, deps testDeps) http.Handler {
	t.Helper()
	if deps.payments == nil {
		deps.payments = &fakePayments{}
	}
	if deps.refunds == nil {
		deps.refunds = &fakeRefunds{}
	}
	if deps.webhooks == nil {
		deps.webhooks = &fakeWebhooks{}
	}
	return NewRouter(deps.payments, deps.payments, deps.refunds, deps.webhooks,
		deps.pinger, deps.monitor, slog.Default())
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreatePayment(t *testing.T) {
	reqBody := map[string]any{
		"external_reference": "booking-1",
		"customer_id":        "cust_1",
		"amount_cents":       10000,
		"currency":           "ZAR",
	}

	t.Run("created", func(t *testing.T) {
		router := newTestServer(t, testDeps{payments: &fakePayments{
			result: &service.InitiatePaymentResult{Transaction: &models.PaymentTransaction{
				CheckoutID:  "chk_1",
				ExternalRef: "booking-1",
				Status:      models.PaymentStatusCreated,
				AmountCents: 10000,
				Currency:    "ZAR",
				RedirectURL: "https://pay.test/chk_1",
			}},
		}})

		rec := doJSON(t, router, http.MethodPost, "/payments", reqBody)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Idempotent-Replayed"))

		var resp paymentResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "chk_1", resp.CheckoutID)
		assert.Equal(t, "https://pay.test/chk_1", resp.RedirectURL)
	})

	t.Run("idempotent replay", func(t *testing.T) {
		router := newTestServer(t, testDeps{payments: &fakePayments{
			result: &service.InitiatePaymentResult{
				Transaction: &models.PaymentTransaction{CheckoutID: "chk_1"},
				Replayed:    true,
			},
		}})

		rec := doJSON(t, router, http.MethodPost, "/payments", reqBody)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "true", rec.Header().Get("X-Idempotent-Replayed"))
	})

	t.Run("invalid body", func(t *testing.T) {
		router := newTestServer(t, testDeps{})

		req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		router := newTestServer(t, testDeps{payments: &fakePayments{
			initErr: &service.ServiceError{Code: service.ErrCodeInvalidAmount, Message: "amount must be positive"},
		}})

		rec := doJSON(t, router, http.MethodPost, "/payments", reqBody)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), service.ErrCodeInvalidAmount)
	})

	t.Run("throttle maps to 429", func(t *testing.T) {
		router := newTestServer(t, testDeps{payments: &fakePayments{
			initErr: &service.ServiceError{Code: service.ErrCodeThrottled, Message: "too many attempts"},
		}})

		rec := doJSON(t, router, http.MethodPost, "/payments", reqBody)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("provider failure maps to 502", func(t *testing.T) {
		router := newTestServer(t, testDeps{payments: &fakePayments{
			initErr: &service.ServiceError{Code: service.ErrCodeProviderError, Message: "provider rejected checkout creation"},
		}})

		rec := doJSON(t, router, http.MethodPost, "/payments", reqBody)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("unexpected error is masked as internal", func(t *testing.T) {
		router := newTestServer(t, testDeps{payments: &fakePayments{
			initErr: errors.New("pq: connection reset"),
		}})

		rec := doJSON(t, router, http.MethodPost, "/payments", reqBody)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "pq:")
	})
}

func TestGetPayment(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		router := newTestServer(t, testDeps{payments: &fakePayments{
			txn: &models.PaymentTransaction{CheckoutID: "chk_1", Status: models.PaymentStatusSucceeded},
		}})

		rec := doJSON(t, router, http.MethodGet, "/payments/chk_1", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "SUCCEEDED")
	})

	t.Run("not found", func(t *testing.T) {
		router := newTestServer(t, testDeps{payments: &fakePayments{
			getErr: &service.ServiceError{Code: service.ErrCodePaymentNotFound, Message: "payment not found"},
		}})

		rec := doJSON(t, router, http.MethodGet, "/payments/chk_ghost", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListPayments(t *testing.T) {
	t.Run("requires external_reference", func(t *testing.T) {
		router := newTestServer(t, testDeps{})

		rec := doJSON(t, router, http.MethodGet, "/payments", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("returns latest transaction for reference", func(t *testing.T) {
		router := newTestServer(t, testDeps{payments: &fakePayments{
			txn: &models.PaymentTransaction{CheckoutID: "chk_2", ExternalRef: "booking-7"},
		}})

		rec := doJSON(t, router, http.MethodGet, "/payments?external_reference=booking-7", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "chk_2")
	})
}

func TestCreateRefund(t *testing.T) {
	body := map[string]any{"amount_cents": 5000, "reason": "customer request", "initiator": "support"}

	t.Run("created", func(t *testing.T) {
		router := newTestServer(t, testDeps{refunds: &fakeRefunds{
			refund: &models.RefundTransaction{
				ProviderRefundID: "rf_1",
				Status:           models.RefundStatusPending,
				AmountCents:      5000,
				Currency:         "ZAR",
			},
		}})

		rec := doJSON(t, router, http.MethodPost, "/payments/chk_1/refunds", body)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "rf_1")
	})

	t.Run("not refundable maps to 409", func(t *testing.T) {
		router := newTestServer(t, testDeps{refunds: &fakeRefunds{
			initErr: &service.ServiceError{Code: service.ErrCodePaymentNotRefundable, Message: "payment in status PENDING cannot be refunded"},
		}})

		rec := doJSON(t, router, http.MethodPost, "/payments/chk_1/refunds", body)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("exceeds remaining maps to 409", func(t *testing.T) {
		router := newTestServer(t, testDeps{refunds: &fakeRefunds{
			initErr: &service.ServiceError{Code: service.ErrCodeRefundExceedsRemaining, Message: "refund amount exceeds remaining"},
		}})

		rec := doJSON(t, router, http.MethodPost, "/payments/chk_1/refunds", body)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestListRefunds(t *testing.T) {
	router := newTestServer(t, testDeps{refunds: &fakeRefunds{
		list: []*models.RefundTransaction{
			{ProviderRefundID: "rf_1", Status: models.RefundStatusSucceeded},
			{ProviderRefundID: "rf_2", Status: models.RefundStatusPending},
		},
	}})

	rec := doJSON(t, router, http.MethodGet, "/payments/chk_1/refunds", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp []refundResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestReceiveWebhook(t *testing.T) {
	post := func(router http.Handler, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("recorded event is acknowledged", func(t *testing.T) {
		webhooks := &fakeWebhooks{outcome: service.OutcomeRecorded}
		router := newTestServer(t, testDeps{webhooks: webhooks})

		rec := post(router, `{"id":"evt_1","type":"payment.succeeded"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
		assert.Equal(t, `{"id":"evt_1","type":"payment.succeeded"}`, string(webhooks.body))
	})

	t.Run("duplicate is acknowledged identically", func(t *testing.T) {
		router := newTestServer(t, testDeps{webhooks: &fakeWebhooks{outcome: service.OutcomeDuplicate}})

		rec := post(router, `{"id":"evt_1","type":"payment.succeeded"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	})

	t.Run("malformed event maps to 400", func(t *testing.T) {
		router := newTestServer(t, testDeps{webhooks: &fakeWebhooks{
			outcome: service.OutcomeRejected,
			err:     service.ErrMalformedEvent,
		}})

		rec := post(router, "not json")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("signature failure maps to 401", func(t *testing.T) {
		for _, sigErr := range []error{
			webhook.ErrMissingHeaders,
			webhook.ErrMalformedTimestamp,
			webhook.ErrStaleTimestamp,
			webhook.ErrBadSignature,
		} {
			router := newTestServer(t, testDeps{webhooks: &fakeWebhooks{
				outcome: service.OutcomeRejected,
				err:     sigErr,
			}})

			rec := post(router, `{"id":"evt_1"}`)

			assert.Equal(t, http.StatusUnauthorized, rec.Code, sigErr.Error())
		}
	})

	t.Run("record failure maps to 500 so the provider redelivers", func(t *testing.T) {
		router := newTestServer(t, testDeps{webhooks: &fakeWebhooks{
			outcome: service.OutcomeRejected,
			err:     errors.New("insert failed"),
		}})

		rec := post(router, `{"id":"evt_1"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestGetHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router := newTestServer(t, testDeps{})

		rec := doJSON(t, router, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "healthy")
	})

	t.Run("database unreachable", func(t *testing.T) {
		router := newTestServer(t, testDeps{pinger: fakePinger{err: errors.New("dial tcp: refused")}})

		rec := doJSON(t, router, http.MethodGet, "/health", nil)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGetPaymentsHealth(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	router := newTestServer(t, testDeps{monitor: fakeMonitor{snap: health.Snapshot{
		At:        at,
		Succeeded: 10,
		Failed:    1,
	}}})

	rec := doJSON(t, router, http.MethodGet, "/internal/payments/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var snap health.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, int64(10), snap.Succeeded)
	assert.True(t, snap.At.Equal(at))
}
