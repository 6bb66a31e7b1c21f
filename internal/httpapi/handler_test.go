package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/cart-checkout/internal/domain"
	"github.com/nikolayk812/cart-checkout/internal/engine"
	"github.com/nikolayk812/cart-checkout/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/currency"
)

const ownerID = "8d2f4c1a-5b6e-4f7a-9c0d-1e2f3a4b5c6d"

var productID = uuid.MustParse("0b9c8f6e-1d2a-4e3b-8c7d-6f5e4d3c2b1a")

type serviceMock struct {
	result service.CheckoutResult
	err    error

	hasDeadline bool

	ownerID  string
	key      domain.LineKey
	quantity int
	code     string
}

func (m *serviceMock) Checkout(ctx context.Context, ownerID string) (service.CheckoutResult, error) {
	_, m.hasDeadline = ctx.Deadline()
	m.ownerID = ownerID
	return m.result, m.err
}

func (m *serviceMock) AddLine(_ context.Context, ownerID string, key domain.LineKey, quantity int) (service.CheckoutResult, error) {
	m.ownerID, m.key, m.quantity = ownerID, key, quantity
	return m.result, m.err
}

func (m *serviceMock) SetQuantity(_ context.Context, ownerID string, key domain.LineKey, quantity int) (service.CheckoutResult, error) {
	m.ownerID, m.key, m.quantity = ownerID, key, quantity
	return m.result, m.err
}

func (m *serviceMock) RemoveLine(_ context.Context, ownerID string, key domain.LineKey) (service.CheckoutResult, error) {
	m.ownerID, m.key = ownerID, key
	return m.result, m.err
}

func (m *serviceMock) ApplyCoupon(_ context.Context, ownerID, code string) (service.CheckoutResult, error) {
	m.ownerID, m.code = ownerID, code
	return m.result, m.err
}

func (m *serviceMock) RemoveCoupon(_ context.Context, ownerID string) (service.CheckoutResult, error) {
	m.ownerID = ownerID
	return m.result, m.err
}

type invalidatorMock struct {
	ids []uuid.UUID
	err error
}

func (m *invalidatorMock) Invalidate(_ context.Context, ids ...uuid.UUID) error {
	m.ids = append(m.ids, ids...)
	return m.err
}

func newTestRouter(t *testing.T, svc CheckoutService) http.Handler {
	return newTestRouterWithCache(t, svc, &invalidatorMock{})
}

func newTestRouterWithCache(t *testing.T, svc CheckoutService, cache CatalogInvalidator) http.Handler {
	logger := zaptest.NewLogger(t)
	return NewRouter(NewCartHandler(svc, logger), NewCatalogHandler(cache, logger), 5*time.Second, logger)
}

func serve(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(method, target, &buf))
	return recorder
}

func sampleResult() service.CheckoutResult {
	tnd := currency.MustParseISO("TND")
	key := domain.LineKey{ProductID: productID, VariantID: "white", SizeLabel: "M"}

	return service.CheckoutResult{
		Version: 4,
		Lines: []domain.CartLine{{
			ProductID: productID,
			VariantID: "white",
			SizeLabel: "M",
			Quantity:  2,
			Name:      "Linen shirt",
			UnitPrice: decimal.RequireFromString("64"),
			Category:  "tops",
			Stock:     1,
		}},
		Verdicts: engine.StockVerdict{
			PerLine: map[domain.LineKey]engine.LineVerdict{
				key: {Key: key, Available: false, Source: engine.StockSourceLocal, LocalStock: 1},
			},
			Blocking: true,
		},
		Summary: domain.CheckoutSummary{
			Subtotal:        domain.NewMoney(decimal.RequireFromString("128"), tnd),
			CouponDiscount:  domain.NewMoney(decimal.Zero, tnd),
			ShippingFee:     domain.NewMoney(decimal.RequireFromString("7"), tnd),
			Total:           domain.NewMoney(decimal.RequireFromString("135"), tnd),
			OutOfStockLines: []domain.LineKey{key},
			BlockReason:     domain.BlockReasonOutOfStock,
		},
		EstimatedDeliveryTime: "2-3 days",
	}
}

func TestGetCheckout_Success(t *testing.T) {
	svc := &serviceMock{result: sampleResult()}
	router := newTestRouter(t, svc)

	recorder := serve(t, router, http.MethodGet, "/api/v1/carts/"+ownerID+"/checkout", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, ownerID, svc.ownerID)
	assert.True(t, svc.hasDeadline, "request timeout comes from the router middleware")

	var response checkoutResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))

	assert.Equal(t, int64(4), response.Version)
	require.Len(t, response.Lines, 1)
	assert.False(t, response.Lines[0].Available)
	assert.Equal(t, "local", response.Lines[0].StockSource)
	assert.Equal(t, "64", response.Lines[0].UnitPrice)
	assert.Equal(t, moneyDTO{Amount: "135.000", Currency: "TND"}, response.Summary.Total)
	assert.Equal(t, "out_of_stock", response.Summary.BlockReason)
	assert.NotEmpty(t, response.Summary.BlockMessage)
	assert.False(t, response.Summary.EligibleForCheckout)
	require.Len(t, response.Summary.OutOfStockLines, 1)
	assert.Equal(t, productID.String(), response.Summary.OutOfStockLines[0].ProductID)
	assert.Nil(t, response.Coupon)
	assert.Empty(t, response.Removed)
}

func TestAddLine(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "valid line",
			body:       lineRequestDTO{ProductID: productID.String(), VariantID: "white", SizeLabel: "M", Quantity: 2},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "invalid product id",
			body:       lineRequestDTO{ProductID: "42", Quantity: 1},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_product_id",
		},
		{
			name:       "zero quantity",
			body:       lineRequestDTO{ProductID: productID.String(), Quantity: 0},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_quantity",
		},
		{
			name:       "quantity too large",
			body:       lineRequestDTO{ProductID: productID.String(), Quantity: 100},
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_quantity",
		},
		{
			name:       "invalid json",
			body:       "not an object",
			wantStatus: http.StatusBadRequest,
			wantCode:   "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &serviceMock{result: sampleResult()}
			router := newTestRouter(t, svc)

			recorder := serve(t, router, http.MethodPost, "/api/v1/carts/"+ownerID+"/lines", tt.body)
			require.Equal(t, tt.wantStatus, recorder.Code)

			if tt.wantCode != "" {
				var response ErrorResponse
				require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
				assert.Equal(t, tt.wantCode, response.Code)
				assert.NotEmpty(t, response.Details)
				return
			}

			assert.Equal(t, domain.LineKey{ProductID: productID, VariantID: "white", SizeLabel: "M"}, svc.key)
			assert.Equal(t, 2, svc.quantity)
		})
	}
}

func TestSetQuantity_ZeroIsAccepted(t *testing.T) {
	svc := &serviceMock{result: sampleResult()}
	router := newTestRouter(t, svc)

	recorder := serve(t, router, http.MethodPut, "/api/v1/carts/"+ownerID+"/lines",
		lineRequestDTO{ProductID: productID.String(), Quantity: 0})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, svc.quantity)

	recorder = serve(t, router, http.MethodPut, "/api/v1/carts/"+ownerID+"/lines",
		lineRequestDTO{ProductID: productID.String(), Quantity: -1})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRemoveLine_QueryKey(t *testing.T) {
	svc := &serviceMock{result: sampleResult()}
	router := newTestRouter(t, svc)

	target := fmt.Sprintf("/api/v1/carts/%s/lines?product_id=%s&variant_id=white&size_label=M", ownerID, productID)
	recorder := serve(t, router, http.MethodDelete, target, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, domain.LineKey{ProductID: productID, VariantID: "white", SizeLabel: "M"}, svc.key)
}

func TestApplyCoupon(t *testing.T) {
	svc := &serviceMock{result: sampleResult()}
	router := newTestRouter(t, svc)

	recorder := serve(t, router, http.MethodPost, "/api/v1/carts/"+ownerID+"/coupon", couponRequestDTO{Code: "SUMMER"})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "SUMMER", svc.code)

	recorder = serve(t, router, http.MethodDelete, "/api/v1/carts/"+ownerID+"/coupon", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus  int
		wantCode    string
		wantError   string
		wantDetails string
	}{
		{
			name:        "coupon rejection",
			err:         &engine.CouponRejection{Reason: engine.RejectionNotApplicable, Message: "not for this cart"},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "not_applicable",
			wantError:   "not for this cart",
			wantDetails: "not_applicable",
		},
		{
			name: "coupon verification failed",
			err: &engine.CouponRejection{
				Reason:  engine.RejectionVerificationFailed,
				Message: "We could not verify this coupon. Please try again.",
				Err:     errors.New("validator.ValidateCoupon: circuit breaker is open"),
			},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    "verification_failed",
			wantDetails: "validator.ValidateCoupon: circuit breaker is open",
		},
		{
			name:       "stale cart",
			err:        fmt.Errorf("recompute: %w", service.ErrStaleCartVersion),
			wantStatus: http.StatusConflict,
			wantCode:   "stale_cart",
		},
		{
			name:        "line not found",
			err:         fmt.Errorf("line: %w", service.ErrLineNotFound),
			wantStatus:  http.StatusNotFound,
			wantCode:    "line_not_found",
			wantDetails: "line: cart line not found",
		},
		{
			name:       "variant not found",
			err:        fmt.Errorf("product: %w", engine.ErrVariantNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "variant_not_found",
		},
		{
			name:       "collaborator down",
			err:        errors.New("catalog.Products: connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "checkout_unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &serviceMock{err: tt.err})

			recorder := serve(t, router, http.MethodGet, "/api/v1/carts/"+ownerID+"/checkout", nil)
			require.Equal(t, tt.wantStatus, recorder.Code)

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
			assert.Equal(t, tt.wantCode, response.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, response.Error)
			}
			if tt.wantDetails != "" {
				assert.Equal(t, tt.wantDetails, response.Details)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	recorder := serve(t, newTestRouter(t, &serviceMock{}), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestInvalidateCatalog(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		cacheErr   error
		wantStatus int
		wantIDs    []uuid.UUID
	}{
		{
			name:       "valid ids",
			body:       invalidateRequestDTO{ProductIDs: []string{productID.String()}},
			wantStatus: http.StatusNoContent,
			wantIDs:    []uuid.UUID{productID},
		},
		{
			name:       "empty ids",
			body:       invalidateRequestDTO{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid id",
			body:       invalidateRequestDTO{ProductIDs: []string{"42"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "redis down",
			body:       invalidateRequestDTO{ProductIDs: []string{productID.String()}},
			cacheErr:   errors.New("redis delete failed: connection refused"),
			wantStatus: http.StatusServiceUnavailable,
			wantIDs:    []uuid.UUID{productID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &invalidatorMock{err: tt.cacheErr}
			router := newTestRouterWithCache(t, &serviceMock{}, cache)

			recorder := serve(t, router, http.MethodPost, "/api/v1/catalog/invalidate", tt.body)
			require.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantIDs, cache.ids)
		})
	}
}
