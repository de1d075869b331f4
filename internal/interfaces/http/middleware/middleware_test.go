package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== RequestID ====================

func TestRequestID(t *testing.T) {
	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	t.Run("generates an ID", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("reuses the incoming header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-42", seen)
		assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces oversized IDs", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", MaxRequestIDLength+1))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Len(t, seen, 36)
	})
}

// ==================== Validation ====================

type lineInput struct {
	Quantity  decimal.Decimal  `json:"quantity" binding:"required,decimal_gt0"`
	UnitPrice decimal.Decimal  `json:"unit_price" binding:"decimal_gte0"`
	Discount  *decimal.Decimal `json:"discount" binding:"omitempty,decimal_gte0"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	RegisterValidations(v)
	return v
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestDecimalValidations(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name    string
		input   lineInput
		invalid []string
	}{
		{"valid", lineInput{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(100)}, nil},
		{"zero price allowed", lineInput{Quantity: decimal.NewFromInt(1)}, nil},
		{"missing quantity", lineInput{}, []string{"quantity"}},
		{"negative quantity", lineInput{Quantity: decimal.NewFromInt(-1)}, []string{"quantity"}},
		{"negative price", lineInput{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-3)}, []string{"unit_price"}},
		{"nil pointer skipped", lineInput{Quantity: decimal.NewFromInt(1), Discount: nil}, nil},
		{"negative pointer", lineInput{Quantity: decimal.NewFromInt(1), Discount: ptr(decimal.NewFromInt(-1))}, []string{"discount"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.invalid == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			resp := FormatValidationErrors(err, "req-1")
			fields := make([]string, 0, len(resp.Error.Details))
			for _, d := range resp.Error.Details {
				fields = append(fields, d.Field)
			}
			assert.Equal(t, tt.invalid, fields)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestFormatValidationErrors_Messages(t *testing.T) {
	v := newValidator()
	err := v.Struct(lineInput{Quantity: decimal.NewFromInt(-1), UnitPrice: decimal.NewFromInt(-1)})
	require.Error(t, err)

	resp := FormatValidationErrors(err, "")
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "Must be greater than zero", resp.Error.Details[0].Message)
	assert.Equal(t, "Must not be negative", resp.Error.Details[1].Message)
}

// ==================== Tracing ====================

func TestTracingWithConfig(t *testing.T) {
	t.Run("disabled passes through", func(t *testing.T) {
		router := gin.New()
		router.Use(TracingWithConfig(TracingConfig{Enabled: false})...)
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("enabled tags the server span", func(t *testing.T) {
		sr := tracetest.NewSpanRecorder()
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
		prev := otel.GetTracerProvider()
		otel.SetTracerProvider(tp)
		t.Cleanup(func() {
			otel.SetTracerProvider(prev)
			_ = tp.Shutdown(t.Context())
		})

		tenant := uuid.New()
		router := gin.New()
		router.Use(RequestID())
		router.Use(TracingWithConfig(TracingConfig{ServiceName: "perception-test", Enabled: true})...)
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "req-7")
		req.Header.Set(TenantIDHeader, tenant.String())
		router.ServeHTTP(httptest.NewRecorder(), req)

		spans := sr.Ended()
		require.Len(t, spans, 1)
		attrs := spans[0].Attributes()
		assert.Contains(t, attrs, attribute.String("request_id", "req-7"))
		assert.Contains(t, attrs, attribute.String("tenant_id", tenant.String()))
	})
}
