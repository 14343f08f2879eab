package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthenticator is a mock implementation of auth.Authenticator.
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Authenticate(r *http.Request) (*auth.Principal, error) {
	args := m.Called(r.Header.Get("Authorization"))
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Principal), args.Error(1)
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Error
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		expectedStatus int
		expectHandler  bool
	}{
		{
			name:           "Preflight request",
			method:         http.MethodOptions,
			expectedStatus: http.StatusNoContent,
			expectHandler:  false,
		},
		{
			name:           "GET request",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "PATCH request",
			method:         http.MethodPatch,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := CORS(okHandler(&handlerCalled))

			req := httptest.NewRequest(tt.method, "/test", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, PUT, PATCH, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, Authorization", w.Header().Get("Access-Control-Allow-Headers"))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	logger := zerolog.Nop()
	alice := &auth.Principal{UserID: 2, Username: "alice"}

	tests := []struct {
		name           string
		path           string
		header         string
		expectAuth     bool
		mockReturn     *auth.Principal
		mockError      error
		expectedStatus int
		expectHandler  bool
		expectedUser   *auth.Principal
	}{
		{
			name:           "Valid credentials",
			path:           "/orders/",
			header:         "Bearer good",
			expectAuth:     true,
			mockReturn:     alice,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
			expectedUser:   alice,
		},
		{
			name:           "Anonymous",
			path:           "/products/",
			expectAuth:     true,
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
		{
			name:           "Invalid credentials on a public resource",
			path:           "/products/",
			header:         "Bearer bad",
			expectAuth:     true,
			mockError:      model.ErrInvalidCredentials,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "User store failure",
			path:           "/orders/",
			header:         "Basic YTpi",
			expectAuth:     true,
			mockError:      errors.New("connection refused"),
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "Health check bypasses auth",
			path:           "/health",
			header:         "Bearer bad",
			expectedStatus: http.StatusOK,
			expectHandler:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authenticator := new(MockAuthenticator)
			if tt.expectAuth {
				authenticator.On("Authenticate", tt.header).Return(tt.mockReturn, tt.mockError)
			}

			handlerCalled := false
			var seen *auth.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				seen = auth.FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			Authenticate(authenticator, logger)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectHandler, handlerCalled)
			assert.Equal(t, tt.expectedUser, seen)
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
				assert.Equal(t, model.ErrCodeUnauthorised, errorCode(t, w))
			}
			authenticator.AssertExpectations(t)
		})
	}
}

func TestPermission(t *testing.T) {
	customer := &auth.Principal{UserID: 2}
	staff := &auth.Principal{UserID: 1, IsStaff: true}

	tests := []struct {
		name           string
		resource       auth.Resource
		method         string
		principal      *auth.Principal
		expectedStatus int
	}{
		{name: "Anyone reads products", resource: auth.ResourceProduct, method: http.MethodGet, expectedStatus: http.StatusOK},
		{name: "Anonymous product write", resource: auth.ResourceProduct, method: http.MethodPost, expectedStatus: http.StatusUnauthorized},
		{name: "Customer product write", resource: auth.ResourceProduct, method: http.MethodDelete, principal: customer, expectedStatus: http.StatusForbidden},
		{name: "Staff product write", resource: auth.ResourceProduct, method: http.MethodPatch, principal: staff, expectedStatus: http.StatusOK},
		{name: "Anonymous order read", resource: auth.ResourceOrder, method: http.MethodGet, expectedStatus: http.StatusUnauthorized},
		{name: "Customer order write", resource: auth.ResourceOrder, method: http.MethodPost, principal: customer, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := Permission(tt.resource)(okHandler(&handlerCalled))

			req := httptest.NewRequest(tt.method, "/x", nil)
			if tt.principal != nil {
				req = req.WithContext(auth.WithPrincipal(req.Context(), tt.principal))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedStatus == http.StatusOK, handlerCalled)
		})
	}
}

func TestThrottle(t *testing.T) {
	logger := zerolog.Nop()
	cfg := config.ThrottleConfig{Enabled: true, Rate: 0.001, Burst: 2, IdleTTL: time.Minute}

	t.Run("Burst then reject", func(t *testing.T) {
		handlerCalled := false
		handler := Throttle(cfg, logger)(okHandler(&handlerCalled))
		before := testutil.ToFloat64(metrics.ThrottledRequests)

		codes := make([]int, 0, 3)
		for range 3 {
			req := httptest.NewRequest(http.MethodGet, "/products/", nil)
			req.RemoteAddr = "10.0.0.1:5000"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.ThrottledRequests))
	})

	t.Run("Clients are throttled independently", func(t *testing.T) {
		handlerCalled := false
		handler := Throttle(cfg, logger)(okHandler(&handlerCalled))

		send := func(remote string, p *auth.Principal) int {
			req := httptest.NewRequest(http.MethodGet, "/orders/", nil)
			req.RemoteAddr = remote
			if p != nil {
				req = req.WithContext(auth.WithPrincipal(req.Context(), p))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w.Code
		}

		alice := &auth.Principal{UserID: 2}
		for range 2 {
			require.Equal(t, http.StatusOK, send("10.0.0.2:1", alice))
		}
		assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.9:1", alice))
		assert.Equal(t, http.StatusOK, send("10.0.0.2:1", nil))
		assert.Equal(t, http.StatusOK, send("10.0.0.3:1", nil))
	})

	t.Run("Disabled", func(t *testing.T) {
		handlerCalled := false
		handler := Throttle(config.ThrottleConfig{Enabled: false}, logger)(okHandler(&handlerCalled))

		for range 10 {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/", nil))
			require.Equal(t, http.StatusOK, w.Code)
		}
	})
}

func TestLimiterStore_Cleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newLimiterStore(config.ThrottleConfig{Rate: 1, Burst: 1, IdleTTL: time.Minute})
	store.now = func() time.Time { return now }
	store.lastCleanup = now

	assert.True(t, store.Allow("ip:a"))
	now = now.Add(30 * time.Second)
	assert.True(t, store.Allow("ip:b"))

	now = now.Add(45 * time.Second)
	assert.True(t, store.Allow("ip:b"))

	assert.NotContains(t, store.visitors, "ip:a")
	assert.Contains(t, store.visitors, "ip:b")
}

func TestMetrics(t *testing.T) {
	handler := Metrics(func(r *http.Request) string { return "GET /widgets/{$}" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

	counter := metrics.RequestsTotal.WithLabelValues(http.MethodGet, "GET /widgets/{$}", "418")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/widgets/", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestLogging(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		method         string
		path           string
		handlerStatus  int
		expectedStatus int
	}{
		{
			name:           "Successful request",
			method:         http.MethodGet,
			path:           "/products/",
			handlerStatus:  http.StatusOK,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Not found request",
			method:         http.MethodGet,
			path:           "/unknown",
			handlerStatus:  http.StatusNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Server error",
			method:         http.MethodPost,
			path:           "/orders/",
			handlerStatus:  http.StatusInternalServerError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			handler := Logging(logger)(testHandler)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRecovery(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name           string
		shouldPanic    bool
		panicValue     interface{}
		expectedStatus int
	}{
		{
			name:           "No panic",
			shouldPanic:    false,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Panic with string",
			shouldPanic:    true,
			panicValue:     "something went wrong",
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "Panic with error",
			shouldPanic:    true,
			panicValue:     assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.shouldPanic {
					panic(tt.panicValue)
				}
				w.WriteHeader(http.StatusOK)
			})

			handler := Recovery(logger)(testHandler)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			w := httptest.NewRecorder()

			// Ensure we don't panic in the test
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.shouldPanic {
				assert.Equal(t, model.ErrCodeInternalError, errorCode(t, w))
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	tests := []struct {
		name           string
		statusCode     int
		expectedStatus int
	}{
		{
			name:           "Status OK",
			statusCode:     http.StatusOK,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Status Created",
			statusCode:     http.StatusCreated,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Status Not Found",
			statusCode:     http.StatusNotFound,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			rw := wrap(w)

			rw.WriteHeader(tt.statusCode)

			assert.Equal(t, tt.expectedStatus, rw.statusCode)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
