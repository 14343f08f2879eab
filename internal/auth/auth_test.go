package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

// MockUserFinder is a mock implementation of UserFinder.
type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) GetByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserFinder) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func mintToken(t *testing.T, secret string, claims jwt.RegisteredClaims, method jwt.SigningMethod) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// signed returns a token source for validClaims(sub) signed with secret.
func signed(secret, sub string, method jwt.SigningMethod) func(t *testing.T) string {
	return func(t *testing.T) string {
		return mintToken(t, secret, validClaims(sub), method)
	}
}

func validClaims(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    "storefront",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestAuthenticator_Bearer(t *testing.T) {
	alice := &model.User{ID: 7, Username: "alice"}

	tests := []struct {
		name        string
		token       func(t *testing.T) string
		setupMock   func(m *MockUserFinder)
		expectUser  int64
		expectError error
	}{
		{
			name:  "Valid token",
			token: signed(testSecret, "7", jwt.SigningMethodHS256),
			setupMock: func(m *MockUserFinder) {
				m.On("GetByID", mock.Anything, int64(7)).Return(alice, nil)
			},
			expectUser: 7,
		},
		{
			name:        "Wrong secret",
			token:       signed("other", "7", jwt.SigningMethodHS256),
			setupMock:   func(m *MockUserFinder) {},
			expectError: model.ErrInvalidCredentials,
		},
		{
			name: "Expired token",
			token: func(t *testing.T) string {
				claims := validClaims("7")
				claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
				return mintToken(t, testSecret, claims, jwt.SigningMethodHS256)
			},
			setupMock:   func(m *MockUserFinder) {},
			expectError: model.ErrInvalidCredentials,
		},
		{
			name: "Missing expiry",
			token: func(t *testing.T) string {
				claims := validClaims("7")
				claims.ExpiresAt = nil
				return mintToken(t, testSecret, claims, jwt.SigningMethodHS256)
			},
			setupMock:   func(m *MockUserFinder) {},
			expectError: model.ErrInvalidCredentials,
		},
		{
			name: "Wrong issuer",
			token: func(t *testing.T) string {
				claims := validClaims("7")
				claims.Issuer = "elsewhere"
				return mintToken(t, testSecret, claims, jwt.SigningMethodHS256)
			},
			setupMock:   func(m *MockUserFinder) {},
			expectError: model.ErrInvalidCredentials,
		},
		{
			name:        "Other HMAC algorithm",
			token:       signed(testSecret, "7", jwt.SigningMethodHS512),
			setupMock:   func(m *MockUserFinder) {},
			expectError: model.ErrInvalidCredentials,
		},
		{
			name:        "Non-numeric subject",
			token:       signed(testSecret, "alice", jwt.SigningMethodHS256),
			setupMock:   func(m *MockUserFinder) {},
			expectError: model.ErrInvalidCredentials,
		},
		{
			name:  "Unknown user",
			token: signed(testSecret, "99", jwt.SigningMethodHS256),
			setupMock: func(m *MockUserFinder) {
				m.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)
			},
			expectError: model.ErrInvalidCredentials,
		},
		{
			name:        "Garbage token",
			token:       func(t *testing.T) string { return "not-a-jwt" },
			setupMock:   func(m *MockUserFinder) {},
			expectError: model.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserFinder)
			tt.setupMock(users)
			authn := NewAuthenticator(users, config.AuthConfig{JWTSecret: testSecret, JWTIssuer: "storefront"}, zerolog.Nop())

			req := httptest.NewRequest(http.MethodGet, "/orders/", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token(t))

			p, err := authn.Authenticate(req)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, p)
			} else {
				require.NoError(t, err)
				require.NotNil(t, p)
				assert.Equal(t, tt.expectUser, p.UserID)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAuthenticator_Basic(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &model.User{ID: 1, Username: "admin", PasswordHash: string(hash), IsStaff: true}

	tests := []struct {
		name        string
		username    string
		password    string
		setupMock   func(m *MockUserFinder)
		expectError error
	}{
		{
			name:     "Valid credentials",
			username: "admin",
			password: "s3cret",
			setupMock: func(m *MockUserFinder) {
				m.On("GetByUsername", mock.Anything, "admin").Return(admin, nil)
			},
		},
		{
			name:     "Wrong password",
			username: "admin",
			password: "guess",
			setupMock: func(m *MockUserFinder) {
				m.On("GetByUsername", mock.Anything, "admin").Return(admin, nil)
			},
			expectError: model.ErrInvalidCredentials,
		},
		{
			name:     "Unknown user",
			username: "nobody",
			password: "s3cret",
			setupMock: func(m *MockUserFinder) {
				m.On("GetByUsername", mock.Anything, "nobody").Return(nil, nil)
			},
			expectError: model.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserFinder)
			tt.setupMock(users)
			authn := NewAuthenticator(users, config.AuthConfig{JWTSecret: testSecret}, zerolog.Nop())

			req := httptest.NewRequest(http.MethodGet, "/orders/", nil)
			req.SetBasicAuth(tt.username, tt.password)

			p, err := authn.Authenticate(req)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, p)
			} else {
				require.NoError(t, err)
				require.NotNil(t, p)
				assert.True(t, p.IsStaff)
				assert.Equal(t, "admin", p.Username)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestAuthenticator_Anonymous(t *testing.T) {
	users := new(MockUserFinder)
	authn := NewAuthenticator(users, config.AuthConfig{JWTSecret: testSecret}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/products/", nil)
	p, err := authn.Authenticate(req)
	require.NoError(t, err)
	assert.Nil(t, p)

	req.Header.Set("Authorization", "Token abc")
	p, err = authn.Authenticate(req)
	require.NoError(t, err)
	assert.Nil(t, p)

	req.Header.Set("Authorization", "Basic !!!")
	_, err = authn.Authenticate(req)
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuthenticator_StoreFailure(t *testing.T) {
	users := new(MockUserFinder)
	users.On("GetByUsername", mock.Anything, "admin").Return(nil, errors.New("connection refused"))
	authn := NewAuthenticator(users, config.AuthConfig{JWTSecret: testSecret}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/orders/", nil)
	req.SetBasicAuth("admin", "pw")

	_, err := authn.Authenticate(req)

	require.Error(t, err)
	var domainErr *model.DomainError
	assert.False(t, errors.As(err, &domainErr))
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))

	p := &Principal{UserID: 3}
	assert.Same(t, p, FromContext(WithPrincipal(ctx, p)))
	assert.Equal(t, "user:3", p.Key())
}

func TestActionForMethod(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		assert.Equal(t, ActionRead, ActionForMethod(m), m)
	}
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		assert.Equal(t, ActionWrite, ActionForMethod(m), m)
	}
}

func TestAuthorize(t *testing.T) {
	staff := &Principal{UserID: 1, IsStaff: true}
	user := &Principal{UserID: 2}
	owner := int64(2)
	other := int64(5)

	tests := []struct {
		name      string
		principal *Principal
		resource  Resource
		action    Action
		owner     *int64
		expected  error
	}{
		{name: "Anonymous reads products", principal: nil, resource: ResourceProduct, action: ActionRead},
		{name: "Anonymous cannot write products", principal: nil, resource: ResourceProduct, action: ActionWrite, expected: model.ErrNotAuthenticated},
		{name: "User cannot write products", principal: user, resource: ResourceProduct, action: ActionWrite, expected: model.ErrPermissionDenied},
		{name: "Staff writes products", principal: staff, resource: ResourceProduct, action: ActionWrite},
		{name: "Anonymous cannot list orders", principal: nil, resource: ResourceOrder, action: ActionRead, expected: model.ErrNotAuthenticated},
		{name: "User lists orders", principal: user, resource: ResourceOrder, action: ActionRead},
		{name: "User reads own order", principal: user, resource: ResourceOrder, action: ActionRead, owner: &owner},
		{name: "User cannot read other order", principal: user, resource: ResourceOrder, action: ActionRead, owner: &other, expected: model.ErrPermissionDenied},
		{name: "User cannot write other order", principal: user, resource: ResourceOrder, action: ActionWrite, owner: &other, expected: model.ErrPermissionDenied},
		{name: "Staff reads any order", principal: staff, resource: ResourceOrder, action: ActionRead, owner: &other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.principal, tt.resource, tt.action, tt.owner)
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}
