package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthUseCase(users UserRepository) *AuthUseCase {
	return NewAuthUseCase(users, "test-secret", time.Hour, zap.NewNop())
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

func TestRegister_RejectsDuplicateEmail(t *testing.T) {
	// Arrange
	users := new(MockUserRepository)
	uc := newTestAuthUseCase(users)
	users.On("GetUserByEmail", mock.Anything, "ana@example.com").Return(&User{ID: "existing"}, nil)

	// Act
	_, err := uc.Register(context.Background(), RegisterInput{
		FullName: "Ana",
		Email:    "Ana@Example.com",
		Password: "secret-pass",
	})

	// Assert
	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, ErrKindConflict, appErr.Kind)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestRegister_CreatesCustomerWithHashedPassword(t *testing.T) {
	// Arrange
	users := new(MockUserRepository)
	uc := newTestAuthUseCase(users)
	users.On("GetUserByEmail", mock.Anything, "ana@example.com").Return(nil, nil)

	var created *User
	users.On("CreateUser", mock.Anything, mock.AnythingOfType("*main.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*User)
		}).
		Return(nil)

	// Act
	result, err := uc.Register(context.Background(), RegisterInput{
		FullName: "Ana",
		Email:    " Ana@Example.com ",
		Password: "secret-pass",
	})

	// Assert
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	if assert.NotNil(t, created) {
		assert.Equal(t, "ana@example.com", created.Email)
		assert.Equal(t, RoleCustomer, created.Role)
		assert.NotEqual(t, "secret-pass", created.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret-pass")))
	}
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	// Arrange: both failure modes return the same message so the endpoint
	// does not leak which emails are registered.
	users := new(MockUserRepository)
	uc := newTestAuthUseCase(users)
	users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, nil)
	users.On("GetUserByEmail", mock.Anything, "ana@example.com").Return(&User{
		ID:           "user-1",
		Email:        "ana@example.com",
		PasswordHash: hashPassword(t, "right-pass"),
	}, nil)

	// Act
	_, errUnknown := uc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"})
	_, errWrong := uc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "wrong-pass"})

	// Assert
	unknownErr, ok := AsAppError(errUnknown)
	assert.True(t, ok)
	wrongErr, ok := AsAppError(errWrong)
	assert.True(t, ok)
	assert.Equal(t, ErrKindUnauthorized, unknownErr.Kind)
	assert.Equal(t, unknownErr.Message, wrongErr.Message)
}

func TestLoginThenParseTokenRoundTrip(t *testing.T) {
	// Arrange
	users := new(MockUserRepository)
	uc := newTestAuthUseCase(users)
	users.On("GetUserByEmail", mock.Anything, "ana@example.com").Return(&User{
		ID:           "user-1",
		Email:        "ana@example.com",
		PasswordHash: hashPassword(t, "right-pass"),
		Role:         RoleAdmin,
	}, nil)

	// Act
	result, err := uc.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "right-pass"})
	assert.NoError(t, err)
	userID, role, err := uc.ParseToken(result.Token)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, RoleAdmin, role)
}

func TestParseToken_RejectsForeignSignature(t *testing.T) {
	users := new(MockUserRepository)
	issuer := NewAuthUseCase(users, "issuer-secret", time.Hour, zap.NewNop())
	verifier := NewAuthUseCase(users, "other-secret", time.Hour, zap.NewNop())

	token, err := issuer.issueToken(&User{ID: "user-1", Role: RoleCustomer})
	assert.NoError(t, err)

	_, _, err = verifier.ParseToken(token)
	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, ErrKindUnauthorized, appErr.Kind)
}

func TestParseToken_RejectsExpiredToken(t *testing.T) {
	users := new(MockUserRepository)
	uc := NewAuthUseCase(users, "test-secret", -time.Minute, zap.NewNop())

	token, err := uc.issueToken(&User{ID: "user-1", Role: RoleCustomer})
	assert.NoError(t, err)

	_, _, err = uc.ParseToken(token)
	appErr, ok := AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, ErrKindUnauthorized, appErr.Kind)
}

func TestAuthRequiredMiddleware(t *testing.T) {
	// Arrange
	gin.SetMode(gin.TestMode)
	users := new(MockUserRepository)
	uc := newTestAuthUseCase(users)
	resp := &responder{logger: zap.NewNop(), production: true}

	router := gin.New()
	router.GET("/protected", AuthRequired(uc, resp), func(c *gin.Context) {
		userID, role := currentUser(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role})
	})

	token, err := uc.issueToken(&User{ID: "user-1", Role: RoleCustomer})
	assert.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	resp := &responder{logger: zap.NewNop(), production: true}

	router := gin.New()
	router.GET("/admin", func(c *gin.Context) {
		c.Set(ctxUserID, "user-1")
		c.Set(ctxUserRole, c.Query("role"))
	}, AdminOnly(resp), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	reqCustomer := httptest.NewRequest(http.MethodGet, "/admin?role=customer", nil)
	recCustomer := httptest.NewRecorder()
	router.ServeHTTP(recCustomer, reqCustomer)
	assert.Equal(t, http.StatusUnauthorized, recCustomer.Code)

	reqAdmin := httptest.NewRequest(http.MethodGet, "/admin?role=admin", nil)
	recAdmin := httptest.NewRecorder()
	router.ServeHTTP(recAdmin, reqAdmin)
	assert.Equal(t, http.StatusOK, recAdmin.Code)
}
