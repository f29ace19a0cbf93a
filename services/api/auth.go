package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	// GetUserByEmail returns the user or nil when no account has this email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, userID string) (*User, error)
}

// PostgresUserRepository implements UserRepository using PostgreSQL.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new PostgresUserRepository.
func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser inserts a new account.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, full_name, email, password_hash, phone, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, user.ID, user.FullName, user.Email, user.PasswordHash, user.Phone, user.Role, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) getUser(ctx context.Context, where string, arg any) (*User, error) {
	var user User
	err := r.db.QueryRow(ctx, `
		SELECT id, full_name, email, password_hash, phone, role, created_at, updated_at
		FROM users WHERE `+where+` = $1
	`, arg).Scan(
		&user.ID, &user.FullName, &user.Email, &user.PasswordHash,
		&user.Phone, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail returns the user or nil when no account has this email.
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, "email", email)
}

// GetUserByID returns the user or nil when the id is unknown.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, userID string) (*User, error) {
	return r.getUser(ctx, "id", userID)
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

// LoginInput is the payload for signing in.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResult carries the signed token plus the account it belongs to.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// AuthUseCase implements registration, login and token issuing.
type AuthUseCase struct {
	users    UserRepository
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewAuthUseCase creates a new AuthUseCase.
func NewAuthUseCase(users UserRepository, secret string, tokenTTL time.Duration, logger *zap.Logger) *AuthUseCase {
	return &AuthUseCase{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Register creates a customer account and returns a signed token.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	existing, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email %s is already registered", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := NewUser(uuid.New().String(), input.FullName, email, string(hash), input.Phone)
	if err := uc.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := uc.issueToken(user)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("user registered", zap.String("user_id", user.ID))
	return &AuthResult{Token: token, User: user}, nil
}

// Login verifies the credentials and returns a signed token.
func (uc *AuthUseCase) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	user, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewUnauthorizedError("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, NewUnauthorizedError("invalid email or password")
	}

	token, err := uc.issueToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: user}, nil
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (uc *AuthUseCase) issueToken(user *User) (string, error) {
	claims := tokenClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(uc.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(uc.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates a bearer token and returns the user id and role.
func (uc *AuthUseCase) ParseToken(tokenString string) (string, string, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return uc.secret, nil
	})
	if err != nil || !token.Valid {
		return "", "", NewUnauthorizedError("invalid or expired token")
	}
	return claims.Subject, claims.Role, nil
}

// AuthHandler contains the auth HTTP handlers.
type AuthHandler struct {
	useCase *AuthUseCase
	resp    *responder
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(useCase *AuthUseCase, resp *responder) *AuthHandler {
	return &AuthHandler{useCase: useCase, resp: resp}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.resp.badRequest(c, err)
		return
	}

	result, err := h.useCase.Register(c.Request.Context(), input)
	if err != nil {
		h.resp.fail(c, err)
		return
	}

	h.resp.ok(c, http.StatusCreated, "account created", result)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.resp.badRequest(c, err)
		return
	}

	result, err := h.useCase.Login(c.Request.Context(), input)
	if err != nil {
		h.resp.fail(c, err)
		return
	}

	h.resp.ok(c, http.StatusOK, "login successful", result)
}

// AuthRequired extracts the bearer token, validates it and stores the user
// identity in the request context. Services receive that identity as explicit
// arguments; nothing reads it ambiently.
func AuthRequired(auth *AuthUseCase, resp *responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			resp.fail(c, NewUnauthorizedError("missing bearer token"))
			c.Abort()
			return
		}

		userID, role, err := auth.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			resp.fail(c, err)
			c.Abort()
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxUserRole, role)
		c.Next()
	}
}

// AdminOnly gates a route group to admin accounts.
func AdminOnly(resp *responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, role := currentUser(c); role != RoleAdmin {
			resp.fail(c, NewUnauthorizedError("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
