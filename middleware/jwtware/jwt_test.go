package jwtware_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"

	"github.com/goliatone/go-accounts/middleware/jwtware"
)

type stubClaims struct {
	sub string
}

func (s stubClaims) Subject() string { return s.sub }
func (s stubClaims) UserID() string  { return s.sub }

// stubValidator accepts exactly one token string.
type stubValidator struct {
	accept string
	calls  []string
}

func (s *stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	s.calls = append(s.calls, tokenString)
	if tokenString == s.accept {
		return stubClaims{sub: "user-123"}, nil
	}
	return nil, errors.New("token is malformed")
}

func runMiddleware(cfg jwtware.Config, ctx router.Context) error {
	handler := jwtware.New(cfg)(func(c router.Context) error {
		return c.Next()
	})
	return handler(ctx)
}

func TestJWTWareCookieTakesPrecedenceOverHeader(t *testing.T) {
	validator := &stubValidator{accept: "cookie-token"}

	cfg := jwtware.Config{
		TokenValidator: validator,
		TokenLookup:    "cookie:token,header:Authorization",
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	ctx := router.NewMockContext()
	ctx.CookiesM["token"] = "cookie-token"
	ctx.HeadersM["Authorization"] = "Bearer header-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer header-token").Maybe()
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := runMiddleware(cfg, ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ctx.NextCalled {
		t.Error("expected Next() to be invoked")
	}
	if len(validator.calls) != 1 || validator.calls[0] != "cookie-token" {
		t.Errorf("expected cookie token to win, validator saw: %v", validator.calls)
	}
}

func TestJWTWareFallsBackToHeader(t *testing.T) {
	validator := &stubValidator{accept: "header-token"}

	cfg := jwtware.Config{
		TokenValidator: validator,
		TokenLookup:    "cookie:token,header:Authorization",
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	ctx := router.NewMockContext()
	ctx.HeadersM["Authorization"] = "Bearer header-token"
	ctx.On("GetString", "Authorization", "").Return("Bearer header-token")
	ctx.On("Locals", "user", mock.Anything).Return(nil)

	if err := runMiddleware(cfg, ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(validator.calls) != 1 || validator.calls[0] != "header-token" {
		t.Errorf("expected header token, validator saw: %v", validator.calls)
	}
}

func TestJWTWareMissingToken(t *testing.T) {
	validator := &stubValidator{accept: "anything"}

	cfg := jwtware.Config{
		TokenValidator: validator,
		TokenLookup:    "cookie:token,header:Authorization",
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
	}

	ctx := router.NewMockContext()
	ctx.On("GetString", "Authorization", "").Return("")

	err := runMiddleware(cfg, ctx)
	if err == nil {
		t.Fatal("expected error for missing token, got nil")
	}
	if !strings.Contains(err.Error(), jwtware.ErrJWTMissingOrMalformed.Error()) {
		t.Errorf("expected missing token error, got: %v", err)
	}
	if len(validator.calls) != 0 {
		t.Errorf("validator should not run without a token, saw: %v", validator.calls)
	}
}

func TestJWTWareValidationListenerRejects(t *testing.T) {
	validator := &stubValidator{accept: "cookie-token"}

	listenerErr := errors.New("account is gone")
	cfg := jwtware.Config{
		TokenValidator: validator,
		TokenLookup:    "cookie:token",
		ErrorHandler: func(ctx router.Context, err error) error {
			return err
		},
		ValidationListeners: []jwtware.ValidationListener{
			func(ctx router.Context, claims jwtware.AuthClaims) error {
				return listenerErr
			},
		},
	}

	ctx := router.NewMockContext()
	ctx.CookiesM["token"] = "cookie-token"

	err := runMiddleware(cfg, ctx)
	if !errors.Is(err, listenerErr) {
		t.Errorf("expected listener error, got: %v", err)
	}
	if ctx.NextCalled {
		t.Error("Next() must not run when a listener rejects")
	}
}
