package accounts

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// GenericResetResponse is returned for every forgot-password request so that
// responses do not reveal whether an account exists.
const GenericResetResponse = "If the email exists, a password reset link has been sent."

type AuthControllerRoutes struct {
	Signup         string
	Login          string
	Logout         string
	Profile        string
	ChangePassword string
	ForgotPassword string
	ResetPassword  string
	VerifyEmail    string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Mailer       Mailer
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerMailer(mailer Mailer) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			Signup:         "/auth/signup",
			Login:          "/auth/login",
			Logout:         "/auth/logout",
			Profile:        "/auth/profile",
			ChangePassword: "/auth/change-password",
			ForgotPassword: "/auth/forgot-password",
			ResetPassword:  "/auth/reset-password",
			VerifyEmail:    "/auth/verify-email",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Mailer == nil {
		c.Mailer = NoopMailer{}
	}

	return c
}

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(controller.unauthenticatedHandler)

	app.Post(controller.Routes.Signup, controller.Signup).SetName("signup.post")
	app.Post(controller.Routes.Login, controller.Login).SetName("login.post")
	app.Post(controller.Routes.Logout, controller.Logout).SetName("logout.post")

	app.Get(controller.Routes.Profile, controller.Profile, protected).
		SetName("profile.get")
	app.Post(controller.Routes.ChangePassword, controller.ChangePassword, protected).
		SetName("change-password.post")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword).
		SetName("forgot-password.post")
	app.Post(controller.Routes.ResetPassword, controller.ResetPassword).
		SetName("reset-password.post")
	app.Get(controller.Routes.VerifyEmail, controller.VerifyEmail).
		SetName("verify-email.get")

	return controller
}

// SignupRequest payload
type SignupRequest struct {
	Email    string `form:"email" json:"email"`
	Name     string `form:"name" json:"name"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) Signup(ctx router.Context) error {
	payload := new(SignupRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload: ", "error", err)
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error":      "Invalid signup payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= ACCOUNT SIGNUP ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=============================")
	}

	var record *User
	msg := SignupMessage{
		Email:    payload.Email,
		Name:     payload.Name,
		Password: payload.Password,
		OnResponse: func(u *User) {
			record = u
		},
	}

	signup := NewSignupHandler(a.Repo, a.Mailer).WithLogger(a.Logger)
	if err := signup.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("signup execute: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, record.Profile())
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error":      "Invalid login payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		return ctx.JSON(router.StatusUnauthorized, router.ViewContext{
			"error": "Invalid credentials",
		})
	}

	record, err := a.Repo.Users().GetByEmail(ctx.Context(), payload.Email)
	if err != nil {
		// credentials already checked out, a failed read here is a store
		// failure, not an auth failure
		a.Logger.Error("login profile lookup: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, record.Profile())
}

func (a *AuthController) Logout(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "Logged out",
	})
}

func (a *AuthController) Profile(ctx router.Context) error {
	identity, ok := GetRouterIdentity(ctx)
	if !ok {
		return a.unauthenticatedHandler(ctx, ErrUnableToDecodeSession)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"id":         identity.ID(),
		"email":      identity.Email(),
		"name":       identity.Name(),
		"isVerified": identity.Verified(),
	})
}

// ChangePasswordRequest payload
type ChangePasswordRequest struct {
	CurrentPassword string `form:"currentPassword" json:"currentPassword"`
	NewPassword     string `form:"newPassword" json:"newPassword"`
}

// Validate will run validation rules
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) ChangePassword(ctx router.Context) error {
	identity, ok := GetRouterIdentity(ctx)
	if !ok {
		return a.unauthenticatedHandler(ctx, ErrUnableToDecodeSession)
	}

	payload := new(ChangePasswordRequest)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error":      "Invalid change password payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	msg := ChangePasswordMessage{
		UserID:          identity.ID(),
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
	}

	change := NewChangePasswordHandler(a.Repo).WithLogger(a.Logger)
	if err := change.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("change password execute: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "Password updated",
	})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPassword(ctx router.Context) error {
	payload := new(ForgotPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error":      "Invalid forgot password payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	msg := InitializePasswordResetMessage{Email: payload.Email}

	initReset := NewInitializePasswordResetHandler(a.Repo, a.Mailer).WithLogger(a.Logger)
	if err := initReset.Execute(ctx.Context(), msg); err != nil {
		// Same body as the success path, unknown emails included
		a.Logger.Error("forgot password execute: ", "error", err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": GenericResetResponse,
	})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Token    string `form:"token" json:"token"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) ResetPassword(ctx router.Context) error {
	payload := new(ResetPasswordRequest)

	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error": "Failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error":      "Invalid reset password payload",
			"validation": FormatValidationErrorToMap(err),
		})
	}

	msg := FinalizePasswordResetMessage{
		Token:    payload.Token,
		Password: payload.Password,
	}

	finalizeReset := NewFinalizePasswordResetHandler(a.Repo).WithLogger(a.Logger)
	if err := finalizeReset.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("reset password execute: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "Password has been reset",
	})
}

func (a *AuthController) VerifyEmail(ctx router.Context) error {
	token := ctx.Query("token", "")
	if token == "" {
		return ctx.JSON(router.StatusBadRequest, router.ViewContext{
			"error": "Missing verification token",
		})
	}

	verify := NewVerifyEmailHandler(a.Repo).WithLogger(a.Logger)
	if err := verify.Execute(ctx.Context(), VerifyEmailMessage{Token: token}); err != nil {
		a.Logger.Error("verify email execute: ", "error", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, router.ViewContext{
		"message": "Email verified",
	})
}

func (a *AuthController) renderError(ctx router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return a.ErrorHandler(ctx, err)
	}

	status := router.StatusBadRequest
	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		// a failed credential re-check is a bad request; 401 is reserved for
		// requests without a valid session
		if richErr.TextCode == TextCodeInvalidCredentials {
			status = router.StatusBadRequest
		} else {
			status = router.StatusUnauthorized
		}
	case errors.CategoryNotFound:
		status = router.StatusNotFound
	case errors.CategoryInternal, errors.CategoryOperation:
		status = router.StatusInternalServerError
	}

	body := router.ViewContext{"error": richErr.Message}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return ctx.JSON(status, body)
}

func (a *AuthController) unauthenticatedHandler(ctx router.Context, err error) error {
	a.Logger.Info("Rejected request: %s %s", ctx.Method(), ctx.Path())
	return ctx.JSON(router.StatusUnauthorized, router.ViewContext{
		"error": "Authentication required",
		"code":  TextCodeUnauthenticated,
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map suitable for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	return c.JSON(router.StatusInternalServerError, router.ViewContext{
		"error": "An unexpected server error occurred",
	})
}
