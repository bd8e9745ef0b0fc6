package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type SignupMessage struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Password  string `json:"password"`
	UseHashid bool
	OnResponse func(*User)
}

func (e SignupMessage) Type() string { return "user.signup" }

// SignupHandler creates an unverified account with a fresh verification
// token and notifies the address. The email uniqueness constraint decides
// races between concurrent signups; exactly one wins.
type SignupHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewSignupHandler(repo RepositoryManager, mailer Mailer) *SignupHandler {
	if mailer == nil {
		mailer = NoopMailer{}
	}
	return &SignupHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *SignupHandler) WithLogger(logger Logger) *SignupHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *SignupHandler) Execute(ctx context.Context, event SignupMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during signup",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SignupHandler) execute(ctx context.Context, event SignupMessage) error {
	user := &User{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email := NormalizeEmail(event.Email)

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Users().GetByEmailTx(ctx, tx, email); err == nil {
			return ErrEmailTaken
		} else if !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}

		token, err := NewSecret()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate verification token")
		}

		user.Email = email
		user.Name = event.Name
		user.PasswordHash = hash
		user.EmailVerified = false
		user.VerificationToken = &token

		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			// only a lost uniqueness race is a conflict, anything else is a
			// store failure
			if IsUniqueConstraintError(err) {
				return ErrEmailTaken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "signup transaction failed")
	}

	// The account persists even if delivery fails; the mailer is fire and
	// forget and failures are handled by its own logging.
	if user.VerificationToken != nil {
		go h.sendVerification(user.Email, *user.VerificationToken)
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

func (h *SignupHandler) sendVerification(email, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	defer cancel()

	if err := h.mailer.SendVerificationEmail(ctx, email, token); err != nil {
		h.logger.Warn("verification email delivery failed", "error", err)
	}
}
