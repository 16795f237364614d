package requestpasswordreset

import (
	"context"
	"errors"
	c "resetme/internal/core/domain/common"
	e "resetme/internal/core/domain/errors"
	"resetme/internal/core/domain/logging"
	"resetme/internal/core/domain/resettoken"
	uow "resetme/internal/core/domain/unit_of_work"
	"resetme/internal/core/domain/user"
	"resetme/internal/core/services"
	"time"
)

const (
	// MaxRequestsPerWindow caps reset requests per user within RateWindow.
	MaxRequestsPerWindow = 3
	RateWindow           = 24 * time.Hour
)

type Input struct {
	Email            c.Email
	RequestIP        c.Optional[string]
	RequestUserAgent c.Optional[string]
}

func (i Input) GetRateLimitKey() string {
	return "request-password-reset::" + string(i.Email)
}

// Result always reports success to the transport layer. Token is present
// only when one was actually issued, the HTTP surface must not let callers
// distinguish the cases.
type Result struct {
	Token            c.Optional[resettoken.PlainToken]
	ExpiresInMinutes int
}

type service struct {
	log            logging.Logger
	unitOfWork     uow.UnitOfWork
	userRepository user.UserRepository
	tokenGenerator resettoken.Generator
	tokenHasher    resettoken.Hasher
	tokenValidity  time.Duration
	now            func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	userRepository user.UserRepository,
	tokenGenerator resettoken.Generator,
	tokenHasher resettoken.Hasher,
	tokenValidity time.Duration,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if userRepository == nil {
		panic(e.NewNilArgumentError("userRepository"))
	}
	if tokenGenerator == nil {
		panic(e.NewNilArgumentError("tokenGenerator"))
	}
	if tokenHasher == nil {
		panic(e.NewNilArgumentError("tokenHasher"))
	}
	if tokenValidity <= 0 {
		panic(e.NewInvalidStateError("tokenValidity must be positive"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:            log,
		unitOfWork:     unitOfWork,
		userRepository: userRepository,
		tokenGenerator: tokenGenerator,
		tokenHasher:    tokenHasher,
		tokenValidity:  tokenValidity,
		now:            now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if input.Email == "" {
		s.log.Info(ctx, "Password reset requested with blank email.")
		return result, nil
	}

	u, err := s.userRepository.GetByEmail(ctx, input.Email)
	if errors.Is(err, context.Canceled) {
		return result, err
	}
	if errors.Is(err, user.ErrUserDoesNotExist) {
		// The caller gets the same generic success, the email must not be
		// probeable.
		s.log.Info(
			ctx,
			"Password reset requested for unknown email.",
			logging.Entry("email", input.Email),
		)
		return result, nil
	}
	if err != nil {
		s.log.Error(
			ctx,
			"Could not get user for password reset request.",
			logging.Entry("email", input.Email),
			logging.Entry("err", err),
		)
		return result, err
	}

	now := s.now()
	u, err = s.reconcileRateWindow(ctx, u, now)
	if err != nil {
		return result, err
	}
	if isRateLimited(u) {
		s.log.Warning(
			ctx,
			"Password reset request rate limit exceeded.",
			logging.Entry("userID", u.ID),
			logging.Entry("requestCount", u.ResetRequestCount),
		)
		return result, nil
	}

	plainToken, err := s.tokenGenerator.GenerateToken()
	if err != nil {
		s.log.Error(ctx, "Could not generate password reset token.", logging.Entry("err", err))
		return result, err
	}

	uowCtx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		s.log.Error(ctx, "Could not begin unit of work.", logging.Entry("err", err))
		return result, err
	}
	defer uowCtx.Rollback(ctx)

	invalidated, err := uowCtx.ResetTokens().InvalidateAllForUser(ctx, u.ID, now)
	if err != nil {
		s.log.Error(
			ctx,
			"Could not invalidate previous reset tokens.",
			logging.Entry("userID", u.ID),
			logging.Entry("err", err),
		)
		return result, err
	}
	_, err = uowCtx.ResetTokens().Create(ctx, resettoken.CreateInput{
		UserID:           u.ID,
		TokenHash:        s.tokenHasher.HashToken(plainToken),
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.tokenValidity),
		RequestIP:        input.RequestIP,
		RequestUserAgent: input.RequestUserAgent,
	})
	if err != nil {
		s.log.Error(
			ctx,
			"Could not create reset token.",
			logging.Entry("userID", u.ID),
			logging.Entry("err", err),
		)
		return result, err
	}
	if err := uowCtx.Users().IncrementResetRequests(ctx, u.ID, now); err != nil {
		s.log.Error(
			ctx,
			"Could not increment reset request counters.",
			logging.Entry("userID", u.ID),
			logging.Entry("err", err),
		)
		return result, err
	}
	if err := uowCtx.Commit(ctx); err != nil {
		s.log.Error(
			ctx,
			"Could not commit reset token creation.",
			logging.Entry("userID", u.ID),
			logging.Entry("err", err),
		)
		return result, err
	}

	s.log.Info(
		ctx,
		"Password reset token issued.",
		logging.Entry("userID", u.ID),
		logging.Entry("invalidatedTokens", invalidated),
	)
	return Result{
		Token:            c.NewOptional(plainToken, true),
		ExpiresInMinutes: int(s.tokenValidity / time.Minute),
	}, nil
}

// reconcileRateWindow clears stale counters once the rolling window has
// fully elapsed, so the subsequent check is a pure predicate.
func (s *service) reconcileRateWindow(ctx context.Context, u user.User, now time.Time) (user.User, error) {
	if !u.LastResetRequestAt.IsPresent {
		return u, nil
	}
	if now.Sub(u.LastResetRequestAt.Value) < RateWindow {
		return u, nil
	}
	if err := s.userRepository.ClearResetRequests(ctx, u.ID); err != nil {
		s.log.Error(
			ctx,
			"Could not clear reset request counters.",
			logging.Entry("userID", u.ID),
			logging.Entry("err", err),
		)
		return u, err
	}
	u.ResetRequestCount = 0
	u.LastResetRequestAt = c.NewOptional(time.Time{}, false)
	return u, nil
}

func isRateLimited(u user.User) bool {
	return u.LastResetRequestAt.IsPresent && u.ResetRequestCount >= MaxRequestsPerWindow
}
