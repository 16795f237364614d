package validateresettoken

import (
	"context"
	"errors"
	e "resetme/internal/core/domain/errors"
	"resetme/internal/core/domain/logging"
	"resetme/internal/core/domain/resettoken"
	"resetme/internal/core/services"
	"time"
)

type Input struct {
	Token resettoken.PlainToken
}

type Result struct {
	MinutesRemaining int
}

// service checks a token without redeeming it, typically before showing a
// reset form. Every check against an existing token counts toward the
// lockout limit, so merely probing a token five times burns it. That is a
// deliberate policy, it bounds total guesses per token regardless of the
// operation used.
type service struct {
	log             logging.Logger
	tokenRepository resettoken.Repository
	tokenHasher     resettoken.Hasher
	now             func() time.Time
}

func New(
	log logging.Logger,
	tokenRepository resettoken.Repository,
	tokenHasher resettoken.Hasher,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if tokenRepository == nil {
		panic(e.NewNilArgumentError("tokenRepository"))
	}
	if tokenHasher == nil {
		panic(e.NewNilArgumentError("tokenHasher"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:             log,
		tokenRepository: tokenRepository,
		tokenHasher:     tokenHasher,
		now:             now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	if input.Token == "" {
		return result, resettoken.ErrTokenInvalid
	}

	t, err := s.tokenRepository.GetByHash(ctx, s.tokenHasher.HashToken(input.Token))
	if errors.Is(err, context.Canceled) {
		return result, err
	}
	if errors.Is(err, resettoken.ErrTokenDoesNotExist) {
		s.log.Warning(ctx, "Unknown reset token submitted for validation.")
		return result, resettoken.ErrTokenInvalid
	}
	if err != nil {
		s.log.Error(ctx, "Could not get reset token.", logging.Entry("err", err))
		return result, err
	}

	now := s.now()
	if t.Used {
		s.log.Warning(ctx, "Used reset token submitted for validation.", logging.Entry("userID", t.UserID))
		return result, resettoken.ErrTokenAlreadyUsed
	}
	if t.IsExpired(now) {
		s.log.Warning(ctx, "Expired reset token submitted for validation.", logging.Entry("userID", t.UserID))
		return result, resettoken.ErrTokenExpired
	}
	if t.IsLocked() {
		// Attempt limit reached, burn the token for good.
		if err := s.tokenRepository.MarkUsed(ctx, t.ID, now); err != nil &&
			!errors.Is(err, resettoken.ErrTokenAlreadyUsed) {
			s.log.Error(
				ctx,
				"Could not invalidate reset token after too many attempts.",
				logging.Entry("tokenID", t.ID),
				logging.Entry("err", err),
			)
			return result, err
		}
		s.log.Warning(
			ctx,
			"Reset token locked after too many attempts.",
			logging.Entry("userID", t.UserID),
			logging.Entry("attempts", t.Attempts),
		)
		return result, resettoken.ErrTooManyAttempts
	}

	if err := s.tokenRepository.RegisterAttempt(ctx, t.ID, now); err != nil {
		s.log.Error(
			ctx,
			"Could not register reset token attempt.",
			logging.Entry("tokenID", t.ID),
			logging.Entry("err", err),
		)
		return result, err
	}

	return Result{MinutesRemaining: t.MinutesRemaining(now)}, nil
}
