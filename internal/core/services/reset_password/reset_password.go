package resetpassword

import (
	"context"
	"errors"
	e "resetme/internal/core/domain/errors"
	"resetme/internal/core/domain/logging"
	"resetme/internal/core/domain/resettoken"
	uow "resetme/internal/core/domain/unit_of_work"
	"resetme/internal/core/domain/user"
	"resetme/internal/core/services"
	"time"
)

type Input struct {
	Token                resettoken.PlainToken
	NewPassword          user.RawPassword
	PasswordConfirmation user.RawPassword
}

type Result struct {
	User user.User
}

type service struct {
	log             logging.Logger
	unitOfWork      uow.UnitOfWork
	tokenRepository resettoken.Repository
	tokenHasher     resettoken.Hasher
	passwordHasher  user.PasswordHasher
	eventPublisher  user.SecurityEventPublisher
	now             func() time.Time
}

func New(
	log logging.Logger,
	unitOfWork uow.UnitOfWork,
	tokenRepository resettoken.Repository,
	tokenHasher resettoken.Hasher,
	passwordHasher user.PasswordHasher,
	eventPublisher user.SecurityEventPublisher,
	now func() time.Time,
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if unitOfWork == nil {
		panic(e.NewNilArgumentError("unitOfWork"))
	}
	if tokenRepository == nil {
		panic(e.NewNilArgumentError("tokenRepository"))
	}
	if tokenHasher == nil {
		panic(e.NewNilArgumentError("tokenHasher"))
	}
	if passwordHasher == nil {
		panic(e.NewNilArgumentError("passwordHasher"))
	}
	if eventPublisher == nil {
		panic(e.NewNilArgumentError("eventPublisher"))
	}
	if now == nil {
		panic(e.NewNilArgumentError("now"))
	}
	return &service{
		log:             log,
		unitOfWork:      unitOfWork,
		tokenRepository: tokenRepository,
		tokenHasher:     tokenHasher,
		passwordHasher:  passwordHasher,
		eventPublisher:  eventPublisher,
		now:             now,
	}
}

func (s *service) Run(ctx context.Context, input Input) (result Result, err error) {
	// Input preconditions are checked before any store access, a failed
	// confirmation must not count as a token attempt.
	if input.Token == "" {
		return result, resettoken.ErrTokenRequired
	}
	if input.NewPassword == "" {
		return result, user.ErrPasswordRequired
	}
	if input.NewPassword != input.PasswordConfirmation {
		return result, user.ErrPasswordsDoNotMatch
	}
	if len(input.NewPassword) < user.MinPasswordLength {
		return result, user.ErrPasswordTooShort
	}

	t, err := s.tokenRepository.GetByHash(ctx, s.tokenHasher.HashToken(input.Token))
	if errors.Is(err, context.Canceled) {
		return result, err
	}
	if errors.Is(err, resettoken.ErrTokenDoesNotExist) {
		s.log.Warning(ctx, "Unknown reset token submitted for password reset.")
		return result, resettoken.ErrTokenInvalid
	}
	if err != nil {
		s.log.Error(ctx, "Could not get reset token.", logging.Entry("err", err))
		return result, err
	}

	now := s.now()
	if t.Used {
		s.log.Warning(ctx, "Used reset token submitted for password reset.", logging.Entry("userID", t.UserID))
		return result, resettoken.ErrTokenAlreadyUsed
	}
	if t.IsExpired(now) {
		s.log.Warning(ctx, "Expired reset token submitted for password reset.", logging.Entry("userID", t.UserID))
		return result, resettoken.ErrTokenExpired
	}
	if t.IsLocked() {
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
	// Reset attempts share the counter with validation, total guesses per
	// token stay bounded whichever operation is probed.
	if err := s.tokenRepository.RegisterAttempt(ctx, t.ID, now); err != nil {
		s.log.Error(
			ctx,
			"Could not register reset token attempt.",
			logging.Entry("tokenID", t.ID),
			logging.Entry("err", err),
		)
		return result, err
	}

	newPasswordHash, err := s.passwordHasher.HashPassword(input.NewPassword)
	if err != nil {
		s.log.Error(ctx, "Could not hash new password.", logging.Entry("err", err))
		return result, err
	}

	uowCtx, err := s.unitOfWork.Begin(ctx)
	if err != nil {
		s.log.Error(ctx, "Could not begin unit of work.", logging.Entry("err", err))
		return result, err
	}
	defer uowCtx.Rollback(ctx)

	// Burning the token and changing the password commit together or not
	// at all. The conditional update makes concurrent redemptions race
	// for exactly one success.
	err = uowCtx.ResetTokens().MarkUsed(ctx, t.ID, now)
	if errors.Is(err, resettoken.ErrTokenAlreadyUsed) {
		s.log.Warning(
			ctx,
			"Reset token was redeemed concurrently.",
			logging.Entry("tokenID", t.ID),
			logging.Entry("userID", t.UserID),
		)
		return result, resettoken.ErrTokenAlreadyUsed
	}
	if err != nil {
		s.log.Error(
			ctx,
			"Could not mark reset token as used.",
			logging.Entry("tokenID", t.ID),
			logging.Entry("err", err),
		)
		return result, err
	}
	if err := uowCtx.Users().SetPassword(ctx, t.UserID, newPasswordHash, now); err != nil {
		s.log.Error(
			ctx,
			"Could not set new password.",
			logging.Entry("userID", t.UserID),
			logging.Entry("err", err),
		)
		return result, err
	}
	// The request that just succeeded should not keep penalizing the user.
	if err := uowCtx.Users().ClearResetRequests(ctx, t.UserID); err != nil {
		s.log.Error(
			ctx,
			"Could not clear reset request counters.",
			logging.Entry("userID", t.UserID),
			logging.Entry("err", err),
		)
		return result, err
	}
	u, err := uowCtx.Users().GetByID(ctx, t.UserID)
	if err != nil {
		s.log.Error(
			ctx,
			"Could not get user after password reset.",
			logging.Entry("userID", t.UserID),
			logging.Entry("err", err),
		)
		return result, err
	}
	if err := uowCtx.Commit(ctx); err != nil {
		s.log.Error(
			ctx,
			"Could not commit password reset.",
			logging.Entry("userID", t.UserID),
			logging.Entry("err", err),
		)
		return result, err
	}

	s.log.Info(ctx, "Password has been reset.", logging.Entry("userID", u.ID))

	// Best effort, the reset itself is already durable.
	event := user.PasswordChangedEvent{UserID: u.ID, Email: u.Email, At: now}
	if err := s.eventPublisher.PublishPasswordChanged(ctx, event); err != nil {
		s.log.Error(
			ctx,
			"Could not publish password changed event.",
			logging.Entry("userID", u.ID),
			logging.Entry("err", err),
		)
	}

	return Result{User: u}, nil
}
