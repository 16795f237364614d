package services

import (
	"resetme/internal/app/deps"
	drl "resetme/internal/core/domain/rate_limiter"
	"resetme/internal/core/services"
	ratelimiting "resetme/internal/core/services/rate_limiting"
	requestpasswordreset "resetme/internal/core/services/request_password_reset"
	resetpassword "resetme/internal/core/services/reset_password"
	validateresettoken "resetme/internal/core/services/validate_reset_token"
)

type Services struct {
	RequestPasswordReset services.Service[requestpasswordreset.Input, requestpasswordreset.Result]
	ValidateResetToken   services.Service[validateresettoken.Input, validateresettoken.Result]
	ResetPassword        services.Service[resetpassword.Input, resetpassword.Result]
}

func InitServices(deps *deps.Deps) *Services {
	s := &Services{}

	s.RequestPasswordReset = ratelimiting.WithRateLimiting(
		deps.Logger,
		deps.RateLimiter,
		drl.Limit{Interval: drl.Hour, Value: 10},
		requestpasswordreset.NewWithTokenSending(
			deps.Logger,
			deps.TokenSender,
			requestpasswordreset.New(
				deps.Logger,
				deps.UnitOfWork,
				deps.UserRepository,
				deps.TokenGenerator,
				deps.TokenHasher,
				deps.Config.PasswordResetValidDuration,
				deps.Now,
			),
		),
	)
	s.ValidateResetToken = validateresettoken.New(
		deps.Logger,
		deps.TokenRepository,
		deps.TokenHasher,
		deps.Now,
	)
	s.ResetPassword = resetpassword.New(
		deps.Logger,
		deps.UnitOfWork,
		deps.TokenRepository,
		deps.TokenHasher,
		deps.PasswordHasher,
		deps.SecurityEventPublisher,
		deps.Now,
	)

	return s
}
