package requestpasswordreset

import (
	"context"
	e "resetme/internal/core/domain/errors"
	"resetme/internal/core/domain/logging"
	"resetme/internal/core/domain/resettoken"
	"resetme/internal/core/services"
)

type serviceWithTokenSending struct {
	log         logging.Logger
	tokenSender resettoken.Sender
	inner       services.Service[Input, Result]
}

// NewWithTokenSending decorates the request service with out-of-band token
// delivery. The plaintext leaves the process only through the sender.
func NewWithTokenSending(
	log logging.Logger,
	tokenSender resettoken.Sender,
	inner services.Service[Input, Result],
) services.Service[Input, Result] {
	if log == nil {
		panic(e.NewNilArgumentError("log"))
	}
	if tokenSender == nil {
		panic(e.NewNilArgumentError("tokenSender"))
	}
	if inner == nil {
		panic(e.NewNilArgumentError("inner"))
	}
	return &serviceWithTokenSending{
		log:         log,
		tokenSender: tokenSender,
		inner:       inner,
	}
}

func (s *serviceWithTokenSending) Run(ctx context.Context, input Input) (result Result, err error) {
	result, err = s.inner.Run(ctx, input)
	if err != nil {
		return result, err
	}
	if !result.Token.IsPresent {
		return result, nil
	}

	if err := s.tokenSender.SendToken(ctx, input.Email, result.Token.Value); err != nil {
		s.log.Error(
			ctx,
			"Could not send password reset token.",
			logging.Entry("email", input.Email),
			logging.Entry("err", err),
		)
		return result, err
	}
	s.log.Info(ctx, "Password reset token sent.", logging.Entry("email", input.Email))
	return result, nil
}
