package resetpassword

import (
	"context"
	"errors"
	c "resetme/internal/core/domain/common"
	"resetme/internal/core/domain/logging"
	"resetme/internal/core/domain/resettoken"
	uow "resetme/internal/core/domain/unit_of_work"
	"resetme/internal/core/domain/user"
	"resetme/internal/core/services"
	requestpasswordreset "resetme/internal/core/services/request_password_reset"
	validateresettoken "resetme/internal/core/services/validate_reset_token"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

const (
	EMAIL         = "test@test.test"
	NAME          = "Test User"
	PASSWORD_HASH = "test-password-hash"
	PLAIN_TOKEN   = "test-plain-token"
	NEW_PASSWORD  = "NewPass1"
)

var NOW time.Time = time.Date(2023, 2, 15, 12, 30, 0, 0, time.UTC)

type testSuite struct {
	suite.Suite
	now             time.Time
	Logger          *logging.FakeLogger
	UserRepository  *user.FakeUserRepository
	TokenRepository *resettoken.FakeRepository
	Uow             *uow.FakeUnitOfWork
	Hasher          *resettoken.FakeHasher
	PasswordHasher  *user.FakePasswordHasher
	EventPublisher  *user.FakeSecurityEventPublisher
	Service         services.Service[Input, Result]
}

func (suite *testSuite) SetupTest() {
	suite.now = NOW
	suite.Logger = logging.NewFakeLogger()
	suite.UserRepository = user.NewFakeUserRepository()
	suite.TokenRepository = resettoken.NewFakeRepository()
	suite.Uow = &uow.FakeUnitOfWork{
		Context: uow.NewFakeUnitOfWorkContext(suite.UserRepository, suite.TokenRepository),
	}
	suite.Hasher = resettoken.NewFakeHasher()
	suite.PasswordHasher = user.NewFakePasswordHasher()
	suite.EventPublisher = user.NewFakeSecurityEventPublisher()
	suite.Service = New(
		suite.Logger,
		suite.Uow,
		suite.TokenRepository,
		suite.Hasher,
		suite.PasswordHasher,
		suite.EventPublisher,
		func() time.Time { return suite.now },
	)
}

func TestResetPasswordService(t *testing.T) {
	suite.Run(t, new(testSuite))
}

func (s *testSuite) TestPreconditionOrder() {
	u := s.createUser()
	t := s.createToken(u.ID, NOW.Add(time.Hour))

	cases := []struct {
		id          string
		input       Input
		expectedErr error
	}{
		{
			id:          "blank token",
			input:       Input{NewPassword: NEW_PASSWORD, PasswordConfirmation: NEW_PASSWORD},
			expectedErr: resettoken.ErrTokenRequired,
		},
		{
			id:          "blank password",
			input:       Input{Token: PLAIN_TOKEN},
			expectedErr: user.ErrPasswordRequired,
		},
		{
			id: "mismatch",
			input: Input{
				Token:                PLAIN_TOKEN,
				NewPassword:          NEW_PASSWORD,
				PasswordConfirmation: "Different1",
			},
			expectedErr: user.ErrPasswordsDoNotMatch,
		},
		{
			id: "too short",
			input: Input{
				Token:                PLAIN_TOKEN,
				NewPassword:          "abc",
				PasswordConfirmation: "abc",
			},
			expectedErr: user.ErrPasswordTooShort,
		},
	}
	for _, testCase := range cases {
		s.Run(testCase.id, func() {
			_, err := s.Service.Run(context.Background(), testCase.input)
			s.True(errors.Is(err, testCase.expectedErr))
		})
	}

	// Failed preconditions must not touch the token.
	stored, ok := s.TokenRepository.GetByID(t.ID)
	s.True(ok)
	s.Equal(uint32(0), stored.Attempts)
	s.False(stored.Used)
}

func (s *testSuite) TestUnknownTokenInvalid() {
	_, err := s.Service.Run(context.Background(), Input{
		Token:                "no-such-token",
		NewPassword:          NEW_PASSWORD,
		PasswordConfirmation: NEW_PASSWORD,
	})
	s.True(errors.Is(err, resettoken.ErrTokenInvalid))
}

func (s *testSuite) TestUsedTokenRejected() {
	u := s.createUser()
	t := s.createToken(u.ID, NOW.Add(time.Hour))
	s.Nil(s.TokenRepository.MarkUsed(context.Background(), t.ID, NOW))

	_, err := s.Service.Run(context.Background(), s.validInput())
	s.True(errors.Is(err, resettoken.ErrTokenAlreadyUsed))
}

func (s *testSuite) TestExpiredTokenRejected() {
	u := s.createUser()
	s.createToken(u.ID, NOW.Add(time.Hour))
	s.now = NOW.Add(time.Hour)

	_, err := s.Service.Run(context.Background(), s.validInput())
	s.True(errors.Is(err, resettoken.ErrTokenExpired))

	unchanged, err := s.UserRepository.GetByID(context.Background(), u.ID)
	s.Nil(err)
	s.Equal(user.PasswordHash(PASSWORD_HASH), unchanged.PasswordHash)
}

func (s *testSuite) TestLockedTokenRejected() {
	u := s.createUser()
	t := s.createToken(u.ID, NOW.Add(time.Hour))
	for i := 0; i < resettoken.MaxAttempts; i++ {
		s.Nil(s.TokenRepository.RegisterAttempt(context.Background(), t.ID, NOW))
	}

	_, err := s.Service.Run(context.Background(), s.validInput())
	s.True(errors.Is(err, resettoken.ErrTooManyAttempts))

	stored, ok := s.TokenRepository.GetByID(t.ID)
	s.True(ok)
	s.True(stored.Used)
}

func (s *testSuite) TestSuccess() {
	u := s.createUser()
	s.Nil(s.UserRepository.IncrementResetRequests(context.Background(), u.ID, NOW))
	t := s.createToken(u.ID, NOW.Add(time.Hour))

	result, err := s.Service.Run(context.Background(), s.validInput())
	s.Nil(err)

	expectedHash, hashErr := s.PasswordHasher.HashPassword(NEW_PASSWORD)
	s.Nil(hashErr)
	s.Equal(u.ID, result.User.ID)
	s.Equal(c.Email(EMAIL), result.User.Email)
	s.Equal(NAME, result.User.Name)
	s.Equal(expectedHash, result.User.PasswordHash)

	updated, err := s.UserRepository.GetByID(context.Background(), u.ID)
	s.Nil(err)
	s.Equal(expectedHash, updated.PasswordHash)
	s.Equal(uint32(0), updated.ResetRequestCount)
	s.False(updated.LastResetRequestAt.IsPresent)

	stored, ok := s.TokenRepository.GetByID(t.ID)
	s.True(ok)
	s.True(stored.Used)
	s.Equal(NOW, stored.UsedAt.Value)

	s.True(s.Uow.Context.WasCommitCalled)
	s.Equal(1, len(s.EventPublisher.Published))
	s.Equal(u.ID, s.EventPublisher.Published[0].UserID)
}

func (s *testSuite) TestSecondResetRejected() {
	u := s.createUser()
	s.createToken(u.ID, NOW.Add(time.Hour))

	_, err := s.Service.Run(context.Background(), s.validInput())
	s.Nil(err)

	_, err = s.Service.Run(context.Background(), s.validInput())
	s.True(errors.Is(err, resettoken.ErrTokenAlreadyUsed))
}

func (s *testSuite) TestConcurrentResetSingleSuccess() {
	u := s.createUser()
	s.createToken(u.ID, NOW.Add(time.Hour))

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Service.Run(context.Background(), s.validInput())
			results[i] = err
		}()
	}
	wg.Wait()

	succeeded := 0
	alreadyUsed := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		}
		if errors.Is(err, resettoken.ErrTokenAlreadyUsed) {
			alreadyUsed++
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, alreadyUsed)
}

func (s *testSuite) TestEventPublishFailureDoesNotFailReset() {
	u := s.createUser()
	s.createToken(u.ID, NOW.Add(time.Hour))
	s.EventPublisher.ReturnError = true

	_, err := s.Service.Run(context.Background(), s.validInput())
	s.Nil(err)
}

func (s *testSuite) TestEndToEndFlow() {
	u := s.createUser()
	generator := resettoken.NewFakeGenerator(PLAIN_TOKEN)
	requestService := requestpasswordreset.New(
		s.Logger,
		s.Uow,
		s.UserRepository,
		generator,
		s.Hasher,
		time.Hour,
		func() time.Time { return s.now },
	)
	validateService := validateresettoken.New(
		s.Logger,
		s.TokenRepository,
		s.Hasher,
		func() time.Time { return s.now },
	)

	requestResult, err := requestService.Run(
		context.Background(),
		requestpasswordreset.Input{Email: c.Email(EMAIL)},
	)
	s.Nil(err)
	s.True(requestResult.Token.IsPresent)
	plain := requestResult.Token.Value

	validateResult, err := validateService.Run(
		context.Background(),
		validateresettoken.Input{Token: plain},
	)
	s.Nil(err)
	s.Equal(60, validateResult.MinutesRemaining)

	resetResult, err := s.Service.Run(context.Background(), Input{
		Token:                plain,
		NewPassword:          NEW_PASSWORD,
		PasswordConfirmation: NEW_PASSWORD,
	})
	s.Nil(err)
	s.Equal(u.ID, resetResult.User.ID)

	_, err = s.Service.Run(context.Background(), Input{
		Token:                plain,
		NewPassword:          NEW_PASSWORD,
		PasswordConfirmation: NEW_PASSWORD,
	})
	s.True(errors.Is(err, resettoken.ErrTokenAlreadyUsed))
}

func (s *testSuite) TestEndToEndExpiredFlow() {
	u := s.createUser()
	generator := resettoken.NewFakeGenerator(PLAIN_TOKEN)
	requestService := requestpasswordreset.New(
		s.Logger,
		s.Uow,
		s.UserRepository,
		generator,
		s.Hasher,
		time.Hour,
		func() time.Time { return s.now },
	)

	requestResult, err := requestService.Run(
		context.Background(),
		requestpasswordreset.Input{Email: c.Email(EMAIL)},
	)
	s.Nil(err)

	s.now = NOW.Add(2 * time.Hour)
	_, err = s.Service.Run(context.Background(), Input{
		Token:                requestResult.Token.Value,
		NewPassword:          NEW_PASSWORD,
		PasswordConfirmation: NEW_PASSWORD,
	})
	s.True(errors.Is(err, resettoken.ErrTokenExpired))

	unchanged, err := s.UserRepository.GetByID(context.Background(), u.ID)
	s.Nil(err)
	s.Equal(user.PasswordHash(PASSWORD_HASH), unchanged.PasswordHash)
}

func (s *testSuite) validInput() Input {
	return Input{
		Token:                PLAIN_TOKEN,
		NewPassword:          NEW_PASSWORD,
		PasswordConfirmation: NEW_PASSWORD,
	}
}

func (s *testSuite) createUser() user.User {
	s.T().Helper()
	u, err := s.UserRepository.Create(
		context.Background(),
		user.CreateUserInput{
			Email:        c.Email(EMAIL),
			Name:         NAME,
			PasswordHash: user.PasswordHash(PASSWORD_HASH),
			CreatedAt:    NOW,
		},
	)
	if err != nil {
		s.FailNow(err.Error())
	}
	return u
}

func (s *testSuite) createToken(userID user.ID, expiresAt time.Time) resettoken.ResetToken {
	s.T().Helper()
	t, err := s.TokenRepository.Create(context.Background(), resettoken.CreateInput{
		UserID:    userID,
		TokenHash: s.Hasher.HashToken(PLAIN_TOKEN),
		CreatedAt: NOW,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		s.FailNow(err.Error())
	}
	return t
}
