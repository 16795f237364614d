package resetpassword

import (
	"context"
	"net/http"
	"net/http/httptest"
	c "resetme/internal/core/domain/common"
	"resetme/internal/core/domain/resettoken"
	"resetme/internal/core/domain/user"
	service "resetme/internal/core/services/reset_password"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stubService struct {
	err   error
	input *service.Input
}

func (s *stubService) Run(
	ctx context.Context,
	input service.Input,
) (result service.Result, err error) {
	s.input = &input
	if s.err != nil {
		return result, s.err
	}
	result.User = user.User{
		ID:           user.ID(1),
		Email:        c.Email("test@test.test"),
		Name:         "Test User",
		PasswordHash: user.PasswordHash("secret-hash"),
		CreatedAt:    time.Date(2023, 2, 15, 12, 30, 0, 0, time.UTC),
	}
	return result, nil
}

func TestResetPasswordHandler(t *testing.T) {
	cases := []struct {
		id             string
		body           string
		serviceErr     error
		expectedStatus int
	}{
		{
			id:             "success",
			body:           `{"token": "test-token", "password": "NewPass1", "password_confirm": "NewPass1"}`,
			expectedStatus: http.StatusOK,
		},
		{
			id:             "malformed body",
			body:           `{"token": `,
			expectedStatus: http.StatusBadRequest,
		},
		{
			id:             "blank token",
			body:           `{"token": "", "password": "NewPass1", "password_confirm": "NewPass1"}`,
			serviceErr:     resettoken.ErrTokenRequired,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			id:             "passwords do not match",
			body:           `{"token": "test-token", "password": "NewPass1", "password_confirm": "Other"}`,
			serviceErr:     user.ErrPasswordsDoNotMatch,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			id:             "token already used",
			body:           `{"token": "test-token", "password": "NewPass1", "password_confirm": "NewPass1"}`,
			serviceErr:     resettoken.ErrTokenAlreadyUsed,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			id:             "token expired",
			body:           `{"token": "test-token", "password": "NewPass1", "password_confirm": "NewPass1"}`,
			serviceErr:     resettoken.ErrTokenExpired,
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			stub := &stubService{err: testcase.serviceErr}
			handler := New(stub)

			request := httptest.NewRequest(
				http.MethodPut,
				"/auth/password_reset",
				strings.NewReader(testcase.body),
			)
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, testcase.expectedStatus, recorder.Code)
			if testcase.expectedStatus == http.StatusOK {
				body := recorder.Body.String()
				assert.Contains(t, body, `"success":true`)
				assert.Contains(t, body, `"email":"test@test.test"`)
				assert.NotContains(t, body, "secret-hash")
			}
		})
	}
}
