package requestpasswordreset

import (
	"context"
	"net/http"
	"net/http/httptest"
	c "resetme/internal/core/domain/common"
	ratelimiter "resetme/internal/core/domain/rate_limiter"
	"resetme/internal/core/domain/resettoken"
	service "resetme/internal/core/services/request_password_reset"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubService struct {
	token c.Optional[resettoken.PlainToken]
	err   error
	input *service.Input
}

func (s *stubService) Run(
	ctx context.Context,
	input service.Input,
) (result service.Result, err error) {
	if s.err != nil {
		return result, s.err
	}
	s.input = &input
	result.Token = s.token
	result.ExpiresInMinutes = 60
	return result, nil
}

func TestRequestPasswordResetHandler(t *testing.T) {
	cases := []struct {
		id             string
		body           string
		isTestMode     bool
		serviceToken   c.Optional[resettoken.PlainToken]
		serviceErr     error
		expectedStatus int
		expectedEmail  *c.Email
		expectedHeader string
	}{
		{
			id:             "token issued",
			body:           `{"email": "Test@Test.test"}`,
			serviceToken:   c.NewOptional(resettoken.PlainToken("test-token"), true),
			expectedStatus: http.StatusOK,
			expectedEmail:  emailPtr("test@test.test"),
		},
		{
			id:             "token issued in test mode",
			body:           `{"email": "test@test.test"}`,
			isTestMode:     true,
			serviceToken:   c.NewOptional(resettoken.PlainToken("test-token"), true),
			expectedStatus: http.StatusOK,
			expectedEmail:  emailPtr("test@test.test"),
			expectedHeader: "test-token",
		},
		{
			id:             "no token still generic success",
			body:           `{"email": "unknown@test.test"}`,
			isTestMode:     true,
			expectedStatus: http.StatusOK,
			expectedEmail:  emailPtr("unknown@test.test"),
		},
		{
			id:             "blank email generic success",
			body:           `{"email": ""}`,
			expectedStatus: http.StatusOK,
			expectedEmail:  emailPtr(""),
		},
		{
			id:             "malformed email rejected",
			body:           `{"email": "not-an-email"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			id:             "malformed body rejected",
			body:           `{"email": `,
			expectedStatus: http.StatusBadRequest,
		},
		{
			id:             "rate limited",
			body:           `{"email": "test@test.test"}`,
			serviceErr:     ratelimiter.ErrRateLimitExceeded,
			expectedStatus: http.StatusTooManyRequests,
		},
	}

	for _, testcase := range cases {
		t.Run(testcase.id, func(t *testing.T) {
			stub := &stubService{token: testcase.serviceToken, err: testcase.serviceErr}
			handler := New(stub, testcase.isTestMode)

			request := httptest.NewRequest(
				http.MethodPost,
				"/auth/password_reset/request",
				strings.NewReader(testcase.body),
			)
			request.Header.Set("User-Agent", "test-agent")
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, testcase.expectedStatus, recorder.Code)
			assert.Equal(
				t,
				testcase.expectedHeader,
				recorder.Header().Get("x-test-password-reset-token"),
			)
			if testcase.expectedEmail != nil {
				if assert.NotNil(t, stub.input) {
					assert.Equal(t, *testcase.expectedEmail, stub.input.Email)
					assert.Equal(t, "test-agent", stub.input.RequestUserAgent.Value)
				}
			}
			if testcase.expectedStatus == http.StatusOK {
				assert.Contains(t, recorder.Body.String(), `"success":true`)
				assert.NotContains(t, recorder.Body.String(), "test-token")
			}
		})
	}
}

func emailPtr(email string) *c.Email {
	e := c.Email(email)
	return &e
}
