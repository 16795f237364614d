package requestpasswordreset

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	c "resetme/internal/core/domain/common"
	e "resetme/internal/core/domain/errors"
	ratelimiter "resetme/internal/core/domain/rate_limiter"
	"resetme/internal/core/services"
	service "resetme/internal/core/services/request_password_reset"
	"resetme/internal/http/handlers/response"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type Handler struct {
	service    services.Service[service.Input, service.Result]
	isTestMode bool
}

func New(
	service services.Service[service.Input, service.Result],
	isTestMode bool,
) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service, isTestMode: isTestMode}
}

type Input struct {
	Email string `json:"email"`
}

func (i *Input) FromJSON(r io.Reader) error {
	e := json.NewDecoder(r)
	return e.Decode(i)
}

// A blank email is allowed through, the service answers it with the
// same generic success as everything else.
func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, is.Email, validation.Length(0, 512)),
	)
}

type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	input := Input{}
	if err := input.FromJSON(r.Body); err != nil {
		response.RenderError(rw, "invalid request data", http.StatusBadRequest)
		return
	}
	if err := input.Validate(); err != nil {
		response.Render(rw, err, http.StatusBadRequest)
		return
	}

	result, err := h.service.Run(
		r.Context(),
		service.Input{
			Email:            c.NewEmail(input.Email),
			RequestIP:        c.NewOptional(r.RemoteAddr, r.RemoteAddr != ""),
			RequestUserAgent: c.NewOptional(r.UserAgent(), r.UserAgent() != ""),
		},
	)
	if err != nil {
		switch {
		case errors.Is(err, ratelimiter.ErrRateLimitExceeded):
			response.RenderRateLimitExceeded(rw)
		default:
			response.RenderInternalError(rw)
		}
		return
	}

	if h.isTestMode && result.Token.IsPresent {
		rw.Header().Set("x-test-password-reset-token", string(result.Token.Value))
	}
	response.Render(
		rw,
		Result{
			Success: true,
			Message: "If the email address is registered, a password reset message has been sent.",
		},
		http.StatusOK,
	)
}
