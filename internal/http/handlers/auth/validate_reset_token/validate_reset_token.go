package validateresettoken

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	e "resetme/internal/core/domain/errors"
	"resetme/internal/core/domain/resettoken"
	"resetme/internal/core/services"
	service "resetme/internal/core/services/validate_reset_token"
	"resetme/internal/http/handlers/response"

	validation "github.com/go-ozzo/ozzo-validation"
)

type Handler struct {
	service services.Service[service.Input, service.Result]
}

func New(
	service services.Service[service.Input, service.Result],
) *Handler {
	if service == nil {
		panic(e.NewNilArgumentError("service"))
	}
	return &Handler{service: service}
}

type Input struct {
	Token string `json:"token"`
}

func (i *Input) FromJSON(r io.Reader) error {
	e := json.NewDecoder(r)
	return e.Decode(i)
}

func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Token, validation.Required, validation.Length(0, 1024)),
	)
}

type Result struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	MinutesRemaining int    `json:"minutes_remaining"`
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
		service.Input{Token: resettoken.PlainToken(input.Token)},
	)
	if err != nil {
		switch {
		case errors.Is(err, resettoken.ErrTokenInvalid),
			errors.Is(err, resettoken.ErrTokenAlreadyUsed),
			errors.Is(err, resettoken.ErrTokenExpired),
			errors.Is(err, resettoken.ErrTooManyAttempts):
			response.RenderError(rw, err.Error(), http.StatusUnprocessableEntity)
		default:
			response.RenderInternalError(rw)
		}
		return
	}

	response.Render(
		rw,
		Result{
			Success:          true,
			Message:          "Token is valid.",
			MinutesRemaining: result.MinutesRemaining,
		},
		http.StatusOK,
	)
}
