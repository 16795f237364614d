package resetpassword

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	e "resetme/internal/core/domain/errors"
	"resetme/internal/core/domain/resettoken"
	"resetme/internal/core/domain/user"
	"resetme/internal/core/services"
	service "resetme/internal/core/services/reset_password"
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
	Token           string `json:"token"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (i *Input) FromJSON(r io.Reader) error {
	e := json.NewDecoder(r)
	return e.Decode(i)
}

// Emptiness and the length floor are re-checked by the service, the
// handler only bounds sizes.
func (i Input) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Token, validation.Length(0, 1024)),
		validation.Field(&i.Password, validation.Length(0, 256)),
		validation.Field(&i.PasswordConfirm, validation.Length(0, 256)),
	)
}

type Result struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	User    response.User `json:"user"`
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
			Token:                resettoken.PlainToken(input.Token),
			NewPassword:          user.RawPassword(input.Password),
			PasswordConfirmation: user.RawPassword(input.PasswordConfirm),
		},
	)
	if err != nil {
		switch {
		case errors.Is(err, resettoken.ErrTokenRequired),
			errors.Is(err, user.ErrPasswordRequired),
			errors.Is(err, user.ErrPasswordsDoNotMatch),
			errors.Is(err, user.ErrPasswordTooShort),
			errors.Is(err, resettoken.ErrTokenInvalid),
			errors.Is(err, resettoken.ErrTokenAlreadyUsed),
			errors.Is(err, resettoken.ErrTokenExpired),
			errors.Is(err, resettoken.ErrTooManyAttempts):
			response.RenderError(rw, err.Error(), http.StatusUnprocessableEntity)
		default:
			response.RenderInternalError(rw)
		}
		return
	}

	res := Result{Success: true, Message: "Password has been reset."}
	res.User.FromDomainUser(result.User)
	response.Render(rw, res, http.StatusOK)
}
