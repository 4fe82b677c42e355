package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"scavenger-hunt/apperr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseBody decodes the JSON body into out and runs its validate tags. An
// empty body validates the zero value.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(out); err != nil {
			return apperr.Validation("invalid request body")
		}
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return apperr.Validation("invalid request").With("fields", fields)
		}
		return apperr.Validation(err.Error())
	}
	return nil
}

type phoneRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=32"`
}

type verifyRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=32"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type qrRequest struct {
	QRCode string `json:"qr_code" validate:"max=256"`
}

type checkpointCompleteRequest struct {
	QRCode string `json:"qr_code" validate:"required,max=256"`
}

type pageRequest struct {
	Page string `json:"page" validate:"required,max=64"`
}

type claimRequest struct {
	VoucherCode string `json:"voucher_code" validate:"required,max=128"`
}
