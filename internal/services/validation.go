package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/vouchersplit/backend/internal/errs"
)

var (
	zaMobilePattern = regexp.MustCompile(`^0[0-9]{9}$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	digitsPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a validation helper with the voucher tags
// registered: za_mobile (South African mobile, 0 + 9 digits), phone (10 to
// 15 digits, optional +) and digits.
func NewValidationHelper() *ValidationHelper {
	v := validator.New()
	v.RegisterValidation("za_mobile", matches(zaMobilePattern))
	v.RegisterValidation("phone", matches(phonePattern))
	v.RegisterValidation("digits", matches(digitsPattern))
	return &ValidationHelper{validator: v}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	var fieldErrs validator.ValidationErrors
	if errors.As(validationErr, &fieldErrs) {
		errorResp.Details = make(map[string]string)
		for _, err := range fieldErrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// StatusFor maps an error kind to the HTTP status returned to clients.
func StatusFor(err error) int {
	switch {
	case errs.Is(err, errs.ErrParse), errs.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errs.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrSubmissionActive), errs.Is(err, errs.ErrStatusUnknown),
		errs.Is(err, errs.ErrConflict), errs.Is(err, errs.ErrVersionMismatch):
		return http.StatusConflict
	case errs.Is(err, errs.ErrRejected):
		return http.StatusUnprocessableEntity
	case errs.Ambiguous(err):
		return http.StatusGatewayTimeout
	case errs.Is(err, errs.ErrAuth), errs.Is(err, errs.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// MessageFor returns the client-facing message for err. Upstream rejection
// reasons pass through verbatim; internal failures stay opaque.
func MessageFor(err error) string {
	switch {
	case errs.Is(err, errs.ErrRejected):
		return errs.Reason(err)
	case errs.Is(err, errs.ErrTimeout):
		return errs.ErrTimeout.Error()
	case errs.Is(err, errs.ErrUnknownOutcome):
		return "outcome unknown, check the voucher balance before retrying"
	case errs.Is(err, errs.ErrAuth):
		return "voucher service authentication failed"
	case errs.Is(err, errs.ErrNetwork):
		return "voucher service unavailable, please try again"
	case StatusFor(err) == http.StatusInternalServerError:
		return "An Internal Error Occurred"
	}
	return err.Error()
}

// SendError writes err using its mapped status and message.
func SendError(w http.ResponseWriter, err error) {
	SendErrorResponse(w, MessageFor(err), StatusFor(err), nil)
}
