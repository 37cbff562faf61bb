package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/webermont/LeiaMais/internal/apperrors"
	"github.com/webermont/LeiaMais/internal/middleware"
	"github.com/webermont/LeiaMais/internal/models"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Details []string `json:"details,omitempty"`
}

// MessageResponse acknowledges requests that return no entity
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterValidators installs the domain validators on gin's binding engine.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	v.RegisterTagNameFunc(fieldName)
	return models.RegisterValidators(v)
}

// fieldName reports fields by their json or form name.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}

// respondError writes err as an ErrorResponse. Internal errors are attached
// to the context for the access log and never shown to the caller.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	if appErr.Kind == apperrors.KindInternal {
		_ = c.Error(err)
	}

	c.JSON(appErr.Status, ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code,
	})
}

// respondBindError reports a malformed body or query string.
func respondBindError(c *gin.Context, err error) {
	response := ErrorResponse{
		Error: "invalid request data",
		Code:  "VALIDATION_ERROR",
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fe := range validationErrors {
			response.Details = append(response.Details, fieldErrorMessage(fe))
		}
	} else {
		response.Details = []string{err.Error()}
	}

	c.JSON(http.StatusBadRequest, response)
}

func fieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "libraryrole":
		return fmt.Sprintf("%s must be one of admin, librarian, teacher, student", field)
	case "finestatus":
		return fmt.Sprintf("%s must be one of pending, paid, cancelled", field)
	case "loanstatus":
		return fmt.Sprintf("%s must be one of active, returned, overdue", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid %s", name),
			Code:  "VALIDATION_ERROR",
		})
		return 0, false
	}
	return id, true
}

// allowSelfOrStaff lets members read their own records. Staff read anyone's.
func allowSelfOrStaff(c *gin.Context, userID int64) bool {
	if middleware.GetUserRole(c).IsStaff() || middleware.GetUserID(c) == userID {
		return true
	}
	respondError(c, apperrors.Forbidden("insufficient permissions to access this resource"))
	return false
}
