package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/navlink/navlink/internal/account/domain"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
	paymentdomain "github.com/navlink/navlink/internal/payment/domain"
	"gorm.io/gorm"
)

// errorResponse matches the admin panel's expectation: a flat list of
// human-readable messages under "errors".
type errorResponse struct {
	Errors []string `json:"errors"`
}

var ErrInvalidRequest = errors.New("invalid_request")

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, body := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, body)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorResponse) {
	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorResponse{Errors: []string{"The requested record was not found."}}
	case errors.Is(err, billingdomain.ErrInvalidReference):
		return http.StatusBadRequest, errorResponse{Errors: []string{"The payment reference is not a recognized checkout source."}}
	case errors.Is(err, billingdomain.ErrGatewayUnavailable),
		errors.Is(err, paymentdomain.ErrRequestFailed):
		return http.StatusServiceUnavailable, errorResponse{Errors: []string{"The payment gateway is unavailable. Try again later."}}
	default:
		if msg, ok := validationMessage(err); ok {
			return http.StatusUnprocessableEntity, errorResponse{Errors: []string{msg}}
		}
		return http.StatusInternalServerError, errorResponse{Errors: []string{"Something went wrong. Try again later."}}
	}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, billingdomain.ErrBillingNotFound) ||
		errors.Is(err, billingdomain.ErrAccountNotFound) ||
		errors.Is(err, billingdomain.ErrPlanNotFound) ||
		errors.Is(err, accountdomain.ErrNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}

// validationMessage translates business-rule rejections into the messages the
// operators see on the billing screens.
func validationMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "The request payload is invalid.", true
	case errors.Is(err, billingdomain.ErrAlreadyPaid):
		return "The billing item has already been settled.", true
	case errors.Is(err, billingdomain.ErrNotUnpaid):
		return "Only unpaid billing items can be settled.", true
	case errors.Is(err, billingdomain.ErrNotPending):
		return "Only pending billing items can be confirmed.", true
	case errors.Is(err, billingdomain.ErrInsufficientCredit):
		return "The account does not have enough remaining credits.", true
	case errors.Is(err, billingdomain.ErrInvalidBillingType):
		return "The selected billing type is invalid.", true
	case errors.Is(err, billingdomain.ErrDateOutsidePeriod):
		return "The change date must fall within the billing period.", true
	case errors.Is(err, billingdomain.ErrCorruptSnapshot):
		return "The stored account snapshot could not be read.", true
	case errors.Is(err, billingdomain.ErrCorruptParticulars):
		return "The stored particulars could not be read.", true
	case errors.Is(err, accountdomain.ErrInvalidDateRange):
		return "The end date must be on or after the start date.", true
	case errors.Is(err, accountdomain.ErrOverlappingInterruption):
		return "The interruption window overlaps an existing record.", true
	default:
		return "", false
	}
}
