package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/navlink/navlink/internal/billing/domain"
)

// redirectBase reconstructs the externally visible origin so the gateway can
// send the payer back to this deployment. X-Forwarded headers win because the
// service usually sits behind the panel's reverse proxy.
func redirectBase(c *gin.Context) string {
	scheme := c.GetHeader("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}

func (s *Server) GcashPay(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	base := redirectBase(c)
	redirect := billingdomain.GatewayRedirect{
		SuccessURL: fmt.Sprintf("%s/api/billings/%d/gcashSuccess", base, id),
		FailedURL:  fmt.Sprintf("%s/api/billings/%d/gcashFailed", base, id),
	}

	checkoutURL, err := s.billingSvc.InitiateGatewayPayment(c.Request.Context(), id, redirect)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, checkoutURL)
}

func (s *Server) GcashSuccess(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	confirmation, err := s.billingSvc.ConfirmGatewayPayment(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	switch {
	case confirmation.AlreadyPaid:
		c.JSON(http.StatusOK, gin.H{"msg": "Billing has already been settled."})
	case confirmation.Settled:
		c.JSON(http.StatusOK, gin.H{"msg": "Payment received. Billing has been settled."})
	default:
		c.JSON(http.StatusOK, gin.H{"msg": "Payment is still processing. The billing stays pending until the gateway settles it."})
	}
}

func (s *Server) GcashFailed(c *gin.Context) {
	if _, err := parseIDParam(c); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "Payment was not completed. The billing remains unpaid."})
}
