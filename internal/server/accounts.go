package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/navlink/navlink/internal/account/domain"
)

func (s *Server) ListAccounts(c *gin.Context) {
	var req accountdomain.ListAccountsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	accounts, err := s.accountSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": accounts})
}

func (s *Server) GetAccount(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	aggregate, err := s.accountSvc.GetAggregate(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": aggregate})
}

// ListCutOffAccounts reports accounts holding an unpaid monthly billing whose
// cut-off date has lapsed as of now.
func (s *Server) ListCutOffAccounts(c *gin.Context) {
	accounts, err := s.accountSvc.CutOffAccounts(c.Request.Context(), s.clk.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": accounts})
}

func (s *Server) AddServiceInterruption(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req accountdomain.AddServiceInterruptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	req.AccountID = id

	interruption, err := s.accountSvc.AddServiceInterruption(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"msg": "Service interruption recorded.", "data": interruption})
}
