package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetReferences(c *gin.Context) {
	catalog, err := s.referenceSvc.Catalog(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": catalog})
}
