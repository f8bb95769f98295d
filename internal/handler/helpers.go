package handler

import (
	"net/http"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido: "+err.Error()))
		return false
	}
	if err := dto.Validate(req); err != nil {
		respondError(c, err)
		return false
	}
	return true
}

// respondError writes err in the REST envelope. Unclassified errors are
// logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	pub := apierror.Public(err)
	status := pub.Kind.HTTPStatus()
	if pub.Kind == apierror.KindInfrastructure {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	if len(pub.Fields) > 0 {
		c.JSON(status, &apierror.ValidationError{Detail: pub.Message, Fields: pub.Fields})
		return
	}
	c.JSON(status, apierror.New(pub.Message))
}
