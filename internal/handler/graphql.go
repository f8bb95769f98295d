package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
)

// maxGraphQLBody bounds the request document plus variables.
const maxGraphQLBody = 1 << 20

// GraphQL serves POST /graphql. The caller's principal must already be on
// the request context.
func GraphQL(schema *graphql.Schema) gin.HandlerFunc {
	h := &relay.Handler{Schema: schema}
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxGraphQLBody)
		h.ServeHTTP(c.Writer, c.Request)
	}
}
