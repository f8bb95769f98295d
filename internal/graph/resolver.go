// Package graph exposes the services over GraphQL (graph-gophers/graphql-go).
package graph

import (
	"context"
	_ "embed"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/service"

	"github.com/google/uuid"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

//go:embed schema.graphql
var schemaSDL string

// Services is everything the resolvers call.
type Services struct {
	Auth     service.AuthService
	Store    service.StoreService
	Catalog  service.CatalogService
	Cash     service.CashService
	Sales    service.SaleService
	Returns  service.ReturnService
	Purchase service.PurchaseService
}

// Resolver is the root resolver for both Query and Mutation.
type Resolver struct {
	svc Services
}

func NewResolver(svc Services) *Resolver {
	return &Resolver{svc: svc}
}

// NewSchema parses the embedded SDL against r. It panics on a schema and
// resolver mismatch, which is a programming error caught at boot.
func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(schemaSDL, r,
		graphql.UseFieldResolvers(),
		graphql.MaxDepth(12),
	)
}

// fail turns a service error into the client-facing GraphQL error.
// Infrastructure errors are logged with their cause and surfaced as a
// generic message.
func fail(ctx context.Context, op string, err error) error {
	pub := apierror.Public(err)
	if pub.Kind == apierror.KindInfrastructure {
		log.Ctx(ctx).Error().Err(err).Str("op", op).Msg("graphql: internal error")
	} else {
		log.Ctx(ctx).Debug().Str("op", op).Str("kind", pub.Kind.String()).Msg(pub.Message)
	}
	return pub
}

func parseID(v graphql.ID, field string) (uuid.UUID, error) {
	u, err := uuid.Parse(string(v))
	if err != nil {
		return uuid.Nil, apierror.Validation("Erro de validação", map[string]string{field: "uuid"})
	}
	return u, nil
}

func optString(v *graphql.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func optDec(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}

func limitOr(v *int32, def int) int {
	if v == nil || *v <= 0 {
		return def
	}
	return int(*v)
}
