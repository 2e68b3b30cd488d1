// Package graph defines the GraphQL schema: one protected query and the
// three session mutations.
package graph

import (
	"github.com/aussiebroadwan/todoauth/internal/todo/domain"
	"github.com/aussiebroadwan/todoauth/internal/todo/service"
	"github.com/graphql-go/graphql"
)

// Resolvers holds the services the schema delegates to.
type Resolvers struct {
	Sessions *service.SessionService
	Todos    *service.TodoService
}

// NewSchema builds:
//
//	type Query { todos: [String!] }
//	type Mutation {
//	  authenticate(name: String!, password: String!): String
//	  refresh: String
//	  logout: Boolean
//	}
func NewSchema(r Resolvers) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"todos": &graphql.Field{
				Type:    graphql.NewList(graphql.NewNonNull(graphql.String)),
				Resolve: r.todos,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"authenticate": &graphql.Field{
				Type: graphql.String,
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.authenticate,
			},
			"refresh": &graphql.Field{
				Type:    graphql.String,
				Resolve: r.refresh,
			},
			"logout": &graphql.Field{
				Type:    graphql.Boolean,
				Resolve: r.logout,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func (r Resolvers) todos(p graphql.ResolveParams) (any, error) {
	rc := domain.RequestContextFrom(p.Context)

	todos, err := r.Todos.List(p.Context, rc.Identity)
	if err != nil {
		return nil, resolverError(p.Context, err)
	}
	return todos, nil
}

func (r Resolvers) authenticate(p graphql.ResolveParams) (any, error) {
	name, _ := p.Args["name"].(string)
	password, _ := p.Args["password"].(string)

	token, err := r.Sessions.Authenticate(p.Context, name, password)
	if err != nil {
		return nil, resolverError(p.Context, err)
	}
	return token, nil
}

func (r Resolvers) refresh(p graphql.ResolveParams) (any, error) {
	rc := domain.RequestContextFrom(p.Context)

	token, err := r.Sessions.Refresh(p.Context, rc.RefreshToken)
	if err != nil {
		return nil, resolverError(p.Context, err)
	}
	if token == "" {
		return nil, nil
	}
	return token, nil
}

func (r Resolvers) logout(p graphql.ResolveParams) (any, error) {
	rc := domain.RequestContextFrom(p.Context)

	if err := r.Sessions.Logout(p.Context, rc.RefreshToken); err != nil {
		return nil, resolverError(p.Context, err)
	}
	return true, nil
}
