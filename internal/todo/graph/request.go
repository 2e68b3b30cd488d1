package graph

import (
	"context"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// Request is the JSON body of a GraphQL POST.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Execute runs req against schema.
func Execute(ctx context.Context, schema graphql.Schema, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

// IsPasswordAttempt reports whether the request tries to authenticate with a
// password: either the variables carry a non-empty password, or a root field
// of an operation is called with a password argument. Root fields reached
// through inline fragments and fragment spreads count.
func (r Request) IsPasswordAttempt() bool {
	if pw, ok := r.Variables["password"].(string); ok && pw != "" {
		return true
	}

	doc, err := parser.Parse(parser.ParseParams{Source: r.Query})
	if err != nil {
		return false
	}

	fragments := make(map[string]*ast.FragmentDefinition)
	for _, def := range doc.Definitions {
		if frag, ok := def.(*ast.FragmentDefinition); ok && frag.Name != nil {
			fragments[frag.Name.Value] = frag
		}
	}

	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if hasPasswordArgument(op.SelectionSet, fragments, map[string]bool{}) {
			return true
		}
	}
	return false
}

// hasPasswordArgument checks the fields of set, following fragments but not
// descending into field sub-selections. visited stops spread cycles.
func hasPasswordArgument(set *ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, visited map[string]bool) bool {
	if set == nil {
		return false
	}

	for _, sel := range set.Selections {
		switch sel := sel.(type) {
		case *ast.Field:
			for _, arg := range sel.Arguments {
				if arg.Name != nil && arg.Name.Value == "password" {
					return true
				}
			}
		case *ast.InlineFragment:
			if hasPasswordArgument(sel.SelectionSet, fragments, visited) {
				return true
			}
		case *ast.FragmentSpread:
			if sel.Name == nil || visited[sel.Name.Value] {
				continue
			}
			visited[sel.Name.Value] = true
			frag, ok := fragments[sel.Name.Value]
			if ok && hasPasswordArgument(frag.SelectionSet, fragments, visited) {
				return true
			}
		}
	}
	return false
}
