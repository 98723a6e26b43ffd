package paginate

import (
	"context"

	"github.com/graphql-go/graphql"

	"github.com/graphbind/graphbind/internal/cursor"
)

// InjectedArgs returns the argument definitions a field acquires for mode.
// With a default count the argument is optional and pre-filled; without one
// it is required.
func InjectedArgs(mode Mode, bounds CountBounds) graphql.FieldConfigArgument {
	var first *graphql.ArgumentConfig
	if bounds.Default > 0 {
		first = &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: bounds.Default}
	} else {
		first = &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)}
	}

	switch mode {
	case ModePaginator, ModeSimple:
		return graphql.FieldConfigArgument{
			"first": first,
			"page":  &graphql.ArgumentConfig{Type: graphql.Int},
		}
	case ModeConnection:
		return graphql.FieldConfigArgument{
			"first": first,
			"after": &graphql.ArgumentConfig{Type: graphql.String},
		}
	default:
		return nil
	}
}

// Execute runs the windowed fetch for mode over src and shapes the value the
// generated wrapper type resolves from. typeName is the base type the field
// yields; connection cursors are minted for it and validated against it.
func Execute(ctx context.Context, mode Mode, src DataSource, bounds CountBounds, typeName string, args map[string]interface{}) (interface{}, error) {
	switch mode {
	case ModeNone:
		return src.Fetch(ctx, 0, 0)
	case ModePaginator, ModeSimple:
		return executeOffset(ctx, mode, src, bounds, args)
	case ModeConnection:
		return executeConnection(ctx, src, bounds, typeName, args)
	default:
		return src.Fetch(ctx, 0, 0)
	}
}

func executeOffset(ctx context.Context, mode Mode, src DataSource, bounds CountBounds, args map[string]interface{}) (interface{}, error) {
	perPage, err := bounds.Resolve(intArg(args, "first"))
	if err != nil {
		return nil, err
	}

	currentPage := 1
	if raw := intArg(args, "page"); raw != nil {
		if *raw < 1 {
			return nil, &ValidationError{Message: "page must be a positive integer"}
		}
		currentPage = *raw
	}
	offset := (currentPage - 1) * perPage

	records, err := src.Fetch(ctx, perPage+1, offset)
	if err != nil {
		return nil, err
	}
	hasMore := len(records) > perPage
	if hasMore {
		records = records[:perPage]
	}

	page := newPage(ctx, src, records, perPage, currentPage, offset, hasMore)

	info := map[string]interface{}{
		"count":        page.Count(),
		"currentPage":  page.CurrentPage,
		"firstItem":    page.FirstItem(),
		"lastItem":     page.LastItem(),
		"perPage":      page.PerPage,
		"hasMorePages": page.HasMore(),
	}
	if mode == ModePaginator {
		info[pageKey] = page
	}

	return map[string]interface{}{
		"data":          page.Records,
		"paginatorInfo": info,
	}, nil
}

func executeConnection(ctx context.Context, src DataSource, bounds CountBounds, typeName string, args map[string]interface{}) (interface{}, error) {
	perPage, err := bounds.Resolve(intArg(args, "first"))
	if err != nil {
		return nil, err
	}

	offset := 0
	if after, ok := args["after"].(string); ok && after != "" {
		cursorType, cursorOffset, err := cursor.Decode(after)
		if err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		if err := cursor.Validate(typeName, cursorType); err != nil {
			return nil, &ValidationError{Message: err.Error()}
		}
		offset = cursorOffset + 1
	}

	records, err := src.Fetch(ctx, perPage+1, offset)
	if err != nil {
		return nil, err
	}
	hasNext := len(records) > perPage
	if hasNext {
		records = records[:perPage]
	}

	currentPage := offset/perPage + 1
	page := newPage(ctx, src, records, perPage, currentPage, offset, hasNext)

	edges := make([]map[string]interface{}, len(page.Records))
	for i, rec := range page.Records {
		edges[i] = map[string]interface{}{
			"cursor": cursor.Encode(typeName, offset+i),
			"node":   rec,
		}
	}

	var startCursor, endCursor interface{}
	if len(edges) > 0 {
		startCursor = edges[0]["cursor"]
		endCursor = edges[len(edges)-1]["cursor"]
	}

	pageInfo := map[string]interface{}{
		"hasNextPage":     hasNext,
		"hasPreviousPage": offset > 0,
		"startCursor":     startCursor,
		"endCursor":       endCursor,
		"count":           page.Count(),
		"currentPage":     page.CurrentPage,
		pageKey:           page,
	}

	return map[string]interface{}{
		"edges":    edges,
		"pageInfo": pageInfo,
	}, nil
}

func intArg(args map[string]interface{}, name string) *int {
	switch v := args[name].(type) {
	case int:
		return &v
	case int64:
		i := int(v)
		return &i
	case float64:
		i := int(v)
		return &i
	default:
		return nil
	}
}
