package paginate

import (
	"strings"
	"sync"

	"github.com/graphql-go/graphql"
)

// pageKey is the reserved key wrapper resolvers read the *Page value from.
// It rides inside the metadata maps and never matches a schema field name.
const pageKey = "__page"

// Types builds and caches the generated wrapper types for one compiled
// schema. Builders may run concurrently when the host compiles per request,
// so lookups double-check under the write lock before inserting.
type Types struct {
	mu       sync.RWMutex
	wrappers map[string]*graphql.Object

	paginatorInfo       *graphql.Object
	simplePaginatorInfo *graphql.Object
	pageInfo            *graphql.Object
}

func NewTypes() *Types {
	return &Types{wrappers: make(map[string]*graphql.Object)}
}

// Wrapper returns the generated wrapper for mode around base. The edge
// argument applies to ModeConnection only and may be nil for the generated
// default edge.
func (t *Types) Wrapper(mode Mode, base *graphql.Object, edge *graphql.Object) *graphql.Object {
	switch mode {
	case ModePaginator:
		return t.Paginator(base)
	case ModeSimple:
		return t.SimplePaginator(base)
	case ModeConnection:
		return t.Connection(base, edge)
	default:
		return nil
	}
}

// Paginator returns the {Base}Paginator wrapper: an offset window plus full
// paginator metadata.
func (t *Types) Paginator(base *graphql.Object) *graphql.Object {
	name := base.Name() + "Paginator"
	if cached := t.lookup(name); cached != nil {
		return cached
	}

	wrapper := graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"data": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(base))),
			},
			"paginatorInfo": &graphql.Field{
				Type: graphql.NewNonNull(t.paginatorInfoType()),
			},
		},
	})

	return t.insert(name, wrapper)
}

// SimplePaginator returns the {Base}SimplePaginator wrapper: an offset
// window whose metadata avoids the count query.
func (t *Types) SimplePaginator(base *graphql.Object) *graphql.Object {
	name := base.Name() + "SimplePaginator"
	if cached := t.lookup(name); cached != nil {
		return cached
	}

	wrapper := graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"data": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(base))),
			},
			"paginatorInfo": &graphql.Field{
				Type: graphql.NewNonNull(t.simplePaginatorInfoType()),
			},
		},
	})

	return t.insert(name, wrapper)
}

// Connection returns the {Base}Connection wrapper. When edge is non-nil it
// is used in place of the generated {Base}Edge, and the connection is named
// after it so distinct edge shapes get distinct connections.
func (t *Types) Connection(base *graphql.Object, edge *graphql.Object) *graphql.Object {
	name := base.Name() + "Connection"
	if edge != nil {
		name = strings.TrimSuffix(edge.Name(), "Edge") + "Connection"
	}
	if cached := t.lookup(name); cached != nil {
		return cached
	}

	if edge == nil {
		edge = t.Edge(base)
	}

	wrapper := graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"edges": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(edge))),
			},
			"pageInfo": &graphql.Field{
				Type: graphql.NewNonNull(t.pageInfoType()),
			},
		},
	})

	return t.insert(name, wrapper)
}

// Edge returns the generated {Base}Edge type.
func (t *Types) Edge(base *graphql.Object) *graphql.Object {
	name := base.Name() + "Edge"
	if cached := t.lookup(name); cached != nil {
		return cached
	}

	edge := graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"cursor": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"node": &graphql.Field{
				Type: graphql.NewNonNull(base),
			},
		},
	})

	return t.insert(name, edge)
}

// Generated returns every wrapper built so far, for schema type maps and
// introspection assertions.
func (t *Types) Generated() []graphql.Type {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]graphql.Type, 0, len(t.wrappers))
	for _, w := range t.wrappers {
		out = append(out, w)
	}
	return out
}

func (t *Types) lookup(name string) *graphql.Object {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.wrappers[name]
}

func (t *Types) insert(name string, obj *graphql.Object) *graphql.Object {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cached, ok := t.wrappers[name]; ok {
		return cached
	}
	t.wrappers[name] = obj
	return obj
}

// paginatorInfoType returns the shared PaginatorInfo type. The total and
// lastPage fields resolve through the page's lazy count.
func (t *Types) paginatorInfoType() *graphql.Object {
	t.mu.RLock()
	cached := t.paginatorInfo
	t.mu.RUnlock()
	if cached != nil {
		return cached
	}

	info := graphql.NewObject(graphql.ObjectConfig{
		Name: "PaginatorInfo",
		Fields: graphql.Fields{
			"count": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"currentPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"firstItem": &graphql.Field{
				Type: graphql.Int,
			},
			"lastItem": &graphql.Field{
				Type: graphql.Int,
			},
			"perPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"hasMorePages": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"total": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Int),
				Resolve: resolvePageTotal,
			},
			"lastPage": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Int),
				Resolve: resolvePageLastPage,
			},
		},
	})

	t.mu.Lock()
	if t.paginatorInfo == nil {
		t.paginatorInfo = info
	}
	cached = t.paginatorInfo
	t.mu.Unlock()

	return cached
}

// simplePaginatorInfoType returns the shared SimplePaginatorInfo type. Every
// field is served from the fetched window; no count query ever runs.
func (t *Types) simplePaginatorInfoType() *graphql.Object {
	t.mu.RLock()
	cached := t.simplePaginatorInfo
	t.mu.RUnlock()
	if cached != nil {
		return cached
	}

	info := graphql.NewObject(graphql.ObjectConfig{
		Name: "SimplePaginatorInfo",
		Fields: graphql.Fields{
			"count": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"currentPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"firstItem": &graphql.Field{
				Type: graphql.Int,
			},
			"lastItem": &graphql.Field{
				Type: graphql.Int,
			},
			"perPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"hasMorePages": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
		},
	})

	t.mu.Lock()
	if t.simplePaginatorInfo == nil {
		t.simplePaginatorInfo = info
	}
	cached = t.simplePaginatorInfo
	t.mu.Unlock()

	return cached
}

// pageInfoType returns the shared PageInfo type for connections.
func (t *Types) pageInfoType() *graphql.Object {
	t.mu.RLock()
	cached := t.pageInfo
	t.mu.RUnlock()
	if cached != nil {
		return cached
	}

	pageInfo := graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"hasPreviousPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"startCursor": &graphql.Field{
				Type: graphql.String,
			},
			"endCursor": &graphql.Field{
				Type: graphql.String,
			},
			"count": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"currentPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
			"total": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Int),
				Resolve: resolvePageTotal,
			},
			"lastPage": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Int),
				Resolve: resolvePageLastPage,
			},
		},
	})

	t.mu.Lock()
	if t.pageInfo == nil {
		t.pageInfo = pageInfo
	}
	cached = t.pageInfo
	t.mu.Unlock()

	return cached
}

func resolvePageTotal(p graphql.ResolveParams) (interface{}, error) {
	page := pageFromSource(p.Source)
	if page == nil {
		return 0, nil
	}
	return page.Total()
}

func resolvePageLastPage(p graphql.ResolveParams) (interface{}, error) {
	page := pageFromSource(p.Source)
	if page == nil {
		return 1, nil
	}
	return page.LastPage()
}

func pageFromSource(source interface{}) *Page {
	m, ok := source.(map[string]interface{})
	if !ok {
		return nil
	}
	page, ok := m[pageKey].(*Page)
	if !ok {
		return nil
	}
	return page
}
