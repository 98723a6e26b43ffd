package schema

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphbind/graphbind/internal/cursor"
	"github.com/graphbind/graphbind/model"
	"github.com/graphbind/graphbind/paginate"
	"github.com/graphbind/graphbind/sqlstore"
)

func newMockStore(t *testing.T) (*sqlstore.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlstore.NewDB(db), mock
}

func compileWith(t *testing.T, store *sqlstore.Store, sdl string) *Schema {
	t.Helper()

	compiler := NewCompiler(testSource(t), store,
		WithPagination(paginate.Config{DefaultCount: 10, MaxCount: 50, HardCeiling: 100}),
	)
	compiled, err := compiler.Compile(sdl)
	require.NoError(t, err)
	return compiled
}

func execute(t *testing.T, compiled *Schema, query string) *graphql.Result {
	t.Helper()

	return graphql.Do(graphql.Params{
		Schema:        compiled.Schema,
		RequestString: query,
		Context:       context.Background(),
	})
}

func TestPaginatorEndToEnd(t *testing.T) {
	store, mock := newMockStore(t)
	compiled := compileWith(t, store, baseSDL)

	// first: 2 probes one extra row for hasMorePages.
	rows := sqlmock.NewRows([]string{"id", "title"}).
		AddRow(int64(1), "one").
		AddRow(int64(2), "two").
		AddRow(int64(3), "three")
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `posts` ORDER BY `posts`.`id` ASC LIMIT 3",
	)).WillReturnRows(rows)

	result := execute(t, compiled, `{
		posts(first: 2) {
			data { id title }
			paginatorInfo { count currentPage perPage hasMorePages firstItem lastItem }
		}
	}`)
	require.Empty(t, result.Errors)

	posts := result.Data.(map[string]interface{})["posts"].(map[string]interface{})
	data := posts["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "one", data[0].(map[string]interface{})["title"])

	info := posts["paginatorInfo"].(map[string]interface{})
	assert.Equal(t, 2, info["count"])
	assert.Equal(t, 1, info["currentPage"])
	assert.Equal(t, 2, info["perPage"])
	assert.Equal(t, true, info["hasMorePages"])
	assert.Equal(t, 1, info["firstItem"])
	assert.Equal(t, 2, info["lastItem"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginatorLazyTotal(t *testing.T) {
	store, mock := newMockStore(t)
	compiled := compileWith(t, store, baseSDL)

	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `posts` ORDER BY `posts`.`id` ASC LIMIT 3",
	)).WillReturnRows(rows)
	// Selecting total and lastPage runs the count query once.
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM (SELECT * FROM `posts`) AS __count",
	)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	result := execute(t, compiled, `{
		posts(first: 2) {
			paginatorInfo { total lastPage }
		}
	}`)
	require.Empty(t, result.Errors)

	info := result.Data.(map[string]interface{})["posts"].(map[string]interface{})["paginatorInfo"].(map[string]interface{})
	assert.Equal(t, 7, info["total"])
	assert.Equal(t, 4, info["lastPage"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginatorCountClamping(t *testing.T) {
	store, mock := newMockStore(t)
	compiled := compileWith(t, store, baseSDL)

	// maxCount 50 clamps first: 80 down, so the probe fetches 51.
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `posts` ORDER BY `posts`.`id` ASC LIMIT 51",
	)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	result := execute(t, compiled, `{
		posts(first: 80) { paginatorInfo { perPage } }
	}`)
	require.Empty(t, result.Errors)

	info := result.Data.(map[string]interface{})["posts"].(map[string]interface{})["paginatorInfo"].(map[string]interface{})
	assert.Equal(t, 50, info["perPage"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaginatorRejectsInvalidCount(t *testing.T) {
	store, _ := newMockStore(t)
	compiled := compileWith(t, store, baseSDL)

	result := execute(t, compiled, `{ posts(first: -1) { paginatorInfo { count } } }`)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "count must be a positive integer")

	result = execute(t, compiled, `{ posts(first: 500) { paginatorInfo { count } } }`)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "exceeds the maximum")
}

func TestConnectionCursorRoundTrip(t *testing.T) {
	store, mock := newMockStore(t)
	sdl := `
		type Query { posts: [Post!]! @paginate(type: CONNECTION) }
		type Post @model { id: ID, title: String }
	`
	compiled := compileWith(t, store, sdl)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `posts` ORDER BY `posts`.`id` ASC LIMIT 3",
	)).WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
		AddRow(int64(1), "one").
		AddRow(int64(2), "two").
		AddRow(int64(3), "three"))

	result := execute(t, compiled, `{
		posts(first: 2) {
			edges { cursor node { title } }
			pageInfo { hasNextPage hasPreviousPage endCursor }
		}
	}`)
	require.Empty(t, result.Errors)

	posts := result.Data.(map[string]interface{})["posts"].(map[string]interface{})
	pageInfo := posts["pageInfo"].(map[string]interface{})
	assert.Equal(t, true, pageInfo["hasNextPage"])
	assert.Equal(t, false, pageInfo["hasPreviousPage"])

	endCursor, ok := pageInfo["endCursor"].(string)
	require.True(t, ok)
	typeName, offset, err := cursor.Decode(endCursor)
	require.NoError(t, err)
	assert.Equal(t, "Post", typeName)
	assert.Equal(t, 1, offset)

	// Resuming after the end cursor fetches from offset 2.
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `posts` ORDER BY `posts`.`id` ASC LIMIT 3 OFFSET 2",
	)).WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(int64(3), "three"))

	result = execute(t, compiled, `{
		posts(first: 2, after: "`+endCursor+`") {
			edges { node { title } }
			pageInfo { hasNextPage hasPreviousPage }
		}
	}`)
	require.Empty(t, result.Errors)

	posts = result.Data.(map[string]interface{})["posts"].(map[string]interface{})
	edges := posts["edges"].([]interface{})
	require.Len(t, edges, 1)
	pageInfo = posts["pageInfo"].(map[string]interface{})
	assert.Equal(t, false, pageInfo["hasNextPage"])
	assert.Equal(t, true, pageInfo["hasPreviousPage"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionRejectsForeignCursor(t *testing.T) {
	store, _ := newMockStore(t)
	compiled := compileWith(t, store, `
		type Query { posts: [Post!]! @paginate(type: CONNECTION) }
		type Post @model { id: ID }
	`)

	foreign := cursor.Encode("User", 5)
	result := execute(t, compiled, `{
		posts(first: 2, after: "`+foreign+`") { edges { cursor } }
	}`)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "cursor type mismatch")
}

func TestRelationResolution(t *testing.T) {
	store, mock := newMockStore(t)
	compiled := compileWith(t, store, baseSDL)
	mock.MatchExpectationsInOrder(false)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `users` WHERE `users`.`active` = ? ORDER BY `users`.`id` ASC",
	)).WithArgs(1).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "team_id"}).AddRow(int64(1), "alice", int64(9)))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `roles`.* FROM `roles` JOIN `role_user` ON `role_user`.`role_id` = `roles`.`id` WHERE `role_user`.`user_id` = ? ORDER BY `roles`.`id` ASC",
	)).WithArgs(int64(1)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(7), "admin"))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `teams` WHERE `id` = ? ORDER BY `teams`.`id` ASC LIMIT 1",
	)).WithArgs(int64(9)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(9), "platform"))

	result := execute(t, compiled, `{
		users {
			name
			roles { name }
			team { name }
		}
	}`)
	require.Empty(t, result.Errors)

	users := result.Data.(map[string]interface{})["users"].([]interface{})
	require.Len(t, users, 1)
	user := users[0].(map[string]interface{})
	assert.Equal(t, "alice", user["name"])

	roles := user["roles"].([]interface{})
	require.Len(t, roles, 1)
	assert.Equal(t, "admin", roles[0].(map[string]interface{})["name"])

	team := user["team"].(map[string]interface{})
	assert.Equal(t, "platform", team["name"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBelongsToNullForeignKey(t *testing.T) {
	store, mock := newMockStore(t)
	compiled := compileWith(t, store, baseSDL)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `users` WHERE `users`.`active` = ? ORDER BY `users`.`id` ASC",
	)).WithArgs(1).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "team_id"}).AddRow(int64(1), "drifter", nil))

	result := execute(t, compiled, `{ users { name team { name } } }`)
	require.Empty(t, result.Errors)

	user := result.Data.(map[string]interface{})["users"].([]interface{})[0].(map[string]interface{})
	assert.Nil(t, user["team"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindResolution(t *testing.T) {
	store, mock := newMockStore(t)
	compiled := compileWith(t, store, baseSDL)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `users` WHERE `id` = ? ORDER BY `users`.`id` ASC LIMIT 1",
	)).WithArgs("1").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "alice"))

	result := execute(t, compiled, `{ user(id: "1") { name } }`)
	require.Empty(t, result.Errors)
	user := result.Data.(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["name"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindNotFoundResolvesNull(t *testing.T) {
	store, mock := newMockStore(t)
	compiled := compileWith(t, store, baseSDL)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `users` WHERE `id` = ? ORDER BY `users`.`id` ASC LIMIT 1",
	)).WithArgs("404").WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	result := execute(t, compiled, `{ user(id: "404") { name } }`)
	require.Empty(t, result.Errors)
	assert.Nil(t, result.Data.(map[string]interface{})["user"])

	require.NoError(t, mock.ExpectationsWereMet())
}

const abstractSDL = `
type Query { namedThings: [Nameable] }

interface Nameable { name: String }

type User implements Nameable @model { id: ID, name: String }
type Team implements Nameable @model { id: ID, name: String }
`

func TestInterfaceResolvesByBoundModel(t *testing.T) {
	store, _ := newMockStore(t)
	compiled := compileWith(t, store, abstractSDL)

	result := graphql.Do(graphql.Params{
		Schema:        compiled.Schema,
		RequestString: `{ namedThings { __typename name } }`,
		Context:       context.Background(),
		RootObject: map[string]interface{}{
			"namedThings": []interface{}{
				model.TagRecord(model.Record{"name": "alice"}, "User"),
				model.TagRecord(model.Record{"name": "platform"}, "Team"),
			},
		},
	})
	require.Empty(t, result.Errors)

	things := result.Data.(map[string]interface{})["namedThings"].([]interface{})
	require.Len(t, things, 2)
	assert.Equal(t, "User", things[0].(map[string]interface{})["__typename"])
	assert.Equal(t, "Team", things[1].(map[string]interface{})["__typename"])
}

func TestInterfaceUnresolvableRecord(t *testing.T) {
	store, _ := newMockStore(t)
	compiled := compileWith(t, store, abstractSDL)

	result := graphql.Do(graphql.Params{
		Schema:        compiled.Schema,
		RequestString: `{ namedThings { __typename } }`,
		Context:       context.Background(),
		RootObject: map[string]interface{}{
			"namedThings": []interface{}{
				model.TagRecord(model.Record{"name": "mystery"}, "Post"),
			},
		},
	})
	require.NotEmpty(t, result.Errors)
}

func TestInterfaceAmbiguousBindingFailsLazily(t *testing.T) {
	store, _ := newMockStore(t)
	// Two possible types bound to the same model compile fine; resolution of
	// a record of that model fails at execution time.
	compiled := compileWith(t, store, `
		type Query { namedThings: [Nameable] }
		interface Nameable { name: String }
		type User implements Nameable @model { id: ID, name: String }
		type Author implements Nameable @model(name: "User") { id: ID, name: String }
	`)

	result := graphql.Do(graphql.Params{
		Schema:        compiled.Schema,
		RequestString: `{ namedThings { __typename } }`,
		Context:       context.Background(),
		RootObject: map[string]interface{}{
			"namedThings": []interface{}{
				model.TagRecord(model.Record{"name": "alice"}, "User"),
			},
		},
	})
	require.NotEmpty(t, result.Errors)
}

func TestUnionExplicitResolverWins(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	compiler := NewCompiler(testSource(t), sqlstore.NewDB(db))
	// The explicit resolver is authoritative even when the record's model
	// binding would pick another member.
	compiler.RegisterTypeResolver("actorType", func(ctx context.Context, value interface{}) (interface{}, error) {
		return "Team", nil
	})

	compiled, err := compiler.Compile(`
		type Query { actors: [Actor] }
		union Actor @union(resolveType: "actorType") = User | Team
		type User @model { id: ID, name: String }
		type Team @model { id: ID, name: String }
	`)
	require.NoError(t, err)

	result := graphql.Do(graphql.Params{
		Schema:        compiled.Schema,
		RequestString: `{ actors { __typename } }`,
		Context:       context.Background(),
		RootObject: map[string]interface{}{
			"actors": []interface{}{
				model.TagRecord(model.Record{"name": "alice"}, "User"),
			},
		},
	})
	require.Empty(t, result.Errors)

	actors := result.Data.(map[string]interface{})["actors"].([]interface{})
	assert.Equal(t, "Team", actors[0].(map[string]interface{})["__typename"])
}

func TestUnionResolvesByBoundModel(t *testing.T) {
	store, _ := newMockStore(t)
	compiled := compileWith(t, store, `
		type Query { actors: [Actor] }
		union Actor = User | Team
		type User @model { id: ID, name: String }
		type Team @model { id: ID, name: String }
	`)

	result := graphql.Do(graphql.Params{
		Schema:        compiled.Schema,
		RequestString: `{ actors { __typename } }`,
		Context:       context.Background(),
		RootObject: map[string]interface{}{
			"actors": []interface{}{
				model.TagRecord(model.Record{"name": "platform"}, "Team"),
			},
		},
	})
	require.Empty(t, result.Errors)

	actors := result.Data.(map[string]interface{})["actors"].([]interface{})
	assert.Equal(t, "Team", actors[0].(map[string]interface{})["__typename"])
}

func TestAccessDeniedSurfacesNormalized(t *testing.T) {
	store, mock := newMockStore(t)
	compiled := compileWith(t, store, baseSDL)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT * FROM `posts`",
	)).WillReturnError(&mysql.MySQLError{Number: 1142, Message: "SELECT command denied"})

	result := execute(t, compiled, `{ posts(first: 2) { data { id } } }`)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0].Message, "access denied")
}
