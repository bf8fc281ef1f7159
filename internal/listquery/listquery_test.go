package listquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFields = map[string]string{
	"ref":       "ref",
	"id":        "public_id",
	"email":     "email",
	"firstName": "first_name",
	"createdAt": "created_at",
}

func TestSelectSQL_Defaults(t *testing.T) {
	qb := New("students", testFields, nil).
		Where("is_deleted = false").
		Search("email", "firstName").
		Filter().
		Sort().
		Paginate().
		Fields("ref", "id")

	query, args := qb.SelectSQL()
	assert.Equal(t,
		`SELECT created_at AS "createdAt", email AS "email", first_name AS "firstName", public_id AS "id", ref AS "ref"`+
			` FROM students WHERE is_deleted = false ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		query)
	assert.Equal(t, []any{10, 0}, args)
}

func TestSelectSQL_SearchAndFilterShareArgs(t *testing.T) {
	qb := New("students", testFields, map[string]string{
		"searchTerm": "ada",
		"email":      "ada@example.com",
	}).
		Where("is_deleted = false").
		Search("email", "firstName").
		Filter().
		Sort().
		Paginate()

	query, args := qb.SelectSQL()
	assert.Contains(t, query, "(email ILIKE $1 OR first_name ILIKE $2)")
	assert.Contains(t, query, "email = $3")
	assert.Equal(t, []any{"%ada%", "%ada%", "ada@example.com", 10, 0}, args)
}

func TestCountSQL_SamePredicateNoPagination(t *testing.T) {
	params := map[string]string{"searchTerm": "ada", "page": "3", "limit": "25"}
	qb := New("students", testFields, params).
		Where("is_deleted = false").
		Search("email").
		Filter().
		Sort().
		Paginate()

	query, args := qb.CountSQL()
	assert.Equal(t, `SELECT COUNT(*) FROM students WHERE is_deleted = false AND (email ILIKE $1)`, query)
	assert.Equal(t, []any{"%ada%"}, args)
	assert.NotContains(t, query, "LIMIT")
	assert.NotContains(t, query, "ORDER BY")
}

func TestFilter_IgnoresReservedAndUnknownKeys(t *testing.T) {
	qb := New("students", testFields, map[string]string{
		"sort":        "email",
		"page":        "2",
		"unknownKey":  "x",
		"email":       "a@b.c",
		"is_deleted":  "true",
		"searchTerm":  "",
		"injected; -": "1",
	}).Filter()

	query, args := qb.SelectSQL()
	assert.Contains(t, query, "email = $1")
	assert.NotContains(t, query, "unknownKey")
	assert.NotContains(t, query, "injected")
	assert.Equal(t, []any{"a@b.c"}, args)
}

func TestSort_DescendingAndUnknownDropped(t *testing.T) {
	qb := New("students", testFields, map[string]string{"sort": "-email,nope,firstName"}).Sort()
	query, _ := qb.SelectSQL()
	assert.Contains(t, query, "ORDER BY email DESC, first_name")
	assert.NotContains(t, query, "nope")
}

func TestSort_AllUnknownFallsBackToNewestFirst(t *testing.T) {
	qb := New("students", testFields, map[string]string{"sort": "bogus"}).Sort()
	query, _ := qb.SelectSQL()
	assert.Contains(t, query, "ORDER BY created_at DESC")
}

func TestPaginate_CoercesBadInput(t *testing.T) {
	for _, tc := range []struct {
		page, limit string
	}{
		{"", ""},
		{"0", "-5"},
		{"abc", "xyz"},
	} {
		qb := New("students", testFields, map[string]string{"page": tc.page, "limit": tc.limit}).Paginate()
		_, args := qb.SelectSQL()
		require.Len(t, args, 2)
		assert.Equal(t, DefaultLimit, args[0], "page=%q limit=%q", tc.page, tc.limit)
		assert.Equal(t, 0, args[1])
	}
}

func TestPaginate_OffsetFromPage(t *testing.T) {
	qb := New("students", testFields, map[string]string{"page": "3", "limit": "25"}).Paginate()
	_, args := qb.SelectSQL()
	assert.Equal(t, []any{25, 50}, args)
}

func TestFields_ProjectionKeepsAlwaysFields(t *testing.T) {
	qb := New("students", testFields, map[string]string{"fields": "email,bogus"}).
		Fields("ref", "id")
	query, _ := qb.SelectSQL()
	assert.Equal(t, `SELECT ref AS "ref", public_id AS "id", email AS "email" FROM students`, query)
}

func TestFields_EmptySpecProjectsEverything(t *testing.T) {
	qb := New("students", testFields, nil).Fields("ref")
	query, _ := qb.SelectSQL()
	for name := range testFields {
		assert.Contains(t, query, `"`+name+`"`)
	}
}

func TestMeta(t *testing.T) {
	qb := New("students", testFields, map[string]string{"page": "2", "limit": "10"}).Paginate()
	meta := qb.Meta(25)
	assert.Equal(t, Meta{Page: 2, Limit: 10, Total: 25, TotalPage: 3}, meta)

	meta = qb.Meta(0)
	assert.Equal(t, 0, meta.TotalPage)
}

func TestMeta_UnpagedUsesDefaults(t *testing.T) {
	meta := New("students", testFields, nil).Meta(5)
	assert.Equal(t, Meta{Page: DefaultPage, Limit: DefaultLimit, Total: 5, TotalPage: 1}, meta)
}

func TestNormalizeRow(t *testing.T) {
	row := normalizeRow(map[string]any{
		"email": []byte("a@b.c"),
		"total": int64(3),
	})
	assert.Equal(t, "a@b.c", row["email"])
	assert.Equal(t, int64(3), row["total"])
}
