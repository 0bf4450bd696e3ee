package orm_test

import (
	"database/sql"
	"testing"

	"github.com/jankuo/personmap/orm"
	"github.com/jankuo/personmap/scope"
)

type testAddress struct {
	ID   int
	City string
}

var testAddressColumns = []string{"address_id", "city"}

func scanTestAddress(_ *sql.Rows) (testAddress, error) {
	return testAddress{}, nil
}

func testAddressColValPairs(a *testAddress, includesPK bool) ([]string, []any) {
	if includesPK {
		return []string{"address_id", "city"}, []any{a.ID, a.City}
	}
	return []string{"city"}, []any{a.City}
}

func setTestAddressPK(a *testAddress, id int64) {
	a.ID = int(id)
}

func newTestQuery(tq *orm.TestQuerier) *orm.Query[testAddress] {
	return orm.NewQuery[testAddress](tq, "addresses", testAddressColumns, "address_id", scanTestAddress, testAddressColValPairs, setTestAddressPK)
}

type testPerson struct {
	ID        int
	FirstName string
}

func newTestPersonQuery(tq *orm.TestQuerier) *orm.Query[testPerson] {
	q := orm.NewQuery[testPerson](tq, "people", []string{"id", "first_name"}, "id",
		func(_ *sql.Rows) (testPerson, error) { return testPerson{}, nil }, nil, nil)
	q.RegisterJoin("Address", orm.JoinConfig{
		TargetTable:   "addresses",
		TargetColumn:  "address_id",
		SourceTable:   "people",
		SourceColumn:  "address_id",
		SelectColumns: []string{"address_id", "city"},
	})
	return q
}

// --- SELECT (MySQL) ---

func TestBuildSelectAll(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	_, _ = q.All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `address_id`, `city` FROM `addresses`"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestBuildSelectWhere(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	_, _ = q.Where("city = ?", "Bedrock").All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `address_id`, `city` FROM `addresses` WHERE city = ?"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 1 || got.Args[0] != "Bedrock" {
		t.Errorf("Args = %v", got.Args)
	}
}

func TestBuildSelectMultipleWhere(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	_, _ = q.Where("city = ?", "Bedrock").Where("address_id > ?", 10).All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `address_id`, `city` FROM `addresses` WHERE city = ? AND address_id > ?"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 2 {
		t.Errorf("Args = %v, want 2 args", got.Args)
	}
}

func TestBuildSelectOrderBy(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	_, _ = q.OrderBy("city ASC").All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `address_id`, `city` FROM `addresses` ORDER BY city ASC"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestBuildSelectLimitOffset(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	_, _ = q.Limit(10).Offset(20).All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `address_id`, `city` FROM `addresses` LIMIT 10 OFFSET 20"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestBuildSelectOffsetWithoutLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect orm.Dialect
		want    string
	}{
		{"MySQL", orm.MySQL, "SELECT `address_id`, `city` FROM `addresses` LIMIT 18446744073709551615 OFFSET 5"},
		{"PostgreSQL", orm.PostgreSQL, `SELECT "address_id", "city" FROM "addresses" OFFSET 5`},
		{"SQLite", orm.SQLite, `SELECT "address_id", "city" FROM "addresses" LIMIT -1 OFFSET 5`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tq := orm.NewTestQuerier(tt.dialect)
			_, _ = newTestQuery(tq).Offset(5).All(t.Context())

			if got := tq.LastQuery().SQL; got != tt.want {
				t.Errorf("SQL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(q *orm.Query[testAddress]) *orm.Query[testAddress]
		want  string
	}{
		{
			name:  "plain",
			build: func(q *orm.Query[testAddress]) *orm.Query[testAddress] { return q.Where("city = ?", "Bedrock") },
			want:  `SELECT COUNT(*) FROM "addresses" WHERE city = ?`,
		},
		{
			name:  "limit",
			build: func(q *orm.Query[testAddress]) *orm.Query[testAddress] { return q.Limit(2) },
			want:  `SELECT COUNT(*) FROM (SELECT 1 FROM "addresses" LIMIT 2) AS counted`,
		},
		{
			name:  "offset only",
			build: func(q *orm.Query[testAddress]) *orm.Query[testAddress] { return q.Scopes(scope.Offset(1)) },
			want:  `SELECT COUNT(*) FROM (SELECT 1 FROM "addresses" LIMIT -1 OFFSET 1) AS counted`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tq := orm.NewTestQuerier(orm.SQLite)
			_, _ = tt.build(newTestQuery(tq)).Count(t.Context())

			if got := tq.LastQuery().SQL; got != tt.want {
				t.Errorf("SQL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildSelectCustomColumns(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	_, _ = q.Select("address_id").All(t.Context())

	got := tq.LastQuery()
	want := "SELECT address_id FROM `addresses`"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

// --- Scopes ---

func TestBuildSelectWithScopes(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	_, _ = q.Scopes(
		scope.Where("city = ?", "Bedrock"),
		scope.OrderBy("address_id DESC"),
		scope.Limit(5),
		scope.Offset(10),
	).All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `address_id`, `city` FROM `addresses` WHERE city = ? ORDER BY address_id DESC LIMIT 5 OFFSET 10"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

// --- Joins ---

func TestBuildSelectJoinWithColumns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect orm.Dialect
		want    string
	}{
		{
			name:    "MySQL",
			dialect: orm.MySQL,
			want: "SELECT `people`.`id`, `people`.`first_name`, `addresses`.`address_id`, `addresses`.`city` " +
				"FROM `people` INNER JOIN `addresses` ON `addresses`.`address_id` = `people`.`address_id` WHERE people.id = ?",
		},
		{
			name:    "PostgreSQL",
			dialect: orm.PostgreSQL,
			want: `SELECT "people"."id", "people"."first_name", "addresses"."address_id", "addresses"."city" ` +
				`FROM "people" INNER JOIN "addresses" ON "addresses"."address_id" = "people"."address_id" WHERE people.id = $1`,
		},
		{
			name:    "SQLite",
			dialect: orm.SQLite,
			want: `SELECT "people"."id", "people"."first_name", "addresses"."address_id", "addresses"."city" ` +
				`FROM "people" INNER JOIN "addresses" ON "addresses"."address_id" = "people"."address_id" WHERE people.id = ?`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tq := orm.NewTestQuerier(tt.dialect)
			_, _ = newTestPersonQuery(tq).Join("Address").Where("people.id = ?", 1).All(t.Context())

			if got := tq.LastQuery().SQL; got != tt.want {
				t.Errorf("SQL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildSelectLeftJoin(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	_, _ = newTestPersonQuery(tq).LeftJoin("Address").All(t.Context())

	want := `SELECT "people"."id", "people"."first_name", "addresses"."address_id", "addresses"."city" ` +
		`FROM "people" LEFT JOIN "addresses" ON "addresses"."address_id" = "people"."address_id"`
	if got := tq.LastQuery().SQL; got != want {
		t.Errorf("SQL = %q, want %q", got, want)
	}
}

func TestUnknownJoinIsIgnored(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	_, _ = newTestPersonQuery(tq).Join("Spouse").All(t.Context())

	want := `SELECT "id", "first_name" FROM "people"`
	if got := tq.LastQuery().SQL; got != want {
		t.Errorf("SQL = %q, want %q", got, want)
	}
}

// --- Immutability ---

func TestQueryImmutability(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	base := newTestQuery(tq)

	_ = base.Where("city = ?", "Bedrock")
	_ = base.OrderBy("address_id")
	_ = base.Limit(10)
	_ = base.Offset(5)

	_, _ = base.All(t.Context())

	got := tq.LastQuery()
	want := "SELECT `address_id`, `city` FROM `addresses`"
	if got.SQL != want {
		t.Errorf("base query was mutated: SQL = %q", got.SQL)
	}
}

func TestJoinImmutability(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	base := newTestPersonQuery(tq)
	_ = base.Join("Address")

	_, _ = base.All(t.Context())

	want := `SELECT "id", "first_name" FROM "people"`
	if got := tq.LastQuery().SQL; got != want {
		t.Errorf("base query was mutated: SQL = %q", got)
	}
}

// --- INSERT ---

func TestBuildInsertMySQL(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	a := testAddress{City: "Bedrock"}
	_ = q.Create(t.Context(), &a)

	got := tq.LastQuery()
	want := "INSERT INTO `addresses` (`city`) VALUES (?)"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 1 || got.Args[0] != "Bedrock" {
		t.Errorf("Args = %v", got.Args)
	}
}

func TestBuildInsertPostgreSQL(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	q := newTestQuery(tq)

	a := testAddress{City: "Bedrock"}
	_ = q.Create(t.Context(), &a)

	got := tq.LastQuery()
	want := `INSERT INTO "addresses" ("city") VALUES ($1) RETURNING "address_id"`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestBuildInsertSQLite(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	q := newTestQuery(tq)

	a := testAddress{City: "Bedrock"}
	_ = q.Create(t.Context(), &a)

	got := tq.LastQuery()
	want := `INSERT INTO "addresses" ("city") VALUES (?)`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

// --- UPSERT ---

func TestBuildUpsertSQLite(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.SQLite)
	q := newTestQuery(tq)

	a := testAddress{ID: 1, City: "Bedrock"}
	_ = q.Upsert(t.Context(), &a)

	got := tq.LastQuery()
	want := `INSERT INTO "addresses" ("address_id", "city") VALUES (?, ?) ON CONFLICT ("address_id") DO UPDATE SET "city" = EXCLUDED."city"`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

// --- UPDATE ---

func TestBuildUpdate(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	a := testAddress{ID: 1, City: "Rock Vegas"}
	_ = q.Update(t.Context(), &a)

	got := tq.LastQuery()
	want := "UPDATE `addresses` SET `city` = ? WHERE `address_id` = ?"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
	if len(got.Args) != 2 || got.Args[0] != "Rock Vegas" || got.Args[1] != 1 {
		t.Errorf("Args = %v", got.Args)
	}
}

func TestBuildUpdatePostgreSQL(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	q := newTestQuery(tq)

	a := testAddress{ID: 1, City: "Rock Vegas"}
	_ = q.Update(t.Context(), &a)

	got := tq.LastQuery()
	want := `UPDATE "addresses" SET "city" = $1 WHERE "address_id" = $2`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

// --- DELETE ---

func TestBuildDelete(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	_ = q.Where("address_id = ?", 1).Delete(t.Context())

	got := tq.LastQuery()
	want := "DELETE FROM `addresses` WHERE address_id = ?"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

func TestDeleteWithoutWhereReturnsError(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	err := q.Delete(t.Context())
	if err == nil {
		t.Fatal("expected error for Delete without WHERE, got nil")
	}
}

// --- Rewrite (PostgreSQL placeholders) ---

func TestRewritePostgreSQLSelect(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.PostgreSQL)
	q := newTestQuery(tq)

	_, _ = q.Where("city = ?", "Bedrock").Where("address_id > ?", 10).All(t.Context())

	got := tq.LastQuery()
	want := `SELECT "address_id", "city" FROM "addresses" WHERE city = $1 AND address_id > $2`
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}

// --- First ---

func TestFirstAddsLimit(t *testing.T) {
	t.Parallel()

	tq := orm.NewTestQuerier(orm.MySQL)
	q := newTestQuery(tq)

	_, _ = q.First(t.Context())

	got := tq.LastQuery()
	want := "SELECT `address_id`, `city` FROM `addresses` LIMIT 1"
	if got.SQL != want {
		t.Errorf("SQL = %q, want %q", got.SQL, want)
	}
}
