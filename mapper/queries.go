package mapper

import (
	"context"
	"database/sql"

	"github.com/jankuo/personmap/model"
	"github.com/jankuo/personmap/orm"
	"github.com/jankuo/personmap/scope"
)

var (
	peopleTable    = orm.ResolveTableName[model.Person]("Person")
	addressesTable = orm.ResolveTableName[model.Address]("Address")
)

var peopleColumns = []string{"id", "first_name", "last_name", "birth_date", "employed", "occupation", "address_id"}

var addressesColumns = []string{"address_id", "street_address", "city", "state"}

// PeopleColumn qualifies a people column for scopes passed to the people
// queries. address_id exists in both joined tables and must be qualified.
func PeopleColumn(name string) string { return peopleTable + "." + name }

// AddressColumn qualifies an addresses column the same way.
func AddressColumn(name string) string { return addressesTable + "." + name }

// scanPerson hydrates a Person from a people row joined with its address.
// The people.address_id column doubles as the address id.
func scanPerson(rows *sql.Rows) (model.Person, error) {
	cols, err := rows.Columns()
	if err != nil {
		return model.Person{}, err //nolint:wrapcheck // pass through
	}

	var v model.Person
	var occupation sql.NullString
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "id":
			dest[i] = &v.ID
		case "first_name":
			dest[i] = &v.FirstName
		case "last_name":
			dest[i] = &v.LastName
		case "birth_date":
			dest[i] = &v.BirthDate
		case "employed":
			dest[i] = (*model.YesNo)(&v.Employed)
		case "occupation":
			dest[i] = &occupation
		case "address_id":
			dest[i] = &v.Address.ID
		case "street_address":
			dest[i] = &v.Address.StreetAddress
		case "city":
			dest[i] = &v.Address.City
		case "state":
			dest[i] = &v.Address.State
		default:
			dest[i] = new(any)
		}
	}
	if err := rows.Scan(dest...); err != nil {
		return model.Person{}, err //nolint:wrapcheck // pass through
	}

	if occupation.Valid {
		s := occupation.String
		v.Occupation = &s
	}
	return v, nil
}

// personColumns lists the people columns of v for INSERT and UPDATE. Ids are
// assigned by the caller, so the primary key is always included.
func personColumns(v *model.Person, _ bool) ([]string, []any) {
	return peopleColumns, []any{
		v.ID,
		v.FirstName,
		v.LastName,
		v.BirthDate,
		model.YesNo(v.Employed),
		v.Occupation,
		v.Address.ID,
	}
}

func addressColumns(v *model.Address, _ bool) ([]string, []any) {
	return addressesColumns, []any{v.ID, v.StreetAddress, v.City, v.State}
}

func scanAddress(rows *sql.Rows) (model.Address, error) {
	cols, err := rows.Columns()
	if err != nil {
		return model.Address{}, err //nolint:wrapcheck // pass through
	}

	var v model.Address
	dest := make([]any, len(cols))
	for i, col := range cols {
		switch col {
		case "address_id":
			dest[i] = &v.ID
		case "street_address":
			dest[i] = &v.StreetAddress
		case "city":
			dest[i] = &v.City
		case "state":
			dest[i] = &v.State
		default:
			dest[i] = new(any)
		}
	}
	err = rows.Scan(dest...)
	return v, err //nolint:wrapcheck // pass through
}

func scanHousehold(rows *sql.Rows) (model.Household, error) {
	a, err := scanAddress(rows)
	return model.Household{Address: a}, err
}

// people returns a query over the people table. Join("Address") selects
// the address columns alongside, so scanPerson fills Person.Address.
func people(db orm.Querier) *orm.Query[model.Person] {
	q := orm.NewQuery[model.Person](db, peopleTable, peopleColumns, "id", scanPerson, personColumns, nil)
	q.RegisterJoin("Address", orm.JoinConfig{
		TargetTable:   addressesTable,
		TargetColumn:  "address_id",
		SourceTable:   peopleTable,
		SourceColumn:  "address_id",
		SelectColumns: []string{"street_address", "city", "state"},
	})
	return q
}

func addresses(db orm.Querier) *orm.Query[model.Address] {
	return orm.NewQuery[model.Address](db, addressesTable, addressesColumns, "address_id", scanAddress, addressColumns, nil)
}

func households(db orm.Querier) *orm.Query[model.Household] {
	q := orm.NewQuery[model.Household](db, addressesTable, addressesColumns, "address_id", scanHousehold, nil, nil)
	q.RegisterPreloader("Members", preloadHouseholdMembers)
	return q
}

func preloadHouseholdMembers(ctx context.Context, db orm.Querier, results []model.Household) error {
	if len(results) == 0 {
		return nil
	}

	ids := make([]int, len(results))
	for i, h := range results {
		ids[i] = h.Address.ID
	}

	members, err := people(db).
		Join("Address").
		Scopes(scope.In(PeopleColumn("address_id"), ids)).
		OrderBy(PeopleColumn("id")).
		All(ctx)
	if err != nil {
		return err
	}

	byAddress := make(map[int][]model.Person, len(results))
	for _, p := range members {
		byAddress[p.Address.ID] = append(byAddress[p.Address.ID], p)
	}
	for i := range results {
		results[i].Members = byAddress[results[i].Address.ID]
	}
	return nil
}
