// Package mapper turns the people and addresses tables into model values.
//
// Every row is hydrated by a hand-written scan function: columns are matched
// by name and NULL-able columns are read into sql.Null types before being
// copied onto the model, so a NULL occupation becomes a nil pointer rather
// than an empty string.
//
// Lookups by key fail with an error matching orm.ErrNotFound when no row
// has that key.
package mapper

import (
	"context"
	"fmt"

	"github.com/jankuo/personmap/model"
	"github.com/jankuo/personmap/orm"
	"github.com/jankuo/personmap/scope"
)

// PersonMapper reads people and their addresses. It holds no state besides
// the Querier, so each call is a single independent read.
type PersonMapper struct {
	db orm.Querier
}

func NewPersonMapper(db orm.Querier) *PersonMapper {
	return &PersonMapper{db: db}
}

// SelectPersonByID returns the person with the given id and its address.
func (m *PersonMapper) SelectPersonByID(ctx context.Context, id int) (model.Person, error) {
	p, err := people(m.db).Join("Address").Where(PeopleColumn("id")+" = ?", id).First(ctx)
	if err != nil {
		return model.Person{}, fmt.Errorf("mapper: select person %d: %w", id, err)
	}
	return p, nil
}

// SelectPeople returns every person matching scopes, ordered by id.
// Scopes may reference columns of both tables. Names the tables share,
// such as address_id, must be qualified with PeopleColumn or AddressColumn.
func (m *PersonMapper) SelectPeople(ctx context.Context, scopes ...scope.Scope) ([]model.Person, error) {
	ps, err := people(m.db).Join("Address").Scopes(scopes...).OrderBy(PeopleColumn("id")).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("mapper: select people: %w", err)
	}
	return ps, nil
}

// SelectPeopleByAddress returns everyone living at the address, ordered by id.
func (m *PersonMapper) SelectPeopleByAddress(ctx context.Context, addressID int) ([]model.Person, error) {
	return m.SelectPeople(ctx, scope.Where(PeopleColumn("address_id")+" = ?", addressID))
}

// CountPeople returns the number of people matching scopes.
func (m *PersonMapper) CountPeople(ctx context.Context, scopes ...scope.Scope) (int64, error) {
	n, err := people(m.db).Join("Address").Scopes(scopes...).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("mapper: count people: %w", err)
	}
	return n, nil
}

func (m *PersonMapper) SelectAddressByID(ctx context.Context, id int) (model.Address, error) {
	a, err := addresses(m.db).Where("address_id = ?", id).First(ctx)
	if err != nil {
		return model.Address{}, fmt.Errorf("mapper: select address %d: %w", id, err)
	}
	return a, nil
}

// SelectHousehold returns the address with everyone who lives there.
// An address without residents has no members.
func (m *PersonMapper) SelectHousehold(ctx context.Context, addressID int) (model.Household, error) {
	h, err := households(m.db).Where("address_id = ?", addressID).Preload("Members").First(ctx)
	if err != nil {
		return model.Household{}, fmt.Errorf("mapper: select household %d: %w", addressID, err)
	}
	return h, nil
}

// InsertPerson stores p. The id and p.Address.ID are taken as given; the
// address must already exist.
func (m *PersonMapper) InsertPerson(ctx context.Context, p *model.Person) error {
	if err := people(m.db).Create(ctx, p); err != nil {
		return fmt.Errorf("mapper: insert person %d: %w", p.ID, err)
	}
	return nil
}

// UpdatePerson overwrites every column of the person with p's id.
func (m *PersonMapper) UpdatePerson(ctx context.Context, p *model.Person) error {
	if err := people(m.db).Update(ctx, p); err != nil {
		return fmt.Errorf("mapper: update person %d: %w", p.ID, err)
	}
	return nil
}

func (m *PersonMapper) DeletePerson(ctx context.Context, id int) error {
	if err := people(m.db).Where("id = ?", id).Delete(ctx); err != nil {
		return fmt.Errorf("mapper: delete person %d: %w", id, err)
	}
	return nil
}

func (m *PersonMapper) InsertAddress(ctx context.Context, a *model.Address) error {
	if err := addresses(m.db).Create(ctx, a); err != nil {
		return fmt.Errorf("mapper: insert address %d: %w", a.ID, err)
	}
	return nil
}

// SaveHousehold upserts the address and every member in one transaction.
// Members are moved to the household's address. Nothing is stored if any
// row fails.
func SaveHousehold(ctx context.Context, db *orm.DB, h model.Household) error {
	err := db.Transaction(ctx, func(tx *orm.Tx) error {
		if err := addresses(tx).Upsert(ctx, &h.Address); err != nil {
			return fmt.Errorf("address %d: %w", h.Address.ID, err)
		}
		for i := range h.Members {
			p := h.Members[i]
			p.Address = h.Address
			if err := people(tx).Upsert(ctx, &p); err != nil {
				return fmt.Errorf("person %d: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mapper: save household: %w", err)
	}
	return nil
}
