package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type OwnerType string

const (
	OwnerUser      OwnerType = "user"
	OwnerPersonnel OwnerType = "personnel"
)

func (t OwnerType) Valid() bool {
	return t == OwnerUser || t == OwnerPersonnel
}

// Owner identifies who a balance, share or payment belongs to: a staff user
// or an external personnel record. In SQL it is stored as two nullable
// columns of which exactly one is set.
type Owner struct {
	Type OwnerType `json:"type"`
	ID   uuid.UUID `json:"id"`
}

func UserOwner(id uuid.UUID) Owner      { return Owner{Type: OwnerUser, ID: id} }
func PersonnelOwner(id uuid.UUID) Owner { return Owner{Type: OwnerPersonnel, ID: id} }

// UserID returns the user_id column value, nil for personnel.
func (o Owner) UserID() *uuid.UUID {
	if o.Type != OwnerUser {
		return nil
	}
	id := o.ID
	return &id
}

// PersonnelID returns the personnel_id column value, nil for users.
func (o Owner) PersonnelID() *uuid.UUID {
	if o.Type != OwnerPersonnel {
		return nil
	}
	id := o.ID
	return &id
}

func (o Owner) String() string {
	return string(o.Type) + ":" + o.ID.String()
}

// OwnerFromColumns builds an Owner from the (user_id, personnel_id) column pair.
func OwnerFromColumns(userID, personnelID *uuid.UUID) (Owner, error) {
	switch {
	case userID != nil && personnelID == nil:
		return UserOwner(*userID), nil
	case personnelID != nil && userID == nil:
		return PersonnelOwner(*personnelID), nil
	}
	return Owner{}, fmt.Errorf("owner: exactly one of user_id and personnel_id must be set")
}

// ParseOwner builds an Owner from request fields where exactly one id is given.
func ParseOwner(userID, personnelID string) (Owner, error) {
	switch {
	case userID != "" && personnelID == "":
		id, err := uuid.Parse(userID)
		if err != nil {
			return Owner{}, Invalid("user_id", "error.invalid_id")
		}
		return UserOwner(id), nil
	case personnelID != "" && userID == "":
		id, err := uuid.Parse(personnelID)
		if err != nil {
			return Owner{}, Invalid("personnel_id", "error.invalid_id")
		}
		return PersonnelOwner(id), nil
	}
	return Owner{}, Invalid("owner", "error.owner_required")
}
