package projects

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/ledger"
)

func rep(owner domain.Owner, share string, role domain.RepresentativeRole) RepresentativeInput {
	return RepresentativeInput{Owner: owner, SharePercentage: decimal.RequireFromString(share), Role: role}
}

func TestValidateRepresentatives(t *testing.T) {
	alice := domain.UserOwner(uuid.New())
	bob := domain.PersonnelOwner(uuid.New())

	tests := []struct {
		name    string
		reps    []RepresentativeInput
		wantErr error
	}{
		{name: "none"},
		{name: "full split", reps: []RepresentativeInput{
			rep(alice, "60", domain.RepresentativeLeader),
			rep(bob, "40", domain.RepresentativeResearcher),
		}},
		{name: "under 100 is allowed", reps: []RepresentativeInput{rep(alice, "30.5", domain.RepresentativeLeader)}},
		{name: "over 100", reps: []RepresentativeInput{
			rep(alice, "60", domain.RepresentativeLeader),
			rep(bob, "50", domain.RepresentativeResearcher),
		}, wantErr: ledger.ErrSharesExceed100},
		{name: "zero share", reps: []RepresentativeInput{rep(alice, "0", domain.RepresentativeLeader)}, wantErr: ledger.ErrShareOutOfRange},
		{name: "duplicate owner", reps: []RepresentativeInput{
			rep(alice, "10", domain.RepresentativeLeader),
			rep(alice, "10", domain.RepresentativeResearcher),
		}, wantErr: ErrDuplicateRepresentative},
		{name: "bad role", reps: []RepresentativeInput{rep(alice, "10", "observer")}, wantErr: domain.ErrInvalid},
		{name: "missing owner", reps: []RepresentativeInput{rep(domain.Owner{}, "10", domain.RepresentativeLeader)}, wantErr: domain.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRepresentatives(tt.reps)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestShares(t *testing.T) {
	owner := domain.UserOwner(uuid.New())
	got := Shares([]Representative{{Owner: owner, SharePercentage: decimal.NewFromInt(25)}})
	if len(got) != 1 || got[0].Key != owner.String() || !got[0].Percentage.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("Shares = %+v", got)
	}
}
