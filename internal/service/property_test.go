package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"propcore/internal/apperr"
	"propcore/internal/audit"
	"propcore/internal/authz"
	"propcore/internal/model"
	repoMocks "propcore/internal/repository/mocks"
)

// newTestTrail builds an audit logger over a permissive mock repository.
// Callers that assert audit writes add their own expectations first.
func newTestTrail(mAudit *repoMocks.MockAuditRepository) *audit.Logger {
	mAudit.On("Insert", mock.Anything, mock.Anything).Return(&model.AuditEvent{}, nil).Maybe()
	return audit.NewLogger(mAudit, 8, audit.WithLogOutput(io.Discard))
}

func TestPropertyService_Claim(t *testing.T) {
	ctx := context.Background()

	t.Run("creates property with owner relationship and audits claim", func(t *testing.T) {
		mProps := new(repoMocks.MockPropertyRepository)
		mRels := new(repoMocks.MockRelationshipRepository)
		mAudit := new(repoMocks.MockAuditRepository)

		mProps.On("Create", ctx, mock.MatchedBy(func(p *model.Property) bool {
			return p.AddressLine1 == "1 High Street" && p.Postcode == "SW1A 1AA" && p.Completion == 80
		})).Return(&model.Property{ID: "prop-1", AddressLine1: "1 High Street"}, nil)

		mRels.On("Create", ctx, mock.MatchedBy(func(r *model.Relationship) bool {
			return r.PropertyID == "prop-1" && r.PrincipalID == "alice" && r.Tier == model.TierOwner
		})).Return(&model.Relationship{ID: "rel-1"}, nil)

		mAudit.On("Insert", mock.Anything, mock.MatchedBy(func(ev *model.AuditEvent) bool {
			return ev.Action == model.ActionClaim && ev.EntityType == model.EntityProperty && ev.EntityID == "prop-1"
		})).Return(&model.AuditEvent{}, nil)

		trail := audit.NewLogger(mAudit, 8, audit.WithLogOutput(io.Discard))
		defer trail.Close()

		svc := NewPropertyService(mProps, mRels, authz.NewEngine(mRels), trail)
		p, err := svc.Claim(ctx, "alice", PropertyInput{
			AddressLine1:  "1 High Street",
			City:          "London",
			Postcode:      "SW1A 1AA",
			ReferenceCode: "REF-001",
		})

		assert.NoError(t, err)
		assert.Equal(t, "prop-1", p.ID)
		mProps.AssertExpectations(t)
		mRels.AssertExpectations(t)
	})

	t.Run("owner grant failure rolls back the property", func(t *testing.T) {
		mProps := new(repoMocks.MockPropertyRepository)
		mRels := new(repoMocks.MockRelationshipRepository)
		mAudit := new(repoMocks.MockAuditRepository)
		trail := newTestTrail(mAudit)
		defer trail.Close()

		mProps.On("Create", ctx, mock.Anything).Return(&model.Property{ID: "prop-1"}, nil)
		mRels.On("Create", ctx, mock.Anything).Return(nil, errors.New("insert failed"))
		mProps.On("Delete", ctx, "prop-1").Return(nil)

		svc := NewPropertyService(mProps, mRels, authz.NewEngine(mRels), trail)
		_, err := svc.Claim(ctx, "alice", PropertyInput{AddressLine1: "1 High Street", Postcode: "SW1A 1AA"})

		assert.ErrorContains(t, err, "owner grant failed")
		mProps.AssertCalled(t, "Delete", ctx, "prop-1")
	})

	t.Run("address required", func(t *testing.T) {
		mAudit := new(repoMocks.MockAuditRepository)
		trail := newTestTrail(mAudit)
		defer trail.Close()

		svc := NewPropertyService(new(repoMocks.MockPropertyRepository), new(repoMocks.MockRelationshipRepository), nil, trail)
		_, err := svc.Claim(ctx, "alice", PropertyInput{Postcode: "SW1A 1AA"})
		assert.ErrorIs(t, err, ErrAddressRequired)
	})

	t.Run("principal required", func(t *testing.T) {
		mAudit := new(repoMocks.MockAuditRepository)
		trail := newTestTrail(mAudit)
		defer trail.Close()

		svc := NewPropertyService(new(repoMocks.MockPropertyRepository), new(repoMocks.MockRelationshipRepository), nil, trail)
		_, err := svc.Claim(ctx, "", PropertyInput{AddressLine1: "1 High Street", Postcode: "SW1A 1AA"})
		assert.ErrorIs(t, err, ErrPrincipalRequired)
	})
}

func TestPropertyService_Get(t *testing.T) {
	ctx := context.Background()
	private := &model.Property{ID: "prop-1", Public: false}
	public := &model.Property{ID: "prop-2", Public: true}

	tests := []struct {
		name    string
		prop    *model.Property
		tiers   []model.Tier
		wantErr error
	}{
		{"owner reads private", private, []model.Tier{model.TierOwner}, nil},
		{"interested denied private", private, []model.Tier{model.TierInterested}, apperr.ErrForbidden},
		{"stranger denied private", private, nil, apperr.ErrForbidden},
		{"stranger reads public", public, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mProps := new(repoMocks.MockPropertyRepository)
			mRels := new(repoMocks.MockRelationshipRepository)
			mAudit := new(repoMocks.MockAuditRepository)
			trail := newTestTrail(mAudit)
			defer trail.Close()

			mProps.On("FindByID", ctx, tt.prop.ID).Return(tt.prop, nil)
			mRels.On("TiersFor", ctx, "bob", tt.prop.ID).Return(tt.tiers, nil)

			svc := NewPropertyService(mProps, mRels, authz.NewEngine(mRels), trail)
			got, err := svc.Get(ctx, "bob", tt.prop.ID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.prop.ID, got.ID)
			}
		})
	}
}

func TestPropertyService_Update(t *testing.T) {
	ctx := context.Background()
	existing := &model.Property{ID: "prop-1", AddressLine1: "1 High Street", Postcode: "SW1A 1AA"}

	t.Run("occupier cannot update", func(t *testing.T) {
		mProps := new(repoMocks.MockPropertyRepository)
		mRels := new(repoMocks.MockRelationshipRepository)
		mAudit := new(repoMocks.MockAuditRepository)
		trail := newTestTrail(mAudit)
		defer trail.Close()

		mProps.On("FindByID", ctx, "prop-1").Return(existing, nil)
		mRels.On("TiersFor", ctx, "bob", "prop-1").Return([]model.Tier{model.TierOccupier}, nil)

		svc := NewPropertyService(mProps, mRels, authz.NewEngine(mRels), trail)
		_, err := svc.Update(ctx, "bob", "prop-1", PropertyInput{AddressLine1: "2 High Street", Postcode: "SW1A 1AA"})
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("owner update recomputes completion and audits", func(t *testing.T) {
		mProps := new(repoMocks.MockPropertyRepository)
		mRels := new(repoMocks.MockRelationshipRepository)
		mAudit := new(repoMocks.MockAuditRepository)

		mProps.On("FindByID", ctx, "prop-1").Return(existing, nil)
		mRels.On("TiersFor", ctx, "alice", "prop-1").Return([]model.Tier{model.TierOwner}, nil)
		mProps.On("Update", ctx, mock.MatchedBy(func(p *model.Property) bool {
			return p.AddressLine1 == "2 High Street" && p.Completion == 40
		})).Return(&model.Property{ID: "prop-1", AddressLine1: "2 High Street"}, nil)

		mAudit.On("Insert", mock.Anything, mock.MatchedBy(func(ev *model.AuditEvent) bool {
			return ev.Action == model.ActionUpdate && ev.OldState != nil && ev.NewState != nil
		})).Return(&model.AuditEvent{}, nil)

		trail := audit.NewLogger(mAudit, 8, audit.WithLogOutput(io.Discard))
		defer trail.Close()

		svc := NewPropertyService(mProps, mRels, authz.NewEngine(mRels), trail)
		got, err := svc.Update(ctx, "alice", "prop-1", PropertyInput{AddressLine1: "2 High Street", Postcode: "SW1A 1AA"})

		assert.NoError(t, err)
		assert.Equal(t, "2 High Street", got.AddressLine1)
		mProps.AssertExpectations(t)
	})
}

func TestPropertyService_Unclaim(t *testing.T) {
	ctx := context.Background()

	mProps := new(repoMocks.MockPropertyRepository)
	mRels := new(repoMocks.MockRelationshipRepository)
	mAudit := new(repoMocks.MockAuditRepository)

	mProps.On("FindByID", ctx, "prop-1").Return(&model.Property{ID: "prop-1", Public: true}, nil)
	mRels.On("TiersFor", ctx, "alice", "prop-1").Return([]model.Tier{model.TierOwner}, nil)
	mProps.On("Update", ctx, mock.MatchedBy(func(p *model.Property) bool {
		return !p.Public
	})).Return(&model.Property{ID: "prop-1", Public: false}, nil)

	mAudit.On("Insert", mock.Anything, mock.MatchedBy(func(ev *model.AuditEvent) bool {
		return ev.Action == model.ActionUnclaim
	})).Return(&model.AuditEvent{}, nil)

	trail := audit.NewLogger(mAudit, 8, audit.WithLogOutput(io.Discard))
	defer trail.Close()

	svc := NewPropertyService(mProps, mRels, authz.NewEngine(mRels), trail)
	got, err := svc.Unclaim(ctx, "alice", "prop-1")

	assert.NoError(t, err)
	assert.False(t, got.Public)
	mAudit.AssertExpectations(t)
}

func TestCompletionPct(t *testing.T) {
	tests := []struct {
		name string
		prop model.Property
		want int
	}{
		{"empty", model.Property{}, 0},
		{"address and postcode", model.Property{AddressLine1: "1 High Street", Postcode: "SW1A 1AA"}, 40},
		{"all filled", model.Property{AddressLine1: "a", AddressLine2: "b", City: "c", Postcode: "d", ReferenceCode: "e"}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, completionPct(&tt.prop))
		})
	}
}
