package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	obstypes "github.com/codacy-badger/observation-portal/internal/domain/observations"
	proptypes "github.com/codacy-badger/observation-portal/internal/domain/proposals"
	reqtypes "github.com/codacy-badger/observation-portal/internal/domain/requests"
)

func SeedProposal(tb testing.TB, ctx context.Context, tx *gorm.DB, id string) *proptypes.Proposal {
	tb.Helper()
	p := &proptypes.Proposal{
		ID:     id,
		Title:  "seed proposal",
		Active: true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed proposal: %v", err)
	}
	return p
}

func SeedTimeAllocation(tb testing.TB, ctx context.Context, tx *gorm.DB, proposalID, semesterID, instrumentType string, ippAvailable, ippLimit float64) *proptypes.TimeAllocation {
	tb.Helper()
	ta := &proptypes.TimeAllocation{
		ID:               uuid.New(),
		ProposalID:       proposalID,
		SemesterID:       semesterID,
		InstrumentType:   instrumentType,
		StdAllocation:    100,
		IPPLimit:         ippLimit,
		IPPTimeAvailable: ippAvailable,
	}
	if err := tx.WithContext(ctx).Create(ta).Error; err != nil {
		tb.Fatalf("seed time allocation: %v", err)
	}
	return ta
}

func SeedRequestGroup(tb testing.TB, ctx context.Context, tx *gorm.DB, proposalID string, operator reqtypes.Operator, ippValue float64) *reqtypes.RequestGroup {
	tb.Helper()
	g := &reqtypes.RequestGroup{
		ID:              uuid.New(),
		ProposalID:      proposalID,
		Name:            "seed group",
		State:           reqtypes.StatePending,
		Operator:        operator,
		ObservationType: reqtypes.ObservationTypeNormal,
		IPPValue:        ippValue,
		MaxWindowTime:   time.Now().UTC().Add(24 * time.Hour),
	}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed request group: %v", err)
	}
	return g
}

func SeedRequest(tb testing.TB, ctx context.Context, tx *gorm.DB, groupID uuid.UUID, state reqtypes.State, windowEnd time.Time) *reqtypes.Request {
	tb.Helper()
	r := &reqtypes.Request{
		ID:                     uuid.New(),
		RequestGroupID:         groupID,
		State:                  state,
		AcceptabilityThreshold: 90,
		Duration:               3600,
		InstrumentType:         "1M0-SCICAM-SINISTRO",
		SemesterID:             "2026A",
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed request: %v", err)
	}
	w := &reqtypes.Window{
		ID:        uuid.New(),
		RequestID: r.ID,
		Start:     windowEnd.Add(-time.Hour),
		End:       windowEnd,
	}
	if err := tx.WithContext(ctx).Create(w).Error; err != nil {
		tb.Fatalf("seed window: %v", err)
	}
	r.Windows = []reqtypes.Window{*w}
	return r
}

func SeedObservation(tb testing.TB, ctx context.Context, tx *gorm.DB, requestID uuid.UUID, state obstypes.State) *obstypes.Observation {
	tb.Helper()
	o := &obstypes.Observation{
		ID:        uuid.New(),
		RequestID: requestID,
		State:     state,
		Site:      "tst",
		Enclosure: "doma",
		Telescope: "1m0a",
		Start:     time.Now().UTC(),
		End:       time.Now().UTC().Add(time.Hour),
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed observation: %v", err)
	}
	return o
}

func SeedConfigurationStatus(tb testing.TB, ctx context.Context, tx *gorm.DB, observationID uuid.UUID, state obstypes.ConfigStatusState, requested, completed int) *obstypes.ConfigurationStatus {
	tb.Helper()
	cs := &obstypes.ConfigurationStatus{
		ID:                 uuid.New(),
		ObservationID:      observationID,
		State:              state,
		InstrumentName:     "xx03",
		ExposuresRequested: requested,
		ExposuresCompleted: completed,
		ExposureTime:       30,
	}
	if err := tx.WithContext(ctx).Create(cs).Error; err != nil {
		tb.Fatalf("seed configuration status: %v", err)
	}
	return cs
}
