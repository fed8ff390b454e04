package proposals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AllocationKey identifies one time allocation pool within a proposal.
// Used as a map key when summing durations across a request group.
type AllocationKey struct {
	SemesterID     string `json:"semester"`
	InstrumentType string `json:"instrument_type"`
}

func (k AllocationKey) String() string {
	return fmt.Sprintf("%s/%s", k.SemesterID, k.InstrumentType)
}

// TimeAllocation is a proposal's awarded time on one instrument type in one
// semester, in hours. The std/rr/tc pools are consumed by the accounting
// pipeline when observations complete; only the ipp fields are mutated by
// the lifecycle core, and those always stay within [0, IPPLimit].
type TimeAllocation struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProposalID     string    `gorm:"column:proposal_id;not null;index:idx_allocation_key,unique" json:"proposal_id"`
	SemesterID     string    `gorm:"column:semester_id;not null;index:idx_allocation_key,unique" json:"semester_id"`
	InstrumentType string    `gorm:"column:instrument_type;not null;index:idx_allocation_key,unique" json:"instrument_type"`

	StdAllocation float64 `gorm:"column:std_allocation;not null;default:0" json:"std_allocation"`
	StdTimeUsed   float64 `gorm:"column:std_time_used;not null;default:0" json:"std_time_used"`
	RRAllocation  float64 `gorm:"column:rr_allocation;not null;default:0" json:"rr_allocation"`
	RRTimeUsed    float64 `gorm:"column:rr_time_used;not null;default:0" json:"rr_time_used"`
	TCAllocation  float64 `gorm:"column:tc_allocation;not null;default:0" json:"tc_allocation"`
	TCTimeUsed    float64 `gorm:"column:tc_time_used;not null;default:0" json:"tc_time_used"`

	IPPLimit         float64 `gorm:"column:ipp_limit;not null;default:0" json:"ipp_limit"`
	IPPTimeAvailable float64 `gorm:"column:ipp_time_available;not null;default:0" json:"ipp_time_available"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TimeAllocation) TableName() string { return "time_allocation" }

// Key returns the allocation's pool key.
func (ta *TimeAllocation) Key() AllocationKey {
	return AllocationKey{SemesterID: ta.SemesterID, InstrumentType: ta.InstrumentType}
}
