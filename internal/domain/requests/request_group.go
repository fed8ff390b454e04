package requests

import (
	"time"

	"github.com/google/uuid"
)

// RequestGroup owns one or more Requests submitted together under a single
// proposal. Its state is derived from child request states per the operator
// priority rules, except that a terminal group state force-propagates down
// to still-PENDING children.
type RequestGroup struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProposalID  string    `gorm:"column:proposal_id;not null;index" json:"proposal_id"`
	SubmitterID uuid.UUID `gorm:"type:uuid;column:submitter_id;index" json:"submitter_id"`

	Name            string          `gorm:"column:name;not null" json:"name"`
	State           State           `gorm:"column:state;not null;index;default:PENDING" json:"state"`
	Operator        Operator        `gorm:"column:operator;not null;default:SINGLE" json:"operator"`
	ObservationType ObservationType `gorm:"column:observation_type;not null;index;default:NORMAL" json:"observation_type"`

	// IPPValue is the priority boost multiplier. 1.0 means no boost; values
	// above 1.0 pre-debit ipp time on creation, values below 1.0 earn a
	// credit on completion.
	IPPValue float64 `gorm:"column:ipp_value;not null;default:1.0" json:"ipp_value"`

	// MaxWindowTime is the latest window end across all child requests,
	// denormalized at submission for the expiry check.
	MaxWindowTime time.Time `gorm:"column:max_window_time;index" json:"max_window_time"`

	Requests []Request `gorm:"foreignKey:RequestGroupID" json:"requests,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now();index" json:"updated_at"`
}

func (RequestGroup) TableName() string { return "request_group" }

// Expired reports whether the group's scheduling horizon has passed at the
// given time. DIRECT groups never expire, nor do groups with no windows at
// all (a zero MaxWindowTime).
func (g *RequestGroup) Expired(now time.Time) bool {
	if g.ObservationType == ObservationTypeDirect {
		return false
	}
	if g.MaxWindowTime.IsZero() {
		return false
	}
	return g.MaxWindowTime.Before(now)
}
