package requests

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Request is a single schedulable observation request. It belongs to exactly
// one RequestGroup and is attempted via zero or more Observations. State only
// moves along the legal transition graph, under a row lock.
type Request struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RequestGroupID uuid.UUID `gorm:"type:uuid;not null;index" json:"request_group_id"`
	State          State     `gorm:"column:state;not null;index;default:PENDING" json:"state"`

	// AcceptabilityThreshold is the completion percentage at which the
	// request counts as COMPLETED even if some exposures are missing.
	AcceptabilityThreshold float64 `gorm:"column:acceptability_threshold;not null;default:90" json:"acceptability_threshold"`

	// Duration is the computed total duration in seconds. Set by the
	// submission pipeline, read-only here.
	Duration float64 `gorm:"column:duration;not null;default:0" json:"duration"`

	// InstrumentType and SemesterID locate the time allocation this request
	// draws from. Both are fixed at submission.
	InstrumentType string `gorm:"column:instrument_type;not null;index" json:"instrument_type"`
	SemesterID     string `gorm:"column:semester_id;not null;index" json:"semester_id"`

	ObservationNote string         `gorm:"column:observation_note" json:"observation_note,omitempty"`
	OptimizationType string        `gorm:"column:optimization_type;default:TIME" json:"optimization_type,omitempty"`
	Extra           datatypes.JSON `gorm:"column:extra;type:jsonb" json:"extra,omitempty"`

	Windows []Window `gorm:"foreignKey:RequestID" json:"windows,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now();index" json:"updated_at"`
}

func (Request) TableName() string { return "request" }

// MaxWindowTime is the latest window end, the moment after which a PENDING
// request can no longer be scheduled. Zero when the request has no windows.
func (r *Request) MaxWindowTime() time.Time {
	var max time.Time
	for _, w := range r.Windows {
		if w.End.After(max) {
			max = w.End
		}
	}
	return max
}

// Window is one interval during which the request may be scheduled.
type Window struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	Start     time.Time `gorm:"column:start;not null" json:"start"`
	End       time.Time `gorm:"column:end;not null;index" json:"end"`
}

func (Window) TableName() string { return "window" }
