package observations

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// State is the execution state of an Observation.
type State string

const (
	StatePending    State = "PENDING"
	StateInProgress State = "IN_PROGRESS"
	StateCompleted  State = "COMPLETED"
	StateFailed     State = "FAILED"
	StateAborted    State = "ABORTED"
	StateCanceled   State = "CANCELED"
)

// TerminalStates are observation states that are never recomputed from
// configuration status updates.
var TerminalStates = []State{StateCanceled, StateAborted, StateFailed, StateCompleted}

func (s State) IsTerminal() bool {
	for _, t := range TerminalStates {
		if s == t {
			return true
		}
	}
	return false
}

// Observation is one scheduled execution attempt of a Request on a specific
// telescope. Its state is derived from its ConfigurationStatus children.
type Observation struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	State     State     `gorm:"column:state;not null;index;default:PENDING" json:"state"`

	Site      string `gorm:"column:site;not null" json:"site"`
	Enclosure string `gorm:"column:enclosure;not null" json:"enclosure"`
	Telescope string `gorm:"column:telescope;not null" json:"telescope"`
	Priority  int    `gorm:"column:priority;not null;default:10" json:"priority"`

	Start time.Time `gorm:"column:start;not null;index" json:"start"`
	End   time.Time `gorm:"column:end;not null;index" json:"end"`

	ConfigurationStatuses []ConfigurationStatus `gorm:"foreignKey:ObservationID" json:"configuration_statuses,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now();index" json:"updated_at"`
}

func (Observation) TableName() string { return "observation" }

// ConfigStatusState is the externally-reported outcome of one configuration
// within an observation. Written by the telescope control system, read-only
// to this service.
type ConfigStatusState string

const (
	ConfigStatusPending      ConfigStatusState = "PENDING"
	ConfigStatusAttempted    ConfigStatusState = "ATTEMPTED"
	ConfigStatusNotAttempted ConfigStatusState = "NOT_ATTEMPTED"
	ConfigStatusCompleted    ConfigStatusState = "COMPLETED"
	ConfigStatusFailed       ConfigStatusState = "FAILED"
	ConfigStatusAborted      ConfigStatusState = "ABORTED"
)

// ConfigurationStatus reports the execution outcome of a single
// configuration (sub-exposure block) of an Observation.
type ConfigurationStatus struct {
	ID            uuid.UUID         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ObservationID uuid.UUID         `gorm:"type:uuid;not null;index" json:"observation_id"`
	State         ConfigStatusState `gorm:"column:state;not null;index;default:PENDING" json:"state"`

	InstrumentName  string `gorm:"column:instrument_name;not null" json:"instrument_name"`
	GuideCameraName string `gorm:"column:guide_camera_name" json:"guide_camera_name,omitempty"`

	// Exposure bookkeeping used for completion percentage.
	ExposuresRequested int     `gorm:"column:exposures_requested;not null;default:0" json:"exposures_requested"`
	ExposuresCompleted int     `gorm:"column:exposures_completed;not null;default:0" json:"exposures_completed"`
	ExposureTime       float64 `gorm:"column:exposure_time;not null;default:0" json:"exposure_time"`

	Summary datatypes.JSON `gorm:"column:summary;type:jsonb" json:"summary,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now();index" json:"updated_at"`
}

func (ConfigurationStatus) TableName() string { return "configuration_status" }
