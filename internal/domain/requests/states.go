package requests

// State is the lifecycle state shared by Request and RequestGroup rows.
// Values are persisted verbatim.
type State string

const (
	StatePending       State = "PENDING"
	StateCompleted     State = "COMPLETED"
	StateWindowExpired State = "WINDOW_EXPIRED"
	StateCanceled      State = "CANCELED"
)

// TerminalStates are states a request or group cannot leave on its own;
// only WINDOW_EXPIRED and CANCELED can still flip to COMPLETED if data
// arrives late.
var TerminalStates = []State{StateCompleted, StateCanceled, StateWindowExpired}

func (s State) IsTerminal() bool {
	for _, t := range TerminalStates {
		if s == t {
			return true
		}
	}
	return false
}

// Operator controls how child request states aggregate into the group state.
type Operator string

const (
	// OperatorSingle is AND semantics: the group tracks its one request.
	OperatorSingle Operator = "SINGLE"
	// OperatorMany is OR semantics: any child can satisfy the group.
	OperatorMany Operator = "MANY"
)

type ObservationType string

const (
	ObservationTypeNormal        ObservationType = "NORMAL"
	ObservationTypeRapidResponse ObservationType = "RAPID_RESPONSE"
	ObservationTypeTimeCritical  ObservationType = "TIME_CRITICAL"
	// ObservationTypeDirect groups are scheduled out of band and are never
	// considered window-expired.
	ObservationTypeDirect ObservationType = "DIRECT"
)
