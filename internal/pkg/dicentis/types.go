package dicentis

// Operation is the tag carried by every frame on the Dicentis socket,
// inbound and outbound. The device never correlates requests to responses;
// the tag is all there is.
type Operation string

func (op Operation) String() string {
	return string(op)
}

const (
	Login                    Operation = "login"
	GetSeats                 Operation = "getseats"
	GetInterpreterBooths     Operation = "GetInterpreterBooths"
	GetInterpreterSeats      Operation = "GetInterpreterSeats"
	GetDiscussionList        Operation = "GetDiscussionList"
	GetInterpretationRoutings Operation = "GetInterpretationRoutings"
	GetPermissions           Operation = "GetPermissions"
	GrantSpeech              Operation = "grantspeech"
	RemoveSpeech             Operation = "removespeech"
	GrantInterpretationOp    Operation = "GrantInterpretation"
	ErrorOp                  Operation = "error"
)

// Phase is the connection lifecycle position. There is exactly one
// connection per engine; a reconnect replaces it wholesale.
type Phase int

const (
	Disconnected Phase = iota
	Connecting
	Open
	Authenticated
)

func (p Phase) String() string {
	switch p {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Authenticated:
		return "authenticated"
	default:
		return "disconnected"
	}
}

// Status is the connection-level condition surfaced to control surfaces.
// Frame-level problems (malformed JSON, missing fields) never become a
// status; they are handled where they occur.
type Status string

const (
	StatusConnecting        Status = "connecting"
	StatusOk                Status = "ok"
	StatusConnectionFailure Status = "connection_failure"
	StatusConfigurationError Status = "configuration_error"
	StatusDisconnected      Status = "disconnected"
)

// RoutingState is the per-interpreter-seat interpretation state. The device
// reuses its microphone-state vocabulary for interpretation outputs.
type RoutingState string

const (
	RoutingOff     RoutingState = "off"
	RoutingOutputA RoutingState = "activeOnOutputA"
	RoutingOutputB RoutingState = "activeOnOutputB"
	RoutingOutputC RoutingState = "activeOnOutputC"
)

func (r RoutingState) Active() bool {
	return r != RoutingOff && r != ""
}

// ValidRoutingState reports whether s is a state the device understands as a
// GrantInterpretation target.
func ValidRoutingState(s string) bool {
	switch RoutingState(s) {
	case RoutingOff, RoutingOutputA, RoutingOutputB, RoutingOutputC:
		return true
	}
	return false
}
