package dicentis

import "errors"

var (
	ErrNotConnected           = errors.New("not connected to device")
	ErrUnknownSeat            = errors.New("unknown seat key")
	ErrUnknownInterpreterSeat = errors.New("unknown interpreter seat key")
	ErrInvalidRoutingState    = errors.New("invalid routing state")
)

// Commands are fire-and-forget: the device sends no acknowledgement, so
// success here means "written to the socket". The local mirror is updated
// tentatively and the next discussion-list poll overwrites it with the
// device's view — eventual consistency between intent and observed state,
// nothing stronger.

func (s *service) ActivateMicrophone(seatKey string) error {
	seat, ok := s.store.SeatByKey(seatKey)
	if !ok {
		return ErrUnknownSeat
	}
	if err := s.send(GrantSpeech, speechParams{SeatIDs: []string{seat.ID}}); err != nil {
		return err
	}
	if s.store.MarkMicrophone(seat.ID, true) {
		s.sink.DiscussionChanged(s.store.Discussion())
	}
	return nil
}

func (s *service) DeactivateMicrophone(seatKey string) error {
	seat, ok := s.store.SeatByKey(seatKey)
	if !ok {
		return ErrUnknownSeat
	}
	if err := s.send(RemoveSpeech, speechParams{SeatIDs: []string{seat.ID}}); err != nil {
		return err
	}
	if s.store.MarkMicrophone(seat.ID, false) {
		s.sink.DiscussionChanged(s.store.Discussion())
	}
	return nil
}

func (s *service) ToggleMicrophone(seatKey string) error {
	if s.store.IsMicrophoneActive(seatKey) {
		return s.DeactivateMicrophone(seatKey)
	}
	return s.ActivateMicrophone(seatKey)
}

func (s *service) GrantInterpretation(interpreterKey string, state RoutingState) error {
	if !ValidRoutingState(string(state)) {
		return ErrInvalidRoutingState
	}
	seat, ok := s.store.InterpreterSeatByKey(interpreterKey)
	if !ok {
		return ErrUnknownInterpreterSeat
	}
	return s.send(GrantInterpretationOp, interpretationParams{
		SeatID:          seat.ID,
		MicrophoneState: string(state),
	})
}

func (s *service) RevokeInterpretation(interpreterKey string) error {
	return s.GrantInterpretation(interpreterKey, RoutingOff)
}

// SendCustom is the escape hatch for operations the bridge does not model.
// The payload goes out exactly as given.
func (s *service) SendCustom(operation string, parameters map[string]any) error {
	if parameters == nil {
		parameters = map[string]any{}
	}
	return s.send(Operation(operation), parameters)
}
