package dicentis

import (
	"encoding/json"

	"go.uber.org/zap"
)

// runDiscovery issues the one-time roster requests. Wave one asks for
// seats and booths together; the interpreter-seat request is deliberately
// absent here — it chases the booth answer in handleBoothList, because the
// wire protocol has no request correlation and send-order plus reactive
// chaining is the only ordering available. If the device never answers the
// booth request, interpreter data simply stays empty: degraded, not fatal.
func (s *service) runDiscovery() {
	s.sendIfErr(s.send(GetSeats, struct{}{}))
	s.sendIfErr(s.send(GetInterpreterBooths, struct{}{}))
	s.sendIfErr(s.send(GetPermissions, struct{}{}))
}

func (s *service) handleSeatList(params json.RawMessage) {
	res := seatListParams{}
	if err := json.Unmarshal(params, &res); err != nil {
		s.logger.Warn("ignoring unparsable seat roster", zap.Error(err))
		return
	}
	if res.Seats == nil {
		s.logger.Warn("seat roster response missing seats field")
		return
	}

	seats := make([]Seat, 0, len(res.Seats))
	for _, obj := range res.Seats {
		if obj.HideSeat || obj.SeatName == "" || obj.SeatID == "" {
			continue
		}
		seats = append(seats, Seat{
			ID:         obj.SeatID,
			Name:       obj.SeatName,
			ScreenLine: obj.ScreenLine,
			Key:        seatKey(obj.SeatName, obj.ScreenLine),
		})
	}

	sorted := s.store.ReplaceSeats(seats)
	s.logger.Info("seat roster replaced", zap.Int("seats", len(sorted)))
	s.sink.SeatsReplaced(sorted)
}

func (s *service) handleBoothList(params json.RawMessage) {
	res := boothListParams{}
	if err := json.Unmarshal(params, &res); err != nil {
		s.logger.Warn("ignoring unparsable booth roster", zap.Error(err))
		return
	}
	if res.Booths == nil {
		s.logger.Warn("booth roster response missing booths field")
		return
	}

	booths := make([]InterpreterBooth, 0, len(res.Booths))
	for _, obj := range res.Booths {
		if obj.BoothID == "" {
			continue
		}
		booths = append(booths, InterpreterBooth{ID: obj.BoothID, Number: obj.BoothNumber.String()})
	}
	s.store.ReplaceBooths(booths)
	s.logger.Debug("booth roster replaced", zap.Int("booths", len(booths)))

	// The dependent request. Interpreter seats reference booths by id and
	// can only resolve once this roster is in hand.
	s.sendIfErr(s.send(GetInterpreterSeats, struct{}{}))
}

func (s *service) handleInterpreterSeatList(params json.RawMessage) {
	res := interpreterSeatListParams{}
	if err := json.Unmarshal(params, &res); err != nil {
		s.logger.Warn("ignoring unparsable interpreter seat roster", zap.Error(err))
		return
	}
	if res.Seats == nil {
		s.logger.Warn("interpreter seat response missing seats field")
		return
	}

	seats := make([]InterpreterSeat, 0, len(res.Seats))
	for _, obj := range res.Seats {
		if obj.SeatID == "" || obj.BoothID == "" {
			continue
		}
		booth, ok := s.store.Booth(obj.BoothID)
		if !ok {
			// Unresolvable dependency: the record is dropped whole, never
			// partially populated.
			s.logger.Warn("dropping interpreter seat with unresolved booth",
				zap.String("seat_id", obj.SeatID), zap.String("booth_id", obj.BoothID))
			continue
		}
		seats = append(seats, InterpreterSeat{
			ID:          obj.SeatID,
			BoothID:     booth.ID,
			BoothNumber: booth.Number,
			DeskNumber:  obj.DeskNumber.String(),
			Key:         interpreterKey(booth.Number, obj.DeskNumber.String()),
		})
	}

	sorted := s.store.ReplaceInterpreterSeats(seats)
	s.logger.Info("interpreter seat roster replaced", zap.Int("seats", len(sorted)))
	s.sink.InterpreterSeatsReplaced(sorted)
}

func (s *service) handleDiscussionList(params json.RawMessage) {
	res := discussionListParams{}
	if err := json.Unmarshal(params, &res); err != nil {
		s.logger.Warn("ignoring unparsable discussion list", zap.Error(err))
		return
	}
	if res.DiscussionList == nil {
		s.logger.Debug("discussion list response missing discussionList field")
		return
	}

	active := map[string]struct{}{}
	for _, entry := range res.DiscussionList {
		if entry.MicrophoneState != "on" {
			continue
		}
		id := entry.SeatID
		if id == "" {
			// Older firmware omits seatId here; fall back to the roster's
			// screen-line mapping.
			seat, ok := s.store.SeatByScreenLine(entry.ScreenLine)
			if !ok {
				continue
			}
			id = seat.ID
		}
		active[id] = struct{}{}
	}

	if s.store.ReplaceActiveMicrophones(active) {
		s.sink.DiscussionChanged(s.store.Discussion())
	}
}

func (s *service) handleRoutingList(params json.RawMessage) {
	res := routingListParams{}
	if err := json.Unmarshal(params, &res); err != nil {
		s.logger.Warn("ignoring unparsable interpretation routings", zap.Error(err))
		return
	}
	if res.Routings == nil {
		s.logger.Debug("routing response missing interpretationRoutings field")
		return
	}

	routings := map[string]RoutingState{}
	for _, entry := range res.Routings {
		if entry.SeatID == "" {
			continue
		}
		if !ValidRoutingState(entry.MicrophoneState) {
			s.logger.Warn("ignoring unknown routing state",
				zap.String("seat_id", entry.SeatID), zap.String("state", entry.MicrophoneState))
			continue
		}
		routings[entry.SeatID] = RoutingState(entry.MicrophoneState)
	}

	if s.store.ReplaceRoutings(routings) {
		s.sink.RoutingsChanged(s.store.RoutingsByKey())
	}
}
