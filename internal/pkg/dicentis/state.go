package dicentis

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Store is the in-memory mirror of the device. Every mutation is a full
// replace of the entity it covers; nothing is merged, so observers never
// see a torn collection. The mutex exists for the read side: mutations all
// arrive on the single socket read path, but the HTTP and MQTT surfaces
// read concurrently.
type Store struct {
	mu sync.RWMutex

	seats             []Seat
	seatsByKey        map[string]Seat
	seatsByID         map[string]Seat
	booths            map[string]InterpreterBooth
	interpreters      []InterpreterSeat
	interpretersByKey map[string]InterpreterSeat
	activeMics        map[string]struct{}
	routings          map[string]RoutingState
	permissions       map[string]any
}

func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Reset empties every collection. Called when a fresh connection is created;
// the mirror is always rebuilt from scratch, never carried across sockets.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats = nil
	s.seatsByKey = map[string]Seat{}
	s.seatsByID = map[string]Seat{}
	s.booths = map[string]InterpreterBooth{}
	s.interpreters = nil
	s.interpretersByKey = map[string]InterpreterSeat{}
	s.activeMics = map[string]struct{}{}
	s.routings = map[string]RoutingState{}
	s.permissions = map[string]any{}
}

// ClearEphemeral drops the poll-derived state on disconnect and reports
// which collections actually held anything, so observers are only told
// about real changes.
func (s *Store) ClearEphemeral() (micsChanged, routingsChanged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	micsChanged = len(s.activeMics) > 0
	routingsChanged = len(s.routings) > 0
	s.activeMics = map[string]struct{}{}
	s.routings = map[string]RoutingState{}
	return micsChanged, routingsChanged
}

// ReplaceSeats installs a freshly discovered roster, sorted naturally by
// seat name. Derived-key collisions resolve last-write-wins; the device
// owns its naming and the mirror does not correct it.
func (s *Store) ReplaceSeats(seats []Seat) []Seat {
	slices.SortStableFunc(seats, func(a, b Seat) int {
		return naturalCompare(a.Name, b.Name)
	})

	byKey := make(map[string]Seat, len(seats))
	byID := make(map[string]Seat, len(seats))
	for _, seat := range seats {
		byKey[seat.Key] = seat
		byID[seat.ID] = seat
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seats = seats
	s.seatsByKey = byKey
	s.seatsByID = byID
	return seats
}

func (s *Store) ReplaceBooths(booths []InterpreterBooth) {
	byID := make(map[string]InterpreterBooth, len(booths))
	for _, booth := range booths {
		byID[booth.ID] = booth
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.booths = byID
}

// Booth resolves a booth id against the most recent booth roster.
func (s *Store) Booth(id string) (InterpreterBooth, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	booth, ok := s.booths[id]
	return booth, ok
}

func (s *Store) ReplaceInterpreterSeats(seats []InterpreterSeat) []InterpreterSeat {
	slices.SortStableFunc(seats, func(a, b InterpreterSeat) int {
		return naturalCompare(a.Key, b.Key)
	})
	byKey := make(map[string]InterpreterSeat, len(seats))
	for _, seat := range seats {
		byKey[seat.Key] = seat
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interpreters = seats
	s.interpretersByKey = byKey
	return seats
}

// ReplaceActiveMicrophones installs the transmitting set from a
// discussion-list poll. The poll fires unconditionally; the return value is
// what keeps observers quiet when nothing moved.
func (s *Store) ReplaceActiveMicrophones(active map[string]struct{}) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maps.Equal(s.activeMics, active) {
		return false
	}
	s.activeMics = active
	return true
}

// MarkMicrophone applies a tentative local transition after a speech
// command is sent. The next poll's full replace is authoritative; this only
// narrows the window in which the mirror lags user intent.
func (s *Store) MarkMicrophone(seatID string, on bool) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, present := s.activeMics[seatID]
	if on == present {
		return false
	}
	if on {
		s.activeMics[seatID] = struct{}{}
	} else {
		delete(s.activeMics, seatID)
	}
	return true
}

func (s *Store) ReplaceRoutings(routings map[string]RoutingState) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maps.Equal(s.routings, routings) {
		return false
	}
	s.routings = routings
	return true
}

func (s *Store) ReplacePermissions(perms map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions = perms
}

func (s *Store) Seats() []Seat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.seats)
}

func (s *Store) InterpreterSeats() []InterpreterSeat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.interpreters)
}

func (s *Store) SeatByKey(key string) (Seat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seat, ok := s.seatsByKey[key]
	return seat, ok
}

func (s *Store) SeatByID(id string) (Seat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seat, ok := s.seatsByID[id]
	return seat, ok
}

// SeatByScreenLine matches a seat by its display label, tolerating the
// whitespace and casing drift the device exhibits between payloads.
func (s *Store) SeatByScreenLine(screenLine string) (Seat, bool) {
	want := strings.TrimSpace(screenLine)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, seat := range s.seats {
		if strings.EqualFold(strings.TrimSpace(seat.ScreenLine), want) {
			return seat, true
		}
	}
	return Seat{}, false
}

func (s *Store) InterpreterSeatByKey(key string) (InterpreterSeat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seat, ok := s.interpretersByKey[key]
	return seat, ok
}

// IsMicrophoneActive answers the per-seat feedback predicate by derived key.
func (s *Store) IsMicrophoneActive(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seat, ok := s.seatsByKey[key]
	if !ok {
		return false
	}
	_, active := s.activeMics[seat.ID]
	return active
}

// Routing answers the per-interpreter-seat feedback predicate by derived key.
func (s *Store) Routing(key string) RoutingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seat, ok := s.interpretersByKey[key]
	if !ok {
		return RoutingOff
	}
	if state, ok := s.routings[seat.ID]; ok {
		return state
	}
	return RoutingOff
}

// Discussion builds the external projection of the current transmitting
// set: the set itself plus the first active seat in roster order.
func (s *Store) Discussion() Discussion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := Discussion{ActiveSeatIDs: maps.Clone(s.activeMics)}
	for _, seat := range s.seats {
		if _, ok := s.activeMics[seat.ID]; ok {
			speaking := seat
			d.Speaking = &speaking
			break
		}
	}
	return d
}

// RoutingsByKey projects the routing map onto derived interpreter keys for
// the control surfaces. Routings for seats absent from the interpreter
// roster are dropped from the projection.
func (s *Store) RoutingsByKey() map[string]RoutingState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]RoutingState, len(s.interpreters))
	for _, seat := range s.interpreters {
		state := RoutingOff
		if current, ok := s.routings[seat.ID]; ok {
			state = current
		}
		out[seat.Key] = state
	}
	return out
}

func (s *Store) Permissions() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.permissions)
}

// SeatKeys lists the exposed seat identifiers in roster order.
func (s *Store) SeatKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.seats, func(seat Seat, _ int) string { return seat.Key })
}
