package dicentis

import (
	"encoding/json"
	"strconv"
)

// envelope is the frame shape shared by every message on the wire.
type envelope struct {
	Operation  string          `json:"operation"`
	Parameters json.RawMessage `json:"parameters"`
}

// request is the outbound counterpart. Parameters marshals to {} when a
// request carries none.
type request struct {
	Operation  string `json:"operation"`
	Parameters any    `json:"parameters"`
}

// flexString tolerates the device flip-flopping between JSON strings and
// numbers for numeric labels (booth and desk numbers).
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func (f flexString) String() string {
	return string(f)
}

// ################################
// Login

type loginParams struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type loginAckParams struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

type errorParams struct {
	Message string `json:"message"`
}

// ################################
// getseats

type seatListParams struct {
	Seats []seatObject `json:"seats"`
}

type seatObject struct {
	SeatID        string `json:"seatId"`
	SeatName      string `json:"seatName"`
	ScreenLine    string `json:"screenLine"`
	ParticipantID string `json:"seatedParticipantId"`
	HideSeat      bool   `json:"hideSeat"`
}

// ################################
// GetInterpreterBooths / GetInterpreterSeats

type boothListParams struct {
	Booths []boothObject `json:"booths"`
}

type boothObject struct {
	BoothID     string     `json:"boothId"`
	BoothNumber flexString `json:"boothNumber"`
}

type interpreterSeatListParams struct {
	Seats []interpreterSeatObject `json:"seats"`
}

type interpreterSeatObject struct {
	SeatID     string     `json:"seatId"`
	BoothID    string     `json:"boothId"`
	DeskNumber flexString `json:"deskNumber"`
}

// ################################
// GetDiscussionList

type discussionListParams struct {
	DiscussionList []discussionEntry `json:"discussionList"`
}

type discussionEntry struct {
	SeatID          string `json:"seatId"`
	ScreenLine      string `json:"screenLine"`
	MicrophoneState string `json:"microphoneState"`
}

// ################################
// GetInterpretationRoutings

type routingListParams struct {
	Routings []routingEntry `json:"interpretationRoutings"`
}

type routingEntry struct {
	SeatID          string `json:"seatId"`
	MicrophoneState string `json:"microphoneState"`
}

// ################################
// Commands

type speechParams struct {
	SeatIDs []string `json:"seatIds"`
}

type interpretationParams struct {
	SeatID          string `json:"seatId"`
	MicrophoneState string `json:"microphoneState"`
}

// ################################
// Domain types mirrored from the device

// Seat is a conference position. Key is the stable derived identifier
// exposed to control surfaces; the device-side names it derives from are
// volatile.
type Seat struct {
	ID         string `json:"seatId"`
	Name       string `json:"seatName"`
	ScreenLine string `json:"screenLine"`
	Key        string `json:"key"`
}

// InterpreterBooth is a transient lookup record, rebuilt each discovery
// cycle and only needed to resolve interpreter seats.
type InterpreterBooth struct {
	ID     string
	Number string
}

// InterpreterSeat is an interpretation desk. A seat whose booth did not
// resolve in the current discovery cycle never reaches this type.
type InterpreterSeat struct {
	ID          string `json:"seatId"`
	BoothID     string `json:"boothId"`
	BoothNumber string `json:"boothNumber"`
	DeskNumber  string `json:"deskNumber"`
	Key         string `json:"key"`
}

// Discussion is the externally visible projection of a discussion-list
// rebuild: who is transmitting, and who holds the floor.
type Discussion struct {
	// ActiveSeatIDs is the set of seat device ids currently transmitting.
	ActiveSeatIDs map[string]struct{} `json:"activeSeatIds"`
	// Speaking is the first active seat in roster order, nil when silent.
	Speaking *Seat `json:"speaking,omitempty"`
}

func (d Discussion) String() string {
	return strconv.Itoa(len(d.ActiveSeatIDs)) + " active"
}
