package dicentis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeatList_FiltersHiddenAndIncomplete(t *testing.T) {
	svc, conn, sink := newTestService(t, nil)
	authenticate(t, svc, conn)

	svc.onMessage([]byte(`{"operation":"getseats","parameters":{"seats":[
		{"seatId":"s1","seatName":"Seat 1","screenLine":"MALTA"},
		{"seatId":"s2","seatName":"Seat 2","screenLine":"CYPRUS","hideSeat":true},
		{"seatId":"","seatName":"Seat 3","screenLine":"X"},
		{"seatId":"s4","seatName":"","screenLine":"Y"}]}}`), conn)

	seats := svc.Seats()
	require.Len(t, seats, 1)
	assert.Equal(t, "Seat_1_MALTA", seats[0].Key)
	// the roster notification always fires, even when nothing changed.
	assert.Len(t, sink.seatEvents, 1)
}

func TestSeatList_RepeatedDiscoveryIsIdempotent(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)

	payload := []byte(`{"operation":"getseats","parameters":{"seats":[
		{"seatId":"s10","seatName":"Seat 10","screenLine":"C"},
		{"seatId":"s2","seatName":"Seat 2","screenLine":"B"}]}}`)
	svc.onMessage(payload, conn)
	first := svc.Seats()
	svc.onMessage(payload, conn)
	second := svc.Seats()

	assert.Equal(t, first, second)
	assert.Equal(t, "Seat 2", second[0].Name, "natural order puts Seat 2 before Seat 10")
}

func TestSeatList_MissingSeatsFieldKeepsRoster(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)

	svc.onMessage([]byte(`{"operation":"getseats","parameters":{"seats":[
		{"seatId":"s1","seatName":"Seat 1","screenLine":"A"}]}}`), conn)
	svc.onMessage([]byte(`{"operation":"getseats","parameters":{}}`), conn)

	assert.Len(t, svc.Seats(), 1, "a response without the field is not an empty roster")
}

func TestBoothList_ChainsInterpreterSeatRequest(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)
	require.NotContains(t, conn.operations(t), "GetInterpreterSeats")

	svc.onMessage([]byte(`{"operation":"GetInterpreterBooths","parameters":{"booths":[
		{"boothId":"b1","boothNumber":1}]}}`), conn)

	assert.Contains(t, conn.operations(t), "GetInterpreterSeats")
}

func TestInterpreterSeatList_ResolvesBoothNumbers(t *testing.T) {
	svc, conn, sink := newTestService(t, nil)
	authenticate(t, svc, conn)

	svc.onMessage([]byte(`{"operation":"GetInterpreterBooths","parameters":{"booths":[
		{"boothId":"b1","boothNumber":"2"}]}}`), conn)
	svc.onMessage([]byte(`{"operation":"GetInterpreterSeats","parameters":{"seats":[
		{"seatId":"i1","boothId":"b1","deskNumber":1},
		{"seatId":"i2","boothId":"missing","deskNumber":2}]}}`), conn)

	seats := svc.InterpreterSeats()
	require.Len(t, seats, 1, "the seat with an unresolved booth is dropped whole")
	assert.Equal(t, "2_1", seats[0].Key)
	assert.Equal(t, "2", seats[0].BoothNumber)
	assert.Len(t, sink.interpEvents, 1)
}

func TestDiscussionList_BuildsActiveSet(t *testing.T) {
	svc, conn, sink := newTestService(t, nil)
	authenticate(t, svc, conn)
	svc.onMessage([]byte(`{"operation":"getseats","parameters":{"seats":[
		{"seatId":"a","seatName":"Seat 1","screenLine":"A"},
		{"seatId":"b","seatName":"Seat 2","screenLine":"B"}]}}`), conn)

	svc.onMessage([]byte(`{"operation":"GetDiscussionList","parameters":{"discussionList":[
		{"seatId":"a","screenLine":"A","microphoneState":"on"},
		{"seatId":"b","screenLine":"B","microphoneState":"off"}]}}`), conn)

	require.NotEmpty(t, sink.discussions)
	d := sink.discussions[len(sink.discussions)-1]
	assert.Equal(t, map[string]struct{}{"a": {}}, d.ActiveSeatIDs)
	require.NotNil(t, d.Speaking)
	assert.Equal(t, "a", d.Speaking.ID)
}

func TestDiscussionList_EqualPollsNotifyOnce(t *testing.T) {
	svc, conn, sink := newTestService(t, nil)
	authenticate(t, svc, conn)
	svc.onMessage([]byte(`{"operation":"getseats","parameters":{"seats":[
		{"seatId":"a","seatName":"Seat 1","screenLine":"A"}]}}`), conn)

	payload := []byte(`{"operation":"GetDiscussionList","parameters":{"discussionList":[
		{"seatId":"a","screenLine":"A","microphoneState":"on"}]}}`)
	svc.onMessage(payload, conn)
	svc.onMessage(payload, conn)
	svc.onMessage(payload, conn)

	assert.Len(t, sink.discussions, 1, "identical poll results emit exactly one change")
}

func TestDiscussionList_ScreenLineFallback(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)
	svc.onMessage([]byte(`{"operation":"getseats","parameters":{"seats":[
		{"seatId":"a","seatName":"Seat 1","screenLine":"MALTA"}]}}`), conn)

	// older firmware omits seatId from discussion entries.
	svc.onMessage([]byte(`{"operation":"GetDiscussionList","parameters":{"discussionList":[
		{"seatId":"","screenLine":"MALTA","microphoneState":"on"}]}}`), conn)

	assert.True(t, svc.IsMicrophoneActive("Seat_1_MALTA"))
}

func TestRoutingList_FiltersUnknownStates(t *testing.T) {
	svc, conn, sink := newTestService(t, nil)
	authenticate(t, svc, conn)
	svc.onMessage([]byte(`{"operation":"GetInterpreterBooths","parameters":{"booths":[
		{"boothId":"b1","boothNumber":"1"}]}}`), conn)
	svc.onMessage([]byte(`{"operation":"GetInterpreterSeats","parameters":{"seats":[
		{"seatId":"i1","boothId":"b1","deskNumber":"1"},
		{"seatId":"i2","boothId":"b1","deskNumber":"2"}]}}`), conn)

	svc.onMessage([]byte(`{"operation":"GetInterpretationRoutings","parameters":{"interpretationRoutings":[
		{"seatId":"i1","microphoneState":"activeOnOutputA"},
		{"seatId":"i2","microphoneState":"warp9"}]}}`), conn)

	require.NotEmpty(t, sink.routings)
	assert.Equal(t, map[string]RoutingState{
		"1_1": RoutingOutputA,
		"1_2": RoutingOff,
	}, sink.routings[len(sink.routings)-1])
}

func TestRoutingList_EqualPollsNotifyOnce(t *testing.T) {
	svc, conn, sink := newTestService(t, nil)
	authenticate(t, svc, conn)

	payload := []byte(`{"operation":"GetInterpretationRoutings","parameters":{"interpretationRoutings":[
		{"seatId":"i1","microphoneState":"activeOnOutputB"}]}}`)
	svc.onMessage(payload, conn)
	svc.onMessage(payload, conn)

	assert.Len(t, sink.routings, 1)
}

func TestDispatch_MalformedFrameDropped(t *testing.T) {
	svc, conn, sink := newTestService(t, nil)
	authenticate(t, svc, conn)

	svc.onMessage([]byte(`{"operation": `), conn)

	assert.Equal(t, Authenticated, svc.CurrentPhase(), "garbage never touches connection state")
	assert.Empty(t, sink.events)
}

func TestDispatch_UnknownOperationForwarded(t *testing.T) {
	svc, conn, sink := newTestService(t, nil)
	authenticate(t, svc, conn)

	svc.onMessage([]byte(`{"operation":"SeatUpdated","parameters":{"seatId":"s1"}}`), conn)

	assert.Equal(t, []string{"SeatUpdated"}, sink.events)
}

func TestDispatch_PermissionsStored(t *testing.T) {
	svc, conn, sink := newTestService(t, nil)
	authenticate(t, svc, conn)

	svc.onMessage([]byte(`{"operation":"GetPermissions","parameters":{"canManageMeeting":true}}`), conn)

	perms := svc.Permissions()
	assert.Equal(t, true, perms["canManageMeeting"])
	assert.Contains(t, sink.events, "GetPermissions")
}
