package dicentis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadRoster(t *testing.T, svc *service, conn *fakeConn) {
	t.Helper()
	svc.onMessage([]byte(`{"operation":"getseats","parameters":{"seats":[
		{"seatId":"s1","seatName":"Seat 1","screenLine":"A"}]}}`), conn)
	svc.onMessage([]byte(`{"operation":"GetInterpreterBooths","parameters":{"booths":[
		{"boothId":"b1","boothNumber":"1"}]}}`), conn)
	svc.onMessage([]byte(`{"operation":"GetInterpreterSeats","parameters":{"seats":[
		{"seatId":"i1","boothId":"b1","deskNumber":"1"}]}}`), conn)
}

func lastFrame(t *testing.T, conn *fakeConn) (string, json.RawMessage) {
	t.Helper()
	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.NotEmpty(t, conn.sent)
	env := envelope{}
	require.NoError(t, json.Unmarshal(conn.sent[len(conn.sent)-1], &env))
	return env.Operation, env.Parameters
}

func TestActivateMicrophone(t *testing.T) {
	svc, conn, sink := newTestService(t, nil)
	authenticate(t, svc, conn)
	loadRoster(t, svc, conn)

	require.NoError(t, svc.ActivateMicrophone("Seat_1_A"))

	op, params := lastFrame(t, conn)
	assert.Equal(t, "grantspeech", op)
	sent := speechParams{}
	require.NoError(t, json.Unmarshal(params, &sent))
	assert.Equal(t, []string{"s1"}, sent.SeatIDs)

	// the tentative transition is visible immediately.
	assert.True(t, svc.IsMicrophoneActive("Seat_1_A"))
	require.NotEmpty(t, sink.discussions)
	assert.Contains(t, sink.discussions[len(sink.discussions)-1].ActiveSeatIDs, "s1")
}

func TestDeactivateMicrophone(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)
	loadRoster(t, svc, conn)
	require.NoError(t, svc.ActivateMicrophone("Seat_1_A"))

	require.NoError(t, svc.DeactivateMicrophone("Seat_1_A"))

	op, _ := lastFrame(t, conn)
	assert.Equal(t, "removespeech", op)
	assert.False(t, svc.IsMicrophoneActive("Seat_1_A"))
}

func TestToggleMicrophone(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)
	loadRoster(t, svc, conn)

	require.NoError(t, svc.ToggleMicrophone("Seat_1_A"))
	op, _ := lastFrame(t, conn)
	assert.Equal(t, "grantspeech", op)

	require.NoError(t, svc.ToggleMicrophone("Seat_1_A"))
	op, _ = lastFrame(t, conn)
	assert.Equal(t, "removespeech", op)
}

func TestActivateMicrophone_UnknownSeat(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)

	assert.ErrorIs(t, svc.ActivateMicrophone("nobody"), ErrUnknownSeat)
}

func TestCommands_NotConnected(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)
	loadRoster(t, svc, conn)
	require.NoError(t, conn.Close())

	assert.ErrorIs(t, svc.ActivateMicrophone("Seat_1_A"), ErrNotConnected)
	// the mirror is untouched when the write never happened.
	assert.False(t, svc.IsMicrophoneActive("Seat_1_A"))
}

func TestGrantInterpretation(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)
	loadRoster(t, svc, conn)

	require.NoError(t, svc.GrantInterpretation("1_1", RoutingOutputB))

	op, params := lastFrame(t, conn)
	assert.Equal(t, "GrantInterpretation", op)
	sent := interpretationParams{}
	require.NoError(t, json.Unmarshal(params, &sent))
	assert.Equal(t, "i1", sent.SeatID)
	assert.Equal(t, "activeOnOutputB", sent.MicrophoneState)
}

func TestGrantInterpretation_Validation(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)
	loadRoster(t, svc, conn)

	assert.ErrorIs(t, svc.GrantInterpretation("1_1", RoutingState("sideways")), ErrInvalidRoutingState)
	assert.ErrorIs(t, svc.GrantInterpretation("9_9", RoutingOutputA), ErrUnknownInterpreterSeat)
}

func TestRevokeInterpretation(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)
	loadRoster(t, svc, conn)

	require.NoError(t, svc.RevokeInterpretation("1_1"))

	_, params := lastFrame(t, conn)
	sent := interpretationParams{}
	require.NoError(t, json.Unmarshal(params, &sent))
	assert.Equal(t, "off", sent.MicrophoneState)
}

func TestSendCustom(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)

	require.NoError(t, svc.SendCustom("startmeeting", map[string]any{"meetingId": "m1"}))

	op, params := lastFrame(t, conn)
	assert.Equal(t, "startmeeting", op)
	assert.JSONEq(t, `{"meetingId":"m1"}`, string(params))
}

func TestSendCustom_NilParameters(t *testing.T) {
	svc, conn, _ := newTestService(t, nil)
	authenticate(t, svc, conn)

	require.NoError(t, svc.SendCustom("stopmeeting", nil))

	_, params := lastFrame(t, conn)
	assert.JSONEq(t, `{}`, string(params))
}
