package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/seeed-ha-core/internal/entity"
)

type echoCounter struct{ echoes []bool }

func (e *echoCounter) SensorChanged(*entity.Sensor) {}
func (e *echoCounter) SwitchChanged(sw *entity.Switch) {
	e.echoes = append(e.echoes, sw.State())
}

func newFixture(t *testing.T, initial bool) (*Dispatcher, *entity.Switch, *echoCounter) {
	t.Helper()
	reg := entity.NewRegistry()
	echo := &echoCounter{}
	reg.AddListener(echo)
	sw, err := reg.AddSwitch("led", "LED", entity.WithInitialState(initial))
	require.NoError(t, err)
	return New(reg), sw, echo
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestResolve_DecisionTable(t *testing.T) {
	tests := []struct {
		name    string
		initial bool
		cmd     Command
		want    bool
		wantErr error
	}{
		{name: "turn_on", cmd: TurnOn("led"), want: true},
		{name: "turn_off", initial: true, cmd: TurnOff("led"), want: false},
		{name: "toggle from off", cmd: Toggle("led"), want: true},
		{name: "toggle from on", initial: true, cmd: Toggle("led"), want: false},
		{name: "toggle unknown switch", cmd: Toggle("nope"), want: false},
		{name: "state true", cmd: SetState("led", true), want: true},
		{name: "state false", initial: true, cmd: SetState("led", false), want: false},
		{name: "command wins over state", cmd: Command{EntityID: "led", Action: strPtr(ActionTurnOff), State: boolPtr(true)}, want: false},
		{name: "unknown command", cmd: Command{EntityID: "led", Action: strPtr("blink"), State: boolPtr(true)}, wantErr: ErrUnknownCommand},
		{name: "neither field", cmd: Command{EntityID: "led"}, wantErr: ErrMissingState},
		{name: "missing entity", cmd: TurnOn(""), wantErr: ErrMissingEntityID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, _ := newFixture(t, tt.initial)
			got, err := d.Resolve(tt.cmd)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatch_ToggleExample(t *testing.T) {
	d, sw, echo := newFixture(t, false)

	cmd, err := ParseCommand([]byte(`{"type":"command","entity_id":"led","command":"toggle"}`))
	require.NoError(t, err)
	require.NoError(t, d.Dispatch(cmd))

	assert.True(t, sw.State())
	assert.Equal(t, []bool{true}, echo.echoes)
}

func TestDispatch_StateFormatAccepted(t *testing.T) {
	d, sw, _ := newFixture(t, false)

	cmd, err := ParseCommand([]byte(`{"type":"command","entity_id":"led","state":true}`))
	require.NoError(t, err)
	require.NoError(t, d.Dispatch(cmd))

	assert.True(t, sw.State())
}

func TestDispatch_EchoesUnchangedState(t *testing.T) {
	d, _, echo := newFixture(t, true)

	require.NoError(t, d.Dispatch(TurnOn("led")))

	assert.Equal(t, []bool{true}, echo.echoes)
}

func TestDispatch_UnknownSwitch(t *testing.T) {
	d, _, echo := newFixture(t, false)

	err := d.Dispatch(TurnOn("ghost"))
	assert.ErrorIs(t, err, ErrSwitchNotFound)
	assert.Empty(t, echo.echoes)
}

func TestDispatch_RejectedDoesNothing(t *testing.T) {
	d, sw, echo := newFixture(t, false)

	err := d.Dispatch(Command{EntityID: "led", Action: strPtr("explode")})
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.False(t, sw.State())
	assert.Empty(t, echo.echoes)
}

func TestParseCommand_FieldTypes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantID     string
		wantAction *string
		wantState  *bool
	}{
		{name: "string command", body: `{"entity_id":"a","command":"turn_on"}`, wantID: "a", wantAction: strPtr("turn_on")},
		{name: "bool state", body: `{"entity_id":"a","state":false}`, wantID: "a", wantState: boolPtr(false)},
		{name: "numeric command ignored", body: `{"entity_id":"a","command":1,"state":true}`, wantID: "a", wantState: boolPtr(true)},
		{name: "string state ignored", body: `{"entity_id":"a","state":"on"}`, wantID: "a"},
		{name: "null command ignored", body: `{"entity_id":"a","command":null}`, wantID: "a"},
		{name: "numeric entity id", body: `{"entity_id":5,"state":true}`, wantState: boolPtr(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, cmd.EntityID)
			assert.Equal(t, tt.wantAction, cmd.Action)
			assert.Equal(t, tt.wantState, cmd.State)
		})
	}
}

func TestParseCommand_InvalidJSON(t *testing.T) {
	_, err := ParseCommand([]byte(`{"entity_id":`))
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestFromPayload(t *testing.T) {
	assert.Equal(t, TurnOn("x"), FromPayload("x", "ON"))
	assert.Equal(t, TurnOff("x"), FromPayload("x", "off"))
	assert.Equal(t, Toggle("x"), FromPayload("x", " Toggle "))

	d, _, _ := newFixture(t, false)
	_, err := d.Resolve(FromPayload("led", "dim"))
	assert.ErrorIs(t, err, ErrUnknownCommand)
}
