package hastate

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_UpsertCreatesAndUpdates(t *testing.T) {
	s := NewStore(4)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Upsert("sensor.outside", "12.5", map[string]any{
		AttrFriendlyName: "Outside",
		AttrUnit:         "°C",
		AttrDeviceClass:  "temperature",
	}))
	require.NoError(t, s.Upsert("sensor.outside", "13.0", map[string]any{}))

	st, ok := s.Get("sensor.outside")
	require.True(t, ok)
	assert.Equal(t, "13.0", st.State)
	assert.Equal(t, "Outside", st.FriendlyName, "attributes are kept when absent from a push")
	assert.Equal(t, "°C", st.Unit)
	assert.Equal(t, "temperature", st.DeviceClass)
	assert.Equal(t, fixed, st.LastUpdate)
	assert.Equal(t, 1, s.Len())
}

func TestStore_MissingEntityID(t *testing.T) {
	s := NewStore(2)
	assert.ErrorIs(t, s.Upsert("", "on", nil), ErrMissingEntityID)
	assert.Zero(t, s.Len())
}

func TestStore_CapacityRejectsNewKeepsExisting(t *testing.T) {
	s := NewStore(2)
	require.NoError(t, s.Upsert("a", "1", nil))
	require.NoError(t, s.Upsert("b", "2", nil))

	err := s.Upsert("c", "3", nil)
	assert.ErrorIs(t, err, ErrStoreFull)

	// Existing ids still update at capacity.
	require.NoError(t, s.Upsert("a", "10", nil))
	st, _ := s.Get("a")
	assert.Equal(t, "10", st.State)
	_, ok := s.Get("c")
	assert.False(t, ok)
}

func TestStore_ClearAtCapacity(t *testing.T) {
	s := NewStore(DefaultMaxEntities)
	for i := 0; i < DefaultMaxEntities; i++ {
		require.NoError(t, s.Upsert(fmt.Sprintf("sensor.s%d", i), "x", nil))
	}
	require.ErrorIs(t, s.Upsert("sensor.extra", "x", nil), ErrStoreFull)

	assert.Equal(t, DefaultMaxEntities, s.Clear())
	assert.Zero(t, s.Len())
	assert.NoError(t, s.Upsert("sensor.extra", "x", nil))
}

func TestStore_ObserverCalled(t *testing.T) {
	s := NewStore(1)
	var got []string
	s.SetObserver(ObserverFunc(func(id, state string, attrs map[string]any) {
		got = append(got, id+"="+state)
	}))

	require.NoError(t, s.Upsert("light.kitchen", "on", nil))
	_ = s.Upsert("light.other", "off", nil)

	assert.Equal(t, []string{"light.kitchen=on"}, got, "rejected pushes are not observed")
}

func TestStore_AllSorted(t *testing.T) {
	s := NewStore(3)
	_ = s.Upsert("b", "2", nil)
	_ = s.Upsert("a", "1", nil)

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].EntityID)
	assert.Equal(t, "b", all[1].EntityID)
}

func TestNewStore_DefaultMax(t *testing.T) {
	assert.Equal(t, DefaultMaxEntities, NewStore(0).Max())
}

func TestState_Accessors(t *testing.T) {
	tests := []struct {
		state     string
		wantFloat float64
		wantInt   int64
		wantBool  bool
	}{
		{state: "21.7", wantFloat: 21.7, wantInt: 21},
		{state: "42", wantFloat: 42, wantInt: 42},
		{state: "on", wantBool: true},
		{state: "ON", wantBool: true},
		{state: "Home", wantBool: true},
		{state: "open", wantBool: true},
		{state: "yes", wantBool: true},
		{state: "true", wantBool: true},
		{state: "1", wantFloat: 1, wantInt: 1, wantBool: true},
		{state: "off"},
		{state: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			st := State{State: tt.state, hasValue: true}
			assert.InDelta(t, tt.wantFloat, st.Float(), 1e-9)
			assert.Equal(t, tt.wantInt, st.Int())
			assert.Equal(t, tt.wantBool, st.Bool())
		})
	}
}

func TestState_NoValue(t *testing.T) {
	st := State{State: "on"}
	assert.False(t, st.Bool())
	assert.Zero(t, st.Float())
	assert.Zero(t, st.Int())
}
