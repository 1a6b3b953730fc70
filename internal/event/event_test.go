package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageEvent_Defaults(t *testing.T) {
	evt := NewStorageEvent(TypeStorage, StorageEventInit{})

	assert.Equal(t, "storage", evt.Type())
	_, ok := evt.Key()
	assert.False(t, ok, "Key() should be absent")
	_, ok = evt.NewValue()
	assert.False(t, ok, "NewValue() should be absent")
	_, ok = evt.OldValue()
	assert.False(t, ok, "OldValue() should be absent")
	assert.Nil(t, evt.StorageArea())
	assert.Empty(t, evt.URL())
	assert.Equal(t, None, evt.EventPhase())
	assert.False(t, evt.Bubbles())
	assert.False(t, evt.Cancelable())
	assert.False(t, evt.Composed())
	assert.False(t, evt.IsTrusted())
	assert.False(t, evt.TimeStamp().IsZero())
}

func TestNewStorageEvent_EmptyStringIsNotAbsent(t *testing.T) {
	evt := NewStorageEvent(TypeStorage, StorageEventInit{
		Key:      String(""),
		NewValue: String(""),
	})

	key, ok := evt.Key()
	assert.True(t, ok)
	assert.Equal(t, "", key)

	value, ok := evt.NewValue()
	assert.True(t, ok)
	assert.Equal(t, "", value)
}

func TestNewStorageEvent_CopiesInit(t *testing.T) {
	key := "a"
	init := StorageEventInit{Key: &key, URL: "http://localhost/"}
	evt := NewStorageEvent(TypeStorage, init)

	key = "changed"

	got, _ := evt.Key()
	assert.Equal(t, "a", got, "event must not alias the init fields")
	assert.Equal(t, "http://localhost/", evt.URL())
}

func TestStorageEvent_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		init StorageEventInit
		want string
	}{
		{
			name: "all fields",
			init: StorageEventInit{Key: String("a"), NewValue: String("2"), OldValue: String("1")},
			want: `{"type":"storage","key":"a","oldValue":"1","newValue":"2","url":""}`,
		},
		{
			name: "absent fields",
			init: StorageEventInit{},
			want: `{"type":"storage","key":null,"oldValue":null,"newValue":null,"url":""}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(NewStorageEvent(TypeStorage, tt.init))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestStorageEvent_String(t *testing.T) {
	evt := NewStorageEvent(TypeStorage, StorageEventInit{Key: String("a"), NewValue: String("1")})
	assert.Equal(t, `storage{key: "a", oldValue: null, newValue: "1", url: ""}`, evt.String())
}

func TestEvent_PreventDefault(t *testing.T) {
	tests := []struct {
		name       string
		cancelable bool
		passive    bool
		want       bool
	}{
		{"cancelable", true, false, true},
		{"not cancelable", false, false, false},
		{"passive listener", true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := NewTarget()
			target.AddEventListener("x", Func(func(e Interface) {
				e.Base().PreventDefault()
			}), Options{Passive: tt.passive})

			evt := New("x", Init{Cancelable: tt.cancelable})
			notCanceled := target.DispatchEvent(evt)

			assert.Equal(t, tt.want, evt.DefaultPrevented())
			assert.Equal(t, !tt.want, notCanceled)
		})
	}
}

func TestEvent_PhaseDuringDispatch(t *testing.T) {
	target := NewTarget()
	var phase Phase
	var current Target
	var path []Target
	target.AddEventListener("x", Func(func(e Interface) {
		phase = e.Base().EventPhase()
		current = e.Base().CurrentTarget()
		path = e.Base().ComposedPath()
	}), Options{})

	evt := New("x", Init{})
	target.DispatchEvent(evt)

	assert.Equal(t, AtTarget, phase)
	assert.Same(t, target, current)
	assert.Len(t, path, 1)

	assert.Equal(t, None, evt.EventPhase(), "dispatch state reset")
	assert.Nil(t, evt.CurrentTarget(), "dispatch state reset")
	assert.Same(t, target, evt.Target(), "Target() keeps the last dispatch target")
	assert.Empty(t, evt.ComposedPath())
}
