package storage

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoke_Errors(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		args    []interface{}
		wantErr string
	}{
		{
			name:    "getItem without key",
			method:  "getItem",
			wantErr: "Failed to execute 'getItem' on 'Storage': 1 argument required, but only 0 present.",
		},
		{
			name:    "getItem with number key",
			method:  "getItem",
			args:    []interface{}{42},
			wantErr: "Failed to execute 'getItem' on 'Storage': parameter 1 is not of type 'string'.",
		},
		{
			name:    "setItem without value",
			method:  "setItem",
			args:    []interface{}{"a"},
			wantErr: "Failed to execute 'setItem' on 'Storage': 2 arguments required, but only 1 present.",
		},
		{
			name:    "setItem with nil value",
			method:  "setItem",
			args:    []interface{}{"a", nil},
			wantErr: "Failed to execute 'setItem' on 'Storage': parameter 2 is not of type 'string'.",
		},
		{
			name:    "removeItem without key",
			method:  "removeItem",
			wantErr: "Failed to execute 'removeItem' on 'Storage': 1 argument required, but only 0 present.",
		},
		{
			name:    "key with string index",
			method:  "key",
			args:    []interface{}{"0"},
			wantErr: "Failed to execute 'key' on 'Storage': parameter 1 is not of type 'number'.",
		},
		{
			name:    "unknown method",
			method:  "getAll",
			wantErr: "Failed to execute 'getAll' on 'Storage': no such method.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, rec, _ := newTestStorage(t)

			_, err := Invoke(s, tt.method, tt.args...)
			require.Error(t, err)

			var typeErr *TypeError
			assert.ErrorAs(t, err, &typeErr)
			assert.EqualError(t, err, tt.wantErr)
			assert.Equal(t, 0, s.Length(), "failed call must not change storage")
			assert.Empty(t, rec.Events(), "failed call must not emit events")
		})
	}
}

func TestInvoke_Operations(t *testing.T) {
	s, _, rec, _ := newTestStorage(t)

	steps := []struct {
		method string
		args   []interface{}
		want   interface{}
	}{
		{"getItem", []interface{}{"a"}, nil},
		{"setItem", []interface{}{"a", "1"}, nil},
		{"setItem", []interface{}{"b", "2", "ignored"}, nil},
		{"getItem", []interface{}{"a"}, "1"},
		{"length", nil, 2},
		{"key", []interface{}{0}, "a"},
		{"key", []interface{}{float64(1)}, "b"},
		{"key", []interface{}{int64(5)}, nil},
		{"key", []interface{}{1.5}, nil},
		{"key", []interface{}{-1}, nil},
		{"key", []interface{}{math.NaN()}, nil},
		{"removeItem", []interface{}{"a"}, nil},
		{"getItem", []interface{}{"a"}, nil},
		{"clear", nil, nil},
		{"length", nil, 0},
	}

	for _, step := range steps {
		got, err := Invoke(s, step.method, step.args...)
		require.NoError(t, err, "Invoke(%s, %v)", step.method, step.args)
		assert.Equal(t, step.want, got, "Invoke(%s, %v)", step.method, step.args)
	}

	// setItem a, setItem b, removeItem a, clear (b)
	assert.Len(t, rec.Events(), 4)
}
