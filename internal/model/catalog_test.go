package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONArray_Scan(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    JSONArray
		wantErr bool
	}{
		{"bytes", []byte(`["modern","teak"]`), JSONArray{"modern", "teak"}, false},
		{"string", `["rustic"]`, JSONArray{"rustic"}, false},
		{"null", nil, nil, false},
		{"unsupported type", int64(42), nil, true},
		{"malformed", []byte(`not json`), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got JSONArray
			err := got.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
