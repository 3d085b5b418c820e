package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectRequest_Series(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantOK bool
		wantN  int
	}{
		{"list", `{"data":[1,2,3]}`, true, 3},
		{"empty list", `{"data":[]}`, false, 0},
		{"missing", `{}`, false, 0},
		{"object", `{"data":{"a":1}}`, false, 0},
		{"string", `{"data":"1,2,3"}`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req DetectRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			values, ok := req.Series()
			assert.Equal(t, tt.wantOK, ok)
			assert.Len(t, values, tt.wantN)
		})
	}
}

func TestErrorResponse_JSON(t *testing.T) {
	data, err := json.Marshal(NewErrorResponse("INVALID_INPUT", "No metrics provided"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"code":"INVALID_INPUT","message":"No metrics provided"}}`, string(data))
}
