package message

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type playParams struct {
	Position float64 `json:"position"`
}

func TestDeviceLayerRoundTrip(t *testing.T) {
	in := DeviceLayer[playParams]{
		ID:          7,
		Source:      "0f5c1f2e-client",
		Destination: string(DomainBrowser),
		Type:        TypeCommand,
		Message: Command("org.ocast.media", "play", playParams{Position: 12.5}).
			WithOptions(map[string]any{"b": true, "a": "x"}),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out DeviceLayer[playParams]
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestDeviceLayerOmitsAbsentFields(t *testing.T) {
	data, err := json.Marshal(DeviceLayer[struct{}]{
		ID:          1,
		Source:      "s",
		Destination: "settings",
		Type:        TypeCommand,
		Message:     Command("org.ocast.settings.device", "getDeviceID", struct{}{}),
	})
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":1,"src":"s","dst":"settings","type":"command",
		  "message":{"service":"org.ocast.settings.device","data":{"name":"getDeviceID","params":{}}}}`,
		string(data))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"reply", `{"id":3,"src":"browser","dst":"c","status":"ok","type":"reply","message":{"service":"s","data":{"name":"n","params":{"code":0}}}}`, false},
		{"event", `{"id":-1,"src":"browser","dst":"*","type":"event","message":{"service":"org.ocast.webapp","data":{"name":"connectedStatus","params":{"status":"connected"}}}}`, false},
		{"not json", `{"id":`, true},
		{"unknown type", `{"id":1,"type":"gossip","message":{"service":"s","data":{"name":"n","params":{}}}}`, true},
		{"no params", `{"id":1,"type":"event","message":{"service":"s","data":{"name":"n"}}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReplyCode(t *testing.T) {
	code, present, err := ReplyCode(json.RawMessage(`{"code":2404}`))
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, 2404, code)

	code, present, err = ReplyCode(json.RawMessage(`{"id":"abc"}`))
	require.NoError(t, err)
	assert.False(t, present)
	assert.Equal(t, SuccessCode, code)

	_, _, err = ReplyCode(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

func TestStatusErr(t *testing.T) {
	tests := []struct {
		status Status
		want   TransportErrorKind
	}{
		{"json_format_error", TransportErrorJSONFormat},
		{"value_format_error", TransportErrorValueFormat},
		{"missing_mandatory_field", TransportErrorMissingMandatoryField},
		{"internal_error", TransportErrorInternal},
		{"forbidden_unsecure_mode", TransportErrorForbiddenUnsecureMode},
		{"something_new", TransportErrorUnknown},
		{"", TransportErrorMissingStatus},
	}

	assert.NoError(t, StatusOK.Err())
	for _, tt := range tests {
		var te *TransportError
		require.True(t, errors.As(tt.status.Err(), &te), "status %q", tt.status)
		assert.Equal(t, tt.want, te.Kind, "status %q", tt.status)
	}
}
