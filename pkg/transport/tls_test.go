package transport

import (
	"context"
	"crypto/tls"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tlsEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestSSLConfig_TLSConfig(t *testing.T) {
	cfg, err := DefaultSSLConfig().TLSConfig()
	require.NoError(t, err)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Nil(t, cfg.RootCAs)

	cfg, err = SSLConfig{DisablesValidation: true}.TLSConfig()
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)

	cfg, err = SSLConfig{ValidatesCertificateChain: true}.TLSConfig()
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.NotNil(t, cfg.VerifyConnection)
}

func TestSSLConfig_BadInputs(t *testing.T) {
	_, err := SSLConfig{DeviceCertificates: [][]byte{[]byte("not a certificate")}}.TLSConfig()
	assert.Error(t, err)

	_, err = SSLConfig{ClientCertificate: []byte("not pkcs12"), ClientCertificatePassword: "x"}.TLSConfig()
	assert.Error(t, err)
}

func TestSSLConfig_DialWithTrustedDeviceCertificate(t *testing.T) {
	server := tlsEchoServer(t)
	defer server.Close()

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw})
	url := "wss" + strings.TrimPrefix(server.URL, "https")

	tests := []struct {
		name    string
		config  SSLConfig
		wantErr bool
	}{
		{
			name:   "chain and host",
			config: SSLConfig{DeviceCertificates: [][]byte{certPEM}, ValidatesHost: true, ValidatesCertificateChain: true},
		},
		{
			name:   "chain only",
			config: SSLConfig{DeviceCertificates: [][]byte{server.Certificate().Raw}, ValidatesCertificateChain: true},
		},
		{
			name:   "pinned leaf",
			config: SSLConfig{DeviceCertificates: [][]byte{certPEM}},
		},
		{
			name:    "system roots reject test certificate",
			config:  DefaultSSLConfig(),
			wantErr: true,
		},
		{
			name:   "validation disabled",
			config: SSLConfig{DisablesValidation: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.config.TLSConfig()
			require.NoError(t, err)

			conn, err := NewWebSocketDialer().Dial(context.Background(), url, cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			conn.Close()
		})
	}
}

func TestVerifyPeerWithoutCertificates(t *testing.T) {
	err := verifyPeer(tls.ConnectionState{}, nil, nil, true, true)
	assert.Error(t, err)
}
