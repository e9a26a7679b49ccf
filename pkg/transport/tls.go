package transport

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/pkcs12"

	"github.com/muurk/ocast/internal/logging"
)

// SSLConfig describes how the WebSocket TLS session is authenticated.
type SSLConfig struct {
	// DeviceCertificates are trusted receiver certificates, PEM or DER.
	// When empty the system roots are used.
	DeviceCertificates [][]byte

	// ClientCertificate is a PKCS#12 bundle presented to the receiver.
	ClientCertificate         []byte
	ClientCertificatePassword string

	// ValidatesHost checks the certificate names against the dialed host.
	ValidatesHost bool

	// ValidatesCertificateChain verifies the chain up to a trusted root. When
	// false and DeviceCertificates are set, the leaf must be one of them.
	ValidatesCertificateChain bool

	// DisablesValidation accepts any server certificate.
	DisablesValidation bool
}

// DefaultSSLConfig validates both host and chain.
func DefaultSSLConfig() SSLConfig {
	return SSLConfig{ValidatesHost: true, ValidatesCertificateChain: true}
}

// TLSConfig builds the client TLS configuration.
func (c SSLConfig) TLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if len(c.ClientCertificate) > 0 {
		cert, err := c.clientCertificate()
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	if c.DisablesValidation {
		logging.Warn("TLS certificate validation disabled")
		cfg.InsecureSkipVerify = true
		return cfg, nil
	}

	trusted, err := parseCertificates(c.DeviceCertificates)
	if err != nil {
		return nil, err
	}
	var pool *x509.CertPool
	if len(trusted) > 0 {
		pool = x509.NewCertPool()
		for _, cert := range trusted {
			pool.AddCert(cert)
		}
	}

	if c.ValidatesHost && c.ValidatesCertificateChain {
		cfg.RootCAs = pool
		return cfg, nil
	}

	// crypto/tls cannot relax host or chain checks on its own
	cfg.InsecureSkipVerify = true
	cfg.VerifyConnection = func(cs tls.ConnectionState) error {
		return verifyPeer(cs, pool, trusted, c.ValidatesHost, c.ValidatesCertificateChain)
	}
	return cfg, nil
}

func (c SSLConfig) clientCertificate() (tls.Certificate, error) {
	key, cert, err := pkcs12.Decode(c.ClientCertificate, c.ClientCertificatePassword)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to decode client certificate: %w", err)
	}
	logging.Debug("Loaded client certificate",
		zap.String("subject", cert.Subject.String()),
		zap.Time("not_after", cert.NotAfter),
	)
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  key,
		Leaf:        cert,
	}, nil
}

func verifyPeer(cs tls.ConnectionState, pool *x509.CertPool, trusted []*x509.Certificate, host, chain bool) error {
	if len(cs.PeerCertificates) == 0 {
		return errors.New("tls: no peer certificate")
	}
	leaf := cs.PeerCertificates[0]

	if chain {
		opts := x509.VerifyOptions{
			Roots:         pool,
			Intermediates: x509.NewCertPool(),
		}
		for _, c := range cs.PeerCertificates[1:] {
			opts.Intermediates.AddCert(c)
		}
		_, err := leaf.Verify(opts)
		return err
	}

	if host {
		if err := leaf.VerifyHostname(cs.ServerName); err != nil {
			return err
		}
	}
	if len(trusted) == 0 {
		return nil
	}
	for _, t := range trusted {
		if bytes.Equal(t.Raw, leaf.Raw) {
			return nil
		}
	}
	return errors.New("tls: receiver certificate is not one of the trusted device certificates")
}

// parseCertificates accepts PEM blocks or raw DER.
func parseCertificates(raw [][]byte) ([]*x509.Certificate, error) {
	var out []*x509.Certificate
	for i, data := range raw {
		if bytes.Contains(data, []byte("-----BEGIN")) {
			rest := data
			for {
				var block *pem.Block
				block, rest = pem.Decode(rest)
				if block == nil {
					break
				}
				if block.Type != "CERTIFICATE" {
					continue
				}
				cert, err := x509.ParseCertificate(block.Bytes)
				if err != nil {
					return nil, fmt.Errorf("device certificate %d: %w", i, err)
				}
				out = append(out, cert)
			}
			continue
		}
		cert, err := x509.ParseCertificate(data)
		if err != nil {
			return nil, fmt.Errorf("device certificate %d: %w", i, err)
		}
		out = append(out, cert)
	}
	return out, nil
}
