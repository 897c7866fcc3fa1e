package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// ServerTLSConfig accepts only clients presenting clientCert.
func ServerTLSConfig(serverCert, serverKey, clientCert []byte) (*tls.Config, error) {
	keyPair, err := tls.X509KeyPair(serverCert, serverKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key pair: %w", err)
	}

	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(clientCert)

	return &tls.Config{
		Certificates: []tls.Certificate{keyPair},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    pool,
	}, nil
}

// ClientTLSConfig pins the server to serverCert. Host names are not
// verified; the certificate is.
func ClientTLSConfig(clientCert, clientKey, serverCert []byte) (*tls.Config, error) {
	keyPair, err := tls.X509KeyPair(clientCert, clientKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key pair: %w", err)
	}

	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(serverCert)

	return &tls.Config{
		Certificates:       []tls.Certificate{keyPair},
		RootCAs:            pool,
		InsecureSkipVerify: true,
		VerifyConnection: func(cs tls.ConnectionState) error {
			opts := x509.VerifyOptions{
				Roots: pool,
			}
			_, err := cs.PeerCertificates[0].Verify(opts)
			if err != nil {
				slog.Debug("failed to verify peer cert", "error", err)
				return err
			}
			return nil
		},
	}, nil
}

// ReadPEMFiles reads cert, key, and peer cert in that order.
func ReadPEMFiles(certPath, keyPath, peerCertPath string) (cert, key, peerCert []byte, err error) {
	cert, err = os.ReadFile(certPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read tls cert file: %w", err)
	}
	key, err = os.ReadFile(keyPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read tls key file: %w", err)
	}
	peerCert, err = os.ReadFile(peerCertPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to read peer tls cert file: %w", err)
	}
	return cert, key, peerCert, nil
}
