package transport

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kafji.net/hidstate/inputevent"
	"kafji.net/hidstate/keycode"
)

type certKeyPair struct {
	cert, key []byte
}

// newCertKeyPair returns a self-signed cert and its key, PEM encoded.
func newCertKeyPair(t *testing.T) certKeyPair {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return certKeyPair{
		cert: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		key:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	}
}

// relayOne sends ev from client to server over a loopback TLS connection
// and returns what the server read along with each side's error.
func relayOne(t *testing.T, serverCfg, clientCfg *tls.Config, ev inputevent.Event) (inputevent.Event, error, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	l, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	type result struct {
		ev  inputevent.Event
		err error
	}
	served := make(chan result, 1)
	go func() {
		serverRaw, err := l.Accept()
		if err != nil {
			served <- result{err: err}
			return
		}
		conn := tls.Server(serverRaw, serverCfg)
		defer serverRaw.Close()
		if err := conn.HandshakeContext(ctx); err != nil {
			served <- result{err: err}
			return
		}
		frm, err := readFrame(conn)
		if err != nil {
			served <- result{err: err}
			return
		}
		got, err := frm.Event()
		served <- result{ev: got, err: err}
	}()

	// the client end stays open until the server is done reading
	var clientRaw net.Conn
	clientErr := func() error {
		var err error
		clientRaw, err = (&net.Dialer{}).DialContext(ctx, "tcp4", l.Addr().String())
		if err != nil {
			return err
		}
		conn := tls.Client(clientRaw, clientCfg)
		if err := conn.HandshakeContext(ctx); err != nil {
			return err
		}
		frm, err := EventFrame(ev)
		if err != nil {
			return err
		}
		return writeFrame(conn, frm)
	}()

	if clientRaw == nil {
		l.Close()
	}
	r := <-served
	if clientRaw != nil {
		clientRaw.Close()
	}
	return r.ev, r.err, clientErr
}

func TestTLSPinnedPeers(t *testing.T) {
	server := newCertKeyPair(t)
	client := newCertKeyPair(t)
	stranger := newCertKeyPair(t)
	ev := inputevent.KeyDown{Source: inputevent.Source{DeviceID: 2}, Platform: keycode.PlatformEvdev, Code: 30}

	tests := []struct {
		name           string
		serverPair     certKeyPair
		clientPair     certKeyPair
		serverPinsPeer []byte
		clientPinsPeer []byte
		check          func(t *testing.T, got inputevent.Event, serverErr, clientErr error)
	}{
		{
			name:           "known peers",
			serverPair:     server,
			clientPair:     client,
			serverPinsPeer: client.cert,
			clientPinsPeer: server.cert,
			check: func(t *testing.T, got inputevent.Event, serverErr, clientErr error) {
				require.NoError(t, clientErr)
				require.NoError(t, serverErr)
				assert.Equal(t, ev, got)
			},
		},
		{
			name:           "unknown client",
			serverPair:     server,
			clientPair:     stranger,
			serverPinsPeer: client.cert,
			clientPinsPeer: server.cert,
			check: func(t *testing.T, got inputevent.Event, serverErr, clientErr error) {
				var verr *tls.CertificateVerificationError
				assert.ErrorAs(t, serverErr, &verr)
				assert.Nil(t, got)
			},
		},
		{
			name:           "unknown server",
			serverPair:     stranger,
			clientPair:     client,
			serverPinsPeer: client.cert,
			clientPinsPeer: server.cert,
			check: func(t *testing.T, got inputevent.Event, serverErr, clientErr error) {
				var uerr x509.UnknownAuthorityError
				assert.ErrorAs(t, clientErr, &uerr)
				assert.Error(t, serverErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serverCfg, err := ServerTLSConfig(tt.serverPair.cert, tt.serverPair.key, tt.serverPinsPeer)
			require.NoError(t, err)
			clientCfg, err := ClientTLSConfig(tt.clientPair.cert, tt.clientPair.key, tt.clientPinsPeer)
			require.NoError(t, err)

			got, serverErr, clientErr := relayOne(t, serverCfg, clientCfg, ev)
			tt.check(t, got, serverErr, clientErr)
		})
	}
}

func TestTLSConfigRejectsBadKeyPair(t *testing.T) {
	a, b := newCertKeyPair(t), newCertKeyPair(t)

	_, err := ServerTLSConfig(a.cert, b.key, b.cert)
	assert.Error(t, err)
	_, err = ClientTLSConfig(a.cert, []byte("not pem"), b.cert)
	assert.Error(t, err)
}

func TestReadPEMFiles(t *testing.T) {
	dir := t.TempDir()
	pair, peer := newCertKeyPair(t), newCertKeyPair(t)
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	peerPath := filepath.Join(dir, "peer.pem")
	require.NoError(t, os.WriteFile(certPath, pair.cert, 0o600))
	require.NoError(t, os.WriteFile(keyPath, pair.key, 0o600))
	require.NoError(t, os.WriteFile(peerPath, peer.cert, 0o600))

	cert, key, peerCert, err := ReadPEMFiles(certPath, keyPath, peerPath)
	require.NoError(t, err)
	assert.Equal(t, pair.cert, cert)
	assert.Equal(t, pair.key, key)
	assert.Equal(t, peer.cert, peerCert)

	_, _, _, err = ReadPEMFiles(certPath, keyPath, filepath.Join(dir, "missing.pem"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
