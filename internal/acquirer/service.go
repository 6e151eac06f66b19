// Package acquirer implements the three HTTP-facing flows of the
// acquirer-side authorization endpoint: key-init (provisioning a
// terminal's DUKPT base key), sale (authorizing a card transaction
// carried as an ISO 8583 message), and token (signing a standalone
// terminal provisioning token). Grounded on the teacher's Processor
// (processor.go) for message handling and on the retrieval pack's
// slog.LogValuer + google/uuid request-correlation idiom used across
// its HTTP-facing commands.
package acquirer

import (
	"crypto/rsa"
	"encoding/hex"
	"fmt"
	"log/slog"

	iso8583 "github.com/ankuron/posauth"
	"github.com/ankuron/posauth/internal/pcrypto"
)

// Service holds the cryptographic material and registry every flow
// shares: the DUKPT base derivation key and its starting KSN, and the
// RSA key pair backing transport-key unwrap and token signing.
type Service struct {
	registry *iso8583.Registry

	bdk        []byte
	initialKsn []byte

	transportKey *rsa.PrivateKey
	signingKey   *rsa.PrivateKey

	panValidator *iso8583.CompiledValidator
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithRegistry overrides the default iso8583.StandardRegistry.
func WithRegistry(r *iso8583.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithPanDenylistPrefixes sets the PAN prefixes the sale flow rejects
// outright (the '4' prefix rule).
func WithPanDenylistPrefixes(prefixes []string) Option {
	return func(s *Service) {
		s.panValidator = iso8583.NewCompiledValidator()
		s.panValidator.AddFieldRule(2, &iso8583.PrefixDenylistRule{Prefixes: prefixes})
	}
}

// NewService builds a Service from its required key material.
func NewService(bdkHex, initialKsnHex string, transportKey, signingKey *rsa.PrivateKey, opts ...Option) (*Service, error) {
	bdk, err := hex.DecodeString(bdkHex)
	if err != nil {
		return nil, fmt.Errorf("acquirer: base derivation key is not valid hex: %w", err)
	}
	ksn, err := hex.DecodeString(initialKsnHex)
	if err != nil {
		return nil, fmt.Errorf("acquirer: initial KSN is not valid hex: %w", err)
	}

	s := &Service{
		registry:     iso8583.StandardRegistry,
		bdk:          bdk,
		initialKsn:   ksn,
		transportKey: transportKey,
		signingKey:   signingKey,
	}
	WithPanDenylistPrefixes([]string{"4"})(s)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// deriveWorkingKeys derives the data, PIN, and MAC keys for a given KSN,
// walking IPEK -> base key -> variant keys as pcrypto implements it.
func (s *Service) deriveWorkingKeys(ksn []byte) (data, pin, mac []byte, err error) {
	ipek, err := pcrypto.DeriveIpek(s.bdk, ksn)
	if err != nil {
		return nil, nil, nil, err
	}
	baseKey, err := pcrypto.DeriveBaseKey(ipek, ksn)
	if err != nil {
		return nil, nil, nil, err
	}
	data, err = pcrypto.DeriveDataKey(baseKey)
	if err != nil {
		return nil, nil, nil, err
	}
	pin, err = pcrypto.DerivePinKey(baseKey)
	if err != nil {
		return nil, nil, nil, err
	}
	mac, err = pcrypto.DeriveMacKey(baseKey)
	if err != nil {
		return nil, nil, nil, err
	}
	return data, pin, mac, nil
}

func logRequest(logger *slog.Logger, requestID, flow string) *slog.Logger {
	return logger.With(slog.String("request_id", requestID), slog.String("flow", flow))
}
