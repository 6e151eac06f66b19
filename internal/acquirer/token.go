package acquirer

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ankuron/posauth/internal/pcrypto"
	"github.com/ankuron/posauth/internal/token63"
)

// TokenResult is a standalone signed provisioning token for a terminal
// serial, issued outside of a full ISO 8583 exchange (used for initial
// enrollment before the terminal has a live KSN to key-init against).
type TokenResult struct {
	Frame     string
	Signature string
	ExFrame   string
}

// IssueToken builds an EW-framed provisioning token for serial under the
// host's initial KSN, signs it, and additionally returns an EX frame
// carrying a random 16-byte nonce encrypted under that KSN's derived
// data key — demonstrating the same key material the terminal will use
// once it starts transacting.
func (s *Service) IssueToken(logger *slog.Logger, requestID, serial string) (*TokenResult, error) {
	logger = logRequest(logger, requestID, "token")

	payload := fmt.Sprintf("SERIAL=%s;KSN=%s", serial, strings.ToUpper(hex.EncodeToString(s.initialKsn)))
	frame, err := token63.BuildEW(payload)
	if err != nil {
		return nil, err
	}

	sig, err := pcrypto.SignProvisioningToken(s.signingKey, []byte(frame))
	if err != nil {
		return nil, err
	}

	dataKey, _, _, err := s.deriveWorkingKeys(s.initialKsn)
	if err != nil {
		logger.Error("token key derivation failed", "error", err)
		return nil, err
	}
	dataKey24, err := pcrypto.ExpandTo3DESKey(dataKey)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("acquirer: nonce generation failed: %w", err)
	}
	ciphertext, err := pcrypto.TDesEcbEncrypt(dataKey24, nonce)
	if err != nil {
		return nil, err
	}

	exFrame, err := token63.BuildEX(s.initialKsn, ciphertext)
	if err != nil {
		return nil, err
	}

	logger.Info("provisioning token issued", "serial", serial)
	return &TokenResult{
		Frame:     frame,
		Signature: strings.ToUpper(hex.EncodeToString(sig)),
		ExFrame:   exFrame,
	}, nil
}
