package acquirer

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	iso8583 "github.com/ankuron/posauth"
	"github.com/ankuron/posauth/internal/pcrypto"
	"github.com/ankuron/posauth/internal/token63"
)

// SaleResult is the outcome of authorizing a sale request.
type SaleResult struct {
	ResponseISO  []byte
	ResponseCode string
}

// esMarkerOffset is the offset (0-based, from the start of the located
// `! ES` frame) whose byte must read '5' before the `! EZ` payload
// alongside it is trusted as a DUKPT-encrypted PAN source.
const esMarkerOffset = 50

// Sale authorizes a card-present sale transaction. The PAN is taken
// from the first source that yields one: field 2, then field 35 (split
// at its first 'D' or '=' separator), then a DUKPT-encrypted payload
// carried in field 63's `! ES`/`! EZ` frames. A PAN beginning with '4'
// is declined; anything else is approved.
func (s *Service) Sale(logger *slog.Logger, requestID string, rawISO []byte) (*SaleResult, error) {
	logger = logRequest(logger, requestID, "sale")

	req := iso8583.NewIsoMessage(iso8583.WithRegistry(s.registry))
	defer req.Release()

	if err := req.Unpack(rawISO); err != nil {
		logger.Warn("sale request failed to unpack", "error", err)
		return nil, err
	}
	logger.Info("sale request received", "message", req)

	pan, err := s.extractPAN(req)
	if err != nil {
		logger.Warn("sale PAN extraction failed", "error", err)
		return s.saleReject(logger, "01", err.Error())
	}

	if err := s.panValidator.ValidateField(2, pan); err != nil {
		logger.Info("sale declined by PAN prefix rule", "response_code", "01")
		return s.saleReject(logger, "01", "")
	}

	resp := iso8583.NewIsoMessage(iso8583.WithRegistry(s.registry))
	defer resp.Release()
	if err := resp.SetMTI("0210"); err != nil {
		return nil, err
	}
	if err := resp.SetField(39, "00"); err != nil {
		return nil, err
	}
	out, err := resp.Pack()
	if err != nil {
		return nil, err
	}
	logger.Info("sale approved")
	return &SaleResult{ResponseISO: out, ResponseCode: "00"}, nil
}

// extractPAN implements the priority chain: field 2, then field 35
// split at its first 'D' or '=', then field 63's `! ES`/`! EZ` pair.
func (s *Service) extractPAN(req *iso8583.IsoMessage) (string, error) {
	if req.HasField(2) {
		pan, err := req.GetField(2)
		if err == nil && pan != "" {
			return pan, nil
		}
	}

	if req.HasField(35) {
		track2, err := req.GetField(35)
		if err == nil && track2 != "" {
			if idx := strings.IndexAny(track2, "D="); idx >= 0 {
				return track2[:idx], nil
			}
		}
	}

	return s.extractPANFromField63(req)
}

func (s *Service) extractPANFromField63(req *iso8583.IsoMessage) (string, error) {
	if !req.HasField(63) {
		return "", fmt.Errorf("acquirer: no PAN source in field 2, 35, or 63")
	}
	field63, err := req.GetField(63)
	if err != nil {
		return "", err
	}

	esIdx := strings.Index(field63, string(token63.TagES))
	if esIdx < 0 || esIdx+esMarkerOffset >= len(field63) {
		return "", fmt.Errorf("acquirer: field 63 has no ! ES marker")
	}
	if field63[esIdx+esMarkerOffset] != '5' {
		return "", fmt.Errorf("acquirer: field 63 ! ES marker is not '5'")
	}

	ezIdx := strings.Index(field63, string(token63.TagEZ))
	if ezIdx < 0 || ezIdx+token63.TagEZ.Len() > len(field63) {
		return "", fmt.Errorf("acquirer: field 63 has no ! EZ frame")
	}
	ez, err := token63.ParseEZ(field63[ezIdx : ezIdx+token63.TagEZ.Len()])
	if err != nil {
		return "", err
	}

	dataKey, _, _, err := s.deriveWorkingKeys(ez.Ksn)
	if err != nil {
		return "", fmt.Errorf("acquirer: sale key derivation failed: %w", err)
	}
	dataKey24, err := pcrypto.ExpandTo3DESKey(dataKey)
	if err != nil {
		return "", err
	}
	plaintext, err := pcrypto.TDesEcbDecrypt(dataKey24, ez.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("acquirer: sale ciphertext decrypt failed: %w", err)
	}

	plainHex := strings.ToUpper(hex.EncodeToString(plaintext))
	if idx := strings.IndexByte(plainHex, 'D'); idx >= 0 {
		plainHex = plainHex[:idx]
	}
	return plainHex, nil
}

func (s *Service) saleReject(logger *slog.Logger, code, reason string) (*SaleResult, error) {
	resp := iso8583.NewIsoMessage(iso8583.WithRegistry(s.registry))
	defer resp.Release()
	if err := resp.SetMTI("0210"); err != nil {
		return nil, err
	}
	if err := resp.SetField(39, code); err != nil {
		return nil, err
	}
	out, err := resp.Pack()
	if err != nil {
		return nil, err
	}
	logger.Warn("sale rejected", "response_code", code, "reason", reason)
	return &SaleResult{ResponseISO: out, ResponseCode: code}, nil
}
