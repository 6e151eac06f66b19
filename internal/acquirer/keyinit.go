package acquirer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	iso8583 "github.com/ankuron/posauth"
	"github.com/ankuron/posauth/internal/pcrypto"
	"github.com/ankuron/posauth/internal/token63"
)

// KeyInitResult is the outcome of a key-init exchange: the raw ISO 8583
// response bytes to return to the terminal, plus the response code for
// the caller's HTTP status mapping and logging.
type KeyInitResult struct {
	ResponseISO  []byte
	ResponseCode string
}

// Fixed offsets into the 548-byte `! EW` key-init request frame, per the
// field-63 key-init handler's slicing rule. These are plain 0-based Go
// slice bounds into the frame string, not the 1-based extractSubstring
// convention the generic token63 frame parsers use.
const (
	keyInitCipheredTKFrom  = 10
	keyInitCipheredTKUntil = 522
	keyInitKcvFrom         = 522
	keyInitKcvUntil        = 528
	keyInitCrcFrom         = 540
	keyInitCrcUntil        = 548
)

// K0 and its KSN are hard-coded: every successful key-init provisions
// the same new base key, re-wrapped under the terminal's own transport
// key.
const (
	keyInitK0Hex  = "FDB5C138D31DDCAA6C5DC76827EF487E"
	keyInitKsnHex = "0102012345678AE00000"
)

// KeyInit unwraps a terminal's RSA-wrapped transport key from the `! EW`
// frame in field 63, self-checks it by CRC and KCV, then re-wraps the
// hard-coded new base key K0 under that transport key and returns it in
// an `! ER`+`! EX` reply token.
func (s *Service) KeyInit(logger *slog.Logger, requestID string, rawISO []byte) (*KeyInitResult, error) {
	logger = logRequest(logger, requestID, "keyinit")

	req := iso8583.NewIsoMessage(iso8583.WithRegistry(s.registry))
	defer req.Release()
	if err := req.Unpack(rawISO); err != nil {
		logger.Warn("key-init request failed to unpack", "error", err)
		return nil, err
	}
	logger.Info("key-init request received", "message", req)

	field63, err := req.GetField(63)
	if err != nil {
		return nil, fmt.Errorf("acquirer: Campo 63 no encontrado.")
	}

	idx := strings.Index(field63, string(token63.TagEW))
	if idx < 0 || idx+token63.TagEW.Len() > len(field63) {
		return nil, &iso8583.CodecError{Kind: iso8583.KindBadToken, Err: fmt.Errorf("! EW marker missing or short")}
	}
	ewRaw := field63[idx : idx+token63.TagEW.Len()]

	cipheredTKHex := ewRaw[keyInitCipheredTKFrom:keyInitCipheredTKUntil]
	kcvHex := ewRaw[keyInitKcvFrom:keyInitKcvUntil]
	crcFromMessage := strings.ToUpper(ewRaw[keyInitCrcFrom:keyInitCrcUntil])

	cipheredTK, err := hex.DecodeString(cipheredTKHex)
	if err != nil {
		return nil, &iso8583.CodecError{Kind: iso8583.KindBadHex, Err: err}
	}

	computedCrc := iso8583.Crc32HexUpper([]byte(strings.ToUpper(hex.EncodeToString(cipheredTK))))
	if computedCrc != crcFromMessage {
		logger.Warn("key-init CRC mismatch", "expected", computedCrc, "got", crcFromMessage)
		return s.keyInitToken(logger, "73", tokenER(false, false, false)+tokenEXError("03"))
	}

	tk, err := pcrypto.UnwrapTransportKey(s.transportKey, cipheredTK)
	if err != nil {
		logger.Error("transport key RSA-decrypt failed", "error", err)
		return nil, &iso8583.CodecError{Kind: iso8583.KindCryptoFailure, Err: err}
	}
	tk24, err := pcrypto.ExpandTo3DESKey(tk)
	if err != nil {
		return nil, &iso8583.CodecError{Kind: iso8583.KindCryptoFailure, Err: err}
	}

	tkKcv, err := pcrypto.Kcv(tk24, 3)
	if err != nil {
		return nil, err
	}
	msgKcv, err := hex.DecodeString(kcvHex)
	if err != nil {
		return nil, &iso8583.CodecError{Kind: iso8583.KindBadHex, Err: err}
	}
	if !bytes.Equal(tkKcv, msgKcv) {
		logger.Warn("key-init transport key KCV mismatch")
		return s.keyInitToken(logger, "72", tokenER(false, false, false)+tokenEXError("01"))
	}

	k0, err := hex.DecodeString(keyInitK0Hex)
	if err != nil {
		return nil, err
	}
	k024, err := pcrypto.ExpandTo3DESKey(k0)
	if err != nil {
		return nil, err
	}
	k0Kcv, err := pcrypto.Kcv(k024, 3)
	if err != nil {
		return nil, err
	}
	k0Ciphered, err := pcrypto.TDesEcbEncrypt(tk24, k0)
	if err != nil {
		return nil, &iso8583.CodecError{Kind: iso8583.KindCryptoFailure, Err: err}
	}
	ksn, err := hex.DecodeString(keyInitKsnHex)
	if err != nil {
		return nil, err
	}

	field63Reply := tokenER(false, false, false) + tokenEX(k0Ciphered, ksn, k0Kcv)
	logger.Info("key-init approved")
	return s.keyInitToken(logger, "00", field63Reply)
}

func (s *Service) keyInitToken(logger *slog.Logger, code, field63 string) (*KeyInitResult, error) {
	resp := iso8583.NewIsoMessage(iso8583.WithRegistry(s.registry))
	defer resp.Release()
	if err := resp.SetMTI("0810"); err != nil {
		return nil, err
	}
	if err := resp.SetField(39, code); err != nil {
		return nil, err
	}
	if err := resp.SetField(63, field63); err != nil {
		return nil, err
	}
	out, err := resp.Pack()
	if err != nil {
		return nil, err
	}
	if code != "00" {
		logger.Warn("key-init rejected", "response_code", code)
	}
	return &KeyInitResult{ResponseISO: out, ResponseCode: code}, nil
}

// tokenER builds the `! ER` status frame the key-init reply always
// leads with: a fixed 10-char header plus a key-init-required flag and
// a BIN-update flag.
func tokenER(suggestKeyInit, requireKeyInit, shouldUpdateBIN bool) string {
	flag := "0"
	switch {
	case requireKeyInit:
		flag = "2"
	case suggestKeyInit:
		flag = "1"
	}
	bin := "0"
	if shouldUpdateBIN {
		bin = "1"
	}
	return "! ER00002 " + flag + bin
}

// tokenEX builds the successful key-init `! EX` reply: the new base
// key ciphered under the terminal's transport key, its KSN, its KCV,
// a "00" status, and a CRC over the ciphertext's uppercase hex.
//
// k0Ciphered is 16 bytes (3DES-ECB of a 16-byte key), not the 8 bytes
// an older convention for this frame assumed; see §9 open question 1.
func tokenEX(k0Ciphered, ksn, k0Kcv []byte) string {
	cipherHex := strings.ToUpper(hex.EncodeToString(k0Ciphered))
	ksnHex := strings.ToUpper(hex.EncodeToString(ksn))
	kcvHex := strings.ToUpper(hex.EncodeToString(k0Kcv))
	crc := iso8583.Crc32HexUpper([]byte(cipherHex))
	return "! EX00068 " + cipherHex + ksnHex + kcvHex + "00" + crc
}

// tokenEXError builds the failed key-init `! EX` reply: every field
// that would normally carry key material is zeroed, with code2 in the
// status slot.
func tokenEXError(code2 string) string {
	return "! EX00068 " + zeroHex(16) + zeroHex(10) + zeroHex(3) + code2 + zeroHex(4)
}

func zeroHex(n int) string { return strings.Repeat("0", 2*n) }
