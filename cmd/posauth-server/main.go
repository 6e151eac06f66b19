// Command posauth-server runs the acquirer-side HTTP endpoint: key-init
// and sale flows carry ISO 8583 messages in the request/response body,
// hex- or base64-encoded per the {iso} path segment; the token endpoint
// issues a standalone signed provisioning token. Grounded on the
// retrieval pack's chi-router + graceful-shutdown command layout.
package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/ankuron/posauth/internal/acquirer"
	"github.com/ankuron/posauth/internal/applog"
	"github.com/ankuron/posauth/internal/config"
	"github.com/ankuron/posauth/internal/pcrypto"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if err := applog.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		panic(err)
	}
	if portEnv := os.Getenv("PORT"); portEnv != "" {
		if p, err := strconv.Atoi(portEnv); err == nil {
			cfg.Server.Port = p
		}
	}

	logger := slog.Default()

	transportKeyBytes, err := os.ReadFile(cfg.Keys.TransportKeyPath)
	if err != nil {
		logger.Error("failed to read transport key", "error", err)
		os.Exit(1)
	}
	transportKey, err := pcrypto.ParseRsaPrivateKey(transportKeyBytes)
	if err != nil {
		logger.Error("failed to parse transport key", "error", err)
		os.Exit(1)
	}

	signingKeyBytes, err := os.ReadFile(cfg.Keys.SigningKeyPath)
	if err != nil {
		logger.Error("failed to read signing key", "error", err)
		os.Exit(1)
	}
	signingKey, err := pcrypto.ParseRsaPrivateKey(signingKeyBytes)
	if err != nil {
		logger.Error("failed to parse signing key", "error", err)
		os.Exit(1)
	}

	svc, err := acquirer.NewService(cfg.Keys.BaseDerivationKeyHex, cfg.Keys.InitialKsnHex, transportKey, signingKey)
	if err != nil {
		logger.Error("failed to construct acquirer service", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Post("/keyinit/{iso}", keyInitHandler(svc, logger))
	r.Post("/sale/{iso}", saleHandler(svc, logger))
	r.Get("/token/{serial}", tokenHandler(svc, logger))
	r.Handle("/*", http.FileServer(http.Dir(cfg.Server.PublicDir)))

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: r,
	}

	go func() {
		logger.Info("posauth-server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// decodeBody reads the request body per the {iso} path segment's
// encoding: "hex" or "base64".
func decodeBody(r *http.Request) ([]byte, error) {
	encoding := chi.URLParam(r, "iso")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	switch encoding {
	case "hex":
		return hex.DecodeString(string(body))
	case "base64":
		return base64.StdEncoding.DecodeString(string(body))
	default:
		return body, nil
	}
}

func encodeBody(w http.ResponseWriter, r *http.Request, data []byte) {
	encoding := chi.URLParam(r, "iso")
	switch encoding {
	case "hex":
		w.Write([]byte(hex.EncodeToString(data)))
	case "base64":
		w.Write([]byte(base64.StdEncoding.EncodeToString(data)))
	default:
		w.Write(data)
	}
}

func keyInitHandler(svc *acquirer.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		body, err := decodeBody(r)
		if err != nil {
			http.Error(w, "bad request encoding", http.StatusBadRequest)
			return
		}
		result, err := svc.KeyInit(logger, requestID, body)
		if err != nil {
			logger.Error("key-init handler error", "request_id", requestID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		encodeBody(w, r, result.ResponseISO)
	}
}

func saleHandler(svc *acquirer.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		body, err := decodeBody(r)
		if err != nil {
			http.Error(w, "bad request encoding", http.StatusBadRequest)
			return
		}
		result, err := svc.Sale(logger, requestID, body)
		if err != nil {
			logger.Error("sale handler error", "request_id", requestID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		encodeBody(w, r, result.ResponseISO)
	}
}

func tokenHandler(svc *acquirer.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		serial := chi.URLParam(r, "serial")
		result, err := svc.IssueToken(logger, requestID, serial)
		if err != nil {
			logger.Error("token handler error", "request_id", requestID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, map[string]string{
			"frame":     result.Frame,
			"signature": result.Signature,
			"ex_frame":  result.ExFrame,
		})
	}
}

func writeJSON(w http.ResponseWriter, v map[string]string) {
	buf := []byte(`{`)
	first := true
	for _, key := range []string{"frame", "signature", "ex_frame"} {
		if !first {
			buf = append(buf, ',')
		}
		first = false
		buf = append(buf, '"')
		buf = append(buf, key...)
		buf = append(buf, `":"`...)
		buf = append(buf, v[key]...)
		buf = append(buf, '"')
	}
	buf = append(buf, '}')
	w.Write(buf)
}
