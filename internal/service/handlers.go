package service

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/postalsys/saltbox/internal/logging"
	"github.com/postalsys/saltbox/internal/saltpack"
)

func decodeKey(s string) ([saltpack.KeySize]byte, error) {
	var key [saltpack.KeySize]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return key, fmt.Errorf("not valid hex: %w", err)
	}
	if len(raw) != saltpack.KeySize {
		return key, fmt.Errorf("must be %d bytes, got %d", saltpack.KeySize, len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

func (s *Server) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req encryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request body: %w", err))
		return
	}

	senderPrivate, err := decodeKey(req.SenderPrivate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("sender_private: %w", err))
		return
	}
	defer zeroKey(&senderPrivate)

	if len(req.Recipients) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("recipients: must not be empty"))
		return
	}
	recipients := make([][saltpack.KeySize]byte, len(req.Recipients))
	for i, r := range req.Recipients {
		rk, err := decodeKey(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("recipients[%d]: %w", i, err))
			return
		}
		recipients[i] = rk
	}

	message, err := base64.StdEncoding.DecodeString(req.MessageBase64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("message_base64: %w", err))
		return
	}

	chunkSize := req.ChunkSize
	if chunkSize == 0 {
		chunkSize = s.defaultChunkSize
	}

	ciphertext, err := saltpack.Encrypt(senderPrivate, recipients, message, chunkSize, saltpack.Options{
		MajorVersion:      req.MajorVersion,
		VisibleRecipients: req.VisibleRecipients,
	})
	if err != nil {
		s.recordFailure("encrypt", start, err)
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	elapsed := time.Since(start)
	s.metrics.RecordOperation("encrypt", true, elapsed.Seconds(), len(message))
	s.logger.Info("encrypt request handled",
		logging.KeyOperation, "encrypt",
		logging.KeyMajorVersion, req.MajorVersion,
		logging.KeyRecipientCount, len(recipients),
		logging.KeyMessageBytes, len(message),
		logging.KeyRemoteAddr, r.RemoteAddr,
		logging.KeyDuration, elapsed,
	)

	s.writeJSON(w, http.StatusOK, encryptResponse{
		CiphertextBase64: base64.StdEncoding.EncodeToString(ciphertext),
	})
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req decryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request body: %w", err))
		return
	}

	recipientPrivate, err := decodeKey(req.RecipientPrivate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("recipient_private: %w", err))
		return
	}
	defer zeroKey(&recipientPrivate)

	ciphertext, err := base64.StdEncoding.DecodeString(req.CiphertextBase64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("ciphertext_base64: %w", err))
		return
	}

	message, err := saltpack.Decrypt(ciphertext, recipientPrivate)
	if err != nil {
		s.recordFailure("decrypt", start, err)
		status := http.StatusBadRequest
		if errors.Is(err, saltpack.ErrHMACFailure) || errors.Is(err, saltpack.ErrNoMatchingRecipient) {
			status = http.StatusUnauthorized
		}
		s.writeError(w, status, err)
		return
	}

	elapsed := time.Since(start)
	s.metrics.RecordOperation("decrypt", true, elapsed.Seconds(), len(message))
	s.logger.Info("decrypt request handled",
		logging.KeyOperation, "decrypt",
		logging.KeyMessageBytes, len(message),
		logging.KeyRemoteAddr, r.RemoteAddr,
		logging.KeyDuration, elapsed,
	)

	s.writeJSON(w, http.StatusOK, decryptResponse{
		MessageBase64: base64.StdEncoding.EncodeToString(message),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) recordFailure(op string, start time.Time, err error) {
	s.metrics.RecordOperation(op, false, time.Since(start).Seconds(), 0)
	s.metrics.RecordError(errorKind(err))
	s.logger.Warn(op+" request failed",
		logging.KeyOperation, op,
		logging.KeyError, err.Error(),
	)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// errorKind maps an error to one of the saltpack sentinel identities for
// the errors_total{kind} metric, falling back to the error text for
// errors the saltpack core did not originate.
func errorKind(err error) string {
	for _, sentinel := range []error{
		saltpack.ErrBadFormat,
		saltpack.ErrBadVersion,
		saltpack.ErrBadMode,
		saltpack.ErrNoMatchingRecipient,
		saltpack.ErrHMACFailure,
		saltpack.ErrCryptoFailure,
		saltpack.ErrMalformed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "service: " + err.Error()
}

func zeroKey(k *[saltpack.KeySize]byte) {
	for i := range k {
		k[i] = 0
	}
}
