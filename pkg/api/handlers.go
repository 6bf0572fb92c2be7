package api

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ratchetwire/ratchetwire-node/pkg/crypto"
	"github.com/ratchetwire/ratchetwire-node/pkg/protocol"
	"github.com/ratchetwire/ratchetwire-node/pkg/storage"
)

// ErrorResponse is the JSON body of a failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatusResponse reports node status
type StatusResponse struct {
	Success             bool   `json:"success"`
	IdentityFingerprint string `json:"identityFingerprint"`
	SignedPreKeyID      uint32 `json:"signedPreKeyId"`
	PreKeyCount         int    `json:"preKeyCount"`
}

// SignedPreKeyInfo is the published form of the signed pre-key
type SignedPreKeyInfo struct {
	ID        uint32 `json:"id"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}

// PreKeyInfo is the published form of a one-time pre-key
type PreKeyInfo struct {
	ID        uint32 `json:"id"`
	PublicKey string `json:"publicKey"`
}

// KeyBundleResponse is the bundle other parties fetch to initiate a session
type KeyBundleResponse struct {
	Success        bool             `json:"success"`
	IdentityKey    string           `json:"identityKey"`
	SignedPreKey   SignedPreKeyInfo `json:"signedPreKey"`
	OneTimePreKeys []PreKeyInfo     `json:"oneTimePreKeys"`
}

// RefillResponse reports the pool size after a refill
type RefillResponse struct {
	Success     bool `json:"success"`
	Generated   int  `json:"generated"`
	PreKeyCount int  `json:"preKeyCount"`
}

// SessionRequest carries a base64-encoded handshake message
type SessionRequest struct {
	Message string `json:"message" binding:"required"`
}

// SessionResponse echoes the validated handshake header fields
type SessionResponse struct {
	Success        bool    `json:"success"`
	Version        uint8   `json:"version"`
	PreKeyID       *uint32 `json:"preKeyId,omitempty"`
	SignedPreKeyID uint32  `json:"signedPreKeyId"`
	BaseKey        string  `json:"baseKey"`
	IdentityKey    string  `json:"identityKey"`
}

// handleStatus handles GET /api/v1/status
func (s *Server) handleStatus(c *gin.Context) {
	count, err := s.store.CountPreKeys()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Store unavailable",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Success:             true,
		IdentityFingerprint: crypto.Fingerprint(s.identity.PublicKey),
		SignedPreKeyID:      s.signedPreKey.ID,
		PreKeyCount:         count,
	})
}

// handleKeyBundle handles GET /api/v1/keys
func (s *Server) handleKeyBundle(c *gin.Context) {
	preKeys, err := s.store.BundlePreKeys(s.bundleSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to load pre-keys",
			Message: err.Error(),
		})
		return
	}

	bundle := KeyBundleResponse{
		Success:     true,
		IdentityKey: base64.StdEncoding.EncodeToString(s.identity.PublicKey.Encode()),
		SignedPreKey: SignedPreKeyInfo{
			ID:        s.signedPreKey.ID,
			PublicKey: base64.StdEncoding.EncodeToString(s.signedPreKey.KeyPair.PublicKey.Encode()),
			Signature: base64.StdEncoding.EncodeToString(s.signedPreKey.Signature[:]),
		},
		OneTimePreKeys: make([]PreKeyInfo, 0, len(preKeys)),
	}
	for _, pk := range preKeys {
		bundle.OneTimePreKeys = append(bundle.OneTimePreKeys, PreKeyInfo{
			ID:        pk.ID,
			PublicKey: base64.StdEncoding.EncodeToString(pk.PublicKey.Encode()),
		})
	}

	c.JSON(http.StatusOK, bundle)
}

// handleRefill handles POST /api/v1/keys/refill
func (s *Server) handleRefill(c *gin.Context) {
	count, err := s.store.CountPreKeys()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Store unavailable",
			Message: err.Error(),
		})
		return
	}

	generated := 0
	if count < s.preKeyTarget {
		records, err := s.store.GeneratePreKeys(s.preKeyTarget - count)
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "Failed to generate pre-keys",
				Message: err.Error(),
			})
			return
		}
		generated = len(records)
	}

	c.JSON(http.StatusOK, RefillResponse{
		Success:     true,
		Generated:   generated,
		PreKeyCount: count + generated,
	})
}

// handleSession handles POST /api/v1/session
func (s *Server) handleSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Message: "message field is required",
		})
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.Message)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid message encoding",
			Message: "message must be base64",
		})
		return
	}

	msg, err := protocol.ParsePreKeySignalMessage(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Handshake rejected",
			Message: err.Error(),
		})
		return
	}

	// A referenced one-time pre-key is consumed exactly once
	if msg.PreKeyID != nil {
		if err := s.store.RemovePreKey(*msg.PreKeyID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusConflict, ErrorResponse{
					Error:   "Handshake rejected",
					Message: "one-time pre-key already consumed",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "Store unavailable",
				Message: err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, SessionResponse{
		Success:        true,
		Version:        msg.Version,
		PreKeyID:       msg.PreKeyID,
		SignedPreKeyID: msg.SignedPreKeyID,
		BaseKey:        base64.StdEncoding.EncodeToString(msg.BaseKey.Encode()),
		IdentityKey:    base64.StdEncoding.EncodeToString(msg.IdentityKey.Encode()),
	})
}
