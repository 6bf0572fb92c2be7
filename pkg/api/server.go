// Package api provides the HTTP publication surface of a RatchetWire node:
// the pre-key bundle other parties fetch to initiate sessions, and the
// handshake intake that validates incoming pre-key messages.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ratchetwire/ratchetwire-node/pkg/crypto"
	"github.com/ratchetwire/ratchetwire-node/pkg/storage"
)

// Server is the HTTP API server for key publication and handshake intake
type Server struct {
	store        *storage.KeyStore
	identity     *crypto.IdentityKeyPair
	signedPreKey *storage.SignedPreKey
	router       *gin.Engine
	httpServer   *http.Server
	port         int
	bundleSize   int
	preKeyTarget int
}

// Config holds server configuration
type Config struct {
	Port         int
	EnableCORS   bool
	RateLimit    int // requests per minute per IP
	BundleSize   int // max one-time pre-keys returned per bundle
	PreKeyTarget int // pool size the refill endpoint tops up to
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		EnableCORS:   true,
		RateLimit:    100,
		BundleSize:   20,
		PreKeyTarget: 100,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer creates a new HTTP API server around the node's key store
func NewServer(store *storage.KeyStore, identity *crypto.IdentityKeyPair, signedPreKey *storage.SignedPreKey, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		store:        store,
		identity:     identity,
		signedPreKey: signedPreKey,
		router:       gin.New(),
		port:         config.Port,
		bundleSize:   config.BundleSize,
		preKeyTarget: config.PreKeyTarget,
	}

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      server.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	server.setupMiddleware(config)
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware(config *Config) {
	if config.EnableCORS {
		s.router.Use(CORSMiddleware())
	}

	s.router.Use(RateLimitMiddleware(NewRateLimiter(config.RateLimit)))
	s.router.Use(LoggingMiddleware())
	s.router.Use(gin.Recovery())
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)
		v1.GET("/keys", s.handleKeyBundle)
		v1.POST("/keys/refill", s.handleRefill)
		v1.POST("/session", s.handleSession)
	}
}

// Start runs the HTTP server until Stop is called
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
