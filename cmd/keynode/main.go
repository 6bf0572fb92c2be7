package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ratchetwire/ratchetwire-node/pkg/api"
	"github.com/ratchetwire/ratchetwire-node/pkg/crypto"
	"github.com/ratchetwire/ratchetwire-node/pkg/storage"
)

const (
	defaultPort         = 8080
	defaultDBPath       = "./keynode.db"
	defaultPreKeyTarget = 100
	shutdownTimeout     = 10 * time.Second
)

var (
	port           = flag.Int("port", defaultPort, "Port to listen on")
	dbPath         = flag.String("db", defaultDBPath, "Path to key database")
	preKeyTarget   = flag.Int("prekeys", defaultPreKeyTarget, "One-time pre-key pool size")
	signedPreKeyID = flag.Uint("signedprekey-id", 1, "Signed pre-key identifier")
)

func main() {
	flag.Parse()

	printBanner()

	store, err := storage.NewKeyStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open key store: %v", err)
	}
	defer store.Close()

	identity, err := store.EnsureIdentity()
	if err != nil {
		log.Fatalf("Failed to load identity: %v", err)
	}
	log.Printf("✓ Identity loaded: %s", crypto.Fingerprint(identity.PublicKey))

	signedPreKey, err := store.EnsureSignedPreKey(uint32(*signedPreKeyID), identity)
	if err != nil {
		log.Fatalf("Failed to load signed pre-key: %v", err)
	}
	log.Printf("✓ Signed pre-key ready: #%d", signedPreKey.ID)

	count, err := store.CountPreKeys()
	if err != nil {
		log.Fatalf("Failed to count pre-keys: %v", err)
	}
	if count < *preKeyTarget {
		records, err := store.GeneratePreKeys(*preKeyTarget - count)
		if err != nil {
			log.Fatalf("Failed to generate pre-keys: %v", err)
		}
		count += len(records)
		log.Printf("✓ Generated %d one-time pre-keys", len(records))
	}
	log.Printf("✓ One-time pre-key pool: %d keys", count)

	config := api.DefaultConfig()
	config.Port = *port
	config.PreKeyTarget = *preKeyTarget

	server := api.NewServer(store, identity, signedPreKey, config)

	go func() {
		log.Printf("✓ Key node listening on port %d", *port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func printBanner() {
	fmt.Println(`
  ╦═╗┌─┐┌┬┐┌─┐┬ ┬┌─┐┌┬┐╦ ╦┬┬─┐┌─┐
  ╠╦╝├─┤ │ │  ├─┤├┤  │ ║║║│├┬┘├┤
  ╩╚═┴ ┴ ┴ └─┘┴ ┴└─┘ ┴ ╚╩╝┴┴└─└─┘
  Pre-Key Node`)
	fmt.Println()
}
