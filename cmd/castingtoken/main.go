// cmd/castingtoken/main.go
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

	"castingagency/internal/auth/tokensource"
	"castingagency/internal/config"
)

// castingtoken prints an access token obtained with the client credentials
// grant, for use as "Authorization: Bearer <token>"
func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: cfg.JWKSFetchTimeout}
	token, err := tokensource.AccessToken(ctx, *cfg, client)
	if err != nil {
		log.Fatalf("Failed to obtain token: %v", err)
	}
	fmt.Println(token)
}
