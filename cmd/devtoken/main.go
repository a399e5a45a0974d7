// Command devtoken mints a bearer token for local testing against the API.
//
//	go run ./cmd/devtoken -tenant acme -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"werkstatt-backend/config"
	"werkstatt-backend/middlewares"

	"github.com/google/uuid"
)

func main() {
	tenant := flag.String("tenant", "", "tenant id placed in the tenant_id claim (random if empty)")
	user := flag.String("user", "", "subject (random if empty)")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)

	auth, err := middlewares.NewAuth(cfg.JWTSecret)
	if err != nil {
		log.WithError(err).Fatal("auth not configured")
	}
	if *tenant == "" {
		*tenant = uuid.NewString()
	}
	if *user == "" {
		*user = uuid.NewString()
	}

	token, err := auth.GenerateJWT(*user, *tenant, *ttl)
	if err != nil {
		log.WithError(err).Fatal("could not sign token")
	}
	fmt.Fprintln(os.Stdout, token)
}
