package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"self-checkout/config"
	"self-checkout/utils"
)

// Prints a bearer token for the operator-only cart service routes.
func main() {
	subject := flag.String("subject", "operator", "token subject, e.g. the lane name")
	role := flag.String("role", utils.RoleOperator, "operator or admin")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.LoadConfig()
	if cfg.JWTSecret == "" {
		log.Fatalf("JWT_SECRET or JWT_SECRET_FILE must be set")
	}

	token, err := utils.IssueToken(cfg.JWTSecret, *subject, *role, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
