// Command admintoken prints a signed admin token for the list-orders and update-status routes.
package main

import (
	"flag"
	"fmt"
	"log"
	"orderservice/internal/auth"
	"os"
	"time"
)

func main() {
	subject := flag.String("subject", "admin", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	flag.Parse()

	secret := os.Getenv("ADMIN_SECRET")
	if secret == "" {
		log.Fatal("ADMIN_SECRET must be set")
	}

	token, err := auth.GetAdminToken(*subject, secret, *ttl)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}
