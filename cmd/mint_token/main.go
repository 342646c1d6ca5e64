package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"mythic_prison/internal/logger"
	"mythic_prison/internal/service"
)

// mint_token prints a signed bearer token for a game server or an operator.
func main() {
	_ = godotenv.Load()
	logger.Init("info", false)

	subject := flag.String("sub", "lobby-1", "token subject (server or operator name)")
	role := flag.String("role", service.RoleServer, "role claim: server or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	switch *role {
	case service.RoleServer, service.RoleAdmin:
	default:
		logger.Fatal("unknown role", "role", *role)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}
	service.InitJWT(secret)

	token, err := service.GenerateJWT(*subject, *role, *ttl)
	if err != nil {
		logger.Fatal("generate token", "error", err)
	}
	fmt.Println(token)
}
