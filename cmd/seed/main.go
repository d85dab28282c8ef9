package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-auth-boilerplate/config"
	"github.com/oksasatya/go-auth-boilerplate/internal/domain/entity"
	"github.com/oksasatya/go-auth-boilerplate/internal/domain/repository"
	mongoinfra "github.com/oksasatya/go-auth-boilerplate/internal/infrastructure/mongo"
	"github.com/oksasatya/go-auth-boilerplate/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	client, err := mongoinfra.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(cfg.MongoDBName)
	if err := mongoinfra.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("failed to ensure indexes: %v", err)
	}

	email := "demo@example.com"
	password := "Password123"
	name := "Demo User"

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	repo := mongoinfra.NewUserRepository(db)
	u := &entity.User{Name: name, Email: email, PasswordHash: hash}
	if err := repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			existing, gErr := repo.GetByEmail(ctx, email)
			if gErr != nil {
				log.Fatalf("failed to load existing user: %v", gErr)
			}
			fmt.Printf("user already seeded: id=%s email=%s\n", existing.ID, existing.Email)
			return
		}
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s name=%q password=%s\n", u.ID, u.Email, u.Name, password)
}
