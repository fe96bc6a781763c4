// fleetadm is the operator utility for the fleet dashboard. Its only
// subcommand today creates or resets a dashboard user.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"go_fleet/internal/auth"
	"go_fleet/internal/config"
	"go_fleet/internal/db"
	"go_fleet/internal/model"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "create-user" {
		fmt.Fprintln(os.Stderr, "usage: fleetadm create-user -username <name> -password <password> [-role admin]")
		os.Exit(2)
	}

	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "login password")
	role := fs.String("role", "admin", "user role")
	fs.Parse(os.Args[2:])

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "username and password are required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(db.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	var user model.User
	err = db.DB.Where("username = ?", *username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to look up user: %v", err)
	}
	if err == nil {
		if err := db.DB.Model(&user).Updates(map[string]interface{}{
			"password_hash": hash,
			"role":          *role,
			"disabled":      false,
		}).Error; err != nil {
			log.Fatalf("Failed to update user: %v", err)
		}
		fmt.Printf("Updated user %s\n", *username)
		return
	}

	user = model.User{
		Username:     *username,
		PasswordHash: hash,
		Role:         *role,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	fmt.Printf("Created user %s\n", *username)
}
