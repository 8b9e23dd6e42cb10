package main

import (
	"bufio"
	"fmt"
	"itr_flow_app_go/config"
	"itr_flow_app_go/db"
	"itr_flow_app_go/models"
	"itr_flow_app_go/services"
	"log"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	database, err := db.Open(cfg.DBPath, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close(database)

	// Run migrations
	if err := db.AutoMigrate(database, &models.User{}, &models.Session{}, &models.Wallet{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")
	fmt.Println()

	fmt.Print("Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Printf("Role (%s/%s/%s/%s): ", models.RoleAgent, models.RoleSubadmin, models.RoleCA, models.RoleSuperadmin)
	role, _ := reader.ReadString('\n')
	role = strings.TrimSpace(role)

	// Get password securely
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	password := string(passwordBytes)
	fmt.Println() // New line after password input

	// Validate inputs
	if name == "" || email == "" || password == "" {
		log.Fatal("Name, email, and password are required")
	}
	if !models.IsValidRole(role) {
		log.Fatalf("Invalid role %q", role)
	}
	if len(password) < 8 {
		log.Fatal("Password must be at least 8 characters long")
	}

	// Check if user already exists
	var existingUser models.User
	if err := database.Where("email = ?", email).First(&existingUser).Error; err == nil {
		log.Fatalf("User with email %s already exists", email)
	}

	// Hash password
	hashedPassword, err := services.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     role,
		IsActive: true,
	}
	if err := database.Create(user).Error; err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	// Agents get a zero-balance wallet on creation
	if user.Role == models.RoleAgent {
		if _, err := services.EnsureWallet(database, user.ID); err != nil {
			log.Fatalf("Failed to create wallet: %v", err)
		}
	}

	fmt.Printf("\nUser created: %s (%s, %s)\n", user.Name, user.Email, user.Role)
}
