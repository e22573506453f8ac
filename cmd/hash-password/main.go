package main

import (
	"fmt"
	"syscall"

	"github.com/stemsi/ujianku-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// Generates the bcrypt hash for ADMIN_PASSWORD_HASH. Run once, paste the
// output into the environment.
func main() {
	cfg := config.Load()

	fmt.Print("Enter admin password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	fmt.Println()

	password := string(bytePassword)
	if len(password) < 8 {
		fmt.Println("Error: Password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		fmt.Println("Error hashing password:", err)
		return
	}

	fmt.Println("ADMIN_PASSWORD_HASH=" + string(hash))
}
