// genhash prints the bcrypt hash of a password or manager PIN, for seeding
// rows by hand.
// Uso: go run ./cmd/genhash <segredo> [custo]
package main

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: genhash <segredo> [custo]")
		os.Exit(2)
	}
	cost := 12
	if len(os.Args) > 2 {
		c, err := strconv.Atoi(os.Args[2])
		if err != nil || c < bcrypt.MinCost || c > bcrypt.MaxCost {
			fmt.Fprintf(os.Stderr, "custo inválido: %s\n", os.Args[2])
			os.Exit(2)
		}
		cost = c
	}
	h, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(h))
}
