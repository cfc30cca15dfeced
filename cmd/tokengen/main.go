// Package main provides a CLI tool for generating issuer bearer tokens for
// the exchange management and review routes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"vpexchange/internal/platform/issuertoken"
)

const (
	// Dev signing key for local runs with ISSUER_JWT_SIGNING_KEY unset in tokengen
	devSigningKey = "dev-issuer-key-change-in-production"

	defaultSubject  = "local-issuer"
	defaultScopes   = "exchange:manage,exchange:review"
	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	issuerCmd := flag.NewFlagSet("issuer", flag.ExitOnError)
	subject := issuerCmd.String("subject", defaultSubject, "Token subject (issuer identifier)")
	scopes := issuerCmd.String("scopes", defaultScopes, "Comma-separated scopes")
	ttl := issuerCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	key := issuerCmd.String("key", "", "Signing key. Falls back to ISSUER_JWT_SIGNING_KEY, then the dev key.")
	jsonOut := issuerCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "issuer":
		_ = issuerCmd.Parse(os.Args[2:])
		generateIssuerToken(*subject, *scopes, *key, *ttl, *jsonOut)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate issuer tokens for the exchange API

Usage:
  tokengen <command> [flags]

Commands:
  issuer    Generate an issuer bearer token (JWT)

Examples:
  # Token with default scopes signed by the dev key
  tokengen issuer

  # Review-only token with a custom TTL
  tokengen issuer -scopes exchange:review -ttl 1h

  # Output as JSON
  tokengen issuer -json`)
}

func generateIssuerToken(subject, scopes, key string, ttl time.Duration, jsonOutput bool) {
	keyType := "flag"
	if key == "" {
		key = os.Getenv("ISSUER_JWT_SIGNING_KEY")
		keyType = "env"
	}
	if key == "" {
		key = devSigningKey
		keyType = "dev"
	}

	scopeList := parseScopes(scopes)
	token, err := issuertoken.New(key).Generate(subject, scopeList, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      "issuer_token",
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"sub":   subject,
				"scope": scopeList,
			},
			Usage: map[string]string{
				"header":      "Authorization: Bearer <token>",
				"signing_key": keyType,
			},
		})
		return
	}

	fmt.Println("Issuer Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Signing Key: %s\n", keyType)
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Printf("Subject:     %s\n", subject)
	fmt.Printf("Scopes:      %v\n", scopeList)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/exchanges")
}

func parseScopes(scopes string) []string {
	if scopes == "" {
		return []string{}
	}
	parts := strings.Split(scopes, ",")
	result := make([]string, 0, len(parts))
	for _, s := range parts {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
