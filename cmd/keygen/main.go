package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// cmd/keygen generates a throwaway RSA keypair for exercising the
// gateway's bearer-JWT path against a mock OAuth provider in local dev:
// the private key signs test tokens (gateway/token_test.go's
// newTestVerifier/signTestToken do the same thing programmatically),
// and the public key PEM is what OAUTH_JWT_PUBLIC_KEY feeds into
// gateway.NewRSAVerifierFromPEM. The gateway itself never signs
// anything (spec §4.9: it is a relying party, not an issuer).
func main() {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		fmt.Printf("Failed to generate key: %v\n", err)
		os.Exit(1)
	}

	privBytes := x509.MarshalPKCS1PrivateKey(privateKey)
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: privBytes,
	})

	pubBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		fmt.Printf("Failed to marshal public key: %v\n", err)
		os.Exit(1)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	fmt.Println("--- mock OAuth provider signing key, for local dev only ---")
	fmt.Printf("MOCK_OAUTH_JWT_PRIVATE_KEY=\"%s\"\n", string(privPEM))
	fmt.Println("--- COPY BELOW TO .env.local ---")
	fmt.Printf("OAUTH_JWT_PUBLIC_KEY=\"%s\"\n", string(pubPEM))
	fmt.Println("--------------------------------")
}
