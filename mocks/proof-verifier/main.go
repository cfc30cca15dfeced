package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort      = "8082"
	defaultLatencyMs = "50"
)

type Proof struct {
	Challenge          string `json:"challenge"`
	ProofPurpose       string `json:"proofPurpose"`
	VerificationMethod string `json:"verificationMethod"`
}

type Presentation struct {
	Holder string `json:"holder"`
	Proof  *Proof `json:"proof"`
}

type VerifyRequest struct {
	VerifiablePresentation *Presentation `json:"verifiablePresentation"`
	Options                struct {
		Challenge    string `json:"challenge"`
		ProofPurpose string `json:"proofPurpose"`
	} `json:"options"`
}

type VerifyResponse struct {
	Checks   []string `json:"checks"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}

var latencyMs = getEnvInt("LATENCY_MS", defaultLatencyMs)

// Holder DIDs that let local runs and e2e tests steer the mock.
const (
	holderInvalidSignature = "did:example:invalid-signature"
	holderUnavailable      = "did:example:verifier-down"
)

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/presentations/verify", handleVerify)

	log.Printf("Mock proof verifier starting on port %s", port)
	log.Printf("Simulated latency: %dms", latencyMs)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "proof-verifier",
	})
}

func handleVerify(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VerifiablePresentation == nil {
		writeJSON(w, http.StatusBadRequest, failure("malformed verification request"))
		return
	}
	vp := req.VerifiablePresentation

	switch {
	case vp.Holder == holderUnavailable:
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	case vp.Proof == nil:
		writeJSON(w, http.StatusBadRequest, failure("presentation has no proof"))
		return
	case vp.Holder == holderInvalidSignature:
		writeJSON(w, http.StatusBadRequest, failure("signature does not verify"))
		return
	case vp.Proof.Challenge != req.Options.Challenge:
		writeJSON(w, http.StatusBadRequest, failure("proof challenge does not match"))
		return
	case req.Options.ProofPurpose != "" && vp.Proof.ProofPurpose != req.Options.ProofPurpose:
		writeJSON(w, http.StatusBadRequest, failure("unexpected proof purpose"))
		return
	case vp.Holder != "" && !strings.HasPrefix(vp.Proof.VerificationMethod, vp.Holder):
		writeJSON(w, http.StatusBadRequest, failure("verification method is not controlled by the holder"))
		return
	}

	log.Printf("verified presentation from %q", vp.Holder)
	writeJSON(w, http.StatusOK, VerifyResponse{
		Checks:   []string{"proof"},
		Warnings: []string{},
		Errors:   []string{},
	})
}

func failure(reason string) VerifyResponse {
	return VerifyResponse{
		Checks:   []string{"proof"},
		Warnings: []string{},
		Errors:   []string{reason},
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key, defaultValue string) int {
	value := getEnv(key, defaultValue)
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid integer value for %s, using default: %s", key, defaultValue)
		intValue, _ = strconv.Atoi(defaultValue)
	}
	return intValue
}
