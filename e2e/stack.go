package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"vpexchange/internal/exchange/adapters"
	"vpexchange/internal/exchange/callback"
	"vpexchange/internal/exchange/handler"
	exchangemetrics "vpexchange/internal/exchange/metrics"
	"vpexchange/internal/exchange/models"
	"vpexchange/internal/exchange/service"
	"vpexchange/internal/exchange/store"
	"vpexchange/internal/exchange/verifier"
	"vpexchange/internal/platform/health"
	"vpexchange/internal/platform/issuertoken"
	httptransport "vpexchange/internal/transport/http"
)

const issuerSigningKey = "e2e-issuer-signing-key"

// stack is one in-process deployment: the exchange API plus a fake proof
// verifier and a callback listener.
type stack struct {
	api        *httptest.Server
	verifier   *fakeProofVerifier
	listener   *callbackListener
	dispatcher *callback.Dispatcher
	tokens     *issuertoken.Service
}

func newStack() *stack {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := &stack{
		verifier: newFakeProofVerifier(),
		listener: newCallbackListener(),
		tokens:   issuertoken.New(issuerSigningKey),
	}

	proofs := adapters.NewHTTPProofVerifier(s.verifier.server.URL, 2*time.Second,
		adapters.WithRetries(0),
		adapters.WithProofVerifierLogger(logger),
	)
	submissions := verifier.New(proofs, adapters.NewDefinitionEvaluator(), verifier.WithLogger(logger))

	m := exchangemetrics.New(prometheus.NewRegistry())
	s.dispatcher = callback.New(
		callback.WithTimeout(2*time.Second),
		callback.WithMetrics(m),
		callback.WithLogger(logger),
	)

	// the service needs its own base url before the server starts
	s.api = httptest.NewUnstartedServer(nil)
	baseURL := "http://" + s.api.Listener.Addr().String()

	svc := service.New(store.NewMemory(), submissions, s.dispatcher, baseURL,
		service.WithLogger(logger),
		service.WithMetrics(m),
	)
	s.api.Config.Handler = httptransport.NewRouter(httptransport.RouterConfig{Logger: logger},
		health.New("e2e"),
		handler.New(svc, s.tokens, logger),
	)
	s.api.Start()
	return s
}

func (s *stack) close() {
	s.api.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.dispatcher.Close(ctx)
	s.listener.server.Close()
	s.verifier.server.Close()
}

// fakeProofVerifier answers /presentations/verify. It accepts any proof whose
// challenge matches the requested one unless rejecting is set.
type fakeProofVerifier struct {
	server    *httptest.Server
	rejecting atomic.Bool
}

func newFakeProofVerifier() *fakeProofVerifier {
	f := &fakeProofVerifier{}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *fakeProofVerifier) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/presentations/verify" {
		http.NotFound(w, r)
		return
	}
	var req struct {
		VerifiablePresentation models.Presentation `json:"verifiablePresentation"`
		Options                models.ProofOptions `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	result := models.NewVerificationResult()
	result.Checks = []string{"proof"}
	status := http.StatusOK
	switch {
	case f.rejecting.Load():
		result.Errors = []string{"signature does not verify"}
		status = http.StatusBadRequest
	case req.VerifiablePresentation.Challenge() != req.Options.Challenge:
		result.Errors = []string{"proof challenge does not match"}
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}

// callbackListener records every event POSTed to it.
type callbackListener struct {
	server *httptest.Server

	mu     sync.Mutex
	events []models.TransactionEvent
}

func newCallbackListener() *callbackListener {
	l := &callbackListener{}
	l.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event models.TransactionEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		l.mu.Lock()
		l.events = append(l.events, event)
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	return l
}

func (l *callbackListener) URL() string {
	return l.server.URL + "/events"
}

// eventsFor returns a copy of the events received for transactionID.
func (l *callbackListener) eventsFor(transactionID string) []models.TransactionEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.TransactionEvent
	for _, e := range l.events {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	return out
}

// waitForEvents polls until want events arrived for transactionID or timeout passes.
func (l *callbackListener) waitForEvents(transactionID string, want int, timeout time.Duration) ([]models.TransactionEvent, error) {
	deadline := time.Now().Add(timeout)
	for {
		events := l.eventsFor(transactionID)
		if len(events) >= want {
			return events, nil
		}
		if time.Now().After(deadline) {
			return events, fmt.Errorf("expected %d callback events for %s, got %d", want, transactionID, len(events))
		}
		time.Sleep(10 * time.Millisecond)
	}
}
