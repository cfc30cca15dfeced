package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vpexchange/internal/exchange/handler/mocks"
	"vpexchange/internal/exchange/models"
	"vpexchange/internal/platform/issuertoken"
	"vpexchange/internal/platform/middleware"
	dErrors "vpexchange/pkg/domain-errors"
	"vpexchange/pkg/platform/httputil"
	"vpexchange/pkg/testutil"
)

const signingKey = "handler-test-signing-key"

type ExchangeHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	tokens  *issuertoken.Service
	router  chi.Router
}

func TestExchangeHandlerSuite(t *testing.T) {
	suite.Run(t, new(ExchangeHandlerSuite))
}

func (s *ExchangeHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.tokens = issuertoken.New(signingKey)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	s.router.Use(middleware.RequestID)
	New(s.service, s.tokens, logger).Register(s.router)
}

func (s *ExchangeHandlerSuite) token(scopes ...string) string {
	tok, err := s.tokens.Generate("issuer-1", scopes, time.Minute)
	s.Require().NoError(err)
	return tok
}

func (s *ExchangeHandlerSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ExchangeHandlerSuite) assertError(w *httptest.ResponseRecorder, status int, code string) httputil.ErrorResponse {
	s.Equal(status, w.Code)
	var resp httputil.ErrorResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	s.Equal(code, resp.Error)
	return resp
}

func validCreateBody() map[string]any {
	return map[string]any{
		"exchangeId":       "ex-1",
		"interactServices": []map[string]any{{"type": "MediatedHttpPresentationService2021"}},
		"query":            []map[string]any{{"type": "DIDAuth"}},
		"callback":         []map[string]any{{"url": "https://listener.example/cb"}},
	}
}

func (s *ExchangeHandlerSuite) TestCreateExchange() {
	s.Run("created", func() {
		s.service.EXPECT().CreateExchange(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req *models.CreateExchangeRequest) (*models.ExchangeDefinition, error) {
				s.Equal("ex-1", req.ExchangeID)
				s.Equal(models.InteractMediated, req.InteractServices[0].Type)
				return testutil.NewExchangeBuilder("ex-1").Mediated().Build(), nil
			})

		w := s.do(http.MethodPost, "/exchanges", validCreateBody(), s.token(ScopeManage))
		s.Equal(http.StatusCreated, w.Code)
		var def models.ExchangeDefinition
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&def))
		s.Equal("ex-1", def.ExchangeID)
	})

	s.Run("duplicate returns 409", func() {
		s.service.EXPECT().CreateExchange(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "exchange already exists"))

		w := s.do(http.MethodPost, "/exchanges", validCreateBody(), s.token(ScopeManage))
		resp := s.assertError(w, http.StatusConflict, "conflict")
		s.Equal([]string{"exchange already exists"}, resp.Errors)
	})

	s.Run("presentation definition query without credentialQuery returns 400", func() {
		body := validCreateBody()
		body["query"] = []map[string]any{{"type": "PresentationDefinition"}}
		w := s.do(http.MethodPost, "/exchanges", body, s.token(ScopeManage))
		resp := s.assertError(w, http.StatusBadRequest, "validation_error")
		s.Equal([]string{"query[0].credentialQuery is required for PresentationDefinition"}, resp.Errors)
	})

	s.Run("two interact services returns 400", func() {
		body := validCreateBody()
		body["interactServices"] = []map[string]any{
			{"type": "MediatedHttpPresentationService2021"},
			{"type": "UnmediatedHttpPresentationService2021"},
		}
		w := s.do(http.MethodPost, "/exchanges", body, s.token(ScopeManage))
		s.assertError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("malformed json returns 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/exchanges", bytes.NewBufferString("{"))
		req.Header.Set("Authorization", "Bearer "+s.token(ScopeManage))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.assertError(w, http.StatusBadRequest, "bad_request")
	})

	s.Run("missing token returns 401", func() {
		w := s.do(http.MethodPost, "/exchanges", validCreateBody(), "")
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("review scope cannot manage exchanges", func() {
		w := s.do(http.MethodPost, "/exchanges", validCreateBody(), s.token(ScopeReview))
		s.Equal(http.StatusForbidden, w.Code)
	})
}

func (s *ExchangeHandlerSuite) TestGetExchange() {
	s.service.EXPECT().GetExchange(gomock.Any(), "ex-missing").
		Return(nil, dErrors.New(dErrors.CodeNotFound, "exchange not found"))

	w := s.do(http.MethodGet, "/exchanges/ex-missing", nil, s.token(ScopeManage))
	s.assertError(w, http.StatusNotFound, "not_found")
}

func (s *ExchangeHandlerSuite) TestStartExchange() {
	s.Run("created with vp request", func() {
		s.service.EXPECT().StartExchange(gomock.Any(), "ex-1").Return(&models.ExchangeResponse{
			Errors: []string{},
			VPRequest: &models.VPRequest{
				Challenge: "challenge-1",
				Query:     []models.Query{{Type: models.QueryDIDAuth}},
				Interact: models.Interact{Service: []models.InteractService{{
					Type:            models.InteractUnmediated,
					ServiceEndpoint: testutil.TestBaseURL + "/exchanges/ex-1/tx-1",
				}}},
			},
		}, nil)

		w := s.do(http.MethodPost, "/exchanges/ex-1", nil, "")
		s.Equal(http.StatusCreated, w.Code)

		var body map[string]any
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
		s.Equal([]any{}, body["errors"])
		vpRequest := body["vpRequest"].(map[string]any)
		s.Equal("challenge-1", vpRequest["challenge"])
		s.NotContains(body, "processingInProgress")
	})

	s.Run("unknown exchange returns errors body", func() {
		s.service.EXPECT().StartExchange(gomock.Any(), "ex-missing").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "exchange not found"))

		w := s.do(http.MethodPost, "/exchanges/ex-missing", nil, "")
		resp := s.assertError(w, http.StatusNotFound, "not_found")
		s.Equal([]string{"exchange not found"}, resp.Errors)
	})
}

func (s *ExchangeHandlerSuite) TestContinueExchange() {
	vp := testutil.NewTestPresentation("did:example:alice", "challenge-1")

	s.Run("ok", func() {
		s.service.EXPECT().ContinueExchange(gomock.Any(), "ex-1", "tx-1", gomock.Any()).
			DoAndReturn(func(_ any, _, _ string, got *models.Presentation) (*models.ExchangeResponse, error) {
				s.Equal("did:example:alice", got.Holder)
				s.Equal("challenge-1", got.Challenge())
				done := false
				return &models.ExchangeResponse{Errors: []string{}, ProcessingInProgress: &done}, nil
			})

		w := s.do(http.MethodPut, "/exchanges/ex-1/tx-1", vp, "")
		s.Equal(http.StatusOK, w.Code)
		var body map[string]any
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&body))
		s.Equal(false, body["processingInProgress"])
	})

	s.Run("verification errors still return 200", func() {
		s.service.EXPECT().ContinueExchange(gomock.Any(), "ex-1", "tx-1", gomock.Any()).
			Return(&models.ExchangeResponse{Errors: []string{"Challenge does not match"}}, nil)

		w := s.do(http.MethodPut, "/exchanges/ex-1/tx-1", vp, "")
		s.Equal(http.StatusOK, w.Code)
		var resp models.ExchangeResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
		s.Equal([]string{"Challenge does not match"}, resp.Errors)
	})

	s.Run("holder mismatch returns 403", func() {
		s.service.EXPECT().ContinueExchange(gomock.Any(), "ex-1", "tx-1", gomock.Any()).
			Return(nil, models.ErrTransactionDIDForbidden)

		w := s.do(http.MethodPut, "/exchanges/ex-1/tx-1", vp, "")
		s.assertError(w, http.StatusForbidden, "forbidden")
	})

	s.Run("presentation without proof is verified and reported", func() {
		noProof := *vp
		noProof.Proof = nil
		s.service.EXPECT().ContinueExchange(gomock.Any(), "ex-1", "tx-1", gomock.Any()).
			DoAndReturn(func(_ any, _, _ string, got *models.Presentation) (*models.ExchangeResponse, error) {
				s.Nil(got.Proof)
				return &models.ExchangeResponse{Errors: []string{"Challenge does not match"}}, nil
			})

		w := s.do(http.MethodPut, "/exchanges/ex-1/tx-1", noProof, "")
		s.Equal(http.StatusOK, w.Code)
		var resp models.ExchangeResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
		s.Equal([]string{"Challenge does not match"}, resp.Errors)
	})

	s.Run("internal failure returns 500", func() {
		s.service.EXPECT().ContinueExchange(gomock.Any(), "ex-1", "tx-1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInternal, "failed to process presentation"))

		w := s.do(http.MethodPut, "/exchanges/ex-1/tx-1", vp, "")
		s.assertError(w, http.StatusInternalServerError, "internal_error")
	})
}

func (s *ExchangeHandlerSuite) TestGetTransaction() {
	s.Run("requires review scope", func() {
		w := s.do(http.MethodGet, "/exchanges/ex-1/tx-1", nil, s.token(ScopeManage))
		s.Equal(http.StatusForbidden, w.Code)
	})

	s.Run("returns transaction", func() {
		s.service.EXPECT().GetTransaction(gomock.Any(), "ex-1", "tx-1").Return(&models.Transaction{
			TransactionID:      "tx-1",
			ExchangeID:         "ex-1",
			PresentationReview: &models.Review{ReviewStatus: models.ReviewPendingReview},
		}, nil)

		w := s.do(http.MethodGet, "/exchanges/ex-1/tx-1", nil, s.token(ScopeReview))
		s.Equal(http.StatusOK, w.Code)
		var tx models.Transaction
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&tx))
		s.Equal(models.ReviewPendingReview, tx.PresentationReview.ReviewStatus)
	})
}

func (s *ExchangeHandlerSuite) TestAddReview() {
	s.Run("approved with vp", func() {
		s.service.EXPECT().AddReview(gomock.Any(), "ex-1", "tx-1", gomock.Any()).
			DoAndReturn(func(_ any, _, _ string, req *models.ReviewRequest) (*models.Transaction, error) {
				s.Equal(models.ReviewResultApproved, req.Result)
				s.Require().NotNil(req.VP)
				return &models.Transaction{
					TransactionID:      "tx-1",
					ExchangeID:         "ex-1",
					PresentationReview: &models.Review{ReviewStatus: models.ReviewApproved, VP: req.VP},
				}, nil
			})

		body := map[string]any{"result": "approved", "vp": testutil.NewTestPresentation("did:example:issuer", "")}
		w := s.do(http.MethodPost, "/exchanges/ex-1/tx-1/review", body, s.token(ScopeReview))
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("invalid result returns 400", func() {
		w := s.do(http.MethodPost, "/exchanges/ex-1/tx-1/review", map[string]any{"result": "maybe"}, s.token(ScopeReview))
		s.assertError(w, http.StatusBadRequest, "validation_error")
	})

	s.Run("decided review returns 409", func() {
		s.service.EXPECT().AddReview(gomock.Any(), "ex-1", "tx-1", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "presentation review already decided"))

		w := s.do(http.MethodPost, "/exchanges/ex-1/tx-1/review", map[string]any{"result": "rejected"}, s.token(ScopeReview))
		s.assertError(w, http.StatusConflict, "conflict")
	})
}

func TestRegister_WithoutValidatorLeavesIssuerRoutesOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := mocks.NewMockService(ctrl)
	service.EXPECT().GetExchange(gomock.Any(), "ex-1").Return(testutil.NewExchangeBuilder("ex-1").Build(), nil)

	router := chi.NewRouter()
	New(service, nil, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/exchanges/ex-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
