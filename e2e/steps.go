package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"vpexchange/internal/exchange/models"
)

const callbackWait = 2 * time.Second

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Background
	ctx.Step(`^the exchange service is running$`, tc.serviceIsRunning)
	ctx.Step(`^I am an issuer with scopes "([^"]*)"$`, tc.issuerWithScopes)
	ctx.Step(`^I am an anonymous caller$`, tc.anonymousCaller)
	ctx.Step(`^the proof verifier rejects every signature$`, tc.proofVerifierRejects)

	// Exchange definitions
	ctx.Step(`^I create an? (unmediated|mediated) exchange "([^"]*)" requesting DID authentication$`, tc.createDIDAuthExchange)
	ctx.Step(`^I create an? (unmediated|mediated) one-time exchange "([^"]*)" requesting DID authentication$`, tc.createOneTimeExchange)
	ctx.Step(`^I create an unmediated exchange "([^"]*)" requesting a credential with "([^"]*)"$`, tc.createDefinitionExchange)
	ctx.Step(`^I fetch exchange "([^"]*)"$`, tc.fetchExchange)

	// Holder
	ctx.Step(`^the holder starts exchange "([^"]*)"$`, tc.holderStartsExchange)
	ctx.Step(`^the holder "([^"]*)" submits a presentation with the issued challenge$`, tc.submitWithIssuedChallenge)
	ctx.Step(`^the holder "([^"]*)" submits a presentation with challenge "([^"]*)"$`, tc.submitWithChallenge)
	ctx.Step(`^the holder "([^"]*)" submits a presentation without a proof$`, tc.submitWithoutProof)
	ctx.Step(`^the holder "([^"]*)" presents a credential with "([^"]*)" set to "([^"]*)"$`, tc.submitCredential)
	ctx.Step(`^the holder "([^"]*)" presents no credentials$`, tc.submitNoCredentials)

	// Reviewer
	ctx.Step(`^the reviewer (approves|rejects) the transaction$`, tc.reviewTransaction)
	ctx.Step(`^I fetch the transaction$`, tc.fetchTransaction)

	// Assertions
	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response error should be "([^"]*)"$`, tc.responseErrorShouldBe)
	ctx.Step(`^the response should have no errors$`, tc.responseHasNoErrors)
	ctx.Step(`^the response errors should include "([^"]*)"$`, tc.responseErrorsInclude)
	ctx.Step(`^the response should report verification errors$`, tc.responseHasErrors)
	ctx.Step(`^the response should contain a presentation request with a challenge$`, tc.responseHasVPRequest)
	ctx.Step(`^the interact service should be "([^"]*)"$`, tc.interactServiceShouldBe)
	ctx.Step(`^the response should ask the holder to poll again$`, tc.responseAsksToPoll)
	ctx.Step(`^the response should report processing complete$`, tc.responseProcessingComplete)
	ctx.Step(`^the response should return the reviewed presentation$`, tc.responseReturnsReviewedVP)
	ctx.Step(`^the response should not return a presentation$`, tc.responseReturnsNoVP)
	ctx.Step(`^the transaction review status should be "([^"]*)"$`, tc.reviewStatusShouldBe)
	ctx.Step(`^the transaction submission should be from "([^"]*)"$`, tc.submissionShouldBeFrom)
	ctx.Step(`^the callback listener should receive (\d+) events? for the transaction$`, tc.callbackEventsReceived)
	ctx.Step(`^the latest callback event should carry a verified submission from "([^"]*)"$`, tc.latestEventFrom)
}

func (tc *TestContext) serviceIsRunning() error {
	if err := tc.GET("/health/live"); err != nil {
		return err
	}
	return tc.responseStatusShouldBe(http.StatusOK)
}

func (tc *TestContext) issuerWithScopes(scopes string) error {
	token, err := tc.stack.tokens.Generate("e2e-issuer", strings.Split(scopes, ","), time.Minute)
	if err != nil {
		return err
	}
	tc.IssuerToken = token
	return nil
}

func (tc *TestContext) anonymousCaller() error {
	tc.IssuerToken = ""
	return nil
}

func (tc *TestContext) proofVerifierRejects() error {
	tc.stack.verifier.rejecting.Store(true)
	return nil
}

func interactType(kind string) models.InteractType {
	if kind == "mediated" {
		return models.InteractMediated
	}
	return models.InteractUnmediated
}

func (tc *TestContext) createExchange(exchangeID, kind string, oneTime bool, query ...models.Query) error {
	return tc.POST("/exchanges", models.CreateExchangeRequest{
		ExchangeID:       exchangeID,
		InteractServices: []models.InteractDefinition{{Type: interactType(kind)}},
		Query:            query,
		IsOneTime:        oneTime,
		Callback:         []models.CallbackTarget{{URL: tc.stack.listener.URL()}},
	})
}

func (tc *TestContext) createDIDAuthExchange(kind, exchangeID string) error {
	return tc.createExchange(exchangeID, kind, false, models.Query{Type: models.QueryDIDAuth})
}

func (tc *TestContext) createOneTimeExchange(kind, exchangeID string) error {
	return tc.createExchange(exchangeID, kind, true, models.Query{Type: models.QueryDIDAuth})
}

func (tc *TestContext) createDefinitionExchange(exchangeID, field string) error {
	return tc.createExchange(exchangeID, "unmediated", false, models.Query{
		Type: models.QueryPresentationDefinition,
		CredentialQuery: []models.CredentialQuery{{
			PresentationDefinition: models.PresentationDefinition{
				ID: exchangeID + "-definition",
				InputDescriptors: []models.InputDescriptor{{
					ID: "credential",
					Constraints: &models.Constraints{
						Fields: []models.Field{{Path: []string{"$.credentialSubject." + field}}},
					},
				}},
			},
		}},
	})
}

func (tc *TestContext) fetchExchange(exchangeID string) error {
	return tc.GET("/exchanges/" + exchangeID)
}

func (tc *TestContext) holderStartsExchange(exchangeID string) error {
	if err := tc.POST("/exchanges/"+exchangeID, nil); err != nil {
		return err
	}
	tc.ExchangeID = exchangeID
	if tc.GetLastResponseStatus() != http.StatusCreated {
		return nil
	}

	resp, err := tc.ExchangeResponse()
	if err != nil {
		return err
	}
	if resp.VPRequest == nil || len(resp.VPRequest.Interact.Service) == 0 {
		return fmt.Errorf("start response carries no interact service")
	}
	tc.Challenge = resp.VPRequest.Challenge
	tc.TransactionID = path.Base(resp.VPRequest.Interact.Service[0].ServiceEndpoint)
	return nil
}

func (tc *TestContext) transactionPath() string {
	return "/exchanges/" + tc.ExchangeID + "/" + tc.TransactionID
}

func (tc *TestContext) submit(vp *models.Presentation) error {
	return tc.PUT(tc.transactionPath(), vp)
}

func (tc *TestContext) submitWithIssuedChallenge(holder string) error {
	return tc.submit(presentation(holder, tc.Challenge))
}

func (tc *TestContext) submitWithChallenge(holder, challenge string) error {
	return tc.submit(presentation(holder, challenge))
}

func (tc *TestContext) submitWithoutProof(holder string) error {
	vp := presentation(holder, tc.Challenge)
	vp.Proof = nil
	return tc.submit(vp)
}

func (tc *TestContext) submitCredential(holder, field, value string) error {
	return tc.submit(presentation(holder, tc.Challenge, map[string]any{
		"type":              []any{"VerifiableCredential"},
		"credentialSubject": map[string]any{"id": holder, field: value},
	}))
}

func (tc *TestContext) submitNoCredentials(holder string) error {
	return tc.submit(presentation(holder, tc.Challenge))
}

func presentation(holder, challenge string, credentials ...map[string]any) *models.Presentation {
	vp := &models.Presentation{
		Context: []any{"https://www.w3.org/2018/credentials/v1"},
		Type:    []string{"VerifiablePresentation"},
		Holder:  holder,
		Proof: &models.Proof{
			Type:               "Ed25519Signature2020",
			ProofPurpose:       models.ProofPurposeAuthentication,
			VerificationMethod: holder + "#key-1",
			Challenge:          challenge,
			ProofValue:         "z58DAdFfa9SkqZMVPxAQpic7ndSayn1PzZs6ZjWp1CktyGesjuTSwRdoWhAfGFCF5bppETSTojQCrfFPP2oumHKtz",
		},
	}
	if len(credentials) > 0 {
		vp.VerifiableCredential = credentials
	}
	return vp
}

func (tc *TestContext) reviewTransaction(decision string) error {
	result := models.ReviewResultApproved
	if decision == "rejects" {
		result = models.ReviewResultRejected
	}
	return tc.POST(tc.transactionPath()+"/review", models.ReviewRequest{
		Result: result,
		VP:     presentation("did:example:reviewer", tc.Challenge),
	})
}

func (tc *TestContext) fetchTransaction() error {
	return tc.GET(tc.transactionPath())
}

func (tc *TestContext) responseStatusShouldBe(expected int) error {
	if got := tc.GetLastResponseStatus(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseErrorShouldBe(code string) error {
	v, err := tc.GetResponseField("error")
	if err != nil {
		return err
	}
	if v != code {
		return fmt.Errorf("expected error %q, got %v", code, v)
	}
	return nil
}

func (tc *TestContext) responseErrors() ([]string, error) {
	var body struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(tc.LastResponseBody, &body); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return body.Errors, nil
}

func (tc *TestContext) responseHasNoErrors() error {
	errs, err := tc.responseErrors()
	if err != nil {
		return err
	}
	if len(errs) != 0 {
		return fmt.Errorf("expected no errors, got %v", errs)
	}
	return nil
}

func (tc *TestContext) responseHasErrors() error {
	errs, err := tc.responseErrors()
	if err != nil {
		return err
	}
	if len(errs) == 0 {
		return fmt.Errorf("expected verification errors, got none")
	}
	return nil
}

func (tc *TestContext) responseErrorsInclude(text string) error {
	errs, err := tc.responseErrors()
	if err != nil {
		return err
	}
	for _, e := range errs {
		if strings.Contains(e, text) {
			return nil
		}
	}
	return fmt.Errorf("expected an error containing %q, got %v", text, errs)
}

func (tc *TestContext) responseHasVPRequest() error {
	resp, err := tc.ExchangeResponse()
	if err != nil {
		return err
	}
	if resp.VPRequest == nil || resp.VPRequest.Challenge == "" {
		return fmt.Errorf("expected a presentation request with a challenge")
	}
	return nil
}

func (tc *TestContext) interactServiceShouldBe(expected string) error {
	resp, err := tc.ExchangeResponse()
	if err != nil {
		return err
	}
	if resp.VPRequest == nil {
		return fmt.Errorf("response carries no presentation request")
	}
	if got := resp.VPRequest.InteractType(); string(got) != expected {
		return fmt.Errorf("expected interact service %s, got %s", expected, got)
	}
	return nil
}

func (tc *TestContext) responseAsksToPoll() error {
	resp, err := tc.ExchangeResponse()
	if err != nil {
		return err
	}
	if resp.ProcessingInProgress == nil || !*resp.ProcessingInProgress {
		return fmt.Errorf("expected processingInProgress to be true")
	}
	if resp.VPRequest == nil || resp.VPRequest.Challenge == "" {
		return fmt.Errorf("expected a fresh presentation request")
	}
	if ep := resp.VPRequest.Interact.Service[0].ServiceEndpoint; !strings.HasSuffix(ep, tc.transactionPath()) {
		return fmt.Errorf("expected poll endpoint for %s, got %s", tc.transactionPath(), ep)
	}
	return nil
}

func (tc *TestContext) responseProcessingComplete() error {
	resp, err := tc.ExchangeResponse()
	if err != nil {
		return err
	}
	if resp.ProcessingInProgress == nil || *resp.ProcessingInProgress {
		return fmt.Errorf("expected processingInProgress to be false")
	}
	return nil
}

func (tc *TestContext) responseReturnsReviewedVP() error {
	resp, err := tc.ExchangeResponse()
	if err != nil {
		return err
	}
	if resp.VP == nil {
		return fmt.Errorf("expected the reviewed presentation in the response")
	}
	return nil
}

func (tc *TestContext) responseReturnsNoVP() error {
	resp, err := tc.ExchangeResponse()
	if err != nil {
		return err
	}
	if resp.VP != nil {
		return fmt.Errorf("expected no presentation, got one from %s", resp.VP.Holder)
	}
	return nil
}

func (tc *TestContext) transaction() (*models.Transaction, error) {
	if err := tc.fetchTransaction(); err != nil {
		return nil, err
	}
	if err := tc.responseStatusShouldBe(http.StatusOK); err != nil {
		return nil, err
	}
	var tx models.Transaction
	if err := json.Unmarshal(tc.LastResponseBody, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	return &tx, nil
}

func (tc *TestContext) reviewStatusShouldBe(expected string) error {
	tx, err := tc.transaction()
	if err != nil {
		return err
	}
	if tx.PresentationReview == nil {
		return fmt.Errorf("transaction has no presentation review")
	}
	if got := string(tx.PresentationReview.ReviewStatus); got != expected {
		return fmt.Errorf("expected review status %s, got %s", expected, got)
	}
	return nil
}

func (tc *TestContext) submissionShouldBeFrom(holder string) error {
	tx, err := tc.transaction()
	if err != nil {
		return err
	}
	if tx.PresentationSubmission == nil {
		return fmt.Errorf("transaction has no submission")
	}
	if got := tx.PresentationSubmission.VP.Holder; got != holder {
		return fmt.Errorf("expected submission from %s, got %s", holder, got)
	}
	return nil
}

func (tc *TestContext) callbackEventsReceived(count int) error {
	events, err := tc.stack.listener.waitForEvents(tc.TransactionID, count, callbackWait)
	if err != nil {
		return err
	}
	// late deliveries would show up as extra events
	time.Sleep(50 * time.Millisecond)
	if events = tc.stack.listener.eventsFor(tc.TransactionID); len(events) != count {
		return fmt.Errorf("expected %d callback events, got %d", count, len(events))
	}
	return nil
}

func (tc *TestContext) latestEventFrom(holder string) error {
	events := tc.stack.listener.eventsFor(tc.TransactionID)
	if len(events) == 0 {
		return fmt.Errorf("no callback events received")
	}
	latest := events[len(events)-1]
	if latest.ExchangeID != tc.ExchangeID {
		return fmt.Errorf("expected exchange %s, got %s", tc.ExchangeID, latest.ExchangeID)
	}
	sub := latest.PresentationSubmission
	if sub == nil {
		return fmt.Errorf("latest event carries no submission")
	}
	if sub.VP.Holder != holder {
		return fmt.Errorf("expected submission from %s, got %s", holder, sub.VP.Holder)
	}
	if len(sub.VerificationResult.Errors) != 0 {
		return fmt.Errorf("expected a verified submission, got errors %v", sub.VerificationResult.Errors)
	}
	return nil
}
