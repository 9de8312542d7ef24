package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/peerrent/verification/internal/domain"
	"github.com/peerrent/verification/internal/handlers"
	"github.com/peerrent/verification/internal/service"
	"github.com/peerrent/verification/pkg/auth"
	"github.com/peerrent/verification/pkg/config"
	"github.com/peerrent/verification/pkg/logger"
)

// ---------- Mocks ----------

type mockAuthService struct {
	registerFunc func(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	loginFunc    func(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	getUserFunc  func(ctx context.Context, id int64) (*domain.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	return m.registerFunc(ctx, req)
}

func (m *mockAuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	return m.loginFunc(ctx, req)
}

func (m *mockAuthService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return m.getUserFunc(ctx, id)
}

type mockVerifyService struct {
	statusFunc          func(ctx context.Context, userID int64) (*domain.User, error)
	guardFunc           func(ctx context.Context, user *domain.User, action domain.Action) domain.Decision
	gateStepFunc        func(ctx context.Context, userID int64, step domain.Step) (domain.GateResult, []domain.ProgressEntry, error)
	submitProfileFunc   func(ctx context.Context, userID int64, req *domain.ProfileRequest) (*domain.User, error)
	sendEmailFunc       func(ctx context.Context, userID int64, resend bool) (string, error)
	confirmEmailFunc    func(ctx context.Context, token string) (*domain.User, error)
	requestPhoneFunc    func(ctx context.Context, userID int64, phone string) (string, error)
	verifyPhoneFunc     func(ctx context.Context, userID int64, code string) error
	submitDocumentsFunc func(ctx context.Context, userID int64, front, back *domain.DocumentUpload) error
	submitAddressFunc   func(ctx context.Context, userID int64, req *domain.AddressRequest) (*domain.User, error)
	skipStepFunc        func(ctx context.Context, userID int64, step domain.Step) (domain.GateResult, error)
}

func (m *mockVerifyService) Status(ctx context.Context, userID int64) (*domain.User, error) {
	return m.statusFunc(ctx, userID)
}

func (m *mockVerifyService) Guard(ctx context.Context, user *domain.User, action domain.Action) domain.Decision {
	if m.guardFunc != nil {
		return m.guardFunc(ctx, user, action)
	}
	return domain.Evaluate(user, action)
}

func (m *mockVerifyService) GateStep(ctx context.Context, userID int64, step domain.Step) (domain.GateResult, []domain.ProgressEntry, error) {
	return m.gateStepFunc(ctx, userID, step)
}

func (m *mockVerifyService) SubmitProfile(ctx context.Context, userID int64, req *domain.ProfileRequest) (*domain.User, error) {
	return m.submitProfileFunc(ctx, userID, req)
}

func (m *mockVerifyService) SendEmailVerification(ctx context.Context, userID int64, resend bool) (string, error) {
	return m.sendEmailFunc(ctx, userID, resend)
}

func (m *mockVerifyService) ConfirmEmail(ctx context.Context, token string) (*domain.User, error) {
	return m.confirmEmailFunc(ctx, token)
}

func (m *mockVerifyService) RequestPhoneCode(ctx context.Context, userID int64, phone string) (string, error) {
	return m.requestPhoneFunc(ctx, userID, phone)
}

func (m *mockVerifyService) VerifyPhoneCode(ctx context.Context, userID int64, code string) error {
	return m.verifyPhoneFunc(ctx, userID, code)
}

func (m *mockVerifyService) SubmitDocuments(ctx context.Context, userID int64, front, back *domain.DocumentUpload) error {
	return m.submitDocumentsFunc(ctx, userID, front, back)
}

func (m *mockVerifyService) SubmitAddress(ctx context.Context, userID int64, req *domain.AddressRequest) (*domain.User, error) {
	return m.submitAddressFunc(ctx, userID, req)
}

func (m *mockVerifyService) SkipStep(ctx context.Context, userID int64, step domain.Step) (domain.GateResult, error) {
	return m.skipStepFunc(ctx, userID, step)
}

type mockRateLimitRepo struct {
	allowed bool
}

func (m *mockRateLimitRepo) CheckRateLimit(context.Context, string, int, time.Duration) (bool, error) {
	return m.allowed, nil
}

func (m *mockRateLimitRepo) CleanupExpired(context.Context) (int64, error) { return 0, nil }

// ---------- Setup ----------

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret",
			AccessTokenTTL: 15 * time.Minute,
		},
		Email: config.EmailConfig{DevMode: true},
	}
}

func newRouter(verify *mockVerifyService, authSvc *mockAuthService, rl *mockRateLimitRepo) *chi.Mux {
	if authSvc == nil {
		authSvc = &mockAuthService{}
	}
	if rl == nil {
		rl = &mockRateLimitRepo{allowed: true}
	}
	h := handlers.New(authSvc, verify, rl, testConfig())

	r := chi.NewRouter()
	r.Route("/verification", func(r chi.Router) {
		r.With(h.OptionalJWT()).Get("/guard", h.Guard)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireJWT())

			r.Get("/status", h.Status)
			r.Get("/steps/{step}/gate", h.GateStep)
			r.Post("/steps/{step}/skip", h.SkipStep)
			r.Post("/profile", h.SubmitProfile)
			r.With(h.RateLimit("email_send", 5, time.Minute)).Post("/email/send", h.SendEmailVerification)
			r.Post("/email/confirm", h.ConfirmEmail)
			r.Post("/phone/request-code", h.RequestPhoneCode)
			r.Post("/phone/verify", h.VerifyPhoneCode)
			r.Post("/documents", h.SubmitDocuments)
			r.Post("/address", h.SubmitAddress)
		})
	})
	return r
}

func bearerToken(t *testing.T, userID int64) string {
	t.Helper()
	token, err := auth.NewAccessToken(userID, "ada@example.com", domain.RoleRenter, "test-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + token
}

func testUser(verified ...domain.Step) *domain.User {
	state := domain.NewVerificationState()
	for _, s := range verified {
		state = state.WithStatus(s, domain.StatusVerified)
	}
	return &domain.User{ID: 1, Role: domain.RoleRenter, Email: "ada@example.com", Verification: state}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

// ---------- Tests ----------

func TestGuardAnonymous(t *testing.T) {
	verify := &mockVerifyService{}
	router := newRouter(verify, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/verification/guard?action=rent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["outcome"] != "auth_required" {
		t.Errorf("expected auth_required, got %v", body["outcome"])
	}
}

func TestGuardAuthenticatedBlocked(t *testing.T) {
	verify := &mockVerifyService{
		statusFunc: func(_ context.Context, userID int64) (*domain.User, error) {
			return testUser(domain.StepProfile), nil
		},
	}
	router := newRouter(verify, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/verification/guard?action=list", nil)
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["outcome"] != "blocked" {
		t.Errorf("expected blocked, got %v", body["outcome"])
	}
	if body["next_step"] != "email" {
		t.Errorf("expected next_step email, got %v", body["next_step"])
	}
}

func TestGuardUnknownAction(t *testing.T) {
	router := newRouter(&mockVerifyService{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/verification/guard?action=fly", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestStatusRequiresAuth(t *testing.T) {
	router := newRouter(&mockVerifyService{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/verification/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != "UNAUTHORIZED" {
		t.Errorf("expected UNAUTHORIZED, got %v", body["code"])
	}
}

func TestStatus(t *testing.T) {
	verify := &mockVerifyService{
		statusFunc: func(_ context.Context, userID int64) (*domain.User, error) {
			if userID != 1 {
				t.Errorf("expected user 1, got %d", userID)
			}
			return testUser(domain.StepProfile, domain.StepEmail), nil
		},
	}
	router := newRouter(verify, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/verification/status", nil)
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["complete"] != false {
		t.Errorf("expected complete=false, got %v", body["complete"])
	}
	verification, ok := body["verification"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing verification object: %v", body)
	}
	if verification["email"] != "verified" || verification["phone"] != "incomplete" {
		t.Errorf("unexpected step statuses: %v", verification)
	}
}

func TestSubmitProfile(t *testing.T) {
	var captured *domain.ProfileRequest
	verify := &mockVerifyService{
		submitProfileFunc: func(_ context.Context, _ int64, req *domain.ProfileRequest) (*domain.User, error) {
			captured = req
			return testUser(domain.StepProfile), nil
		},
	}
	router := newRouter(verify, nil, nil)

	payload := `{"first_name":"Ada","last_name":"Lovelace","phone":"+15551234567","date_of_birth":"1990-01-01","bio":"` + strings.Repeat("a", 50) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/verification/profile", strings.NewReader(payload))
	req.Header.Set("Authorization", bearerToken(t, 1))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured == nil || captured.FirstName != "Ada" {
		t.Errorf("request not passed through: %+v", captured)
	}
	if body := decodeBody(t, rec); body["next_step"] != "email" {
		t.Errorf("expected next_step email, got %v", body["next_step"])
	}
}

func TestStepOrderViolationReturnsRedirect(t *testing.T) {
	verify := &mockVerifyService{
		verifyPhoneFunc: func(context.Context, int64, string) error {
			return &service.GateError{Result: domain.GateResult{
				Outcome:    domain.GateRedirectBack,
				Step:       "phone",
				RedirectTo: "email",
			}}
		},
	}
	router := newRouter(verify, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/verification/phone/verify", strings.NewReader(`{"code":"123456"}`))
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["code"] != "STEP_ORDER" || body["redirect_to"] != "email" {
		t.Errorf("unexpected gate response: %v", body)
	}
}

func TestSendEmailDevMode(t *testing.T) {
	verify := &mockVerifyService{
		sendEmailFunc: func(_ context.Context, _ int64, resend bool) (string, error) {
			if resend {
				t.Error("initial send flagged as resend")
			}
			return "http://localhost:5173/verify/email/confirm?token=abc", nil
		},
	}
	router := newRouter(verify, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/verification/email/send", nil)
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["dev_verify_url"] == nil {
		t.Error("dev mode response should include dev_verify_url")
	}
}

func TestSendEmailCooldown(t *testing.T) {
	verify := &mockVerifyService{
		sendEmailFunc: func(context.Context, int64, bool) (string, error) {
			return "", &service.CooldownError{Remaining: 42 * time.Second}
		},
	}
	router := newRouter(verify, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/verification/email/send", nil)
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code"] != "COOLDOWN" || body["retry_after_s"] != float64(42) {
		t.Errorf("unexpected cooldown response: %v", body)
	}
}

func TestRateLimitExceeded(t *testing.T) {
	verify := &mockVerifyService{
		sendEmailFunc: func(context.Context, int64, bool) (string, error) {
			t.Error("handler should not run when rate limited")
			return "", nil
		},
	}
	router := newRouter(verify, nil, &mockRateLimitRepo{allowed: false})

	req := httptest.NewRequest(http.MethodPost, "/verification/email/send", nil)
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("expected RATE_LIMIT_EXCEEDED, got %v", body["code"])
	}
}

func TestConfirmEmailMissingToken(t *testing.T) {
	router := newRouter(&mockVerifyService{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/verification/email/confirm", strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestConfirmEmailInvalid(t *testing.T) {
	verify := &mockVerifyService{
		confirmEmailFunc: func(context.Context, string) (*domain.User, error) {
			return nil, service.ErrInvalidToken
		},
	}
	router := newRouter(verify, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/verification/email/confirm", strings.NewReader(`{"token":"stale"}`))
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != "INVALID_TOKEN" {
		t.Errorf("expected INVALID_TOKEN, got %v", body["code"])
	}
}

func TestVerifyPhoneTooManyAttempts(t *testing.T) {
	verify := &mockVerifyService{
		verifyPhoneFunc: func(context.Context, int64, string) error {
			return service.ErrTooManyAttempts
		},
	}
	router := newRouter(verify, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/verification/phone/verify", strings.NewReader(`{"code":"123456"}`))
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != "TOO_MANY_ATTEMPTS" {
		t.Errorf("expected TOO_MANY_ATTEMPTS, got %v", body["code"])
	}
}

func TestGateStep(t *testing.T) {
	verify := &mockVerifyService{
		gateStepFunc: func(ctx context.Context, _ int64, step domain.Step) (domain.GateResult, []domain.ProgressEntry, error) {
			if step != domain.StepPhone {
				t.Errorf("expected phone, got %s", step)
			}
			if got := ctx.Value(logger.StepKey); got != "phone" {
				t.Errorf("context should carry the step name for logging, got %v", got)
			}
			state := domain.NewVerificationState().
				WithStatus(domain.StepProfile, domain.StatusVerified).
				WithStatus(domain.StepEmail, domain.StatusVerified)
			return domain.Gate(state, step), domain.Progress(state, step), nil
		},
	}
	router := newRouter(verify, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/verification/steps/phone/gate", nil)
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	gate, ok := body["gate"].(map[string]interface{})
	if !ok || gate["outcome"] != "proceed" {
		t.Errorf("unexpected gate: %v", body["gate"])
	}
	progress, ok := body["progress"].([]interface{})
	if !ok || len(progress) != 5 {
		t.Errorf("expected 5 progress entries, got %v", body["progress"])
	}
}

func TestGateStepUnknown(t *testing.T) {
	router := newRouter(&mockVerifyService{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/verification/steps/passport/gate", nil)
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSkipStep(t *testing.T) {
	verify := &mockVerifyService{
		skipStepFunc: func(_ context.Context, _ int64, step domain.Step) (domain.GateResult, error) {
			if step != domain.StepEmail {
				t.Errorf("expected email, got %s", step)
			}
			return domain.GateResult{Outcome: domain.GateRedirectForward, Step: "email"}, nil
		},
	}
	router := newRouter(verify, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/verification/steps/email/skip", nil)
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	gate := decodeBody(t, rec)["gate"].(map[string]interface{})
	if gate["outcome"] != "redirect_forward" {
		t.Errorf("expected redirect_forward, got %v", gate["outcome"])
	}
}

func TestSkipStepNotSkippable(t *testing.T) {
	verify := &mockVerifyService{
		skipStepFunc: func(context.Context, int64, domain.Step) (domain.GateResult, error) {
			return domain.GateResult{}, service.ErrNotSkippable
		},
	}
	router := newRouter(verify, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/verification/steps/profile/skip", nil)
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["code"] != "NOT_SKIPPABLE" {
		t.Errorf("expected NOT_SKIPPABLE, got %v", body["code"])
	}
}

func TestSubmitDocuments(t *testing.T) {
	var gotFront, gotBack *domain.DocumentUpload
	verify := &mockVerifyService{
		submitDocumentsFunc: func(_ context.Context, _ int64, front, back *domain.DocumentUpload) error {
			gotFront, gotBack = front, back
			return nil
		},
	}
	router := newRouter(verify, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, field := range []string{"front", "back"} {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Disposition": {fmt.Sprintf(`form-data; name=%q; filename="id-%s.png"`, field, field)},
			"Content-Type":        {"image/png"},
		})
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("fake image bytes"))
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/verification/documents", &buf)
	req.Header.Set("Authorization", bearerToken(t, 1))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotFront == nil || gotBack == nil {
		t.Fatal("uploads not passed through")
	}
	if gotFront.Side != domain.DocumentFront || gotBack.Side != domain.DocumentBack {
		t.Errorf("sides mislabeled: %s / %s", gotFront.Side, gotBack.Side)
	}
	if gotFront.ContentType != "image/png" {
		t.Errorf("expected image/png, got %s", gotFront.ContentType)
	}
	if body := decodeBody(t, rec); body["next_step"] != "address" {
		t.Errorf("expected next_step address, got %v", body["next_step"])
	}
}

func TestSubmitDocumentsMissingBack(t *testing.T) {
	router := newRouter(&mockVerifyService{}, nil, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("front", "id.png")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("fake image bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/verification/documents", &buf)
	req.Header.Set("Authorization", bearerToken(t, 1))
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitAddressComplete(t *testing.T) {
	verify := &mockVerifyService{
		submitAddressFunc: func(_ context.Context, _ int64, req *domain.AddressRequest) (*domain.User, error) {
			return testUser(domain.StepOrder...), nil
		},
	}
	router := newRouter(verify, nil, nil)

	payload := `{"street":"1 Main St","city":"Springfield","state":"IL","postal_code":"62701","country":"US"}`
	req := httptest.NewRequest(http.MethodPost, "/verification/address", strings.NewReader(payload))
	req.Header.Set("Authorization", bearerToken(t, 1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body := decodeBody(t, rec); body["complete"] != true {
		t.Errorf("expected complete=true, got %v", body["complete"])
	}
}
