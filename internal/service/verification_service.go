package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/peerrent/verification/internal/domain"
	"github.com/peerrent/verification/internal/mailer"
	"github.com/peerrent/verification/internal/repository"
	"github.com/peerrent/verification/pkg/config"
	"github.com/peerrent/verification/pkg/events"
	"github.com/peerrent/verification/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// VerificationService drives the five-step identity verification chain.
// Every step mutation goes through the gate first, so the verified set stays
// a prefix of the canonical order unless a step was explicitly skipped.
type VerificationService interface {
	Status(ctx context.Context, userID int64) (*domain.User, error)
	Guard(ctx context.Context, user *domain.User, action domain.Action) domain.Decision
	GateStep(ctx context.Context, userID int64, step domain.Step) (domain.GateResult, []domain.ProgressEntry, error)

	SubmitProfile(ctx context.Context, userID int64, req *domain.ProfileRequest) (*domain.User, error)

	SendEmailVerification(ctx context.Context, userID int64, resend bool) (devVerifyURL string, err error)
	ConfirmEmail(ctx context.Context, token string) (*domain.User, error)

	RequestPhoneCode(ctx context.Context, userID int64, phone string) (devCode string, err error)
	VerifyPhoneCode(ctx context.Context, userID int64, code string) error

	SubmitDocuments(ctx context.Context, userID int64, front, back *domain.DocumentUpload) error
	SubmitAddress(ctx context.Context, userID int64, req *domain.AddressRequest) (*domain.User, error)

	SkipStep(ctx context.Context, userID int64, step domain.Step) (domain.GateResult, error)
}

type verificationService struct {
	userRepo   repository.UserRepository
	verifyRepo repository.VerifyRepository
	otpRepo    repository.OTPRepository
	mailer     mailer.Service
	eventBus   events.EventBus
	config     *config.Config
	now        func() time.Time
}

func NewVerificationService(
	userRepo repository.UserRepository,
	verifyRepo repository.VerifyRepository,
	otpRepo repository.OTPRepository,
	mailer mailer.Service,
	eventBus events.EventBus,
	config *config.Config,
) VerificationService {
	return &verificationService{
		userRepo:   userRepo,
		verifyRepo: verifyRepo,
		otpRepo:    otpRepo,
		mailer:     mailer,
		eventBus:   eventBus,
		config:     config,
		now:        time.Now,
	}
}

func (s *verificationService) Status(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *verificationService) Guard(ctx context.Context, user *domain.User, action domain.Action) domain.Decision {
	return domain.Evaluate(user, action)
}

func (s *verificationService) GateStep(ctx context.Context, userID int64, step domain.Step) (domain.GateResult, []domain.ProgressEntry, error) {
	user, err := s.Status(ctx, userID)
	if err != nil {
		return domain.GateResult{}, nil, err
	}

	result := domain.Gate(user.Verification, step)
	progress := domain.Progress(user.Verification, step)
	return result, progress, nil
}

// requireGate loads the user and checks that the step accepts submissions.
// Out-of-order attempts come back as a *GateError carrying the redirect.
func (s *verificationService) requireGate(ctx context.Context, userID int64, step domain.Step) (*domain.User, error) {
	user, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}

	if result := domain.Gate(user.Verification, step); result.Outcome != domain.GateProceed {
		return nil, &GateError{Result: result}
	}
	return user, nil
}

// markVerified flips one step to verified, publishes the step event, and
// publishes the chain-completed event when this was the last outstanding
// step.
func (s *verificationService) markVerified(ctx context.Context, user *domain.User, step domain.Step) error {
	if err := s.verifyRepo.SetStepStatus(ctx, user.ID, step, domain.StatusVerified); err != nil {
		return fmt.Errorf("failed to mark %s verified: %w", step, err)
	}
	user.Verification = user.Verification.WithStatus(step, domain.StatusVerified)

	logger.InfoContext(ctx, "Verification step completed", "user_id", user.ID, "step", step.String())

	if err := s.eventBus.Publish(ctx, events.StepCompleted, events.StepCompletedEvent{
		UserID:      user.ID,
		Step:        step.String(),
		CompletedAt: s.now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish step event", "error", err, "user_id", user.ID)
	}

	if user.Verification.Complete() {
		logger.InfoContext(ctx, "Verification chain completed", "user_id", user.ID)
		if err := s.eventBus.Publish(ctx, events.VerificationCompleted, events.VerificationCompletedEvent{
			UserID:      user.ID,
			CompletedAt: s.now(),
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish completion event", "error", err, "user_id", user.ID)
		}
	}

	return nil
}

// --- Profile step ---

func (s *verificationService) SubmitProfile(ctx context.Context, userID int64, req *domain.ProfileRequest) (*domain.User, error) {
	user, err := s.requireGate(ctx, userID, domain.StepProfile)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(s.now()); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	updated, err := s.userRepo.SaveProfile(ctx, user.ID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}

	if err := s.markVerified(ctx, updated, domain.StepProfile); err != nil {
		return nil, err
	}

	return updated, nil
}

// --- Email step ---

func (s *verificationService) SendEmailVerification(ctx context.Context, userID int64, resend bool) (string, error) {
	user, err := s.requireGate(ctx, userID, domain.StepEmail)
	if err != nil {
		return "", err
	}

	cooldownKey := fmt.Sprintf("email:%d", user.ID)
	if resend {
		ok, remaining, err := s.otpRepo.BeginCooldown(ctx, cooldownKey, s.config.Verification.EmailResendCooldown)
		if err != nil {
			logger.WarnContext(ctx, "Cooldown check failed, allowing send", "error", err)
		} else if !ok {
			return "", &CooldownError{Remaining: remaining}
		}
	} else {
		// First send arms the cooldown so an immediate resend has to wait.
		if _, _, err := s.otpRepo.BeginCooldown(ctx, cooldownKey, s.config.Verification.EmailResendCooldown); err != nil {
			logger.WarnContext(ctx, "Failed to arm resend cooldown", "error", err)
		}
	}

	token := uuid.NewString()
	expiresAt := s.now().Add(s.config.Verification.EmailTokenTTL)
	if err := s.verifyRepo.CreateEmailToken(ctx, user.ID, token, expiresAt); err != nil {
		return "", fmt.Errorf("failed to create verification token: %w", err)
	}

	verifyURL := fmt.Sprintf("%s/verify/email/confirm?token=%s", s.config.Verification.BaseURL, token)
	if err := s.mailer.SendVerificationEmail(user.Email, user.FirstName, verifyURL, token); err != nil {
		logger.ErrorContext(ctx, "Failed to send verification email", "error", err, "user_id", user.ID)
		return "", fmt.Errorf("failed to send verification email: %w", err)
	}

	return verifyURL, nil
}

// ConfirmEmail consumes a server-issued token. There is no optimistic
// client-side confirmation: the flag only flips once the emailed token comes
// back.
func (s *verificationService) ConfirmEmail(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.verifyRepo.ConsumeEmailToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to consume verification token: %w", err)
	}
	if userID == 0 {
		return nil, ErrInvalidToken
	}

	user, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The token was issued behind the email gate, but re-check in case the
	// step resolved while the link sat in an inbox.
	if result := domain.Gate(user.Verification, domain.StepEmail); result.Outcome != domain.GateProceed {
		return nil, &GateError{Result: result}
	}

	if err := s.markVerified(ctx, user, domain.StepEmail); err != nil {
		return nil, err
	}

	return user, nil
}

// --- Phone step ---

func (s *verificationService) RequestPhoneCode(ctx context.Context, userID int64, phone string) (string, error) {
	user, err := s.requireGate(ctx, userID, domain.StepPhone)
	if err != nil {
		return "", err
	}

	if phone != "" && phone != user.Phone {
		if err := s.userRepo.UpdatePhone(ctx, user.ID, phone); err != nil {
			return "", fmt.Errorf("failed to update phone: %w", err)
		}
		// The SMS below goes to the number being verified, not the stale one.
		user.Phone = phone
	}

	cooldownKey := fmt.Sprintf("phone:%d", user.ID)
	ok, remaining, err := s.otpRepo.BeginCooldown(ctx, cooldownKey, s.config.Verification.PhoneCodeCooldown)
	if err != nil {
		logger.WarnContext(ctx, "Cooldown check failed, allowing send", "error", err)
	} else if !ok {
		return "", &CooldownError{Remaining: remaining}
	}

	code, err := generateCode(s.config.Verification.PhoneCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}

	if err := s.otpRepo.StoreCode(ctx, user.ID, string(hash), s.config.Verification.PhoneCodeTTL); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}

	// SMS delivery goes through the notify service.
	if err := s.eventBus.Publish(ctx, events.NotifySend, events.NotificationEvent{
		Type:      "sms",
		Recipient: user.Phone,
		Template:  "phone_verification_code",
		Data:      map[string]interface{}{"code": code},
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish SMS notification", "error", err, "user_id", user.ID)
	}

	if s.config.Email.DevMode {
		return code, nil
	}
	return "", nil
}

// VerifyPhoneCode compares the submitted code against the issued one. Codes
// are single use and attempt limited; there is no accept-anything path.
func (s *verificationService) VerifyPhoneCode(ctx context.Context, userID int64, code string) error {
	user, err := s.requireGate(ctx, userID, domain.StepPhone)
	if err != nil {
		return err
	}

	hash, attempts, err := s.otpRepo.GetCode(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to load code: %w", err)
	}
	if hash == "" {
		return ErrCodeExpired
	}
	if attempts >= s.config.Verification.PhoneMaxAttempts {
		return ErrTooManyAttempts
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		if _, incErr := s.otpRepo.IncrementAttempts(ctx, user.ID); incErr != nil {
			logger.WarnContext(ctx, "Failed to record failed attempt", "error", incErr, "user_id", user.ID)
		}
		return ErrInvalidCode
	}

	if err := s.otpRepo.DeleteCode(ctx, user.ID); err != nil {
		logger.WarnContext(ctx, "Failed to delete consumed code", "error", err, "user_id", user.ID)
	}

	return s.markVerified(ctx, user, domain.StepPhone)
}

// --- ID step ---

func (s *verificationService) SubmitDocuments(ctx context.Context, userID int64, front, back *domain.DocumentUpload) error {
	user, err := s.requireGate(ctx, userID, domain.StepID)
	if err != nil {
		return err
	}

	if err := domain.ValidateDocumentPair(front, back, s.config.Verification.DocumentMaxBytes); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.verifyRepo.SaveDocuments(ctx, user.ID, front, back, domain.DocumentVerified); err != nil {
		return fmt.Errorf("failed to save documents: %w", err)
	}

	return s.markVerified(ctx, user, domain.StepID)
}

// --- Address step ---

func (s *verificationService) SubmitAddress(ctx context.Context, userID int64, req *domain.AddressRequest) (*domain.User, error) {
	user, err := s.requireGate(ctx, userID, domain.StepAddress)
	if err != nil {
		return nil, err
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	updated, err := s.userRepo.SaveAddress(ctx, user.ID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to save address: %w", err)
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}

	if err := s.markVerified(ctx, updated, domain.StepAddress); err != nil {
		return nil, err
	}

	return updated, nil
}

// --- Skip ---

// SkipStep records an explicit skip for the steps that allow one. The step
// keeps StatusSkipped rather than vanishing into an unset boolean, so the
// guard can show it as deferred instead of merely missing.
func (s *verificationService) SkipStep(ctx context.Context, userID int64, step domain.Step) (domain.GateResult, error) {
	if !step.Skippable() {
		return domain.GateResult{}, ErrNotSkippable
	}

	user, err := s.requireGate(ctx, userID, step)
	if err != nil {
		return domain.GateResult{}, err
	}

	if err := s.verifyRepo.SetStepStatus(ctx, user.ID, step, domain.StatusSkipped); err != nil {
		return domain.GateResult{}, fmt.Errorf("failed to skip %s: %w", step, err)
	}
	user.Verification = user.Verification.WithStatus(step, domain.StatusSkipped)

	logger.InfoContext(ctx, "Verification step skipped", "user_id", user.ID, "step", step.String())

	if err := s.eventBus.Publish(ctx, events.StepSkipped, events.StepSkippedEvent{
		UserID:    user.ID,
		Step:      step.String(),
		SkippedAt: s.now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish skip event", "error", err, "user_id", user.ID)
	}

	// Skipping takes the user to the dashboard, not to the next step: a
	// skipped prerequisite still blocks everything after it.
	return domain.GateResult{Outcome: domain.GateRedirectForward, Step: step.String()}, nil
}

func generateCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
