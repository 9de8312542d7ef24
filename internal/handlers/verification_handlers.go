package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/peerrent/verification/internal/domain"
)

// Status returns the caller's per-step verification state.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	user, err := h.verifyService.Status(r.Context(), claims.Sub)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verification": user.Verification,
		"complete":     user.Verification.Complete(),
	})
}

// Guard evaluates whether the caller may perform a gated action. Anonymous
// callers get the auth-required branch rather than a 401; the decision
// document is the answer.
func (h *Handlers) Guard(w http.ResponseWriter, r *http.Request) {
	action, err := domain.ParseAction(r.URL.Query().Get("action"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown action, expected rent or list", "INVALID_INPUT")
		return
	}

	var user *domain.User
	if claims := getClaims(r); claims != nil {
		user, err = h.verifyService.Status(r.Context(), claims.Sub)
		if err != nil {
			writeServiceError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, h.verifyService.Guard(r.Context(), user, action))
}

// GateStep answers the step-entry question: proceed, or redirect where.
func (h *Handlers) GateStep(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	step, err := domain.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown verification step", "INVALID_INPUT")
		return
	}
	r = withStep(r, step)

	result, progress, err := h.verifyService.GateStep(r.Context(), claims.Sub, step)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gate":     result,
		"progress": progress,
	})
}

// SubmitProfile handles the profile step's form.
func (h *Handlers) SubmitProfile(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	r = withStep(r, domain.StepProfile)

	var req domain.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	user, err := h.verifyService.SubmitProfile(r.Context(), claims.Sub, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Profile saved",
		"user":      user.ToUserInfo(),
		"next_step": domain.StepEmail.String(),
	})
}

// SendEmailVerification triggers the initial verification email.
func (h *Handlers) SendEmailVerification(w http.ResponseWriter, r *http.Request) {
	h.sendEmail(w, r, false)
}

// ResendEmailVerification re-sends, gated by the cooldown.
func (h *Handlers) ResendEmailVerification(w http.ResponseWriter, r *http.Request) {
	h.sendEmail(w, r, true)
}

func (h *Handlers) sendEmail(w http.ResponseWriter, r *http.Request, resend bool) {
	claims := getClaims(r)
	r = withStep(r, domain.StepEmail)

	devURL, err := h.verifyService.SendEmailVerification(r.Context(), claims.Sub, resend)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := map[string]interface{}{
		"message": "Verification email sent",
	}
	if h.config.Email.DevMode {
		response["dev_verify_url"] = devURL
	}

	writeJSON(w, http.StatusOK, response)
}

// ConfirmEmail consumes an emailed token and completes the email step.
func (h *Handlers) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "Verification token is required", "INVALID_INPUT")
		return
	}
	r = withStep(r, domain.StepEmail)

	user, err := h.verifyService.ConfirmEmail(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Email verified",
		"user":      user.ToUserInfo(),
		"next_step": domain.StepPhone.String(),
	})
}

// RequestPhoneCode starts the phone step's two-phase flow.
func (h *Handlers) RequestPhoneCode(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	r = withStep(r, domain.StepPhone)

	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	devCode, err := h.verifyService.RequestPhoneCode(r.Context(), claims.Sub, req.Phone)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := map[string]interface{}{
		"message": "Verification code sent",
	}
	if h.config.Email.DevMode && devCode != "" {
		response["dev_code"] = devCode
	}

	writeJSON(w, http.StatusOK, response)
}

// VerifyPhoneCode completes the phone step.
func (h *Handlers) VerifyPhoneCode(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	r = withStep(r, domain.StepPhone)

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "Verification code is required", "INVALID_INPUT")
		return
	}

	if err := h.verifyService.VerifyPhoneCode(r.Context(), claims.Sub, req.Code); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Phone verified",
		"next_step": domain.StepID.String(),
	})
}

// SubmitDocuments handles the ID step's multipart upload (front and back).
func (h *Handlers) SubmitDocuments(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	r = withStep(r, domain.StepID)

	// Two files plus form overhead; anything oversized is rejected by the
	// per-file limit below anyway.
	if err := r.ParseMultipartForm(2*domain.MaxDocumentBytes + 1<<20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", "INVALID_INPUT")
		return
	}

	front, err := documentFromForm(r, "front", domain.DocumentFront)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Front image is required", "INVALID_INPUT")
		return
	}
	back, err := documentFromForm(r, "back", domain.DocumentBack)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Back image is required", "INVALID_INPUT")
		return
	}

	if err := h.verifyService.SubmitDocuments(r.Context(), claims.Sub, front, back); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":   "Identity documents received",
		"next_step": domain.StepAddress.String(),
	})
}

func documentFromForm(r *http.Request, field string, side domain.DocumentSide) (*domain.DocumentUpload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	file.Close()

	return &domain.DocumentUpload{
		Side:        side,
		Filename:    header.Filename,
		ContentType: documentContentType(header),
		SizeBytes:   header.Size,
	}, nil
}

func documentContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// SubmitAddress handles the terminal address step.
func (h *Handlers) SubmitAddress(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)
	r = withStep(r, domain.StepAddress)

	var req domain.AddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	user, err := h.verifyService.SubmitAddress(r.Context(), claims.Sub, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Address saved",
		"user":     user.ToUserInfo(),
		"complete": user.Verification.Complete(),
	})
}

// SkipStep records an explicit skip for skippable steps.
func (h *Handlers) SkipStep(w http.ResponseWriter, r *http.Request) {
	claims := getClaims(r)

	step, err := domain.ParseStep(chi.URLParam(r, "step"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown verification step", "INVALID_INPUT")
		return
	}
	r = withStep(r, step)

	result, err := h.verifyService.SkipStep(r.Context(), claims.Sub, step)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Step skipped",
		"gate":    result,
	})
}
