package httpapi

import (
	"mime"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/go-chi/chi/v5"

	"todoManagement/internal/apperr"
	"todoManagement/internal/auth"
	"todoManagement/models"
)

type registerRequest struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	FullName *string `json:"full_name"`
	Password string  `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r refreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

type profileRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
}

func (r profileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.Email),
	)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := validationError(req.Validate()); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()

	// Friendly pre-checks; the UNIQUE constraints remain the source of truth under races.
	if u, err := h.Users.GetByUsername(ctx, req.Username); err != nil {
		h.fail(w, r, err)
		return
	} else if u != nil {
		h.fail(w, r, apperr.Conflict("Username already registered"))
		return
	}
	if u, err := h.Users.GetByEmail(ctx, req.Email); err != nil {
		h.fail(w, r, err)
		return
	} else if u != nil {
		h.fail(w, r, apperr.Conflict("Email already registered"))
		return
	}

	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.Users.Create(ctx, &models.User{
		Email:        req.Email,
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
		IsVerified:   false,
	})
	if err != nil {
		h.fail(w, r, storeError(err, "Username or email already registered"))
		return
	}
	h.sendVerification(r, u)
	h.Logger.InfoContext(ctx, "user registered", "username", u.Username, "user_id", u.ID)
	writeJSON(w, http.StatusCreated, u)
}

// sendVerification issues a verification token and hands it to the mailer.
// Delivery failures are logged; they never fail the request.
func (h *handler) sendVerification(r *http.Request, u *models.User) {
	tok, err := h.Codec.IssueEmailVerification(u.Email)
	if err == nil {
		err = h.Mail.SendVerification(r.Context(), u.Email, tok)
	}
	if err != nil {
		h.Logger.WarnContext(r.Context(), "verification email not sent", "email", u.Email, "err", err)
	}
}

// readLogin accepts the OAuth2 password form as well as JSON.
func readLogin(r *http.Request) (loginRequest, error) {
	var req loginRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return req, apperr.Validation(map[string]string{"body": "invalid form body"})
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		return req, nil
	}
	err := decodeJSON(r, &req)
	return req, err
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	req, err := readLogin(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validationError(req.Validate()); err != nil {
		h.fail(w, r, err)
		return
	}
	u, err := h.Users.GetByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if u == nil || !h.Hasher.Verify(req.Password, u.PasswordHash) {
		h.fail(w, r, apperr.Unauthenticated("Incorrect username or password"))
		return
	}
	if err := auth.Active(u); err != nil {
		h.fail(w, r, err)
		return
	}
	pair, err := h.Codec.IssuePair(u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Logger.InfoContext(r.Context(), "user logged in", "username", u.Username)
	writeJSON(w, http.StatusOK, pair)
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validationError(req.Validate()); err != nil {
		h.fail(w, r, err)
		return
	}
	claims, ok := h.Codec.Parse(req.RefreshToken, auth.KindRefresh)
	if !ok {
		h.fail(w, r, apperr.Unauthenticated("Invalid refresh token"))
		return
	}
	u, err := h.Users.GetByUsername(r.Context(), claims.Subject)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if u == nil || !u.IsActive {
		h.fail(w, r, apperr.Unauthenticated("User not found or inactive"))
		return
	}
	pair, err := h.Codec.IssuePair(u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

// updateMe changes email and/or full name. A new email must be verified again.
func (h *handler) updateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Email != nil {
		e := strings.TrimSpace(*req.Email)
		req.Email = &e
	}
	if err := validationError(req.Validate()); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := r.Context()
	me := currentUser(r)

	email, fullName, verified := me.Email, me.FullName, me.IsVerified
	emailChanged := req.Email != nil && *req.Email != me.Email
	if emailChanged {
		other, err := h.Users.GetByEmail(ctx, *req.Email)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if other != nil {
			h.fail(w, r, apperr.Conflict("Email already registered"))
			return
		}
		email, verified = *req.Email, false
	}
	if req.FullName != nil {
		fullName = req.FullName
	}
	if err := h.Users.UpdateProfile(ctx, me.ID, email, fullName, verified); err != nil {
		h.fail(w, r, storeError(err, "Email already registered"))
		return
	}
	u, err := h.Users.GetByID(ctx, me.ID)
	if err != nil || u == nil {
		h.fail(w, r, apperr.Internal(err))
		return
	}
	if emailChanged {
		h.sendVerification(r, u)
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	email, ok := h.Codec.ParseEmailVerification(chi.URLParam(r, "token"))
	if !ok {
		h.fail(w, r, apperr.BadRequest("Invalid or expired verification token"))
		return
	}
	u, err := h.Users.GetByEmail(r.Context(), email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if u == nil {
		h.fail(w, r, apperr.NotFound("User not found"))
		return
	}
	if u.IsVerified {
		writeMessage(w, "Email already verified")
		return
	}
	if err := h.Users.MarkVerified(r.Context(), u.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	h.Logger.InfoContext(r.Context(), "email verified", "username", u.Username)
	writeMessage(w, "Email successfully verified")
}

func (h *handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	if me.IsVerified {
		h.fail(w, r, apperr.BadRequest("Email already verified"))
		return
	}
	h.sendVerification(r, me)
	writeMessage(w, "Verification email sent to "+me.Email)
}
