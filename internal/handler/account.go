package handler

import (
	"net/http"

	"github.com/Samir899/SpendVolt/internal/gateway"
	"github.com/Samir899/SpendVolt/internal/models"
)

func (d *Dependencies) HandleProfile(w http.ResponseWriter, r *http.Request) {
	var p models.UserProfile
	if !decodeBody(w, r, &p) {
		return
	}

	if err := d.App.SaveProfile(r.Context(), p); err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// HandleLogin returns the login result without the access token; the token
// stays in the daemon's session.
func (d *Dependencies) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := d.App.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"username":              resp.Username,
		"fullName":              resp.FullName,
		"passwordResetRequired": resp.PasswordResetRequired,
	})
}

func (d *Dependencies) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req gateway.SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := d.App.Signup(r.Context(), req)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, resp)
}

func (d *Dependencies) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := d.App.Logout(r.Context()); err != nil {
		writeAppError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
