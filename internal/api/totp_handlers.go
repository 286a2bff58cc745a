package api

import (
	"encoding/base64"
	"net/http"

	"github.com/mycelium-platform/mycelium/internal/api/helpers"
)

type enableTOTPRequest struct {
	AccountName string `json:"account_name"`
}

type enableTOTPResponse struct {
	SecretPlain string `json:"secret_plain"`
	QRPNGBase64 string `json:"qr_png_base64"`
}

// EnableTOTP handles POST /api/v1/totp/enable (spec §4.3/§4.7
// TOTPService.Enable). The secret is not yet persisted; the caller must
// round-trip a valid code through FinishTOTP to activate it.
func (s *Server) EnableTOTP(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	var req enableTOTPRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, mErr := s.TOTP.Enable(r.Context(), actorID, req.AccountName)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	helpers.RespondJSON(w, http.StatusOK, enableTOTPResponse{
		SecretPlain: result.SecretPlain,
		QRPNGBase64: base64.StdEncoding.EncodeToString(result.QRPNG),
	})
}

type finishTOTPRequest struct {
	SecretPlain string `json:"secret_plain"`
	Code        string `json:"code"`
}

// FinishTOTP handles POST /api/v1/totp/finish.
func (s *Server) FinishTOTP(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	var req finishTOTPRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if mErr := s.TOTP.Finish(r.Context(), actorID, req.SecretPlain, req.Code); mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type disableTOTPRequest struct {
	Code string `json:"code"`
}

// DisableTOTP handles POST /api/v1/totp/disable.
func (s *Server) DisableTOTP(w http.ResponseWriter, r *http.Request) {
	actorID, mErr := s.resolveActor(r)
	if mErr != nil {
		writeMappedError(w, mErr)
		return
	}

	var req disableTOTPRequest
	if err := helpers.DecodeJSON(r, &req); err != nil {
		helpers.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if mErr := s.TOTP.Disable(r.Context(), actorID, req.Code); mErr != nil {
		writeMappedError(w, mErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
