package api

import (
	"net/http"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/service"
	"github.com/suisse-offerten/marketplace-api/store"
	"github.com/suisse-offerten/marketplace-api/utils"
)

const defaultAdminPageSize = 20

type verifyRequest struct {
	Code  string `json:"code" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

type loginRequest struct {
	Input    string `json:"input" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type codeRequest struct {
	Code string `json:"code" validate:"required"`
}

// changePasswordRequest carries the code from the reset link or the OTP
// mail.
type changePasswordRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required"`
}

type accountStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status" validate:"required,oneof=pending verified"`
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

type adminClientsResponse struct {
	CurrentPage  int             `json:"currentPage"`
	TotalPages   int             `json:"totalPages"`
	TotalClients int64           `json:"totalClients"`
	Clients      []models.Client `json:"clients"`
}

func (s *Server) ListClientsHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[List Clients API]")
	defer logs.Flush()

	clients, err := s.repos.Clients.List(r.Context(), "", store.Page{})
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Found %d clients", len(clients))
	utils.RespondJSON(w, http.StatusOK, clients)
}

// ListClientsByAdminHandler pages through clients, optionally filtered by
// ?status.
func (s *Server) ListClientsByAdminHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Admin List Clients API]")
	defer logs.Flush()

	if adminID, err := GetUserIDFromContext(r.Context()); err == nil {
		logs.Addf("Requested by %s", adminID)
	}
	p := parsePagination(r, defaultAdminPageSize)
	status := r.URL.Query().Get("status")

	total, err := s.repos.Clients.Count(r.Context(), status)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	clients, err := s.repos.Clients.List(r.Context(), status, p.store())
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, adminClientsResponse{
		CurrentPage:  p.page,
		TotalPages:   p.totalPages(total),
		TotalClients: total,
		Clients:      clients,
	})
}

func (s *Server) CreateClientByAdminHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Admin Create Client API]")
	defer logs.Flush()

	var req service.AdminClientInput
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	client, err := s.accounts.CreateClientByAdmin(r.Context(), req)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Created client %s", client.ID.Hex())
	respondMessage(w, http.StatusCreated, AccountCreateSuccess)
}

func (s *Server) UpdateClientStatusByAdminHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Admin Update Client Status API]")
	defer logs.Flush()

	var req accountStatusRequest
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	s.setClientStatus(w, r, logs, req.ID, req.Status)
}

func (s *Server) UpdateClientStatusHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Update Client Status API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	var req accountStatusRequest
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	s.setClientStatus(w, r, logs, id, req.Status)
}

func (s *Server) setClientStatus(w http.ResponseWriter, r *http.Request, logs *utils.RequestLog, id, status string) {
	client, err := s.repos.Clients.FindByID(r.Context(), id)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	client.Status = status
	if err := s.repos.Clients.Save(r.Context(), client); err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Client %s is now %s", id, status)
	respondMessage(w, http.StatusOK, UpdateSuccess)
}

// GetClientByEmailHandler looks a client up by ?jobEmail, the owner address
// stored on jobs.
func (s *Server) GetClientByEmailHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Get Client By Email API]")
	defer logs.Flush()

	client, err := s.repos.Clients.FindByEmail(r.Context(), r.URL.Query().Get("jobEmail"))
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, client)
}

func (s *Server) GetClientHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Get Client API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	client, err := s.repos.Clients.FindByID(r.Context(), id)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, client)
}

func (s *Server) RegisterClientHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Register Client API]")
	defer logs.Flush()

	var req service.RegisterClientInput
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Registering %s", req.Email)

	client, err := s.accounts.RegisterClient(r.Context(), req)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Add("Client registered, verification code sent")
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"client":  client,
		"message": RegistrationVerifyOTP,
	})
}

// VerifyCodeHandler consumes a verification code for a client or a seller.
func (s *Server) VerifyCodeHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Verify Code API]")
	defer logs.Flush()

	var req verifyRequest
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}

	res, err := s.accounts.VerifyCode(r.Context(), req.Code, req.Email)
	if err != nil {
		if res != nil {
			logs.Addf("Verified %s, job activated: %t, sellers notified: %d", res.Email, res.JobActivated, res.Notified)
		}
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Verified %s, seller: %t, job activated: %t, sellers notified: %d", res.Email, res.Seller, res.JobActivated, res.Notified)
	respondMessage(w, http.StatusOK, VerificationSuccess)
}

func (s *Server) LoginClientHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Login Client API]")
	defer logs.Flush()

	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	client, token, err := s.accounts.LoginClient(r.Context(), req.Input, req.Password)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Client %s logged in", client.ID.Hex())
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"client":  client,
		"token":   token,
		"message": LoginSuccessful,
	})
}

func (s *Server) SendOTPHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Send OTP API]")
	defer logs.Flush()

	var req emailRequest
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	if err := s.accounts.SendOTP(r.Context(), req.Email); err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("OTP sent to %s", req.Email)
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"email":   req.Email,
		"message": OTPSendSuccess,
		"status":  "ok",
	})
}

func (s *Server) CheckOTPHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Check OTP API]")
	defer logs.Flush()

	var req codeRequest
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	if err := s.accounts.CheckOTP(r.Context(), req.Code); err != nil {
		respondErr(w, logs, err)
		return
	}
	respondMessage(w, http.StatusOK, OTPMatchSuccess)
}

func (s *Server) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Change Password API]")
	defer logs.Flush()

	var req changePasswordRequest
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	if err := s.accounts.ChangePassword(r.Context(), req.Email, req.Code, req.Password); err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Password changed for %s", req.Email)
	respondMessage(w, http.StatusOK, PasswordChangeSuccess)
}

// ChangePasswordByClientHandler lets an authenticated client change its own
// password.
func (s *Server) ChangePasswordByClientHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Change Password By Client API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	if callerID, _ := GetUserIDFromContext(r.Context()); callerID != id {
		logs.Addf("Token of %q cannot change password of %s", callerID, id)
		utils.RespondError(w, logs, Unauthorized, http.StatusForbidden, nil)
		return
	}

	var req passwordRequest
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	if err := s.accounts.ChangePasswordByID(r.Context(), id, req.Password); err != nil {
		respondErr(w, logs, err)
		return
	}
	respondMessage(w, http.StatusOK, PasswordChangeSuccess)
}

func (s *Server) SendResetLinkHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Send Reset Link API]")
	defer logs.Flush()

	var req emailRequest
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	if err := s.accounts.SendResetLink(r.Context(), req.Email); err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Reset link sent to %s", req.Email)
	respondMessage(w, http.StatusOK, LinkSendSuccess)
}

func (s *Server) UpdateClientHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Update Client API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	var req service.ClientUpdate
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	client, err := s.accounts.UpdateClient(r.Context(), id, req)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Updated client %s", id)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"client":  client,
		"message": UpdateSuccess,
	})
}

func (s *Server) DeleteClientHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Delete Client API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	if err := s.repos.Clients.Delete(r.Context(), id); err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Deleted client %s", id)
	respondMessage(w, http.StatusOK, DeleteSuccess)
}
