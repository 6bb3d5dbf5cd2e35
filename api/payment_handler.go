package api

import (
	"net/http"
	"strconv"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/service"
	"github.com/suisse-offerten/marketplace-api/utils"
)

type pageURLResponse struct {
	PageURL string `json:"pageUrl"`
}

func (s *Server) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[List Payments API]")
	defer logs.Flush()

	payments, err := s.repos.Payments.List(r.Context())
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, payments)
}

func (s *Server) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[List Transactions API]")
	defer logs.Flush()

	txs, err := s.repos.Transactions.List(r.Context())
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, txs)
}

func (s *Server) GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Get Payment API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	p, err := s.repos.Payments.FindByID(r.Context(), id)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func (s *Server) DeletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Delete Payment API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	if err := s.repos.Payments.Delete(r.Context(), id); err != nil {
		respondErr(w, logs, err)
		return
	}
	respondMessage(w, http.StatusOK, DeleteSuccess)
}

// CreateMembershipPaymentHandler takes the plan payload for the seller in
// the path and returns the page to send the seller to.
func (s *Server) CreateMembershipPaymentHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Membership Payment API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	var plan models.MembershipPlan
	if err := s.decode(r, &plan); err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Seller %s buys plan %s", id, plan.Plan)

	url, err := s.payments.CreateMembershipPayment(r.Context(), id, plan)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, pageURLResponse{PageURL: url})
}

func (s *Server) CreateCreditsPaymentHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Credits Payment API]")
	defer logs.Flush()

	var req service.CreditsInput
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Seller %s buys %d credits", req.SellerID, req.Credits)

	url, err := s.payments.CreateCreditsPayment(r.Context(), req)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, pageURLResponse{PageURL: url})
}

// ListInvoicesHandler lists the invoices of ?email, at most ?limit of them.
func (s *Server) ListInvoicesHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[List Invoices API]")
	defer logs.Flush()

	email := r.URL.Query().Get("email")
	if err := s.validate.Var(email, "required,email"); err != nil {
		respondErr(w, logs, invalidRequest(err))
		return
	}
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	invoices, err := s.payments.ListInvoices(r.Context(), email, limit)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Found %d invoices for %s", len(invoices), email)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"message":  QuerySuccessful,
		"invoices": invoices,
	})
}

func (s *Server) DownloadInvoiceHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Download Invoice API]")
	defer logs.Flush()

	pdf, err := s.payments.InvoicePDF(r.Context(), r.PathValue("id"))
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"pageURL": pdf})
}
