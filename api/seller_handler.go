package api

import (
	"context"
	"mime"
	"net/http"
	"strings"

	"github.com/suisse-offerten/marketplace-api/models"
	"github.com/suisse-offerten/marketplace-api/service"
	"github.com/suisse-offerten/marketplace-api/store"
	"github.com/suisse-offerten/marketplace-api/uploads"
	"github.com/suisse-offerten/marketplace-api/utils"
)

// sellerUpdate carries the editable company profile; nil fields are left
// unchanged.
type sellerUpdate struct {
	CompanyName *string   `json:"companyName"`
	Phone       *string   `json:"phone"`
	Address     *string   `json:"address"`
	Website     *string   `json:"website"`
	Description *string   `json:"description"`
	Preference  *[]string `json:"preference"`
	Activities  *[]string `json:"activities"`
}

func (u sellerUpdate) apply(s *models.Seller) {
	set(&s.CompanyName, u.CompanyName)
	set(&s.Phone, u.Phone)
	set(&s.Address, u.Address)
	set(&s.Website, u.Website)
	set(&s.Description, u.Description)
	set(&s.Preference, u.Preference)
	set(&s.Activities, u.Activities)
}

// formSellerUpdate reads the profile fields of a multipart form. Repeated
// preference and activities values form the lists.
func formSellerUpdate(values map[string][]string) sellerUpdate {
	str := func(key string) *string {
		if v, ok := values[key]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	list := func(key string) *[]string {
		if v, ok := values[key]; ok {
			return &v
		}
		return nil
	}
	return sellerUpdate{
		CompanyName: str("companyName"),
		Phone:       str("phone"),
		Address:     str("address"),
		Website:     str("website"),
		Description: str("description"),
		Preference:  list("preference"),
		Activities:  list("activities"),
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// presignImages replaces stored image keys with signed URLs. Keys that fail
// to sign are returned as they are.
func (s *Server) presignImages(ctx context.Context, seller *models.Seller) {
	if s.signer == nil {
		return
	}
	sign := func(key string) string {
		if key == "" || strings.HasPrefix(key, "http") {
			return key
		}
		url, err := s.signer.PresignedURL(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("presign failed")
			return key
		}
		return url
	}
	seller.CompanyLogo = sign(seller.CompanyLogo)
	seller.CompanyCover = sign(seller.CompanyCover)
	if len(seller.CompanyPictures) > 0 {
		pictures := make([]string, 0, len(seller.CompanyPictures))
		for _, key := range seller.CompanyPictures {
			pictures = append(pictures, sign(key))
		}
		seller.CompanyPictures = pictures
	}
}

func (s *Server) ListSellersHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[List Sellers API]")
	defer logs.Flush()

	sellers, err := s.repos.Sellers.List(r.Context(), store.Page{})
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	for i := range sellers {
		s.presignImages(r.Context(), &sellers[i])
	}
	logs.Addf("Found %d sellers", len(sellers))
	utils.RespondJSON(w, http.StatusOK, sellers)
}

func (s *Server) RegisterSellerHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Register Seller API]")
	defer logs.Flush()

	var req service.RegisterSellerInput
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Registering seller %s", req.Email)

	seller, err := s.accounts.RegisterSeller(r.Context(), req)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"seller":  seller,
		"message": RegistrationVerifyOTP,
	})
}

func (s *Server) LoginSellerHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Login Seller API]")
	defer logs.Flush()

	var req loginRequest
	if err := s.decode(r, &req); err != nil {
		respondErr(w, logs, err)
		return
	}
	seller, token, err := s.accounts.LoginSeller(r.Context(), req.Input, req.Password)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	logs.Addf("Seller %s logged in", seller.ID.Hex())
	s.presignImages(r.Context(), seller)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"seller":  seller,
		"token":   token,
		"message": LoginSuccessful,
	})
}

func (s *Server) GetSellerHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Get Seller API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	seller, err := s.repos.Sellers.FindByID(r.Context(), id)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	s.presignImages(r.Context(), seller)
	utils.RespondJSON(w, http.StatusOK, seller)
}

// UpdateSellerHandler accepts JSON, or a multipart form that may also carry
// companyLogo, companyCover and up to 10 companyPictures.
func (s *Server) UpdateSellerHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Update Seller API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	var (
		update sellerUpdate
		images uploads.CompanyImages
	)
	if isMultipart(r) {
		if err := r.ParseMultipartForm(uploads.MaxMemory); err != nil {
			respondErr(w, logs, invalidRequest(err))
			return
		}
		defer r.MultipartForm.RemoveAll()
		update = formSellerUpdate(r.MultipartForm.Value)
	} else if err := s.decode(r, &update); err != nil {
		respondErr(w, logs, err)
		return
	}

	seller, err := s.repos.Sellers.FindByID(r.Context(), id)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	if r.MultipartForm != nil {
		images, err = uploads.SaveCompanyImages(r.Context(), s.uploads, r.MultipartForm)
		if err != nil {
			respondErr(w, logs, err)
			return
		}
		logs.Addf("Stored %d pictures", len(images.Pictures))
	}

	update.apply(seller)
	if images.Logo != "" {
		seller.CompanyLogo = images.Logo
	}
	if images.Cover != "" {
		seller.CompanyCover = images.Cover
	}
	if len(images.Pictures) > 0 {
		seller.CompanyPictures = images.Pictures
	}
	if err := s.repos.Sellers.Save(r.Context(), seller); err != nil {
		respondErr(w, logs, err)
		return
	}

	s.presignImages(r.Context(), seller)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"seller":  seller,
		"message": UpdateSuccess,
	})
}

func (s *Server) UpdateSellerStatusHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Update Seller Status API]")
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
	seller, err := s.repos.Sellers.FindByID(r.Context(), id)
	if err != nil {
		respondErr(w, logs, err)
		return
	}
	seller.Status = req.Status
	if err := s.repos.Sellers.Save(r.Context(), seller); err != nil {
		respondErr(w, logs, err)
		return
	}
	respondMessage(w, http.StatusOK, UpdateSuccess)
}

func (s *Server) DeleteSellerHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Delete Seller API]")
	defer logs.Flush()

	id, err := pathID(r)
	if err != nil {
		respondErr(w, logs, err)
		return
	}

	if err := s.repos.Sellers.Delete(r.Context(), id); err != nil {
		respondErr(w, logs, err)
		return
	}
	respondMessage(w, http.StatusOK, DeleteSuccess)
}
