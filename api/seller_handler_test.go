package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suisse-offerten/marketplace-api/models"
)

type formFile struct {
	field, name, content string
}

func multipartRequest(t *testing.T, path string, fields map[string][]string, files []formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *testEnv) seedSeller(t *testing.T, s models.Seller) string {
	t.Helper()
	require.NoError(t, e.repos.Sellers.Create(t.Context(), &s))
	return s.ID.Hex()
}

func TestSellerRegisterVerifyLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/seller/register", map[string]any{
		"username": "painter", "email": "p@x.com", "password": "secret",
		"preference": []string{"Zurich"}, "activities": []string{"painting"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, RegistrationVerifyOTP, message(t, rec))

	rec = env.do(t, http.MethodPost, "/auth/seller/login", map[string]string{"input": "painter", "password": "secret"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/seller/verify", map[string]string{"code": env.notifier.codes["p@x.com"], "email": "p@x.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/seller/login", map[string]string{"input": "p@x.com", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody[map[string]any](t, rec)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, models.StatusVerified, body["seller"].(map[string]any)["status"])
}

func TestUpdateSellerJSON(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedSeller(t, models.Seller{Email: "p@x.com", Username: "painter", Phone: "044"})

	rec := env.do(t, http.MethodPut, "/auth/seller/"+id, map[string]any{
		"companyName": "Maler AG", "activities": []string{"painting", "plastering"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := env.repos.Sellers.FindByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "Maler AG", got.CompanyName)
	assert.Equal(t, "044", got.Phone)
	assert.Equal(t, []string{"painting", "plastering"}, got.Activities)
}

func TestUpdateSellerMultipart(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedSeller(t, models.Seller{Email: "p@x.com", Username: "painter"})

	req := multipartRequest(t, "/auth/seller/"+id,
		map[string][]string{"companyName": {"Maler AG"}, "preference": {"Zurich", "Bern"}},
		[]formFile{
			{"companyLogo", "Logo.PNG", "logo-bytes"},
			{"companyPictures", "a.jpg", "a"},
			{"companyPictures", "b.jpg", "b"},
		})
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got, err := env.repos.Sellers.FindByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "Maler AG", got.CompanyName)
	assert.Equal(t, []string{"Zurich", "Bern"}, got.Preference)
	assert.True(t, strings.HasPrefix(got.CompanyLogo, "/uploads/"))
	assert.True(t, strings.HasSuffix(got.CompanyLogo, "-companyLogo.png"))
	assert.Len(t, got.CompanyPictures, 2)
	assert.Empty(t, got.CompanyCover)

	// stored files are served back
	rec = env.do(t, http.MethodGet, got.CompanyLogo, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logo-bytes", rec.Body.String())
}

func TestUpdateSellerRejectsTooManyFiles(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedSeller(t, models.Seller{Email: "p@x.com", Username: "painter"})

	req := multipartRequest(t, "/auth/seller/"+id, nil, []formFile{
		{"companyLogo", "a.png", "a"},
		{"companyLogo", "b.png", "b"},
	})
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	got, err := env.repos.Sellers.FindByID(t.Context(), id)
	require.NoError(t, err)
	assert.Empty(t, got.CompanyLogo)
}

func TestSellerImagesArePresigned(t *testing.T) {
	env := newTestEnv(t, withSigner(prefixSigner{}))
	id := env.seedSeller(t, models.Seller{
		Email: "p@x.com", Username: "painter",
		CompanyLogo:     "logo.png",
		CompanyCover:    "https://cdn.test/cover.png",
		CompanyPictures: []string{"a.jpg"},
	})

	rec := env.do(t, http.MethodGet, "/auth/seller/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[models.Seller](t, rec)
	assert.Equal(t, "https://signed.test/logo.png", got.CompanyLogo)
	assert.Equal(t, "https://cdn.test/cover.png", got.CompanyCover)
	assert.Equal(t, []string{"https://signed.test/a.jpg"}, got.CompanyPictures)

	stored, err := env.repos.Sellers.FindByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, "logo.png", stored.CompanyLogo)
	assert.Equal(t, []string{"a.jpg"}, stored.CompanyPictures)
}

func TestSellerStatusAndDelete(t *testing.T) {
	env := newTestEnv(t)
	id := env.seedSeller(t, models.Seller{Email: "p@x.com", Username: "painter", Status: models.StatusPending})

	rec := env.do(t, http.MethodPut, "/auth/seller/"+id+"/status", map[string]string{"status": "verified"})
	require.Equal(t, http.StatusOK, rec.Code)
	got, err := env.repos.Sellers.FindByID(t.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, got.Status)

	rec = env.do(t, http.MethodGet, "/auth/seller", nil)
	assert.Len(t, decodeBody[[]models.Seller](t, rec), 1)

	rec = env.do(t, http.MethodDelete, "/auth/seller/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/auth/seller/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
