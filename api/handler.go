package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/suisse-offerten/marketplace-api/store"
	"github.com/suisse-offerten/marketplace-api/utils"
)

// HomeHandler answers the authenticated root route.
func (s *Server) HomeHandler(w http.ResponseWriter, r *http.Request) {
	logs := utils.NewRequestLog(s.logger, "[Home API]")
	defer logs.Flush()

	if userID, err := GetUserIDFromContext(r.Context()); err == nil {
		logs.Addf("Requested by %s", userID)
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": HomeRoute})
}

func (s *Server) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondError(w, nil, RouteNotFound, http.StatusNotFound, nil)
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return invalidRequest(err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return invalidRequest(err)
	}
	return nil
}

// pathID returns the {id} path value if it is a valid object id.
func pathID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return "", invalidRequest(err)
	}
	return id, nil
}

type pagination struct {
	page  int
	limit int
}

// parsePagination reads ?page and ?limit, falling back to the defaults on
// missing or invalid values.
func parsePagination(r *http.Request, defaultLimit int) pagination {
	p := pagination{page: 1, limit: defaultLimit}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.limit = v
	}
	return p
}

func (p pagination) store() store.Page {
	return store.Page{Skip: int64((p.page - 1) * p.limit), Limit: int64(p.limit)}
}

func (p pagination) totalPages(total int64) int {
	return int(math.Ceil(float64(total) / float64(p.limit)))
}

type messageResponse struct {
	Message string `json:"message"`
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	utils.RespondJSON(w, status, messageResponse{Message: message})
}
