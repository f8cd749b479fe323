package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/mihretdev/cardarena-services/internal/arenasvc/service"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	cards     *service.CardService
	players   *service.PlayerService
}

func NewHandler(cards *service.CardService, players *service.PlayerService) *Handler {
	return &Handler{cards: cards, players: players}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "arena service is running at port " + os.Getenv("ARENA_SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode health response: %v", err)
	}
}

// CatalogHandler returns every published card.
func (h *Handler) CatalogHandler(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.ListCatalog(r.Context())
	if err != nil {
		log.Errorf("Error [CardService.ListCatalog] %s", err)
		h.CreateResponse(w, Response{Code: 500, Error: "unable to load catalog"})
		return
	}
	h.CreateResponse(w, Response{Code: 200, Data: cards})
}

func (h *Handler) CardHandler(w http.ResponseWriter, r *http.Request) {
	cardId, err := strconv.ParseInt(chi.URLParam(r, "cardId"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: 400, Error: "invalid card id"})
		return
	}

	card, err := h.cards.GetCard(r.Context(), cardId)
	if err != nil {
		h.CreateResponse(w, Response{Code: 404, Error: "card not found"})
		return
	}
	h.CreateResponse(w, Response{Code: 200, Data: card})
}

// LeaderboardHandler ranks players by the requested stat, battles won
// when no stat is given.
func (h *Handler) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	stat := r.URL.Query().Get("stat")
	if stat == "" {
		stat = "battles_won"
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	players, err := h.players.Leaderboard(r.Context(), stat, limit)
	if err != nil {
		h.CreateResponse(w, Response{Code: 400, Error: "invalid leaderboard stat"})
		return
	}
	h.CreateResponse(w, Response{Code: 200, Data: players})
}
