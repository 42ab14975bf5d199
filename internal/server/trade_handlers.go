package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Oliverpt-1/Thymos/internal/models"
)

// tradePayload is the journal entry shape accepted from the UI
type tradePayload struct {
	Ticker     string   `json:"ticker" validate:"required,max=12"`
	EntryPrice float64  `json:"entry_price" validate:"gte=0"`
	ExitPrice  *float64 `json:"exit_price" validate:"omitempty,gte=0"`
	Size       float64  `json:"size" validate:"required,gt=0"`
	Confidence int      `json:"confidence" validate:"required,min=1,max=5"`
	SetupTag   string   `json:"setup_tag"`
	EmotionTag string   `json:"emotion_tag"`
	Notes      string   `json:"notes"`
	TradeDate  string   `json:"trade_date" validate:"required,datetime=2006-01-02"`
}

// handleTrades serves the collection endpoint: list and create
func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	const route = "/api/v1/trades"

	if applyCORS(w, r, "GET, POST, OPTIONS") {
		return
	}

	owner, err := s.authenticate(r)
	if err != nil {
		s.writeDomainError(w, route, models.ErrUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		trades, err := s.repos.Trade.GetByOwner(r.Context(), owner)
		if err != nil {
			s.writeDomainError(w, route, err)
			return
		}
		if trades == nil {
			trades = []*models.Trade{}
		}
		s.writeJSON(w, route, http.StatusOK, map[string]interface{}{"trades": trades})

	case http.MethodPost:
		trade, ok := s.decodeTrade(w, r, route)
		if !ok {
			return
		}
		trade.ID = uuid.New()
		trade.Owner = owner

		if err := s.repos.Trade.Create(r.Context(), trade); err != nil {
			s.writeDomainError(w, route, err)
			return
		}
		s.writeJSON(w, route, http.StatusCreated, map[string]interface{}{"trade": trade})

	default:
		s.writeError(w, route, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleTradeByID serves the item endpoint: fetch, update, delete
func (s *Server) handleTradeByID(w http.ResponseWriter, r *http.Request) {
	const route = "/api/v1/trades/{id}"

	if applyCORS(w, r, "GET, PUT, DELETE, OPTIONS") {
		return
	}

	owner, err := s.authenticate(r)
	if err != nil {
		s.writeDomainError(w, route, models.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/api/v1/trades/"))
	if err != nil {
		s.writeError(w, route, http.StatusBadRequest, "Invalid trade ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		trade, err := s.repos.Trade.GetByID(r.Context(), owner, id)
		if err != nil {
			s.writeDomainError(w, route, err)
			return
		}
		s.writeJSON(w, route, http.StatusOK, map[string]interface{}{"trade": trade})

	case http.MethodPut:
		trade, ok := s.decodeTrade(w, r, route)
		if !ok {
			return
		}
		trade.ID = id
		trade.Owner = owner

		if err := s.repos.Trade.Update(r.Context(), trade); err != nil {
			s.writeDomainError(w, route, err)
			return
		}
		s.writeJSON(w, route, http.StatusOK, map[string]interface{}{"trade": trade})

	case http.MethodDelete:
		if err := s.repos.Trade.Delete(r.Context(), owner, id); err != nil {
			s.writeDomainError(w, route, err)
			return
		}
		s.writeJSON(w, route, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		s.writeError(w, route, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// decodeTrade parses and validates a trade payload, answering the request
// itself on failure
func (s *Server) decodeTrade(w http.ResponseWriter, r *http.Request, route string) (*models.Trade, bool) {
	var payload tradePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, route, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	if err := s.validate.Struct(payload); err != nil {
		s.writeError(w, route, http.StatusBadRequest, "Invalid trade: "+err.Error())
		return nil, false
	}

	tradeDate, err := time.Parse("2006-01-02", payload.TradeDate)
	if err != nil {
		s.writeError(w, route, http.StatusBadRequest, "Invalid trade date")
		return nil, false
	}

	return &models.Trade{
		Ticker:     strings.ToUpper(strings.TrimSpace(payload.Ticker)),
		EntryPrice: payload.EntryPrice,
		ExitPrice:  payload.ExitPrice,
		Size:       payload.Size,
		Confidence: payload.Confidence,
		SetupTag:   payload.SetupTag,
		EmotionTag: payload.EmotionTag,
		Notes:      payload.Notes,
		TradeDate:  tradeDate,
	}, true
}
