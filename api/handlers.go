package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"basket-share/models"
	"basket-share/realtime"
	"basket-share/services"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
)

// NewRouter builds the REST + websocket surface under /api.
func NewRouter(hub *realtime.Hub) http.Handler {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	s := r.PathPrefix("/api").Subrouter()
	s.Methods(http.MethodPost).Path("/baskets").HandlerFunc(createBasket)
	s.Methods(http.MethodPost).Path("/baskets/{code}/participants").HandlerFunc(joinBasket)
	s.Methods(http.MethodPost).Path("/baskets/{code}/items").HandlerFunc(addItem)
	s.Methods(http.MethodDelete).Path("/baskets/{code}/items/{item_id:[0-9]+}").HandlerFunc(deleteItem)
	s.Methods(http.MethodGet).Path("/baskets/{code}/items").HandlerFunc(listItems)
	s.Path("/ws").HandlerFunc(realtime.ServeWS(hub))
	return r
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		slog.Info("handled", "method", r.Method, "url", r.URL, "duration", m.Duration, "status", m.Code)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "err", err)
	}
}

// errorStatus maps the service taxonomy onto HTTP. The message is the
// sentinel's own text so wrapped storage detail never leaks to clients.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrBasketNotFound):
		return http.StatusNotFound, services.ErrBasketNotFound.Error()
	case errors.Is(err, services.ErrItemNotFound):
		return http.StatusNotFound, services.ErrItemNotFound.Error()
	case errors.Is(err, services.ErrNameRequired):
		return http.StatusBadRequest, services.ErrNameRequired.Error()
	case errors.Is(err, services.ErrBusy):
		return http.StatusServiceUnavailable, services.ErrBusy.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func createBasket(w http.ResponseWriter, r *http.Request) {
	b, err := services.CreateBasket(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"basket_id":   b.ID,
		"basket_code": b.Code,
	})
}

func joinBasket(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := services.JoinBasket(r.Context(), code, body.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%s joined the basket", body.Name),
	})
}

func addItem(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	var body struct {
		Product  string  `json:"product"`
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
		AddedBy  string  `json:"added_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if _, err := services.AddItem(r.Context(), code, body.Product, body.Price, body.Quantity, body.AddedBy); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item added to basket"})
}

func deleteItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	code := vars["code"]
	itemID, err := strconv.ParseInt(vars["item_id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": services.ErrItemNotFound.Error()})
		return
	}
	if err := services.RemoveItem(r.Context(), code, itemID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Item with ID %d deleted from basket %s", itemID, code),
	})
}

func listItems(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	items, err := services.ListItems(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"basket_code": code,
		"items":       items,
	})
}
