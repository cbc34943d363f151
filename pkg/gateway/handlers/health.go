package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/faheemlive/backend/pkg/gateway/config"
)

type HealthHandler struct {
	Config config.Config
}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type healthResp struct {
		Status string `json:"status"`
		Model  string `json:"model"`
		Stub   bool   `json:"stub"`
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResp{
		Status: "ok",
		Model:  h.Config.GeminiModel,
		Stub:   h.Config.GeminiStub,
	})
}
