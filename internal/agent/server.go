package agent

import (
	"encoding/json"
	"log/slog"
	"net/http"

	otxhttp "github.com/arloliu/otx/http"

	"github.com/arloliu/turbsim/internal/edge"
)

// NewHandler builds the HTTP surface of the diagnosis service. The analysis
// route is wrapped with request tracing.
func NewHandler(svc *Service, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/v1/analyze_trigger",
		otxhttp.Handler(analyzeHandler(svc, logger), "agent.analyze_trigger"))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

func analyzeHandler(svc *Service, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var trigger edge.Trigger
		if err := json.NewDecoder(r.Body).Decode(&trigger); err != nil {
			logger.Warn("rejected malformed trigger payload", "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"status":  "error",
				"message": "invalid trigger payload",
			})

			return
		}

		if trigger.AssetID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"status":  "error",
				"message": "trigger is missing asset_id",
			})

			return
		}

		result := svc.Analyze(r.Context(), trigger)

		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "success",
			"message": "analysis processed for " + trigger.AssetID,
			"result":  result,
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
