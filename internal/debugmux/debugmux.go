// Package debugmux builds cmd/decofd's optional diagnostic HTTP
// surface: dictionary size/connection gauges, the current log level,
// and a Prometheus /metrics endpoint. It is not part of any DeCoF
// protocol -- clients never reach it through the object dictionary --
// it exists purely for operators.
//
// Grounded on cc-backend's cmd/cc-backend/main.go router construction
// (gorilla/mux root router, gorilla/handlers middleware stack, a
// sync.WaitGroup-owned http.Server bound to its own net.Listener),
// narrowed from cc-backend's full web application down to the handful
// of read-only routes a headless daemon's debug mux needs.
package debugmux

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/decof-project/decofd/internal/clipubsub"
	"github.com/decof-project/decofd/internal/dictionary"
	"github.com/decof-project/decofd/pkg/log"
)

// New builds the /debug mux: /debug/stats (dictionary size and
// connection count as JSON), /debug/loglevel (GET current, PUT to
// change it), and /metrics. /metrics is served off a registry private
// to this mux instance (rather than prometheus.DefaultRegisterer) so
// that building more than one -- as happens across this package's own
// tests -- never collides on duplicate metric names; it still includes
// the process/Go runtime collectors cmd/decofd wants for operators.
func New(dict *dictionary.Dictionary) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "decof_objects",
		Help: "Number of objects currently in the dictionary tree.",
	}, func() float64 { return float64(dict.CountObjects()) }))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "decof_connected_contexts",
		Help: "Number of client contexts currently connected across all protocols.",
	}, func() float64 { return float64(len(dict.Contexts())) }))
	reg.MustRegister(clipubsub.NotificationsDelivered)

	r := mux.NewRouter()
	r.HandleFunc("/debug/stats", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"objects":           dict.CountObjects(),
			"connectedContexts": len(dict.Contexts()),
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/debug/loglevel", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			io.WriteString(w, log.Level())
		case http.MethodPut:
			body, err := io.ReadAll(req.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			log.SetLogLevel(strings.TrimSpace(string(body)))
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}).Methods(http.MethodGet, http.MethodPut)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(false)))
	return handlers.CustomLoggingHandler(io.Discard, r, func(_ io.Writer, params handlers.LogFormatterParams) {
		log.Debug("debugmux: ", params.Request.Method, " ", params.URL.RequestURI(), " (",
			params.StatusCode, ", ", time.Since(params.TimeStamp).Milliseconds(), "ms)")
	})
}
