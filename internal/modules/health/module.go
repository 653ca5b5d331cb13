package health

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"imb_bot/internal/modules/config"
	state "imb_bot/internal/modules/state/service"

	"github.com/bytedance/sonic"
)

func NewMux(st *state.State) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: вселенная собрана и движок не остановлен
		if !st.Running() || st.UniverseSize() == 0 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// полезный JSON для отладки
		resp := map[string]any{
			"running":     st.Running(),
			"scanning":    st.Scanning(),
			"universe":    st.UniverseSize(),
			"connections": st.Connections(),
			"signals":     st.SignalsSent(),
			"malformed":   st.Malformed(),
			"uptimeSec":   int64(st.Uptime().Seconds()),
			"lastTickUnix": func() int64 {
				t := st.LastTick()
				if t.IsZero() {
					return 0
				}
				return t.Unix()
			}(),
		}
		b, err := sonic.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	})

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, mux *http.ServeMux) {
	srv := &http.Server{
		Addr:              cfg.Health.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Health.Addr)
			if err != nil {
				return err
			}
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
