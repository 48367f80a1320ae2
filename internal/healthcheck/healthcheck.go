package healthcheck

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Healthcheck that starts http server. It shuts down when ctx is cancelled.
func StartHealthcheck(ctx context.Context, cfg config.AppConfig, log *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           Router(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("healthcheck server error", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("healthcheck listening", zap.String("addr", srv.Addr))
	return srv
}

// Router serves /healthz for liveness and /metrics for Prometheus.
func Router(cfg config.AppConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"app":     cfg.APPName,
			"version": cfg.Version,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	return r
}
