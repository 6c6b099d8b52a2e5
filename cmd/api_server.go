package cmd

import (
	"fmt"
	"net/http"

	"github.com/Depado/ginprom"
	"github.com/aurowora/compress"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"

	"github.com/rm-hull/ev-partner-gateway/internal"
	"github.com/rm-hull/ev-partner-gateway/internal/routes"
)

const GatewayPath = "/api/partner"

func ApiServer(port int, debug bool) error {

	gw, err := bootstrap()
	if err != nil {
		return err
	}
	defer gw.Close()

	c, err := internal.StartCron(gw.tokens, gw.settings.TokenWarmSchedule)
	if err != nil {
		return fmt.Errorf("failed to start CRON jobs: %w", err)
	}
	if c != nil {
		defer c.Stop()
	}

	r := gin.New()

	prometheus := ginprom.New(
		ginprom.Engine(r),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		prometheus.Instrument(),
		compress.Compress(),
	)

	if debug {
		log.Warn("pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err = healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{
		gw.tokens.Check(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize healthcheck: %v", err)
	}

	gateway := r.Group(GatewayPath, routes.CORS(), routes.RequestID())
	gateway.Any("", routes.Gateway(gw.dispatcher))

	addr := fmt.Sprintf(":%d", port)
	log.Infof("Starting HTTP API Server on port %d...", port)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP API Server failed to start on port %d: %v", port, err)
	}

	return nil
}
