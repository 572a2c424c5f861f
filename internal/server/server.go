// Package server exposes the screening pipeline as a JSON HTTP API.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"StockScreener/internal/collector"
	"StockScreener/internal/recorder"
)

const DefaultAddr = ":8080"

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Collector    *collector.Collector
	Recorder     recorder.Recorder
	Gatherer     prometheus.Gatherer
	AllowOrigins []string
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.AllowOrigins
	}
	engine.Use(cors.New(corsCfg))

	api := engine.Group("/api")
	api.GET("/ping", s.ping)
	api.GET("/tickers", s.tickers)
	api.GET("/analysis/:symbol", s.analysis)
	api.GET("/analysis/:symbol/signals", s.analysisSignals)
	api.GET("/signals/recent", s.recentSignals)

	if s.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}
	return engine
}

// NewHTTPServer wraps the router in an http.Server listening on addr.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &http.Server{
		Addr:           addr,
		Handler:        s.Router(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}
