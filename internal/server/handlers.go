package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"StockScreener/internal/collector"
	"StockScreener/internal/model"
)

// SignalsView is the signals-only projection of an analysis.
type SignalsView struct {
	RunID      string               `json:"run_id"`
	Symbol     string               `json:"symbol"`
	Start      time.Time            `json:"start"`
	End        time.Time            `json:"end"`
	Signals    []model.IndicatorRow `json:"signals"`
	Metrics    model.MetricsSummary `json:"metrics"`
	Assessment model.Assessment     `json:"assessment"`
	Warnings   []model.Warning      `json:"warnings,omitempty"`
}

func (s *Server) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (s *Server) tickers(c *gin.Context) {
	list, err := s.Collector.Tickers(c.Request.Context())
	if err != nil {
		log.Printf("[ERROR] tickers: %v", err)
		c.JSON(statusFor(err), responseError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, responseOk(&list))
}

// parseRequest reads :symbol and the optional start/end query dates.
// Missing dates fall back to the configured lookback ending today.
func (s *Server) parseRequest(c *gin.Context) (collector.Request, error) {
	req := s.Collector.DefaultRequest(c.Param("symbol"))
	endSet := false
	if v := c.Query("end"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return req, fmt.Errorf("%w: end %q is not YYYY-MM-DD", model.ErrInvalidRequest, v)
		}
		req.End, endSet = t, true
	}
	if v := c.Query("start"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return req, fmt.Errorf("%w: start %q is not YYYY-MM-DD", model.ErrInvalidRequest, v)
		}
		req.Start = t
	} else if endSet {
		req.Start = req.End.AddDate(-s.Collector.Engine.Config().LookbackYears, 0, 0)
	}
	return req, nil
}

func (s *Server) runAnalysis(c *gin.Context) (*model.Analysis, bool) {
	req, err := s.parseRequest(c)
	if err == nil {
		var a *model.Analysis
		if a, err = s.Collector.Analyze(c.Request.Context(), req); err == nil {
			if err := s.Recorder.RecordAnalysis(a); err != nil {
				log.Printf("[ERROR] record analysis %s: %v", a.Symbol, err)
			}
			return a, true
		}
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] analysis %s: %v", c.Param("symbol"), err)
	}
	c.JSON(status, responseError(err.Error()))
	return nil, false
}

func (s *Server) analysis(c *gin.Context) {
	a, ok := s.runAnalysis(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, responseOk(a))
}

func (s *Server) analysisSignals(c *gin.Context) {
	a, ok := s.runAnalysis(c)
	if !ok {
		return
	}
	view := SignalsView{
		RunID:      a.RunID,
		Symbol:     a.Symbol,
		Start:      a.Start,
		End:        a.End,
		Signals:    a.SignalRows(),
		Metrics:    a.Metrics,
		Assessment: a.Assessment,
		Warnings:   a.Warnings,
	}
	if view.Signals == nil {
		view.Signals = []model.IndicatorRow{}
	}
	c.JSON(http.StatusOK, responseOk(&view))
}

func (s *Server) recentSignals(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			c.JSON(http.StatusBadRequest, responseError("limit must be an integer in [1,500]"))
			return
		}
		limit = n
	}
	events, err := s.Recorder.RecentSignals(limit)
	if err != nil {
		log.Printf("[ERROR] recent signals: %v", err)
		c.JSON(http.StatusInternalServerError, responseError(err.Error()))
		return
	}
	if events == nil {
		events = []model.SignalEvent{}
	}
	c.JSON(http.StatusOK, responseOk(&events))
}
