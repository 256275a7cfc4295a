package api

import (
	"errors"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/rustyeddy/marginpilot/journal"
	"github.com/rustyeddy/marginpilot/ocr"
	"github.com/rustyeddy/marginpilot/options"
	"github.com/rustyeddy/marginpilot/portfolio"
	"github.com/rustyeddy/marginpilot/quotes"
)

func (s *Server) getQuotes(c *gin.Context) {
	syms := quotes.Symbols(strings.Split(c.Query("symbols"), ","))
	if len(syms) == 0 {
		s.badRequest(c, "no symbols provided")
		return
	}

	prices, err := s.Quotes.Quotes(c.Request.Context(), syms)
	if err != nil && !errors.Is(err, quotes.ErrNoQuotes) {
		s.internalError(c, "Quotes", err)
		return
	}
	if prices == nil {
		prices = map[string]float64{}
	}
	c.JSON(http.StatusOK, prices)
}

type ocrRequest struct {
	Image string `json:"image"`
}

type ocrResponse struct {
	Positions []portfolio.OptionPosition `json:"positions"`
}

func (s *Server) postOCR(c *gin.Context) {
	var req ocrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "invalid json body")
		return
	}
	if s.Extractor == nil {
		s.fail(c, http.StatusInternalServerError, "ocr_unavailable", ocr.ErrNoAPIKey.Error())
		return
	}

	positions, err := s.Extractor.Extract(c.Request.Context(), req.Image)
	switch {
	case errors.Is(err, ocr.ErrNoImage):
		s.badRequest(c, "no image provided")
		return
	case errors.Is(err, ocr.ErrUnparseable):
		s.fail(c, http.StatusUnprocessableEntity, "unparseable", "could not parse response")
		return
	case errors.Is(err, ocr.ErrNoAPIKey):
		s.fail(c, http.StatusInternalServerError, "ocr_unavailable", err.Error())
		return
	case err != nil:
		s.internalError(c, "Extract", err)
		return
	}
	if positions == nil {
		positions = []portfolio.OptionPosition{}
	}
	c.JSON(http.StatusOK, ocrResponse{Positions: positions})
}

func (s *Server) getMargin(c *gin.Context) {
	c.JSON(http.StatusOK, s.Session.Status())
}

func (s *Server) getAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, s.Session.Alerts())
}

func (s *Server) getAnalysis(c *gin.Context) {
	c.JSON(http.StatusOK, s.Session.Analysis())
}

func (s *Server) getStress(c *gin.Context) {
	drop, ok := parseFloat(c.Query("drop"), 10, 0, 100)
	if !ok {
		s.badRequest(c, "drop must be a number between 0 and 100")
		return
	}
	symbol := portfolio.NormalizeSymbol(c.Query("symbol"))
	c.JSON(http.StatusOK, gin.H{
		"dropPercent": drop,
		"symbol":      symbol,
		"status":      s.Session.Stress(drop, symbol),
	})
}

type optionRow struct {
	portfolio.OptionPosition
	Leverage options.Leverage `json:"leverage"`
	Band     options.Band     `json:"band"`
}

func (s *Server) getOptionsSummary(c *gin.Context) {
	positions := s.Session.Options()
	rows := make([]optionRow, 0, len(positions))
	for _, p := range positions {
		lev := options.CalculateLeverage(p)
		rows = append(rows, optionRow{OptionPosition: p, Leverage: lev, Band: options.LeverageBand(lev.LeverageRatio)})
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":   options.Summarize(positions),
		"positions": rows,
	})
}

func (s *Server) getOptionsPnl(c *gin.Context) {
	def := options.DefaultPnlParams()
	rng, ok := parseFloat(c.Query("range"), def.RangePercent, 0, 100)
	if !ok {
		s.badRequest(c, "range must be a number between 0 and 100")
		return
	}
	steps, ok := parseInt(c.Query("steps"), def.Steps, 1, 1001)
	if !ok {
		s.badRequest(c, "steps must be an integer between 1 and 1001")
		return
	}

	points := s.Session.PnlCurve(options.PnlParams{RangePercent: rng, Steps: steps})
	if points == nil {
		points = []options.PnlPoint{}
	}
	c.JSON(http.StatusOK, points)
}

func (s *Server) getTradesSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.Session.DayTrades())
}

func (s *Server) getHistory(c *gin.Context) {
	days, ok := parseInt(c.Query("days"), 30, 1, 3650)
	if !ok {
		s.badRequest(c, "days must be an integer between 1 and 3650")
		return
	}
	rows, err := s.Session.History(c.Request.Context(), days)
	if err != nil {
		s.internalError(c, "History", err)
		return
	}
	if rows == nil {
		rows = []journal.Snapshot{}
	}
	c.JSON(http.StatusOK, rows)
}
