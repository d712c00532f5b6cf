// Package api exposes the engine over HTTP for wallets and tooling.
package api

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"swaproute/chain"
	"swaproute/engine"
	"swaproute/execution"
	"swaproute/graph"
	"swaproute/swap"
	"swaproute/util"
)

type Server struct {
	engine  *engine.Engine
	journal *execution.Journal
	logger  *zerolog.Logger
}

func NewServer(e *engine.Engine, journal *execution.Journal, logger *zerolog.Logger) *Server {
	return &Server{
		engine:  e,
		journal: journal,
		logger:  logger,
	}
}

func (s *Server) RunWithContext(ctx context.Context, addr string) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/directions", s.getDirections)
	router.GET("/quote", s.getQuote)
	router.GET("/route", s.getRoute)
	router.GET("/fee", s.getFee)
	router.GET("/journal/settled", s.getJournalSettled)
	router.GET("/journal/failed", s.getJournalFailed)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful server shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) getDirections(c *gin.Context) {
	directions := s.engine.AvailableDirections()

	resp := make(map[string][]string, len(directions))
	for from, targets := range directions {
		list := make([]string, 0, len(targets))
		for _, to := range targets {
			list = append(list, to.String())
		}
		resp[from.String()] = list
	}

	c.JSON(http.StatusOK, gin.H{"directions": resp})
}

func (s *Server) getQuote(c *gin.Context) {
	args, ok := s.routeArgs(c)
	if !ok {
		return
	}

	quote, err := s.engine.Quote(c.Request.Context(), args, c.Query("slot"))
	if err != nil {
		s.routeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": gin.H{
		"direction":  quote.Args.Direction.String(),
		"amount_in":  quote.AmountIn().String(),
		"amount_out": quote.AmountOut().String(),
	}})
}

type hopResponse struct {
	Venue     string `json:"venue"`
	AssetIn   string `json:"asset_in"`
	AssetOut  string `json:"asset_out"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
}

func toRouteResponse(route *graph.Route) []hopResponse {
	hops := []hopResponse{}
	for _, item := range route.Items {
		hops = append(hops, hopResponse{
			Venue:     item.Edge.Venue(),
			AssetIn:   item.Edge.Origin().String(),
			AssetOut:  item.Edge.Destination().String(),
			AmountIn:  item.AmountIn(route.Direction).String(),
			AmountOut: item.AmountOut(route.Direction).String(),
		})
	}
	return hops
}

func (s *Server) getRoute(c *gin.Context) {
	args, ok := s.routeArgs(c)
	if !ok {
		return
	}

	route, err := s.engine.BuildRoute(c.Request.Context(), args, c.Query("slot"))
	if err != nil {
		s.routeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"route": gin.H{
		"direction":  route.Direction.String(),
		"amount_in":  route.AmountIn().String(),
		"amount_out": route.AmountOut().String(),
		"hops":       toRouteResponse(route),
	}})
}

type chargeResponse struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
	Payer  string `json:"payer,omitempty"`
}

type operationFeeResponse struct {
	Submission               chargeResponse   `json:"submission"`
	PostSubmissionByAccount  []chargeResponse `json:"post_submission_by_account,omitempty"`
	PostSubmissionFromAmount []chargeResponse `json:"post_submission_from_amount,omitempty"`
}

func (s *Server) getFee(c *gin.Context) {
	args, ok := s.routeArgs(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	route, err := s.engine.BuildRoute(ctx, args, c.Query("slot"))
	if err != nil {
		s.routeError(c, err)
		return
	}

	routeFee, err := s.engine.EstimateFee(ctx, route, args)
	if err != nil {
		s.routeError(c, err)
		return
	}

	operations := []operationFeeResponse{}
	for _, operationFee := range routeFee.Operations {
		resp := operationFeeResponse{
			Submission: chargeResponse{
				Asset:  operationFee.Submission.Asset.String(),
				Amount: operationFee.Submission.Amount.String(),
				Payer:  string(operationFee.Submission.Payer.Account),
			},
		}
		for _, charge := range operationFee.PostSubmissionByAccount {
			resp.PostSubmissionByAccount = append(resp.PostSubmissionByAccount, chargeResponse{
				Asset:  charge.Asset.String(),
				Amount: charge.Amount.String(),
				Payer:  string(charge.Payer.Account),
			})
		}
		for _, entry := range operationFee.PostSubmissionFromAmount {
			resp.PostSubmissionFromAmount = append(resp.PostSubmissionFromAmount, chargeResponse{
				Asset:  entry.Asset.String(),
				Amount: entry.Amount.String(),
			})
		}
		operations = append(operations, resp)
	}

	c.JSON(http.StatusOK, gin.H{"fee": gin.H{
		"fee_asset":                routeFee.FeeAsset.String(),
		"operations":               operations,
		"intermediate_in_asset_in": routeFee.IntermediateInAssetIn.String(),
		"initial_amount_in":        routeFee.InitialAmountIn(route.AmountIn()).String(),
	}})
}

func (s *Server) getJournalSettled(c *gin.Context) {
	s.journalList(c, s.journal.ListSettled)
}

func (s *Server) getJournalFailed(c *gin.Context) {
	s.journalList(c, s.journal.ListFailed)
}

func (s *Server) journalList(c *gin.Context, list func() ([]execution.Record, error)) {
	if s.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal disabled"})
		return
	}

	records, err := list()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read journal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

// routeArgs parses the shared quote/route/fee query parameters. On failure
// it writes the 400 response itself and returns ok=false.
func (s *Server) routeArgs(c *gin.Context) (engine.RouteArgs, bool) {
	assetIn, err := chain.ParseAssetID(c.Query("asset_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset_in, expected chain/id"})
		return engine.RouteArgs{}, false
	}
	assetOut, err := chain.ParseAssetID(c.Query("asset_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asset_out, expected chain/id"})
		return engine.RouteArgs{}, false
	}

	amount, ok := new(big.Int).SetString(c.Query("amount"), 10)
	if !ok || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount, expected positive integer"})
		return engine.RouteArgs{}, false
	}

	direction := swap.DirectionSell
	switch c.Query("direction") {
	case "", "sell":
	case "buy":
		direction = swap.DirectionBuy
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid direction, expected sell or buy"})
		return engine.RouteArgs{}, false
	}

	var feeAsset chain.AssetID
	if raw := c.Query("fee_asset"); raw != "" {
		feeAsset, err = chain.ParseAssetID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fee_asset, expected chain/id"})
			return engine.RouteArgs{}, false
		}
	}

	return engine.RouteArgs{
		AssetIn:   assetIn,
		AssetOut:  assetOut,
		Amount:    amount,
		Direction: direction,
		FeeAsset:  feeAsset,
	}, true
}

func (s *Server) routeError(c *gin.Context, err error) {
	var noRoute *graph.NoRouteError
	switch {
	case errors.As(err, &noRoute):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, util.ErrRequestSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, util.ErrFeeAssetUnsupported), errors.Is(err, util.ErrNoChain):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
