package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	nativecommon "synthvault/native/common"
	"synthvault/native/synth"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError maps engine sentinels onto HTTP statuses and records the
// failure classification on the engine metrics.
func (s *Server) writeEngineError(w http.ResponseWriter, operation, asset string, err error) {
	s.engMtx.ObserveOperation(operation, classifyOutcome(err))
	switch {
	case errors.Is(err, synth.ErrStalePrice):
		s.engMtx.ObserveStaleQuote(asset)
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, nativecommon.ErrModulePaused):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, synth.ErrHealthFactorBroken):
		s.engMtx.ObserveHealthRejection()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, synth.ErrHealthFactorOk),
		errors.Is(err, synth.ErrHealthFactorNotImproved):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, synth.ErrInvalidAmount),
		errors.Is(err, synth.ErrAssetNotRegistered):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, synth.ErrInsufficientCollateral),
		errors.Is(err, synth.ErrInsufficientDebt):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, synth.ErrReentrantCall):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("engine operation failed", "operation", operation, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func classifyOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, synth.ErrStalePrice):
		return "stale_price"
	case errors.Is(err, synth.ErrHealthFactorBroken):
		return "health_rejected"
	case errors.Is(err, synth.ErrHealthFactorOk):
		return "not_liquidatable"
	case errors.Is(err, synth.ErrHealthFactorNotImproved):
		return "no_improvement"
	case errors.Is(err, nativecommon.ErrModulePaused):
		return "paused"
	default:
		return "error"
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return false
	}
	return true
}

func parseAddress(w http.ResponseWriter, field, raw string) (common.Address, bool) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: invalid address", field))
		return common.Address{}, false
	}
	return common.HexToAddress(trimmed), true
}

func parseAmount(w http.ResponseWriter, field, raw string) (*big.Int, bool) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: invalid decimal amount", field))
		return nil, false
	}
	return value, true
}

type depositRequest struct {
	User     string `json:"user"`
	Asset    string `json:"asset"`
	Quantity string `json:"quantity"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	user, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	quantity, ok := parseAmount(w, "quantity", req.Quantity)
	if !ok {
		return
	}
	if err := s.engine.Deposit(user, req.Asset, quantity); err != nil {
		s.writeEngineError(w, "deposit", req.Asset, err)
		return
	}
	s.engMtx.ObserveOperation("deposit", "ok")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type mintRequest struct {
	User   string `json:"user"`
	Amount string `json:"amount"`
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	user, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := s.engine.Mint(user, amount); err != nil {
		s.writeEngineError(w, "mint", "", err)
		return
	}
	s.engMtx.ObserveOperation("mint", "ok")
	s.publishOpenDebt()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type redeemRequest struct {
	User      string `json:"user"`
	Recipient string `json:"recipient"`
	Asset     string `json:"asset"`
	Quantity  string `json:"quantity"`
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	user, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	recipient := user
	if strings.TrimSpace(req.Recipient) != "" {
		if recipient, ok = parseAddress(w, "recipient", req.Recipient); !ok {
			return
		}
	}
	quantity, ok := parseAmount(w, "quantity", req.Quantity)
	if !ok {
		return
	}
	if err := s.engine.Redeem(user, recipient, req.Asset, quantity); err != nil {
		s.writeEngineError(w, "redeem", req.Asset, err)
		return
	}
	s.engMtx.ObserveOperation("redeem", "ok")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type burnRequest struct {
	Payer      string `json:"payer"`
	OnBehalfOf string `json:"onBehalfOf"`
	Amount     string `json:"amount"`
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	payer, ok := parseAddress(w, "payer", req.Payer)
	if !ok {
		return
	}
	onBehalfOf := payer
	if strings.TrimSpace(req.OnBehalfOf) != "" {
		if onBehalfOf, ok = parseAddress(w, "onBehalfOf", req.OnBehalfOf); !ok {
			return
		}
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := s.engine.Burn(payer, onBehalfOf, amount); err != nil {
		s.writeEngineError(w, "burn", "", err)
		return
	}
	s.engMtx.ObserveOperation("burn", "ok")
	s.publishOpenDebt()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type depositAndMintRequest struct {
	User     string `json:"user"`
	Asset    string `json:"asset"`
	Quantity string `json:"quantity"`
	Amount   string `json:"amount"`
}

func (s *Server) handleDepositAndMint(w http.ResponseWriter, r *http.Request) {
	var req depositAndMintRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	user, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	quantity, ok := parseAmount(w, "quantity", req.Quantity)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := s.engine.DepositAndMint(user, req.Asset, quantity, amount); err != nil {
		s.writeEngineError(w, "deposit_and_mint", req.Asset, err)
		return
	}
	s.engMtx.ObserveOperation("deposit_and_mint", "ok")
	s.publishOpenDebt()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type redeemForBurnRequest struct {
	User     string `json:"user"`
	Asset    string `json:"asset"`
	Quantity string `json:"quantity"`
	Amount   string `json:"amount"`
}

func (s *Server) handleRedeemForBurn(w http.ResponseWriter, r *http.Request) {
	var req redeemForBurnRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	user, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	quantity, ok := parseAmount(w, "quantity", req.Quantity)
	if !ok {
		return
	}
	amount, ok := parseAmount(w, "amount", req.Amount)
	if !ok {
		return
	}
	if err := s.engine.RedeemForBurn(user, req.Asset, quantity, amount); err != nil {
		s.writeEngineError(w, "redeem_for_burn", req.Asset, err)
		return
	}
	s.engMtx.ObserveOperation("redeem_for_burn", "ok")
	s.publishOpenDebt()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type liquidateRequest struct {
	Liquidator  string `json:"liquidator"`
	User        string `json:"user"`
	Asset       string `json:"asset"`
	DebtToCover string `json:"debtToCover"`
}

type liquidateResponse struct {
	Seized string `json:"seized"`
}

func (s *Server) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	var req liquidateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	liquidator, ok := parseAddress(w, "liquidator", req.Liquidator)
	if !ok {
		return
	}
	user, ok := parseAddress(w, "user", req.User)
	if !ok {
		return
	}
	debtToCover, ok := parseAmount(w, "debtToCover", req.DebtToCover)
	if !ok {
		return
	}
	seized, err := s.engine.Liquidate(liquidator, user, req.Asset, debtToCover)
	if err != nil {
		s.writeEngineError(w, "liquidate", req.Asset, err)
		return
	}
	s.engMtx.ObserveOperation("liquidate", "ok")
	s.publishOpenDebt()
	seizedFloat, _ := new(big.Float).SetInt(seized).Float64()
	s.engMtx.ObserveLiquidation(req.Asset, seizedFloat)
	writeJSON(w, http.StatusOK, liquidateResponse{Seized: seized.String()})
}

type positionResponse struct {
	Address         string            `json:"address"`
	Debt            string            `json:"debt"`
	CollateralValue string            `json:"collateralValue"`
	HealthFactor    string            `json:"healthFactor"`
	Collateral      map[string]string `json:"collateral"`
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, "address", chi.URLParam(r, "address"))
	if !ok {
		return
	}
	snapshot, err := s.engine.AccountSnapshot(addr)
	if err != nil {
		s.writeEngineError(w, "position_view", "", err)
		return
	}
	ratio, err := s.engine.HealthFactor(addr)
	if err != nil {
		s.writeEngineError(w, "position_view", "", err)
		return
	}
	collateral := make(map[string]string)
	for _, asset := range s.engine.RegisteredAssets() {
		balance, err := s.engine.CollateralBalance(addr, asset)
		if err != nil {
			s.writeEngineError(w, "position_view", asset, err)
			return
		}
		if balance.Sign() > 0 {
			collateral[asset] = balance.String()
		}
	}
	writeJSON(w, http.StatusOK, positionResponse{
		Address:         addr.Hex(),
		Debt:            snapshot.Debt.String(),
		CollateralValue: snapshot.CollateralValue.String(),
		HealthFactor:    ratio.String(),
		Collateral:      collateral,
	})
}

type healthResponse struct {
	Address      string `json:"address"`
	HealthFactor string `json:"healthFactor"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	addr, ok := parseAddress(w, "address", chi.URLParam(r, "address"))
	if !ok {
		return
	}
	ratio, err := s.engine.HealthFactor(addr)
	if err != nil {
		s.writeEngineError(w, "health_view", "", err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Address:      addr.Hex(),
		HealthFactor: ratio.String(),
	})
}

type valueResponse struct {
	Asset    string `json:"asset"`
	Quantity string `json:"quantity"`
	USD      string `json:"usd"`
}

func (s *Server) handleValue(w http.ResponseWriter, r *http.Request) {
	asset := strings.TrimSpace(r.URL.Query().Get("asset"))
	quantity, ok := parseAmount(w, "quantity", r.URL.Query().Get("quantity"))
	if !ok {
		return
	}
	usd, err := s.engine.USDValue(asset, quantity)
	if err != nil {
		s.writeEngineError(w, "value_view", asset, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{
		Asset:    strings.ToUpper(asset),
		Quantity: quantity.String(),
		USD:      usd.String(),
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	asset := strings.TrimSpace(r.URL.Query().Get("asset"))
	usd, ok := parseAmount(w, "usd", r.URL.Query().Get("usd"))
	if !ok {
		return
	}
	quantity, err := s.engine.AssetQuantityFromUSD(asset, usd)
	if err != nil {
		s.writeEngineError(w, "convert_view", asset, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{
		Asset:    strings.ToUpper(asset),
		Quantity: quantity.String(),
		USD:      usd.String(),
	})
}

type assetsResponse struct {
	Assets      []string `json:"assets"`
	MaxQuoteAge string   `json:"maxQuoteAge"`
}

func (s *Server) handleAssets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, assetsResponse{
		Assets:      s.engine.RegisteredAssets(),
		MaxQuoteAge: s.engine.Oracle().MaxAge().String(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotImplemented, "audit storage not configured")
		return
	}
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit: invalid value")
			return
		}
		limit = parsed
	}
	eventType := strings.TrimSpace(r.URL.Query().Get("type"))
	var (
		records any
		err     error
	)
	if eventType != "" {
		records, err = s.store.ListByType(r.Context(), eventType, limit)
	} else {
		records, err = s.store.ListRecent(r.Context(), limit)
	}
	if err != nil {
		s.logger.Error("list audit events", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}
