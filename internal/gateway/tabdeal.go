package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"gridbot/internal/models"
	"gridbot/pkg/ratelimit"
)

const (
	tabdealBaseURL    = "https://api1.tabdeal.org"
	tabdealAPIPrefix  = "/r/api/v1"
	tabdealRecvWindow = "5000"
)

// Коды ошибок Tabdeal, означающие проблему с авторизацией
const (
	tabdealCodeInvalidKey       = "-2014"
	tabdealCodeInvalidSignature = "-1022"
)

// jsonAPI - быстрый JSON кодек для разбора ответов биржи
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Tabdeal реализует ExchangeGateway для спотового REST API Tabdeal
//
// Wire-конвенции совместимы с Binance: form-encoded параметры,
// HMAC-SHA256 подпись строки запроса, ключ в заголовке X-MBX-APIKEY.
type Tabdeal struct {
	apiKey    string
	secretKey string

	baseURL    string // переопределяется в тестах
	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
}

// NewTabdeal создаёт шлюз Tabdeal с указанными ключами
//
// Использует общий HTTP клиент с connection pooling. Лимит запросов
// соответствует документации биржи: 10 req/sec с burst 20.
func NewTabdeal(apiKey, apiSecret string) *Tabdeal {
	return &Tabdeal{
		apiKey:     apiKey,
		secretKey:  apiSecret,
		baseURL:    tabdealBaseURL,
		httpClient: GetGlobalHTTPClient().GetClient(),
		limiter:    ratelimit.NewRateLimiter(10, 20),
	}
}

// Provider возвращает провайдера шлюза
func (t *Tabdeal) Provider() models.Provider {
	return models.ProviderTabdeal
}

// sign создаёт HMAC-SHA256 подпись строки запроса
func (t *Tabdeal) sign(query string) string {
	h := hmac.New(sha256.New, []byte(t.secretKey))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// doRequest выполняет HTTP запрос к API Tabdeal
//
// Для подписанных запросов добавляет timestamp, recvWindow и signature.
// Ответ с ненулевым кодом ошибки возвращается как *APIError.
func (t *Tabdeal) doRequest(ctx context.Context, method, endpoint string, params url.Values, signed bool) ([]byte, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if params == nil {
		params = url.Values{}
	}

	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", tabdealRecvWindow)
		params.Set("signature", t.sign(params.Encode()))
	}

	var reqURL string
	var body io.Reader

	query := params.Encode()
	if method == http.MethodGet {
		reqURL = t.baseURL + tabdealAPIPrefix + endpoint
		if query != "" {
			reqURL += "?" + query
		}
	} else {
		reqURL = t.baseURL + tabdealAPIPrefix + endpoint
		body = strings.NewReader(query)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signed {
		req.Header.Set("X-MBX-APIKEY", t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		// Тело ошибки: {"code": -1013, "msg": "Filter failure: MIN_NOTIONAL"}
		var apiErr struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}
		if err := jsonAPI.Unmarshal(respBody, &apiErr); err != nil || apiErr.Msg == "" {
			return nil, &APIError{
				Provider: models.ProviderTabdeal,
				Code:     strconv.Itoa(resp.StatusCode),
				Message:  http.StatusText(resp.StatusCode),
			}
		}
		return nil, &APIError{
			Provider: models.ProviderTabdeal,
			Code:     strconv.Itoa(apiErr.Code),
			Message:  apiErr.Msg,
		}
	}

	return respBody, nil
}

// FetchMarkets возвращает листинг торговых пар биржи
func (t *Tabdeal) FetchMarkets(ctx context.Context) ([]MarketInfo, error) {
	body, err := t.doRequest(ctx, http.MethodGet, "/exchangeInfo", nil, false)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Symbols []struct {
			Symbol     string `json:"symbol"`
			BaseAsset  string `json:"baseAsset"`
			QuoteAsset string `json:"quoteAsset"`
		} `json:"symbols"`
	}
	if err := jsonAPI.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	markets := make([]MarketInfo, 0, len(resp.Symbols))
	for _, s := range resp.Symbols {
		if s.BaseAsset == "" || s.QuoteAsset == "" {
			continue
		}
		markets = append(markets, MarketInfo{
			BaseSymbol:  s.BaseAsset,
			QuoteSymbol: s.QuoteAsset,
		})
	}

	return markets, nil
}

// SubmitOrder отправляет лимитный ордер
//
// Любая ошибка - авторизация, отклонение параметров, сеть -
// возвращается как *SubmissionError без внутренних retry.
func (t *Tabdeal) SubmitOrder(ctx context.Context, req OrderRequest) (int64, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", req.Side)
	params.Set("type", "LIMIT")
	params.Set("timeInForce", "GTC")
	params.Set("quantity", req.Amount.String())
	params.Set("price", req.Price.String())

	body, err := t.doRequest(ctx, http.MethodPost, "/order", params, true)
	if err != nil {
		return 0, t.classifySubmitError(err)
	}

	var resp struct {
		OrderID int64 `json:"orderId"`
	}
	if err := jsonAPI.Unmarshal(body, &resp); err != nil {
		return 0, &SubmissionError{
			Provider: models.ProviderTabdeal,
			Reason:   SubmitReasonNetwork,
			Message:  "malformed submit response: " + err.Error(),
			Err:      err,
		}
	}

	if resp.OrderID == 0 {
		return 0, &SubmissionError{
			Provider: models.ProviderTabdeal,
			Reason:   SubmitReasonRejected,
			Message:  "submit response contains no order id",
		}
	}

	return resp.OrderID, nil
}

// FetchOrderStatus возвращает текущий статус ордера на бирже
//
// Ошибка запроса не маскируется под статус: неуспешный fetch и
// успешно полученный, но нераспознанный статус - разные ситуации
// (вторую в IDLE переводит state machine, не шлюз).
func (t *Tabdeal) FetchOrderStatus(ctx context.Context, symbol string, remoteID int64) (RemoteStatus, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("orderId", strconv.FormatInt(remoteID, 10))

	body, err := t.doRequest(ctx, http.MethodGet, "/order", params, true)
	if err != nil {
		return "", fmt.Errorf("tabdeal order status: %w", err)
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := jsonAPI.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("tabdeal order status: %w", err)
	}

	return RemoteStatus(resp.Status), nil
}

// classifySubmitError переводит ошибку запроса в *SubmissionError
func (t *Tabdeal) classifySubmitError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		reason := SubmitReasonRejected
		if apiErr.Code == tabdealCodeInvalidKey || apiErr.Code == tabdealCodeInvalidSignature || apiErr.Code == "401" {
			reason = SubmitReasonAuth
		}
		return &SubmissionError{
			Provider: models.ProviderTabdeal,
			Reason:   reason,
			Code:     apiErr.Code,
			Message:  apiErr.Message,
			Err:      err,
		}
	}

	return &SubmissionError{
		Provider: models.ProviderTabdeal,
		Reason:   SubmitReasonNetwork,
		Message:  err.Error(),
		Err:      err,
	}
}
