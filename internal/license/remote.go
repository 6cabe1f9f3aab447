package license

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/sarinfocom/intellij-extra-icons/internal/config"
	"github.com/sarinfocom/intellij-extra-icons/internal/infrastructure"
)

const (
	licensesPath = "/api/v1/licenses"
	promptPath   = "/api/v1/licenses/prompt"
)

// RemoteConfig configures a RemoteVerifier.
type RemoteConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
}

// RemoteConfigFrom maps the license section of the application config.
func RemoteConfigFrom(cfg config.LicenseConfig) RemoteConfig {
	return RemoteConfig{
		BaseURL:           cfg.ServerURL,
		Timeout:           cfg.RequestTimeout,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}
}

// RemoteVerifier asks the license server for entitlements.
type RemoteVerifier struct {
	client  *resty.Client
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

type licenseStatusResponse struct {
	ProductCode string `json:"product_code"`
	Licensed    *bool  `json:"licensed"`
}

type licensePromptRequest struct {
	ProductCode string `json:"product_code"`
	Message     string `json:"message"`
}

// NewRemoteVerifier creates a verifier for the server at cfg.BaseURL.
func NewRemoteVerifier(cfg RemoteConfig, logger *slog.Logger) *RemoteVerifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.LicenseCheckTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 10
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", config.AppSlug+"/"+config.AppVersion)

	return &RemoteVerifier{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), cfg.RequestsPerMinute),
		timeout: cfg.Timeout,
		logger:  infrastructure.WithComponent(logger, "license.remote"),
	}
}

// IsLicensed implements Verifier. Rejections (401, 402, 403, 410 or an
// explicit "licensed": false) are Unlicensed; anything the server cannot
// vouch for is Unknown.
func (v *RemoteVerifier) IsLicensed(ctx context.Context, productCode string) Verdict {
	if err := v.limiter.Wait(ctx); err != nil {
		v.logger.WarnContext(ctx, "License check throttled",
			slog.String("product_code", productCode),
			slog.String("error", err.Error()))
		return Unknown
	}

	resp, err := v.client.R().
		SetContext(ctx).
		Get(licensesPath + "/" + url.PathEscape(productCode))
	if err != nil {
		v.logger.WarnContext(ctx, "License server unreachable",
			slog.String("product_code", productCode),
			slog.String("error", err.Error()))
		return Unknown
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden, http.StatusGone:
		v.logger.InfoContext(ctx, "License server rejected entitlement",
			slog.String("product_code", productCode),
			slog.Int("status", resp.StatusCode()))
		return Unlicensed
	default:
		v.logger.WarnContext(ctx, "Unexpected license server response",
			slog.String("product_code", productCode),
			slog.Int("status", resp.StatusCode()))
		return Unknown
	}

	var body licenseStatusResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body.Licensed == nil {
		v.logger.WarnContext(ctx, "Malformed license server response",
			slog.String("product_code", productCode))
		return Unknown
	}
	if *body.Licensed {
		return Licensed
	}
	return Unlicensed
}

// RequestLicense implements Verifier. The prompt is posted in the background.
func (v *RemoteVerifier) RequestLicense(ctx context.Context, productCode, message string) {
	ctx = context.WithoutCancel(ctx)

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, v.timeout)
		defer cancel()

		resp, err := v.client.R().
			SetContext(ctx).
			SetBody(licensePromptRequest{ProductCode: productCode, Message: message}).
			Post(promptPath)
		if err != nil {
			v.logger.WarnContext(ctx, "Failed to request license",
				slog.String("product_code", productCode),
				slog.String("error", err.Error()))
			return
		}
		if resp.IsError() {
			v.logger.WarnContext(ctx, "License prompt rejected",
				slog.String("product_code", productCode),
				slog.Int("status", resp.StatusCode()))
			return
		}
		v.logger.InfoContext(ctx, "License requested",
			slog.String("product_code", productCode))
	}()
}

// Close waits for pending license prompts.
func (v *RemoteVerifier) Close() {
	v.wg.Wait()
}
