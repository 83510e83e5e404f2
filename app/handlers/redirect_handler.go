package handlers

import (
	"bytes"
	"context"
	"html/template"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/outlinkhq/outlink/app/middleware"
	businessflow "github.com/outlinkhq/outlink/business_flow"
	"github.com/outlinkhq/outlink/utils"
)

// RedirectHandlerInterface defines the public redirect endpoints
type RedirectHandlerInterface interface {
	Out(c fiber.Ctx) error
	VisitSlug(c fiber.Ctx) error
}

// RedirectHandler serves the interstitial page and the accounted redirects
// A browser landing on /out gets the HTML page first; the page's script
// re-calls the same URL with a JSON Accept header, which runs the accounting
// pipeline and answers 302
type RedirectHandler struct {
	flow              businessflow.RedirectFlow
	interstitialDelay time.Duration
	tmpl              *template.Template
}

func NewRedirectHandler(flow businessflow.RedirectFlow, interstitialDelay time.Duration) RedirectHandlerInterface {
	return &RedirectHandler{
		flow:              flow,
		interstitialDelay: interstitialDelay,
		tmpl:              template.Must(template.New("interstitial").Parse(interstitialHTML)),
	}
}

// Out redirects to an arbitrary destination URL with click accounting
// @Summary Outbound Redirect
// @Tags Redirect
// @Produce json
// @Param u query string true "Absolute http/https destination URL"
// @Success 302 {string} string "Redirect"
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /out [get]
func (h *RedirectHandler) Out(c fiber.Ctx) error {
	if strings.Contains(c.Get("Accept"), "text/html") {
		return h.renderInterstitial(c)
	}

	rawURL := c.Query("u")
	meta := h.clientMetadata(c)
	result, err := h.flow.RedirectByTarget(h.createRequestContext(c, "/out"), rawURL, meta)
	if err != nil {
		return h.redirectError(c, err)
	}

	h.observe(result)
	return c.Redirect().Status(fiber.StatusFound).To(result.TargetURL)
}

// VisitSlug redirects through a known slug with click accounting
// @Summary Visit Tracked Link
// @Tags Redirect
// @Produce json
// @Param slug path string true "Link slug"
// @Success 302 {string} string "Redirect"
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /s/{slug} [get]
func (h *RedirectHandler) VisitSlug(c fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid link"})
	}

	meta := h.clientMetadata(c)
	result, err := h.flow.RedirectBySlug(h.createRequestContext(c, "/s/"+slug), slug, meta)
	if err != nil {
		if businessflow.IsLinkNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "link not found"})
		}
		return h.redirectError(c, err)
	}

	h.observe(result)
	return c.Redirect().Status(fiber.StatusFound).To(result.TargetURL)
}

func (h *RedirectHandler) renderInterstitial(c fiber.Ctx) error {
	var buf bytes.Buffer
	data := struct {
		RequestURI string
		DelayMS    int64
	}{
		RequestURI: string(c.RequestCtx().RequestURI()),
		DelayMS:    h.interstitialDelay.Milliseconds(),
	}
	if err := h.tmpl.Execute(&buf, data); err != nil {
		log.Println("Interstitial render failed:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// redirectError maps the accounting pipeline's failures onto the plain
// {"error": ...} shape the redirect path answers with
func (h *RedirectHandler) redirectError(c fiber.Ctx, err error) error {
	if businessflow.IsInvalidURL(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid or unsupported destination URL"})
	}
	log.Println("Redirect failed:", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func (h *RedirectHandler) observe(result *businessflow.RedirectResult) {
	middleware.RedirectsTotal.Inc()
	if result.Counted {
		middleware.ClicksCountedTotal.Inc()
	}
	if result.Country == nil {
		middleware.GeoLookupMissesTotal.Inc()
	}
}

func (h *RedirectHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	meta := businessflow.NewClientMetadata(clientIP(c), c.Get("User-Agent"))
	meta.SetRequestID(c.Get(businessflow.RequestIDKey))
	return meta
}

// clientIP prefers proxy-set headers over the socket address
func clientIP(c fiber.Ctx) string {
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		if first, _, found := strings.Cut(fwd, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if real := c.Get("X-Real-IP"); real != "" {
		return real
	}
	if cf := c.Get("CF-Connecting-IP"); cf != "" {
		return cf
	}
	if ip := c.IP(); ip != "" {
		return ip
	}
	return "unknown"
}

func (h *RedirectHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *RedirectHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}

const interstitialHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Leaving this site</title>
<style>
body { font-family: -apple-system, Segoe UI, sans-serif; background: #f6f7f9; margin: 0; }
.card { max-width: 480px; margin: 12vh auto; padding: 32px; background: #fff; border-radius: 12px; box-shadow: 0 2px 12px rgba(0,0,0,.08); text-align: center; }
.spinner { width: 36px; height: 36px; margin: 24px auto; border: 4px solid #e3e6ea; border-top-color: #2563eb; border-radius: 50%; animation: spin 0.9s linear infinite; }
@keyframes spin { to { transform: rotate(360deg); } }
</style>
</head>
<body>
<div class="card">
<h1>Checking your link&hellip;</h1>
<p>We are verifying the destination before sending you on. You will be redirected automatically.</p>
<div class="spinner"></div>
</div>
<script>
setTimeout(function () {
  fetch({{.RequestURI}}, { headers: { "Accept": "application/json" } })
    .then(function (res) {
      if (res.url) { window.location.replace(res.url); }
    })
    .catch(function () { /* stay on the page */ });
}, {{.DelayMS}});
</script>
</body>
</html>
`
