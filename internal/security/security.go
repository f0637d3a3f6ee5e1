package security

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
)

// Config holds security configuration
type Config struct {
	// MaxBodyBytes caps request bodies; batch requests carry up to 50
	// transcripts so the default is generous.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	// MaxTextLength caps a single transcript in characters.
	MaxTextLength  int           `json:"max_text_length" yaml:"max_text_length" mapstructure:"max_text_length"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`
	AllowedOrigins []string      `json:"allowed_origins" yaml:"allowed_origins" mapstructure:"allowed_origins"`
	EnableHSTS     bool          `json:"enable_hsts" yaml:"enable_hsts" mapstructure:"enable_hsts"`
}

// DefaultConfig returns secure defaults
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:   8 << 20,
		MaxTextLength:  100_000,
		RequestTimeout: 30 * time.Second,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Middleware provides the HTTP hardening layer and transcript validation.
type Middleware struct {
	config Config
}

// NewMiddleware creates a security middleware. Zero limits take defaults.
func NewMiddleware(config Config) *Middleware {
	d := DefaultConfig()
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = d.MaxBodyBytes
	}
	if config.MaxTextLength <= 0 {
		config.MaxTextLength = d.MaxTextLength
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = d.RequestTimeout
	}
	return &Middleware{config: config}
}

// Config returns the effective configuration.
func (m *Middleware) Config() Config {
	return m.config
}

// ValidateText rejects transcripts that are too long, not UTF-8 or carry
// NUL bytes. Emptiness is left to the analyzer.
func (m *Middleware) ValidateText(text string) error {
	if !utf8.ValidString(text) {
		return apperrors.NewValidationError("text contains invalid UTF-8 encoding", "text")
	}
	if strings.ContainsRune(text, 0) {
		return apperrors.NewValidationError("text contains invalid characters", "text")
	}
	if n := utf8.RuneCountInString(text); n > m.config.MaxTextLength {
		return apperrors.NewValidationError(
			"text exceeds maximum length of "+strconv.Itoa(m.config.MaxTextLength)+" characters", "text")
	}
	return nil
}

// SanitizeText drops control characters other than common whitespace.
func SanitizeText(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || r == '\r' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
}

// SecurityHeaders adds security headers to responses
func (m *Middleware) SecurityHeaders() gin.HandlerFunc {
	hsts := m.config.EnableHSTS
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		// swagger UI needs inline scripts
		if !strings.HasPrefix(c.Request.URL.Path, "/swagger/") {
			c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		}

		if hsts || c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// ValidateContentType requires JSON bodies on write requests.
func (m *Middleware) ValidateContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		if c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		contentType := strings.ToLower(c.GetHeader("Content-Type"))
		if !strings.HasPrefix(contentType, "application/json") {
			appErr := apperrors.NewValidationError("unsupported content type, expected application/json", "Content-Type")
			appErr.HTTPStatus = http.StatusUnsupportedMediaType
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
			return
		}

		c.Next()
	}
}

// LimitBody caps the request body at MaxBodyBytes. Reads past the limit
// fail, which JSON binding reports as a bad request.
func (m *Middleware) LimitBody() gin.HandlerFunc {
	limit := m.config.MaxBodyBytes
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			appErr := apperrors.NewValidationError("request body too large", "body")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// RequestTimeout bounds the request context. The primary model call
// derives its own shorter deadline from it.
func (m *Middleware) RequestTimeout() gin.HandlerFunc {
	timeout := m.config.RequestTimeout
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Timeout", strconv.Itoa(int(timeout.Seconds())))

		c.Next()
	}
}

// CORS returns the gin-contrib/cors middleware for the configured origins.
func (m *Middleware) CORS() gin.HandlerFunc {
	config := cors.DefaultConfig()
	origins := m.config.AllowedOrigins
	if len(origins) == 0 {
		origins = DefaultConfig().AllowedOrigins
	}
	if len(origins) == 1 && origins[0] == "*" {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
	config.ExposeHeaders = []string{
		"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After",
	}
	config.MaxAge = 12 * time.Hour
	return cors.New(config)
}
