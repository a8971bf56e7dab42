// Package http exposes the progress views and the selection toggle as a
// small JSON surface. It is a consumer of the core's read queries; all
// derivation happens below it.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"studytrack/internal/cache"
	"studytrack/internal/core"
	"studytrack/internal/log"
)

// Ports consumed by the server. The services package implements both.
type (
	// ProgressReader provides the derived read-only views.
	ProgressReader interface {
		CreditSummary(ctx context.Context) ([]core.CreditSummary, error)
		StudyPlan(ctx context.Context) ([]core.SemesterPlan, error)
		Courses(ctx context.Context) ([]core.Course, error)
		CompletionSeries(ctx context.Context, courseID string) ([]core.StatPoint, error)
		GradeDistribution(ctx context.Context, courseID string) ([]core.GradeSeries, error)
		CourseDetail(ctx context.Context, courseID string) (*core.CourseDetail, error)
	}

	// CourseToggler flips the taken flag of a course.
	CourseToggler interface {
		ToggleTaken(ctx context.Context, courseID string) (bool, error)
	}
)

type Server struct {
	http.Server
	progress ProgressReader
	toggler  CourseToggler

	rateLimiter *rateLimiter

	// Derived views are cheap but recomputed on every read; the caches
	// only absorb bursts and are dropped on any toggle.
	summaryCache *cache.LRUCache[[]core.CreditSummary]
	planCache    *cache.LRUCache[[]core.SemesterPlan]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

const (
	summaryCacheKey = "summary"
	planCacheKey    = "plan"
)

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, progress ProgressReader, toggler CourseToggler) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		progress:     progress,
		toggler:      toggler,
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[[]core.CreditSummary](1, 5*time.Minute),
		planCache:    cache.NewLRUCache[[]core.SemesterPlan](1, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.planCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("GET /api/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("GET /api/plan", s.withSecurityHeaders(s.handlePlan))
	mux.HandleFunc("GET /api/courses", s.withSecurityHeaders(s.handleCourses))
	mux.HandleFunc("GET /api/courses/{id}", s.withSecurityHeaders(s.handleCourseDetail))
	mux.HandleFunc("GET /api/courses/{id}/stats", s.withSecurityHeaders(s.handleCourseStats))
	mux.HandleFunc("GET /api/courses/{id}/grades", s.withSecurityHeaders(s.handleCourseGrades))
	mux.HandleFunc("POST /api/courses/{id}/toggle", s.withSecurityHeaders(s.handleToggle))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// invalidateViews drops the derived view caches after a mutation. Readers
// recompute on the next request; there is no push to dependents.
func (s *Server) invalidateViews() {
	s.summaryCache.Delete(summaryCacheKey)
	s.planCache.Delete(planCacheKey)
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		reqLogger := log.FromContext(r.Context()).
			WithComponent(log.ComponentHTTP).
			With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		ctx = log.IntoContext(ctx, reqLogger)
		r = r.WithContext(ctx)

		reqLogger.InfoContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		// Mutations are the only rate-limited calls.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			reqLogger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		reqLogger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds())
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// Simple in-memory rate limiter for mutation requests.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes.
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed.
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute.
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
