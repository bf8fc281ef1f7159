package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/campuskit/registrar/internal/academic"
	"github.com/campuskit/registrar/internal/account"
	accountentity "github.com/campuskit/registrar/internal/account/entity"
	"github.com/campuskit/registrar/internal/admin"
	"github.com/campuskit/registrar/internal/auth"
	"github.com/campuskit/registrar/internal/faculty"
	"github.com/campuskit/registrar/internal/provision"
	"github.com/campuskit/registrar/internal/student"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			// ensure status is set
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
// It is intentionally simple and conservative so it works with most setups.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			// Referrer policy
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")

			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}

			// HSTS only over TLS
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Handlers bundles everything RegisterRoutes mounts.
type Handlers struct {
	Provision *provision.Handler
	Accounts  *account.Handler
	Students  *student.Handler
	Faculty   *faculty.Handler
	Admins    *admin.Handler
	Academic  *academic.Handler
}

// RegisterRoutes mounts the API on a chi router. Provisioning and status
// changes are restricted to administrative roles; self lookup only needs a
// valid token.
func RegisterRoutes(h Handlers, jwtSecret string, logger *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeadersMiddleware())
	r.Use(LoggingMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	admins := auth.RequireRoles(accountentity.RoleSuperAdmin, accountentity.RoleAdmin)
	staff := auth.RequireRoles(accountentity.RoleSuperAdmin, accountentity.RoleAdmin, accountentity.RoleFaculty)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Authenticate(jwtSecret))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", h.Accounts.Me)
			r.Group(func(r chi.Router) {
				r.Use(admins)
				r.Post("/create-student", h.Provision.CreateStudent)
				r.Post("/create-faculty", h.Provision.CreateFaculty)
				r.Post("/create-admin", h.Provision.CreateAdmin)
				r.Post("/change-status/{ref}", h.Accounts.ChangeStatus)
			})
		})

		r.Route("/students", func(r chi.Router) {
			r.With(staff).Get("/", h.Students.List)
			r.With(staff).Get("/{ref}", h.Students.Get)
			r.With(admins).Patch("/{ref}", h.Students.Update)
			r.With(admins).Delete("/{ref}", h.Students.Delete)
		})

		r.Route("/faculties", func(r chi.Router) {
			r.With(staff).Get("/", h.Faculty.List)
			r.With(staff).Get("/{ref}", h.Faculty.Get)
			r.With(admins).Patch("/{ref}", h.Faculty.Update)
			r.With(admins).Delete("/{ref}", h.Faculty.Delete)
		})

		r.Route("/admins", func(r chi.Router) {
			r.Use(admins)
			r.Get("/", h.Admins.List)
			r.Get("/{ref}", h.Admins.Get)
			r.Patch("/{ref}", h.Admins.Update)
			r.Delete("/{ref}", h.Admins.Delete)
		})

		r.Route("/academic-semesters", func(r chi.Router) {
			r.Get("/", h.Academic.ListSemesters)
			r.Get("/{ref}", h.Academic.GetSemester)
			r.With(admins).Post("/", h.Academic.CreateSemester)
		})
		r.Route("/academic-departments", func(r chi.Router) {
			r.Get("/", h.Academic.ListDepartments)
			r.Get("/{ref}", h.Academic.GetDepartment)
			r.With(admins).Post("/", h.Academic.CreateDepartment)
		})
		r.Route("/academic-faculties", func(r chi.Router) {
			r.Get("/", h.Academic.ListFaculties)
			r.Get("/{ref}", h.Academic.GetFaculty)
			r.With(admins).Post("/", h.Academic.CreateFaculty)
		})
	})

	return r
}
