// Package web serves the coverage query form as an HTML page and a small
// JSON API.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/form"
	"github.com/sells-group/coverage-cli/pkg/coverage"
)

//go:embed templates/index.html
var templates embed.FS

// maxFormBytes caps the size of a POST /search body.
const maxFormBytes = 64 << 10

// Server renders the query form. Every request gets its own form.Form, so
// no state is shared between visitors.
type Server struct {
	client         coverage.Client
	allowedOrigins []string
	page           *template.Template
}

// pageData is the view model of index.html.
type pageData struct {
	Address string
	Result  string
}

// NewServer creates a web server that looks up coverage through client.
func NewServer(client coverage.Client, allowedOrigins []string) (*Server, error) {
	page, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, eris.Wrap(err, "web: parse templates")
	}
	return &Server{
		client:         client,
		allowedOrigins: allowedOrigins,
		page:           page,
	}, nil
}

// Routes returns the HTTP handler for the server.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Post("/search", s.handleSearch)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/search", s.handleAPISearch)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, pageData{})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	f := form.New(s.client)
	f.SetAddress(r.PostForm.Get("address"))
	f.Search(r.Context())

	s.render(w, pageData{Address: f.Address(), Result: f.Render()})
}

// apiResponse carries exactly one of Status or Result.
type apiResponse struct {
	Status string            `json:"status,omitempty"`
	Result *coverage.Payload `json:"result,omitempty"`
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	f := form.New(s.client)
	f.SetAddress(r.URL.Query().Get("address"))
	out := f.Search(r.Context())

	var resp apiResponse
	if p, ok := out.Payload(); ok {
		resp.Result = p
	} else {
		resp.Status = out.Render()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		zap.L().Error("web: render page", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("web: encode response", zap.Error(err))
	}
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
