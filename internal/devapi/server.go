// Package devapi is a local backend for the admin panel. It serves every
// entity table over the list contract the terminal client speaks.
package devapi

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jask/adminpanel/internal/database/repository"
	"github.com/jask/adminpanel/internal/preview"
)

type Options struct {
	JWTSecret   []byte
	TokenTTL    time.Duration
	CORSOrigins []string
	Logger      *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	store  *repository.Store
	admins *repository.AdminRepo
	opts   Options
	log    *slog.Logger
	tables map[string]repository.Table
}

func New(store *repository.Store, admins *repository.AdminRepo, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	tables := make(map[string]repository.Table, len(repository.Tables))
	for name, t := range repository.Tables {
		tables[name] = t
	}
	posts := tables[repository.Posts.Name]
	posts.Derive = renderBody
	tables[posts.Name] = posts

	return &Server{
		store:  store,
		admins: admins,
		opts:   opts,
		log:    opts.Logger.With("component", "devapi"),
		tables: tables,
	}
}

// renderBody keeps body_html in step with the Markdown body.
func renderBody(r repository.Record) {
	body, ok := r["body"].(string)
	if !ok {
		return
	}
	html, err := preview.HTML(body)
	if err != nil {
		html = ""
	}
	r["body_html"] = html
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(s.log), gin.Recovery(), CORS(s.opts.CORSOrigins))
	if err := r.SetTrustedProxies(nil); err != nil {
		s.log.Warn("set trusted proxies", "err", err)
	}

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not_found", "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	})
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/auth/login", s.login)

	authed := r.Group("", Auth(s.opts.JWTSecret))
	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		t := s.tables[name]
		g := authed.Group("/" + name)
		g.GET("", s.list(t))
		g.GET("/:id", s.get(t))
		if t.ReadOnly {
			continue
		}
		g.POST("", s.create(t))
		g.PUT("/:id", s.update(t))
		g.DELETE("/:id", s.remove(t))
	}
	return r
}
