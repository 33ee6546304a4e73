package main

import (
	"database/sql"
	"errors"
	"html/template"
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/fullstacknyc/portfolio/internal/systems"
	"github.com/fullstacknyc/portfolio/internal/typewriter"
)

const visitorCookie = "visitor_id"

type server struct {
	cfg        Config
	systems    *systems.Service
	unlocks    unlockCounter
	visitors   *visitorLog
	mailer     mailer
	metrics    *siteMetrics
	clock      typewriter.Scheduler
	templates  *template.Template
	upgrader   websocket.Upgrader
	adminToken string
}

type serverOption func(*server)

// withClock drives every headline animator from s instead of the wall clock.
func withClock(s typewriter.Scheduler) serverOption {
	return func(srv *server) { srv.clock = s }
}

func withMailer(m mailer) serverOption {
	return func(srv *server) { srv.mailer = m }
}

func newServer(cfg Config, db *sql.DB, catalog systems.Catalog, opts ...serverOption) (*server, error) {
	flags := systems.NewSQLiteStore(db)
	svc, err := systems.NewService(catalog, systems.NewCachedStore(flags, 0))
	if err != nil {
		return nil, err
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &server{
		cfg:        cfg,
		systems:    svc,
		unlocks:    flags,
		visitors:   newVisitorLog(db, cfg.VisitorSalt),
		mailer:     newSMTPMailer(cfg.SMTP),
		metrics:    newSiteMetrics(),
		clock:      typewriter.WallClock(),
		templates:  tmpl,
		adminToken: generateToken(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	for _, opt := range opts {
		opt(s)
	}

	log.Printf("Admin access available at: /admin/login")
	if gin.Mode() == gin.DebugMode {
		log.Printf("Admin token (dev only): %s", s.adminToken)
	}
	return s, nil
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	if len(s.cfg.AllowedOrigins) > 0 {
		// Engine level so preflight requests for unrouted methods are answered.
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = s.cfg.AllowedOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		corsConfig.AllowCredentials = true
		corsConfig.AllowWebSockets = true
		r.Use(cors.New(corsConfig))
	}
	r.SetHTMLTemplate(s.templates)
	r.StaticFS("/static", http.FS(staticFiles()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.handler()))

	site := r.Group("/")
	site.Use(s.visitorIdentityMiddleware(), s.visitorTrackingMiddleware())

	// Home page route
	site.GET("/", s.handleHome)

	// Headline frames, one animator per connection
	site.GET("/typewriter/stream", s.handleStream)
	site.GET("/typewriter/ws", s.handleWebSocket)

	// HTMX board toggles - return the re-rendered board
	site.POST("/systems/:id/unlock", s.handleToggle(true))
	site.POST("/systems/:id/lock", s.handleToggle(false))

	api := site.Group("/api")
	api.GET("/systems", s.handleBoardJSON)
	api.POST("/systems/:id/unlock", s.handleToggle(true))
	api.POST("/systems/:id/lock", s.handleToggle(false))

	// HTMX Contact form endpoint - returns just the form HTML
	site.GET("/contact-form", func(c *gin.Context) {
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"title": "Contact Me",
		})
	})
	site.POST("/contact", s.handleContact)

	s.setupAdminRoutes(r)
	return r
}

// visitorIdentityMiddleware gives every browser a stable id for its flags.
func (s *server) visitorIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(visitorCookie)
		if err != nil || !validVisitorID(id) {
			id = generateToken()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(visitorCookie, id, 3600*24*365, "/", "", false, true)
		}
		c.Set(visitorCookie, id)
		c.Next()
	}
}

func validVisitorID(id string) bool {
	if len(id) != 64 {
		return false
	}
	for _, r := range id {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}

func visitorID(c *gin.Context) string {
	return c.GetString(visitorCookie)
}

func (s *server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func (s *server) handleHome(c *gin.Context) {
	board, err := s.systems.Board(c.Request.Context(), visitorID(c))
	if err != nil {
		log.Printf("Error loading systems board: %v", err)
		board = s.systems.Catalog().Defaults()
	}
	s.metrics.pageViews.WithLabelValues("home").Inc()

	c.HTML(http.StatusOK, "index.html", gin.H{
		"desktopNav":    desktopNav,
		"mobileNav":     mobileNav,
		"bookingURL":    s.cfg.BookingURL,
		"linkedInURL":   LinkedInURL,
		"gitHubURL":     GitHubURL,
		"contactEmail":  s.cfg.SMTP.To,
		"resumeBlurb":   ResumeBlurb,
		"projectsBlurb": ProjectsBlurb,
		"contactBlurb":  ContactBlurb,
		"boardBlurb":    BoardBlurb,
		"board":         board,
	})
}

func (s *server) handleBoardJSON(c *gin.Context) {
	board, err := s.systems.Board(c.Request.Context(), visitorID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load systems"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"systems": board})
}

// handleToggle answers HTMX requests with the board fragment and everything
// else with JSON.
func (s *server) handleToggle(unlock bool) gin.HandlerFunc {
	action, toggle := "lock", s.systems.Lock
	if unlock {
		action, toggle = "unlock", s.systems.Unlock
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		owner := visitorID(c)
		htmx := c.GetHeader("HX-Request") == "true"

		if err := toggle(ctx, owner, c.Param("id")); err != nil {
			status := http.StatusInternalServerError
			msg := "Failed to update system"
			if errors.Is(err, systems.ErrUnknownSystem) {
				status, msg = http.StatusNotFound, "System not found"
			} else {
				log.Printf("Error toggling system %s: %v", c.Param("id"), err)
			}
			if htmx {
				c.HTML(status, "board-error.html", gin.H{"error": msg})
				return
			}
			c.JSON(status, gin.H{"error": msg})
			return
		}
		s.metrics.toggles.WithLabelValues(action).Inc()

		board, err := s.systems.Board(ctx, owner)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load systems"})
			return
		}
		if htmx {
			// Open headline streams reconnect to pick up the new sequence.
			c.Header("HX-Trigger", "sequence-changed")
			c.HTML(http.StatusOK, "systems-board.html", gin.H{"board": board})
			return
		}
		c.JSON(http.StatusOK, gin.H{"systems": board})
	}
}

// Handle contact form submission with HTMX
func (s *server) handleContact(c *gin.Context) {
	msg := contactMessage{
		Name:    c.PostForm("fullName"),
		Email:   c.PostForm("email"),
		Message: c.PostForm("message"),
	}
	if err := msg.validate(); err != nil {
		s.metrics.contactMessages.WithLabelValues("invalid").Inc()
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Please fill in your name, a valid email address and a message.",
		})
		return
	}

	if err := s.mailer.Send(msg); err != nil {
		log.Printf("Error sending email: %v", err)
		s.metrics.contactMessages.WithLabelValues("failed").Inc()
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	s.metrics.contactMessages.WithLabelValues("sent").Inc()
	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}
