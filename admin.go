// admin.go - privacy-conscious visitor tracking and the admin dashboard
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	visitorRetention = 12 * 30 * 24 * time.Hour
	adminCookie      = "admin_token"
)

// Privacy-conscious visitor tracking record
type VisitorMetric struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"` // Hashed instead of raw IP for privacy
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type UnlockStat struct {
	SystemID string `json:"system_id"`
	Title    string `json:"title"`
	Visitors int64  `json:"visitors"`
}

type AdminStats struct {
	TotalVisitors    int64           `json:"total_visitors"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	VisitorsToday    int64           `json:"visitors_today"`
	VisitorsThisWeek int64           `json:"visitors_this_week"`
	TotalUnlocks     int64           `json:"total_unlocks"`
	Unlocks          []UnlockStat    `json:"unlocks"`
	RecentVisitors   []VisitorMetric `json:"recent_visitors"`
}

// unlockCounter reports how many visitors have each system unlocked.
type unlockCounter interface {
	UnlockCounts(ctx context.Context) (map[string]int64, error)
}

func generateToken() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Fatal("Failed to generate token:", err)
	}
	return hex.EncodeToString(bytes)
}

// visitorLog stores page visits keyed by a salted hash of the client address.
type visitorLog struct {
	db   *sql.DB
	salt string
	now  func() time.Time
}

func newVisitorLog(db *sql.DB, salt string) *visitorLog {
	if salt == "" {
		// Hashes then only stay consistent for the life of the process.
		salt = generateToken()
		log.Println("Privacy: VISITOR_SALT not set, using a per-process salt")
	}
	return &visitorLog{db: db, salt: salt, now: time.Now}
}

// Hash IP address for privacy compliance (consistent per IP and salt)
func (v *visitorLog) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + v.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16] // Truncate for storage efficiency
}

func (v *visitorLog) record(ctx context.Context, ip, userAgent, path string) error {
	_, err := v.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, v.hashIP(ip), userAgent, path, v.now().UTC())
	if err != nil {
		return fmt.Errorf("record visitor: %w", err)
	}
	return nil
}

// cleanup removes visits older than the retention window.
func (v *visitorLog) cleanup(ctx context.Context) (int64, error) {
	cutoff := v.now().UTC().Add(-visitorRetention)
	result, err := v.db.ExecContext(ctx, `DELETE FROM visitors WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clean up visitors: %w", err)
	}
	rowsDeleted, _ := result.RowsAffected()
	if rowsDeleted > 0 {
		log.Printf("Privacy cleanup: Removed %d visitor records older than 12 months", rowsDeleted)
	}
	return rowsDeleted, nil
}

func (v *visitorLog) recent(ctx context.Context, limit int) ([]VisitorMetric, error) {
	rows, err := v.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent visitors: %w", err)
	}
	defer rows.Close()

	var visitors []VisitorMetric
	for rows.Next() {
		var visitor VisitorMetric
		if err := rows.Scan(&visitor.ID, &visitor.HashedIP, &visitor.UserAgent, &visitor.Path, &visitor.Timestamp); err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		visitors = append(visitors, visitor)
	}
	return visitors, rows.Err()
}

// Skip tracking for assets, streams, admin pages and anything the visitor
// asked us not to track.
func shouldTrack(c *gin.Context) bool {
	path := c.Request.URL.Path
	for _, prefix := range []string{"/static/", "/admin/", "/favicon", "/privacy", "/typewriter/", "/metrics", "/healthz", "/api/"} {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return c.Request.Method == http.MethodGet && c.GetHeader("DNT") != "1"
}

// Privacy-conscious visitor tracking middleware
func (s *server) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if shouldTrack(c) {
			ip, ua, path := c.ClientIP(), c.GetHeader("User-Agent"), c.Request.URL.Path
			// Track in background so the page is not held up by the write.
			go func() {
				if err := s.visitors.record(context.Background(), ip, ua, path); err != nil {
					log.Printf("Error recording visitor: %v", err)
				}
			}()
		}
		c.Next()
	}
}

// Get comprehensive admin statistics
func (s *server) adminStats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	db := s.visitors.db
	now := s.visitors.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{startOfDay}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{now.Add(-7 * 24 * time.Hour)}},
	}
	for _, q := range counts {
		if err := db.QueryRowContext(ctx, q.query, q.args...).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("admin stats: %w", err)
		}
	}

	unlocks, err := s.unlocks.UnlockCounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, sys := range s.systems.Catalog() {
		n := unlocks[sys.ID]
		stats.TotalUnlocks += n
		stats.Unlocks = append(stats.Unlocks, UnlockStat{SystemID: sys.ID, Title: sys.Title, Visitors: n})
	}
	sort.SliceStable(stats.Unlocks, func(i, j int) bool {
		return stats.Unlocks[i].Visitors > stats.Unlocks[j].Visitors
	})

	stats.RecentVisitors, err = s.visitors.recent(ctx, 50)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Middleware to check admin authentication
func (s *server) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// adminCredentials falls back to development defaults when unset.
func (s *server) adminCredentials() (string, string) {
	username, password := s.cfg.Admin.Username, s.cfg.Admin.Password
	if username == "" {
		username = "admin"
		if gin.Mode() == gin.DebugMode {
			log.Println("WARNING: Using default admin username. Set ADMIN_USERNAME environment variable.")
		}
	}
	if password == "" {
		password = "admin123"
		if gin.Mode() == gin.DebugMode {
			log.Println("WARNING: Using default admin password. Set ADMIN_PASSWORD environment variable.")
		}
	}
	return username, password
}

// Setup all admin routes
func (s *server) setupAdminRoutes(r *gin.Engine) {
	// Privacy policy route
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title": "Privacy Policy",
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		wantUser, wantPass := s.adminCredentials()
		userOK := subtle.ConstantTimeCompare([]byte(c.PostForm("username")), []byte(wantUser)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(c.PostForm("password")), []byte(wantPass)) == 1

		if userOK && passOK {
			// Secure cookie (24 hours)
			c.SetCookie(adminCookie, s.adminToken, 3600*24, "/admin", "", false, true)
			log.Printf("Admin login successful from %s", s.visitors.hashIP(c.ClientIP()))
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}
		log.Printf("Failed admin login attempt from %s", s.visitors.hashIP(c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		log.Printf("Admin logout from %s", s.visitors.hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	// Protected admin routes group
	adminGroup := r.Group("/admin")
	adminGroup.Use(s.adminAuthMiddleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.adminStats(c.Request.Context())
		if err != nil {
			log.Printf("Error loading admin stats: %v", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"title": "Dashboard",
			"stats": stats,
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.adminStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	// Retention cleanup on demand
	adminGroup.POST("/privacy/cleanup", func(c *gin.Context) {
		removed, err := s.visitors.cleanup(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": removed})
	})

	// Statistics export (for backups or analysis)
	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.adminStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		log.Printf("Admin stats exported by %s", s.visitors.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}
