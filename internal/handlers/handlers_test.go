package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/titan3755/photobytes-blog/db"
	"github.com/titan3755/photobytes-blog/internal/auth"
	"github.com/titan3755/photobytes-blog/internal/handlers"
	"github.com/titan3755/photobytes-blog/internal/models"
	"github.com/titan3755/photobytes-blog/internal/router"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServer(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "handlers-test-secret")

	if err := auth.InitJWTSecret(); err != nil {
		t.Fatalf("failed to init JWT secret: %v", err)
	}

	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})

	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	db.DB = database

	if err := db.MigrateDatabase(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return router.NewRouter()
}

func seedAdmin(t *testing.T) (models.User, string) {
	t.Helper()

	admin := models.User{
		Name:           "Admin",
		Username:       "admin",
		Email:          "admin@example.com",
		PasswordHash:   "irrelevant",
		Role:           models.RoleAdmin,
		CanComment:     true,
		SessionVersion: 1,
	}

	if err := db.DB.Create(&admin).Error; err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	token, err := auth.GenerateToken(&admin)

	if err != nil {
		t.Fatalf("failed to generate admin token: %v", err)
	}

	return admin, token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]interface{}

	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			parsed = nil
		}
	}

	return w, parsed
}

func registerUser(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()

	w, parsed := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     username,
		"username": username,
		"email":    username + "@example.com",
		"password": "correct-horse",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", username, w.Code, w.Body.String())
	}

	token, _ := parsed["token"].(string)

	if token == "" {
		t.Fatalf("register %s returned no token", username)
	}

	return token
}

func TestStaleTokenPicksUpRoleChangeOnNextRequest(t *testing.T) {
	r := setupServer(t)

	userToken := registerUser(t, r, "alice")
	_, adminToken := seedAdmin(t)

	var alice models.User

	if err := db.DB.Where("username = ?", "alice").First(&alice).Error; err != nil {
		t.Fatalf("failed to load alice: %v", err)
	}

	w, _ := doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/role", alice.ID), adminToken, gin.H{
		"role": models.RoleBlogger,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("role update: status %d, body %s", w.Code, w.Body.String())
	}

	// The old token still carries {USER, v1}; the liveness check on the next
	// request must detect the mismatch and serve refreshed claims.
	w, parsed := doJSON(t, r, http.MethodGet, "/api/auth/me", userToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("me: status %d, body %s", w.Code, w.Body.String())
	}

	userBody, _ := parsed["user"].(map[string]interface{})

	if userBody == nil {
		t.Fatalf("me returned no user object: %s", w.Body.String())
	}

	if role, _ := userBody["role"].(string); role != models.RoleBlogger {
		t.Errorf("role after refresh = %q, want %q", role, models.RoleBlogger)
	}

	if version, _ := userBody["session_version"].(float64); version != 2 {
		t.Errorf("session version after refresh = %v, want 2", version)
	}

	// The refreshed credential was handed back as a cookie.
	if cookies := w.Result().Cookies(); len(cookies) == 0 {
		t.Error("refresh did not set a new session cookie")
	}
}

func TestBloggerGroupOpensAfterPromotion(t *testing.T) {
	r := setupServer(t)

	userToken := registerUser(t, r, "alice")
	_, adminToken := seedAdmin(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/blog/articles", userToken, gin.H{
		"title":   "First post",
		"content": "Hello world",
	})

	if w.Code != http.StatusForbidden {
		t.Fatalf("blog group before promotion: status %d, want 403", w.Code)
	}

	var alice models.User

	if err := db.DB.Where("username = ?", "alice").First(&alice).Error; err != nil {
		t.Fatalf("failed to load alice: %v", err)
	}

	w, _ = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/role", alice.ID), adminToken, gin.H{
		"role": models.RoleBlogger,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("role update: status %d, body %s", w.Code, w.Body.String())
	}

	// Same stale token, but the freshness check now yields BLOGGER.
	w, _ = doJSON(t, r, http.MethodPost, "/api/blog/articles", userToken, gin.H{
		"title":   "First post",
		"content": "Hello world",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("blog group after promotion: status %d, body %s", w.Code, w.Body.String())
	}
}

func TestOrderThreadUnreadFlow(t *testing.T) {
	r := setupServer(t)

	userToken := registerUser(t, r, "alice")
	_, adminToken := seedAdmin(t)

	w, parsed := doJSON(t, r, http.MethodPost, "/api/orders", userToken, gin.H{
		"title":       "Wedding shoot",
		"description": "Full day coverage",
		"budget":      "500",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("create order: status %d, body %s", w.Code, w.Body.String())
	}

	orderID := int(parsed["id"].(float64))
	base := fmt.Sprintf("/api/orders/%d", orderID)

	w, _ = doJSON(t, r, http.MethodPost, base+"/messages", adminToken, gin.H{"content": "Hello"})

	if w.Code != http.StatusCreated {
		t.Fatalf("staff post: status %d, body %s", w.Code, w.Body.String())
	}

	w, parsed = doJSON(t, r, http.MethodGet, base, userToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("get order: status %d, body %s", w.Code, w.Body.String())
	}

	if unread, _ := parsed["unread_count"].(float64); unread != 1 {
		t.Errorf("author unread after staff post = %v, want 1", unread)
	}

	w, parsed = doJSON(t, r, http.MethodPost, base+"/messages/read", userToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("mark read: status %d, body %s", w.Code, w.Body.String())
	}

	if unread, _ := parsed["unread_count"].(float64); unread != 0 {
		t.Errorf("author unread after mark read = %v, want 0", unread)
	}

	// A third party gets a typed denial and sees nothing.
	strangerToken := registerUser(t, r, "mallory")

	w, _ = doJSON(t, r, http.MethodGet, base+"/messages", strangerToken, nil)

	if w.Code != http.StatusForbidden {
		t.Errorf("stranger list: status %d, want 403", w.Code)
	}
}

func TestApplicationApprovalPromotesAndNotifies(t *testing.T) {
	r := setupServer(t)

	userToken := registerUser(t, r, "alice")
	_, adminToken := seedAdmin(t)

	w, parsed := doJSON(t, r, http.MethodPost, "/api/applications", userToken, gin.H{
		"motivation": "I shoot film and want to write about it",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("apply: status %d, body %s", w.Code, w.Body.String())
	}

	applicationID := int(parsed["id"].(float64))

	// Only one pending application at a time.
	w, _ = doJSON(t, r, http.MethodPost, "/api/applications", userToken, gin.H{
		"motivation": "again",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("duplicate apply: status %d, want 400", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/admin/applications/%d/approve", applicationID), adminToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("approve: status %d, body %s", w.Code, w.Body.String())
	}

	var alice models.User

	if err := db.DB.Where("username = ?", "alice").First(&alice).Error; err != nil {
		t.Fatalf("failed to load alice: %v", err)
	}

	if alice.Role != models.RoleBlogger {
		t.Errorf("role after approval = %q, want %q", alice.Role, models.RoleBlogger)
	}

	if alice.SessionVersion != 2 {
		t.Errorf("session version after approval = %d, want 2", alice.SessionVersion)
	}

	// The explicit refresh trigger returns the new role immediately.
	w, parsed = doJSON(t, r, http.MethodPost, "/api/auth/refresh", userToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("refresh: status %d, body %s", w.Code, w.Body.String())
	}

	userBody, _ := parsed["user"].(map[string]interface{})

	if role, _ := userBody["role"].(string); role != models.RoleBlogger {
		t.Errorf("refreshed role = %q, want %q", role, models.RoleBlogger)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/notifications", userToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("notifications: status %d, body %s", w.Code, w.Body.String())
	}

	var notifications int64

	if err := db.DB.Model(&models.Notification{}).Where("user_id = ?", alice.ID).Count(&notifications).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}

	if notifications != 1 {
		t.Errorf("notifications after approval = %d, want 1", notifications)
	}
}

func TestCommentPermissionRevocationTakesEffect(t *testing.T) {
	r := setupServer(t)

	userToken := registerUser(t, r, "alice")
	admin, adminToken := seedAdmin(t)

	article := models.Article{
		Title:     "Welcome",
		Slug:      "welcome",
		Content:   "Hello",
		Published: true,
		AuthorID:  admin.ID,
	}

	if err := db.DB.Create(&article).Error; err != nil {
		t.Fatalf("failed to seed article: %v", err)
	}

	w, _ := doJSON(t, r, http.MethodPost, "/api/articles/welcome/comments", userToken, gin.H{
		"content": "Nice post",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("comment: status %d, body %s", w.Code, w.Body.String())
	}

	var alice models.User

	if err := db.DB.Where("username = ?", "alice").First(&alice).Error; err != nil {
		t.Fatalf("failed to load alice: %v", err)
	}

	w, _ = doJSON(t, r, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d/comments", alice.ID), adminToken, gin.H{
		"can_comment": false,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("revoke: status %d, body %s", w.Code, w.Body.String())
	}

	// Same stale token; the freshness check pulls in the revocation.
	w, _ = doJSON(t, r, http.MethodPost, "/api/articles/welcome/comments", userToken, gin.H{
		"content": "One more",
	})

	if w.Code != http.StatusForbidden {
		t.Errorf("comment after revocation: status %d, want 403", w.Code)
	}
}

func TestDeleteUserDestroysDependents(t *testing.T) {
	r := setupServer(t)

	userToken := registerUser(t, r, "alice")
	_, adminToken := seedAdmin(t)

	var alice models.User

	if err := db.DB.Where("username = ?", "alice").First(&alice).Error; err != nil {
		t.Fatalf("failed to load alice: %v", err)
	}

	article := models.Article{
		Title:     "Goodbye",
		Slug:      "goodbye",
		Content:   "So long",
		Published: true,
		AuthorID:  alice.ID,
	}

	if err := db.DB.Create(&article).Error; err != nil {
		t.Fatalf("failed to seed article: %v", err)
	}

	commenterToken := registerUser(t, r, "bob")

	w, _ := doJSON(t, r, http.MethodPost, "/api/articles/goodbye/comments", commenterToken, gin.H{
		"content": "Will miss this blog",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("comment: status %d, body %s", w.Code, w.Body.String())
	}

	w, parsed := doJSON(t, r, http.MethodPost, "/api/orders", userToken, gin.H{
		"title":       "Last order",
		"description": "One final shoot",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("create order: status %d, body %s", w.Code, w.Body.String())
	}

	orderID := int(parsed["id"].(float64))

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/orders/%d/messages", orderID), adminToken, gin.H{
		"content": "On it",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("staff post: status %d, body %s", w.Code, w.Body.String())
	}

	seeds := []interface{}{
		&models.BloggerApplication{UserID: alice.ID, Motivation: "please", Status: models.ApplicationPending},
		&models.Notification{UserID: alice.ID, Type: "order_status", Message: "hi"},
	}

	for _, seed := range seeds {
		if err := db.DB.Create(seed).Error; err != nil {
			t.Fatalf("failed to seed dependent: %v", err)
		}
	}

	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", alice.ID), adminToken, nil)

	if w.Code != http.StatusNoContent {
		t.Fatalf("delete user: status %d, body %s", w.Code, w.Body.String())
	}

	// Nothing of the account survives, soft-deleted rows included.
	remaining := []struct {
		name  string
		query *gorm.DB
	}{
		{"articles", db.DB.Unscoped().Model(&models.Article{}).Where("author_id = ?", alice.ID)},
		{"comments", db.DB.Unscoped().Model(&models.Comment{}).Where("article_id = ?", article.ID)},
		{"orders", db.DB.Unscoped().Model(&models.Order{}).Where("author_id = ?", alice.ID)},
		{"order messages", db.DB.Unscoped().Model(&models.OrderMessage{}).Where("order_id = ?", orderID)},
		{"applications", db.DB.Unscoped().Model(&models.BloggerApplication{}).Where("user_id = ?", alice.ID)},
		{"notifications", db.DB.Unscoped().Model(&models.Notification{}).Where("user_id = ?", alice.ID)},
		{"users", db.DB.Unscoped().Model(&models.User{}).Where("id = ?", alice.ID)},
	}

	for _, check := range remaining {
		var count int64

		if err := check.query.Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", check.name, err)
		}

		if count != 0 {
			t.Errorf("%s remaining after account deletion = %d, want 0", check.name, count)
		}
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/articles/goodbye", "", nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("deleted user's article: status %d, want 404", w.Code)
	}

	// The dead account's still-valid token is revoked, not served stale.
	w, _ = doJSON(t, r, http.MethodGet, "/api/auth/me", userToken, nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("me with deleted account: status %d, want 401", w.Code)
	}
}

func TestListOrdersStaffSeesAll(t *testing.T) {
	r := setupServer(t)

	userToken := registerUser(t, r, "alice")
	_, adminToken := seedAdmin(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/orders", userToken, gin.H{
		"title":       "Portrait session",
		"description": "Studio lighting",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("create order: status %d, body %s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/orders", adminToken, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("admin list: status %d, body %s", w.Code, w.Body.String())
	}

	var orders []map[string]interface{}

	if err := json.Unmarshal(w.Body.Bytes(), &orders); err != nil {
		t.Fatalf("failed to decode order list: %v", err)
	}

	if len(orders) != 1 {
		t.Fatalf("admin sees %d orders, want 1", len(orders))
	}

	if author, _ := orders[0]["author"].(string); author != "alice" {
		t.Errorf("listed order author = %q, want %q", author, "alice")
	}
}

func dialOrderThread(t *testing.T, serverURL, path, token string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + path

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("Origin", "http://localhost:3000")

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)

	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s failed (status %d): %v", path, status, err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}

	return conn
}

func TestThreadSocketReceivesBroadcasts(t *testing.T) {
	r := setupServer(t)

	srv := httptest.NewServer(r)
	defer srv.Close()

	userToken := registerUser(t, r, "alice")
	_, adminToken := seedAdmin(t)

	w, parsed := doJSON(t, r, http.MethodPost, "/api/orders", userToken, gin.H{
		"title":       "Wedding shoot",
		"description": "Full day coverage",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("create order: status %d, body %s", w.Code, w.Body.String())
	}

	orderID := int(parsed["id"].(float64))
	canonical := fmt.Sprintf("%d", orderID)

	// Connect with a non-canonical id; the registry keys on the parsed form.
	conn := dialOrderThread(t, srv.URL, fmt.Sprintf("/api/ws/orders/0%d", orderID), userToken)
	defer conn.Close()

	var welcome map[string]string

	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("failed to read welcome: %v", err)
	}

	if welcome["type"] != "connected" || welcome["order_id"] != canonical {
		t.Fatalf("welcome = %v, want connected for order %s", welcome, canonical)
	}

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/orders/%d/messages", orderID), adminToken, gin.H{
		"content": "Hello",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("staff post: status %d, body %s", w.Code, w.Body.String())
	}

	var refresh map[string]string

	if err := conn.ReadJSON(&refresh); err != nil {
		t.Fatalf("failed to read refresh: %v", err)
	}

	if refresh["type"] != "refresh" || refresh["order_id"] != canonical {
		t.Errorf("refresh = %v, want refresh for order %s", refresh, canonical)
	}

	// Overlapping broadcasts share the connection; the per-client write lock
	// keeps them serialized and every one arrives intact.
	const broadcasts = 25

	var wg sync.WaitGroup

	for i := 0; i < broadcasts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handlers.BroadcastThreadRefresh(canonical)
		}()
	}

	wg.Wait()

	for i := 0; i < broadcasts; i++ {
		var message map[string]string

		if err := conn.ReadJSON(&message); err != nil {
			t.Fatalf("failed to read broadcast %d: %v", i, err)
		}

		if message["type"] != "refresh" {
			t.Errorf("broadcast %d type = %q, want refresh", i, message["type"])
		}
	}
}
