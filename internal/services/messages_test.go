package services

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/titan3755/photobytes-blog/db"
	"github.com/titan3755/photobytes-blog/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()

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
}

func createUser(t *testing.T, username, role string) models.User {
	t.Helper()

	user := models.User{
		Name:           username,
		Username:       username,
		Email:          username + "@example.com",
		PasswordHash:   "irrelevant",
		Role:           role,
		CanComment:     true,
		SessionVersion: 1,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}

	return user
}

func createOrder(t *testing.T, author models.User) models.Order {
	t.Helper()

	order := models.Order{
		AuthorID:    author.ID,
		Title:       "Custom photo set",
		Description: "Ten edited shots",
		Status:      models.OrderPending,
	}

	if err := db.DB.Create(&order).Error; err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	return order
}

func TestPostMessageSetsReadFlagsBySender(t *testing.T) {
	setupTestDB(t)

	author := createUser(t, "alice", models.RoleUser)
	admin := createUser(t, "root", models.RoleAdmin)
	order := createOrder(t, author)

	staffMsg, err := PostMessage(order.ID, Viewer{ID: admin.ID, Staff: true}, "Hello")

	if err != nil {
		t.Fatalf("staff post failed: %v", err)
	}

	if !staffMsg.IsReadByAdmin || staffMsg.IsReadByUser {
		t.Errorf("staff message flags = (admin %v, user %v), want (true, false)",
			staffMsg.IsReadByAdmin, staffMsg.IsReadByUser)
	}

	userMsg, err := PostMessage(order.ID, Viewer{ID: author.ID}, "Hi there")

	if err != nil {
		t.Fatalf("author post failed: %v", err)
	}

	if userMsg.IsReadByAdmin || !userMsg.IsReadByUser {
		t.Errorf("author message flags = (admin %v, user %v), want (false, true)",
			userMsg.IsReadByAdmin, userMsg.IsReadByUser)
	}
}

func TestPostMessageValidation(t *testing.T) {
	setupTestDB(t)

	author := createUser(t, "alice", models.RoleUser)
	order := createOrder(t, author)

	if _, err := PostMessage(order.ID, Viewer{ID: author.ID}, "   \t  "); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("whitespace-only content: got %v, want ErrEmptyContent", err)
	}

	if _, err := PostMessage(order.ID+100, Viewer{ID: author.ID}, "Hello"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("missing order: got %v, want ErrOrderNotFound", err)
	}
}

func TestThreadAccessDeniedForStrangers(t *testing.T) {
	setupTestDB(t)

	author := createUser(t, "alice", models.RoleUser)
	stranger := createUser(t, "mallory", models.RoleUser)
	order := createOrder(t, author)

	viewer := Viewer{ID: stranger.ID}

	if _, err := ListMessages(order.ID, viewer); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("list: got %v, want ErrNotAuthorized", err)
	}

	if _, err := PostMessage(order.ID, viewer, "let me in"); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("post: got %v, want ErrNotAuthorized", err)
	}

	if err := MarkThreadRead(order.ID, viewer); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("mark read: got %v, want ErrNotAuthorized", err)
	}

	// No side effects: the rejected post must not have been stored.
	var count int64

	if err := db.DB.Model(&models.OrderMessage{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}

	if count != 0 {
		t.Errorf("message count after rejected operations = %d, want 0", count)
	}
}

func TestUnreadCountAndMarkReadSweep(t *testing.T) {
	setupTestDB(t)

	author := createUser(t, "alice", models.RoleUser)
	admin := createUser(t, "root", models.RoleAdmin)
	order := createOrder(t, author)

	authorViewer := Viewer{ID: author.ID}
	staffViewer := Viewer{ID: admin.ID, Staff: true}

	if _, err := PostMessage(order.ID, staffViewer, "Hello"); err != nil {
		t.Fatalf("post failed: %v", err)
	}

	unread, err := UnreadCount(order.ID, authorViewer)

	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}

	if unread != 1 {
		t.Errorf("author unread after staff post = %d, want 1", unread)
	}

	if unread, _ = UnreadCount(order.ID, staffViewer); unread != 0 {
		t.Errorf("staff unread after own post = %d, want 0", unread)
	}

	if err := MarkThreadRead(order.ID, authorViewer); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}

	if unread, _ = UnreadCount(order.ID, authorViewer); unread != 0 {
		t.Errorf("author unread after mark read = %d, want 0", unread)
	}

	// Author's sweep must not touch the staff cursor.
	if unread, _ = UnreadCount(order.ID, staffViewer); unread != 0 {
		t.Errorf("staff unread after author's mark read = %d, want 0", unread)
	}
}

func TestMarkThreadReadIdempotent(t *testing.T) {
	setupTestDB(t)

	author := createUser(t, "alice", models.RoleUser)
	admin := createUser(t, "root", models.RoleAdmin)
	order := createOrder(t, author)

	authorViewer := Viewer{ID: author.ID}

	for i := 0; i < 3; i++ {
		if _, err := PostMessage(order.ID, Viewer{ID: admin.ID, Staff: true}, "msg"); err != nil {
			t.Fatalf("post failed: %v", err)
		}
	}

	if err := MarkThreadRead(order.ID, authorViewer); err != nil {
		t.Fatalf("first mark read failed: %v", err)
	}

	if err := MarkThreadRead(order.ID, authorViewer); err != nil {
		t.Fatalf("second mark read failed: %v", err)
	}

	unread, err := UnreadCount(order.ID, authorViewer)

	if err != nil {
		t.Fatalf("unread count failed: %v", err)
	}

	if unread != 0 {
		t.Errorf("unread after double mark read = %d, want 0", unread)
	}
}

func TestListMessagesAscendingWithSender(t *testing.T) {
	setupTestDB(t)

	author := createUser(t, "alice", models.RoleUser)
	admin := createUser(t, "root", models.RoleAdmin)
	order := createOrder(t, author)

	contents := []string{"first", "second", "third"}

	for i, content := range contents {
		viewer := Viewer{ID: author.ID}
		if i%2 == 1 {
			viewer = Viewer{ID: admin.ID, Staff: true}
		}

		if _, err := PostMessage(order.ID, viewer, content); err != nil {
			t.Fatalf("post %q failed: %v", content, err)
		}
	}

	messages, err := ListMessages(order.ID, Viewer{ID: admin.ID, Staff: true})

	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(messages) != len(contents) {
		t.Fatalf("got %d messages, want %d", len(messages), len(contents))
	}

	for i, message := range messages {
		if message.Content != contents[i] {
			t.Errorf("message %d content = %q, want %q", i, message.Content, contents[i])
		}

		if message.Sender.Username == "" {
			t.Errorf("message %d has no sender preloaded", i)
		}
	}
}
