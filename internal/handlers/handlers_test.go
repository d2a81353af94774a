package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caddieworks/myloopcount/internal/accounts"
	"github.com/caddieworks/myloopcount/internal/auth"
	"github.com/caddieworks/myloopcount/internal/ledger"
	"github.com/caddieworks/myloopcount/internal/mail"
	"github.com/caddieworks/myloopcount/internal/models"
	"github.com/caddieworks/myloopcount/internal/social"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Caddy{}, &models.FollowEdge{}, &models.Loop{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedCaddy(t *testing.T, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("str0ng-pass!"), bcrypt.DefaultCost)
	user := models.User{Username: username, Email: username + "@test.com", Password: string(hash), Active: true, Staff: staff}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user: %v", err)
	}
	caddy := models.Caddy{UserID: &user.ID, EmailValidated: true}
	if err := db.Create(&caddy).Error; err != nil {
		t.Fatalf("caddy: %v", err)
	}
	return &user
}

func asUser(r *http.Request, uid uint) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), uid))
}

func formReq(t *testing.T, method, target string, form url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return req
}

func TestSignupActivateLogin(t *testing.T) {
	db := setupTestDB(t)
	rec := &mail.Recorder{}
	svc := accounts.NewService(db, rec, "http://mlc.test")
	h := NewAuthHandler(svc)

	// Signup
	w := httptest.NewRecorder()
	h.Signup(w, formReq(t, http.MethodPost, "/signup", url.Values{
		"username":  {"alice"},
		"email":     {"alice@test.com"},
		"password1": {"str0ng-pass!"},
		"password2": {"str0ng-pass!"},
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if len(rec.Sent) != 1 {
		t.Fatalf("expected 1 activation mail, got %d", len(rec.Sent))
	}

	// Login before activation is rejected
	w = httptest.NewRecorder()
	h.Login(w, formReq(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"str0ng-pass!"}}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("pre-activation login: expected 401 got %d", w.Code)
	}

	// Activate via the mailed key
	var caddy models.Caddy
	if err := db.First(&caddy).Error; err != nil {
		t.Fatalf("caddy: %v", err)
	}
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/activate?key="+caddy.ActivationKey, nil)
	req.Header.Set("Accept", "application/json")
	h.Activate(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("activate: expected 200 got %d", w.Code)
	}

	// Login now succeeds and sets a session cookie
	w = httptest.NewRecorder()
	h.Login(w, formReq(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"str0ng-pass!"}}))
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	found := false
	for _, c := range w.Result().Cookies() {
		if c.Value != "" && c.Name == "mlc_session" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session cookie after login")
	}
}

func TestSignupValidationErrors(t *testing.T) {
	db := setupTestDB(t)
	svc := accounts.NewService(db, &mail.Recorder{}, "http://mlc.test")
	h := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	h.Signup(w, formReq(t, http.MethodPost, "/signup", url.Values{
		"username":  {"al"},
		"email":     {"bad"},
		"password1": {"x"},
		"password2": {"x"},
	}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	var payload struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error != "validation_failed" {
		t.Fatalf("unexpected error code: %s", payload.Error)
	}
	if _, ok := payload.Details["username"]; !ok {
		t.Fatalf("expected username violation, got %v", payload.Details)
	}
}

// Create a loop over HTTP, watch the cached counter rise, delete it, watch it
// return to zero.
func TestLoopCreateDeleteRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	rec := &mail.Recorder{}
	acc := accounts.NewService(db, rec, "http://mlc.test")
	h := NewLoopHandler(ledger.NewService(db), acc, social.NewService(db))
	owner := seedCaddy(t, db, "alice", false)

	w := httptest.NewRecorder()
	h.Create(w, asUser(formReq(t, http.MethodPost, "/loops", url.Values{
		"title":     {"Double carry"},
		"date":      {"2021-03-20"},
		"num_loops": {"2"},
		"money":     {"120"},
		"notes":     {"Good loop"},
	}), owner.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created models.Loop
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	var caddy models.Caddy
	db.Where("user_id = ?", owner.ID).First(&caddy)
	if caddy.LoopCount != 2 {
		t.Fatalf("expected loop_count 2 got %d", caddy.LoopCount)
	}

	req := asUser(formReq(t, http.MethodPost, "/loops/1/delete", url.Values{}), owner.ID)
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	h.Delete(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	db.Where("user_id = ?", owner.ID).First(&caddy)
	if caddy.LoopCount != 0 {
		t.Fatalf("expected loop_count 0 got %d", caddy.LoopCount)
	}
}

func TestLoopDeleteByNonOwnerIs403(t *testing.T) {
	db := setupTestDB(t)
	acc := accounts.NewService(db, &mail.Recorder{}, "http://mlc.test")
	h := NewLoopHandler(ledger.NewService(db), acc, social.NewService(db))
	owner := seedCaddy(t, db, "alice", false)
	intruder := seedCaddy(t, db, "mallory", false)

	w := httptest.NewRecorder()
	h.Create(w, asUser(formReq(t, http.MethodPost, "/loops", url.Values{
		"title": {"Mine"}, "date": {"2021-03-20"}, "num_loops": {"1"}, "money": {"50"},
	}), owner.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d", w.Code)
	}

	req := asUser(formReq(t, http.MethodPost, "/loops/1/delete", url.Values{}), intruder.ID)
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	h.Delete(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", w.Code)
	}

	var n int64
	db.Model(&models.Loop{}).Count(&n)
	if n != 1 {
		t.Fatalf("loop should survive a forbidden delete, count=%d", n)
	}
}

func TestLoopViewScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	acc := accounts.NewService(db, &mail.Recorder{}, "http://mlc.test")
	h := NewLoopHandler(ledger.NewService(db), acc, social.NewService(db))
	owner := seedCaddy(t, db, "alice", false)
	other := seedCaddy(t, db, "bob", false)

	w := httptest.NewRecorder()
	h.Create(w, asUser(formReq(t, http.MethodPost, "/loops", url.Values{
		"title": {"Private"}, "date": {"2021-03-20"}, "num_loops": {"1"}, "money": {"50"},
	}), owner.ID))

	// Someone else's loop reads as missing, not forbidden.
	req := asUser(httptest.NewRequest(http.MethodGet, "/loops/1", nil), other.ID)
	req.Header.Set("Accept", "application/json")
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	h.View(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

// Follow a caddy, then a staff member: the second follow reports success but
// the following count stays at one.
func TestFollowStaffKeepsCountAtOne(t *testing.T) {
	db := setupTestDB(t)
	acc := accounts.NewService(db, &mail.Recorder{}, "http://mlc.test")
	h := NewFriendsHandler(social.NewService(db), acc)
	alice := seedCaddy(t, db, "alice", false)
	seedCaddy(t, db, "bob", false)
	seedCaddy(t, db, "pro", true)

	follow := func(target string) int {
		w := httptest.NewRecorder()
		h.Follow(w, asUser(formReq(t, http.MethodPost, "/friends", url.Values{"caddy_to_follow": {target}}), alice.ID))
		return w.Code
	}
	if code := follow("bob"); code != http.StatusOK {
		t.Fatalf("follow bob: expected 200 got %d", code)
	}
	if code := follow("pro"); code != http.StatusOK {
		t.Fatalf("follow staff: expected 200 got %d", code)
	}
	if code := follow("ghost"); code != http.StatusNotFound {
		t.Fatalf("follow unknown: expected 404 got %d", code)
	}

	w := httptest.NewRecorder()
	req := asUser(httptest.NewRequest(http.MethodGet, "/friends", nil), alice.ID)
	req.Header.Set("Accept", "application/json")
	h.List(w, req)
	var payload struct {
		Friends        []string `json:"friends"`
		TotalFollowing int64    `json:"total_following"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.TotalFollowing != 1 || len(payload.Friends) != 1 || payload.Friends[0] != "bob" {
		t.Fatalf("unexpected friends payload: %+v", payload)
	}
}

func TestFollowersEndpoint(t *testing.T) {
	db := setupTestDB(t)
	acc := accounts.NewService(db, &mail.Recorder{}, "http://mlc.test")
	svc := social.NewService(db)
	h := NewFriendsHandler(svc, acc)
	alice := seedCaddy(t, db, "alice", false)
	bob := seedCaddy(t, db, "bob", false)
	carol := seedCaddy(t, db, "carol", false)

	var aliceCaddy models.Caddy
	db.Where("user_id = ?", alice.ID).First(&aliceCaddy)
	for _, u := range []*models.User{bob, carol} {
		var c models.Caddy
		db.Where("user_id = ?", u.ID).First(&c)
		if err := svc.Follow(c.ID, "alice"); err != nil {
			t.Fatalf("follow: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := asUser(httptest.NewRequest(http.MethodGet, "/followers", nil), alice.ID)
	req.Header.Set("Accept", "application/json")
	h.Followers(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var payload struct {
		Followers []string `json:"followers"`
		Total     int      `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Total != 2 || len(payload.Followers) != 2 {
		t.Fatalf("unexpected followers payload: %+v", payload)
	}
}
