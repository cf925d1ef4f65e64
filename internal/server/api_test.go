package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"simplesocial/internal/cache"
	"simplesocial/internal/config"
	"simplesocial/internal/models"
	"simplesocial/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type apiHarness struct {
	app *fiber.App
	srv *Server
	db  *gorm.DB
}

func setupAPI(t *testing.T) *apiHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.OpenSQLite(t)

	cfg := &config.Config{
		JWTSecret:          "api-test-secret-do-not-use-elsewhere",
		Port:               "8080",
		Env:                "test",
		PictureMaxHeight:   600,
		PictureThumbHeight: 160,
		PictureMaxUploadMB: 10,
	}

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{BodyLimit: 64 * 1024 * 1024})
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	return &apiHarness{app: app, srv: srv, db: db}
}

func (h *apiHarness) request(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && json.Valid(raw) {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func (h *apiHarness) signup(t *testing.T, username, email string) (string, uint) {
	t.Helper()
	resp, body := h.request(t, "POST", "/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "SecurePass12!@",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "signup %s: %v", username, body)
	user := body["user"].(map[string]any)
	return body["token"].(string), uint(user["id"].(float64))
}

// TestAPIEndToEnd drives the whole API surface through one Fiber app: signup,
// auth, posts with pictures, likes, follows, comments, admin actions and
// account deletion with its cascade.
func TestAPIEndToEnd(t *testing.T) {
	h := setupAPI(t)

	var (
		aliceToken, bobToken string
		aliceID, bobID       uint
		postID, pictureID    uint
		commentID            uint
	)

	t.Run("Health", func(t *testing.T) {
		resp, body := h.request(t, "GET", "/health/live", "", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "up", body["status"])

		resp, body = h.request(t, "GET", "/health/ready", "", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("Signup", func(t *testing.T) {
		aliceToken, aliceID = h.signup(t, "alice", "alice@example.com")
		bobToken, bobID = h.signup(t, "bob", "bob@example.com")
		require.NotEmpty(t, aliceToken)
		require.NotEqual(t, aliceID, bobID)
	})

	t.Run("Auth Rejections", func(t *testing.T) {
		resp, _ := h.request(t, "GET", "/api/users/me", "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		resp, _ = h.request(t, "GET", "/api/users/me", "garbage-token", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

		resp, _ = h.request(t, "POST", "/api/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "WrongPass12!@",
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Login", func(t *testing.T) {
		resp, body := h.request(t, "POST", "/api/auth/login", "", map[string]string{
			"email":    "alice@example.com",
			"password": "SecurePass12!@",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("Create Post With Picture", func(t *testing.T) {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		require.NoError(t, form.WriteField("description", "hello from alice"))
		part, err := form.CreateFormFile("pictures", "pic.png")
		require.NoError(t, err)
		_, err = part.Write(testutil.TinyPNG(t, 8, 8))
		require.NoError(t, err)
		require.NoError(t, form.Close())

		req := httptest.NewRequest("POST", "/api/posts/", &buf)
		req.Header.Set("Content-Type", form.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+aliceToken)
		resp, err := h.app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		var post models.Post
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&post))
		require.NotZero(t, post.ID)
		require.Len(t, post.Pictures, 1)
		postID = post.ID
		pictureID = post.Pictures[0].ID
	})

	t.Run("Serve Picture", func(t *testing.T) {
		path := fmt.Sprintf("/api/posts/%d/pictures/%d", postID, pictureID)
		req := httptest.NewRequest("GET", path, nil)
		resp, err := h.app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

		req = httptest.NewRequest("GET", path+"?size=thumbnail", nil)
		resp, err = h.app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/webp", resp.Header.Get("Content-Type"))
	})

	t.Run("Toggle Post Like", func(t *testing.T) {
		path := fmt.Sprintf("/api/posts/%d/like", postID)
		resp, body := h.request(t, "POST", path, bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["liked"])
		assert.EqualValues(t, 1, body["likes"])

		resp, body = h.request(t, "POST", path, bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, false, body["liked"])
		assert.EqualValues(t, 0, body["likes"])

		// Leave the post liked for the cascade check later.
		resp, _ = h.request(t, "POST", path, bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("Toggle Follow", func(t *testing.T) {
		path := fmt.Sprintf("/api/users/%d/follow", aliceID)
		resp, body := h.request(t, "POST", path, bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["following"])
		assert.EqualValues(t, 1, body["readers"])

		resp, _ = h.request(t, "POST", fmt.Sprintf("/api/users/%d/follow", bobID), bobToken, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "self-follow rejected")

		resp, body = h.request(t, "GET", fmt.Sprintf("/api/users/%d", aliceID), bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.EqualValues(t, 1, body["readers_count"])
	})

	t.Run("Feed", func(t *testing.T) {
		resp, _ := h.request(t, "GET", "/api/posts/feed", bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("Comment And Like", func(t *testing.T) {
		resp, body := h.request(t, "POST", fmt.Sprintf("/api/posts/%d/comments", postID), bobToken, map[string]string{
			"text": "nice post",
		})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		commentID = uint(body["id"].(float64))

		resp, body = h.request(t, "POST", fmt.Sprintf("/api/comments/%d/like", commentID), aliceToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["liked"])
		assert.EqualValues(t, 1, body["likes"])
	})

	t.Run("Delete Comment Forbidden For Bystander", func(t *testing.T) {
		stranger := testutil.NewUser(t, h.db, "stranger")
		token, err := h.srv.generateToken(stranger.ID, stranger.Username)
		require.NoError(t, err)

		resp, _ := h.request(t, "DELETE", fmt.Sprintf("/api/comments/%d", commentID), token, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("Admin Routes", func(t *testing.T) {
		resp, _ := h.request(t, "POST", fmt.Sprintf("/api/admin/users/%d/promote", bobID), bobToken, nil)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, "non-admin rejected")

		root := testutil.NewUser(t, h.db, "root", func(u *models.User) { u.IsAdmin = true })
		rootToken, err := h.srv.generateToken(root.ID, root.Username)
		require.NoError(t, err)

		resp, _ = h.request(t, "POST", fmt.Sprintf("/api/admin/users/%d/promote", bobID), rootToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, _ = h.request(t, "POST", fmt.Sprintf("/api/admin/users/%d/demote", bobID), rootToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("Delete Account Cascades", func(t *testing.T) {
		resp, _ := h.request(t, "DELETE", "/api/users/me", aliceToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		// Alice's post and everything attached to it is gone.
		resp, _ = h.request(t, "GET", fmt.Sprintf("/api/posts/%d", postID), "", nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		var count int64
		require.NoError(t, h.db.Model(&models.Comment{}).Count(&count).Error)
		assert.Zero(t, count)
		require.NoError(t, h.db.Model(&models.LikedPost{}).Count(&count).Error)
		assert.Zero(t, count)
		require.NoError(t, h.db.Model(&models.Following{}).Count(&count).Error)
		assert.Zero(t, count)

		// Bob's follow counter was decremented with the account.
		var bob models.User
		require.NoError(t, h.db.First(&bob, bobID).Error)
		assert.Zero(t, bob.FollowsCount)

		// Alice's sessions died with the row.
		resp, _ = h.request(t, "GET", "/api/users/me", aliceToken, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Logout Revokes Session", func(t *testing.T) {
		resp, _ := h.request(t, "POST", "/api/auth/logout", bobToken, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, _ = h.request(t, "GET", "/api/users/me", bobToken, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
