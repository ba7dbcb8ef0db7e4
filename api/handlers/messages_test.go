package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"noteboard/api/handlers"
	"noteboard/api/routes"
	"noteboard/db"
	"noteboard/models"
	"noteboard/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const approvalToken = "secret-approval-token"

type testEnv struct {
	router *gin.Engine
	resend *resendRecorder
}

type resendRecorder struct {
	mu     sync.Mutex
	emails []map[string]string
}

func (rec *resendRecorder) handler(w http.ResponseWriter, r *http.Request) {
	var payload map[string]string
	_ = json.NewDecoder(r.Body).Decode(&payload)
	rec.mu.Lock()
	rec.emails = append(rec.emails, payload)
	rec.mu.Unlock()
	w.Write([]byte(`{"id":"email_1"}`))
}

func (rec *resendRecorder) count() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.emails)
}

// setupEnv собирает полный роутер с фейковыми внешними сервисами
func setupEnv(t *testing.T) *testEnv {
	require.NoError(t, db.ConnectTestDB())
	gin.SetMode(gin.TestMode)

	// Провайдер идентичности: два известных токена, остальные - 401
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer student-token":
			w.Write([]byte(`{"email":"student@sas.upenn.edu","email_verified":true}`))
		case "Bearer outsider-token":
			w.Write([]byte(`{"email":"outsider@gmail.com","email_verified":true}`))
		default:
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
		}
	}))
	t.Cleanup(provider.Close)

	classifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req["inputs"], "awful") {
			w.Write([]byte(`[[{"label":"toxic","score":0.95}]]`))
			return
		}
		w.Write([]byte(`[{"label":"toxic","score":0.01}]`))
	}))
	t.Cleanup(classifier.Close)

	rec := &resendRecorder{}
	resend := httptest.NewServer(http.HandlerFunc(rec.handler))
	t.Cleanup(resend.Close)

	gate := services.NewIdentityGate(provider.URL, "anon-key", []string{"upenn.edu"})
	moderation := services.NewModerationClient(classifier.URL, "key", 0.9, 2*time.Second)
	notifier := services.NewNotifier("test-key", resend.URL, "board@example.com", "moderator@example.com",
		"http://localhost:8080", approvalToken)
	moderators := services.NewModeratorService()
	messageService := services.NewMessageService(moderation, notifier, "#f0f0f0")

	msgHandlers := handlers.NewMessageHandlers(messageService)
	modHandlers := handlers.NewModerationHandlers(messageService, nil, approvalToken)
	authHandlers := handlers.NewAuthHandlers(moderators, approvalToken)

	router := gin.New()
	routes.PublicApi(router, gate, moderators, msgHandlers, modHandlers, authHandlers)

	return &testEnv{router: router, resend: rec}
}

func (env *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func messageCount(t *testing.T) int64 {
	var count int64
	require.NoError(t, db.ORM.Model(&models.Message{}).Count(&count).Error)
	return count
}

func TestSubmitAndListFlow(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/v1/messages", "student-token",
		map[string]string{"recipients": "ABC", "body": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["approved"])
	assert.Nil(t, resp["message"])

	w2 := env.do("GET", "/api/v1/messages", "", nil)
	require.Equal(t, http.StatusOK, w2.Code)

	var board []map[string]interface{}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &board))
	require.Len(t, board, 1)
	assert.Equal(t, "ABC", board[0]["recipients"])
	assert.Equal(t, "hello", board[0]["body"])

	// Публичный список не раскрывает автора и флаг approved
	assert.NotContains(t, w2.Body.String(), "user_email")
	assert.NotContains(t, w2.Body.String(), "student@sas.upenn.edu")
	assert.NotContains(t, w2.Body.String(), "approved")
}

func TestSubmitOutsiderForbidden(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/v1/messages", "outsider-token",
		map[string]string{"recipients": "ABC", "body": "hello"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Строка не создана
	assert.Equal(t, int64(0), messageCount(t))
}

func TestSubmitWithoutCredential(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/v1/messages", "",
		map[string]string{"recipients": "ABC", "body": "hello"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, int64(0), messageCount(t))
}

func TestSubmitInvalidCredential(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/v1/messages", "expired-token",
		map[string]string{"recipients": "ABC", "body": "hello"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitMissingFields(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/v1/messages", "student-token",
		map[string]string{"recipients": "ABC"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", "/api/v1/messages", "student-token",
		map[string]string{"body": "hello"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, int64(0), messageCount(t))
}

func TestSubmitSevereReturnsAdvisory(t *testing.T) {
	env := setupEnv(t)

	w := env.do("POST", "/api/v1/messages", "student-token",
		map[string]string{"recipients": "ABC", "body": "you are awful"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["approved"])
	advisory, _ := resp["message"].(string)
	assert.Contains(t, advisory, "waiting for approval")

	// Доска пуста до решения модератора
	w2 := env.do("GET", "/api/v1/messages", "", nil)
	var board []map[string]interface{}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &board))
	assert.Empty(t, board)

	// Уведомление модератору зафиксировано
	assert.Eventually(t, func() bool { return env.resend.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func submitSevere(t *testing.T, env *testEnv) int64 {
	w := env.do("POST", "/api/v1/messages", "student-token",
		map[string]string{"recipients": "AB", "body": "you are awful"})
	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return int64(resp["id"].(float64))
}

func TestEmailLinkApprove(t *testing.T) {
	env := setupEnv(t)
	id := submitSevere(t, env)

	// Неверный токен - 401, запись не меняется
	w := env.do("GET", fmt.Sprintf("/moderation/approve?messageId=%d&token=wrong", id), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	wList := env.do("GET", "/api/v1/messages", "", nil)
	var board []map[string]interface{}
	require.NoError(t, json.Unmarshal(wList.Body.Bytes(), &board))
	assert.Empty(t, board)

	// Клик по ссылке из письма: GET отвечает HTML
	w = env.do("GET", fmt.Sprintf("/moderation/approve?messageId=%d&token=%s", id, approvalToken), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Message Approved")

	wList = env.do("GET", "/api/v1/messages", "", nil)
	require.NoError(t, json.Unmarshal(wList.Body.Bytes(), &board))
	assert.Len(t, board, 1)
}

func TestEmailLinkRejectJSON(t *testing.T) {
	env := setupEnv(t)
	id := submitSevere(t, env)

	// Программный вызов: POST с JSON телом
	w := env.do("POST", "/moderation/reject", "",
		map[string]interface{}{"messageId": id, "token": approvalToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	// Повторный reject - NotFound
	w = env.do("POST", "/moderation/reject", "",
		map[string]interface{}{"messageId": id, "token": approvalToken})
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, int64(0), messageCount(t))
}

func TestModeratorSessionApproveReject(t *testing.T) {
	env := setupEnv(t)
	id := submitSevere(t, env)

	// Без сессии действия модератора закрыты
	w := env.do("POST", fmt.Sprintf("/api/v1/messages/%d/approve", id), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Регистрация закрыта общим токеном
	w = env.do("POST", "/api/v1/auth/register", "", map[string]string{
		"email": "mod@example.com", "password": "pw12345678", "approval_token": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("POST", "/api/v1/auth/register", "", map[string]string{
		"email": "mod@example.com", "password": "pw12345678", "approval_token": approvalToken,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do("POST", "/api/v1/auth/login", "", map[string]string{
		"email": "mod@example.com", "password": "pw12345678",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var loginResp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	sessionToken := loginResp["token"].(string)

	// Approve из сессии, идемпотентно
	w = env.do("POST", fmt.Sprintf("/api/v1/messages/%d/approve", id), sessionToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do("POST", fmt.Sprintf("/api/v1/messages/%d/approve", id), sessionToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Reject удаляет, повторный - 404
	w = env.do("POST", fmt.Sprintf("/api/v1/messages/%d/reject", id), sessionToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do("POST", fmt.Sprintf("/api/v1/messages/%d/reject", id), sessionToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListOrderingNewestFirst(t *testing.T) {
	env := setupEnv(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		row := models.Message{
			Recipients: fmt.Sprintf("R%d", i),
			Body:       fmt.Sprintf("note %d", i),
			Color:      "#f0f0f0",
			UserEmail:  "hidden@upenn.edu",
			Approved:   true,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.ORM.Create(&row).Error)
	}

	w := env.do("GET", "/api/v1/messages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var board []models.BoardMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	require.Len(t, board, 4)
	for i := 1; i < len(board); i++ {
		assert.False(t, board[i].CreatedAt.After(board[i-1].CreatedAt))
	}
	assert.Equal(t, "R3", board[0].Recipients)
}
