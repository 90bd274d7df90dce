package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/auth"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/config"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/domain"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/notify"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/photos"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/account"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/service/visitor"
)

const (
	testSecret = "test-secret"
	testOrigin = "http://localhost:5173"
)

type testEnv struct {
	handler    http.Handler
	tokens     *auth.TokenIssuer
	hub        *notify.Hub
	visitors   *memVisitors
	accounts   *memAccounts
	adminToken string
	staffToken string
}

func setupTestHandlers(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	tokens := auth.NewTokenIssuer(testSecret, time.Hour)
	accts := newMemAccounts()
	accountSvc := account.NewService(accts, account.WithBcryptCost(bcrypt.MinCost))

	admin, err := accountSvc.Create(ctx, account.CreateInput{Name: "Admin", Email: "admin@mava.test", Password: "admin123", Role: "admin"})
	require.NoError(t, err)
	staff, err := accountSvc.Create(ctx, account.CreateInput{Name: "Secretaria", Email: "sec@mava.test", Password: "sec123", Role: "secretaria"})
	require.NoError(t, err)

	hub := notify.NewHub(8)
	visitors := newMemVisitors()
	groups := fakeGroups{{ID: 1, Name: "GF Centro"}, {ID: 2, Name: "GF Norte"}}
	visitorSvc := visitor.NewService(visitors, groups, notify.Messenger{Publisher: hub})

	dir := t.TempDir()
	backend, err := photos.NewLocalBackend(dir)
	require.NoError(t, err)
	store := photos.NewStore(backend, config.PhotosConfig{MaxSizeMB: 1, MaxWidthPx: 512})

	h := NewHandlers(Deps{
		Login:    auth.NewService(accountSvc, tokens),
		Tokens:   tokens,
		Visitors: visitorSvc,
		Accounts: accountSvc,
		Groups:   groups,
		DBNow: func(context.Context) (time.Time, error) {
			return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), nil
		},
		Photos:         store,
		PhotosDir:      dir,
		Notifications:  notify.NewHandler(hub, []string{testOrigin}),
		Health:         NewHealthChecker(nil, nil, store, hub),
		AllowedOrigins: []string{testOrigin},
	})

	adminToken, _, err := tokens.Issue(domain.Identity{ID: admin.ID, Email: admin.Email, Role: admin.Role})
	require.NoError(t, err)
	staffToken, _, err := tokens.Issue(domain.Identity{ID: staff.ID, Email: staff.Email, Role: staff.Role})
	require.NoError(t, err)

	return &testEnv{
		handler:    SetupRoutes(h),
		tokens:     tokens,
		hub:        hub,
		visitors:   visitors,
		accounts:   accts,
		adminToken: adminToken,
		staffToken: staffToken,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func visitorPayload(group string) map[string]interface{} {
	return map[string]interface{}{
		"nome":            "Maria Souza",
		"telefone":        "61999990000",
		"data_nascimento": "1990-05-17",
		"tipo_evento":     "culto",
		"gf_responsavel":  group,
		"endereco": map[string]string{
			"cep":        "70000-000",
			"logradouro": "Rua A",
			"numero":     "10",
			"bairro":     "Centro",
			"cidade":     "Brasília",
			"uf":         "DF",
		},
	}
}

func drain(ch <-chan []byte) int {
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}

func TestLogin(t *testing.T) {
	env := setupTestHandlers(t)

	rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": " ADMIN@mava.test ", "senha": "admin123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	id, err := env.tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, id.Role)
	assert.Equal(t, "admin@mava.test", id.Email)
	usuario := body["usuario"].(map[string]interface{})
	assert.Equal(t, "Admin", usuario["nome"])
	assert.Equal(t, "admin", usuario["tipo"])
	assert.Nil(t, usuario["logo_url"])

	// The issued token opens protected routes.
	rec = env.do(t, http.MethodGet, "/visitantes", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@mava.test", "senha": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["code"])

	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "nobody@mava.test", "senha": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["code"])

	rec = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	env := setupTestHandlers(t)

	rec := env.do(t, http.MethodPost, "/visitantes", "", visitorPayload("GF Centro"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing_token", decodeBody(t, rec)["code"])

	rec = env.do(t, http.MethodGet, "/visitantes", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decodeBody(t, rec)["code"])

	expired, _, err := auth.NewTokenIssuer(testSecret, -time.Minute).Issue(domain.Identity{ID: 1, Role: domain.RoleAdmin})
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/visitantes", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decodeBody(t, rec)["code"])

	forged, _, err := auth.NewTokenIssuer("other-secret", time.Hour).Issue(domain.Identity{ID: 1, Role: domain.RoleAdmin})
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/api/usuarios", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Equal(t, 0, env.visitors.createCount())
}

func TestCreateVisitor_NotifiesOnce(t *testing.T) {
	env := setupTestHandlers(t)
	obs := env.hub.Join()
	defer env.hub.Leave(obs)

	rec := env.do(t, http.MethodPost, "/visitantes", env.staffToken, visitorPayload("gf centro"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "Maria Souza", body["nome"])
	assert.Equal(t, "pendente", body["status"])
	assert.EqualValues(t, 1, body["gf_id"])
	assert.NotNil(t, body["endereco_id"])

	select {
	case frame := <-obs.C():
		var ev notify.Event
		require.NoError(t, json.Unmarshal(frame, &ev))
		assert.Equal(t, "notification", ev.Name)
		assert.Equal(t, "Novo visitante cadastrado: Maria Souza", ev.Data.Message)
	default:
		t.Fatal("expected a notification frame")
	}
	assert.Equal(t, 0, drain(obs.C()))
}

func TestCreateVisitor_UnknownGroup(t *testing.T) {
	env := setupTestHandlers(t)
	obs := env.hub.Join()
	defer env.hub.Leave(obs)

	rec := env.do(t, http.MethodPost, "/visitantes", env.staffToken, visitorPayload("GF Inexistente"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "group_not_found", body["code"])
	assert.Contains(t, body["details"], "GF Inexistente")

	assert.Equal(t, 0, env.visitors.createCount())
	assert.Equal(t, 0, drain(obs.C()))
}

func TestCreateVisitor_Validation(t *testing.T) {
	env := setupTestHandlers(t)

	payload := visitorPayload("GF Centro")
	delete(payload, "endereco")
	rec := env.do(t, http.MethodPost, "/visitantes", env.staffToken, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeBody(t, rec)["code"])

	payload = visitorPayload("GF Centro")
	payload["tipo_evento"] = "festa"
	rec = env.do(t, http.MethodPost, "/visitantes", env.staffToken, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/visitantes", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+env.staffToken)
	raw := httptest.NewRecorder()
	env.handler.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)

	assert.Equal(t, 0, env.visitors.createCount())
}

func TestUpdateVisitorStatus(t *testing.T) {
	env := setupTestHandlers(t)
	rec := env.do(t, http.MethodPost, "/visitantes", env.staffToken, visitorPayload("GF Norte"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPatch, "/visitantes/1/status", env.staffToken, map[string]string{"status": "entrou em contato"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeBody(t, rec)["code"])

	rec = env.do(t, http.MethodPatch, "/visitantes/1/status", env.adminToken, map[string]string{"status": "convertido"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_status", decodeBody(t, rec)["code"])

	rec = env.do(t, http.MethodPatch, "/visitantes/1/status", env.adminToken, map[string]string{"status": "erro número"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Status do visitante atualizado com sucesso.", body["message"])
	assert.Equal(t, "erro número", body["visitante"].(map[string]interface{})["status"])

	// Any status may follow any other, including going back to pending.
	rec = env.do(t, http.MethodPatch, "/visitantes/1/status", env.adminToken, map[string]string{"status": "pendente"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, "/visitantes/999/status", env.adminToken, map[string]string{"status": "pendente"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPatch, "/visitantes/abc/status", env.adminToken, map[string]string{"status": "pendente"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteVisitor(t *testing.T) {
	env := setupTestHandlers(t)
	rec := env.do(t, http.MethodPost, "/visitantes", env.staffToken, visitorPayload("GF Norte"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPut, "/visitantes/1", env.staffToken, map[string]string{"nome": "Maria S."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Visitante atualizado com sucesso.", decodeBody(t, rec)["message"])

	rec = env.do(t, http.MethodPut, "/visitantes/1", env.staffToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/visitantes/42", env.staffToken, map[string]string{"nome": "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/visitantes", env.staffToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.Visitor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Maria S.", list[0].Name)

	rec = env.do(t, http.MethodDelete, "/visitantes/1", env.staffToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/visitantes/1", env.staffToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["code"])
}

func TestListVisitorsEmptyIsArray(t *testing.T) {
	env := setupTestHandlers(t)
	rec := env.do(t, http.MethodGet, "/visitantes", env.staffToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestGroupsAndConnection(t *testing.T) {
	env := setupTestHandlers(t)

	rec := env.do(t, http.MethodGet, "/api/gfs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"nome":"GF Centro"},{"id":2,"nome":"GF Norte"}]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/testar-conexao", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Conexão com o banco OK", body["mensagem"])
	assert.Equal(t, "2026-03-01T12:00:00Z", body["agora"])
}

func multipartAccount(t *testing.T, fields map[string]string, logo []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if logo != nil {
		fw, err := mw.CreateFormFile("logo", "logo.png")
		require.NoError(t, err)
		_, err = fw.Write(logo)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAccounts(t *testing.T) {
	env := setupTestHandlers(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 20, 20))))

	fields := map[string]string{
		"nome_gf":      "GF Sul",
		"email_gf":     "Sul@Mava.test",
		"senha_gf":     "sul123",
		"tipo_usuario": "Secretaria",
	}

	send := func(method, path, token string, logo []byte, f map[string]string) *httptest.ResponseRecorder {
		body, ct := multipartAccount(t, f, logo)
		req := httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		return rec
	}

	rec := send(http.MethodPost, "/api/usuarios", env.staffToken, nil, fields)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(http.MethodPost, "/api/usuarios", env.adminToken, img.Bytes(), fields)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, "sul@mava.test", created["email_gf"])
	assert.Equal(t, "secretaria", created["tipo_usuario"])
	assert.NotContains(t, created, "senha_gf")
	logoURL, _ := created["logo_url"].(string)
	require.True(t, strings.HasPrefix(logoURL, "http://example.com/fotos/logo-"), logoURL)

	// The stored logo is served back from /fotos.
	rec = env.do(t, http.MethodGet, strings.TrimPrefix(logoURL, "http://example.com"), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = send(http.MethodPost, "/api/usuarios", env.adminToken, nil, fields)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeBody(t, rec)["code"])

	id := int64(created["id"].(float64))
	path := "/api/usuarios/" + jsonNumber(id)

	rec = env.do(t, http.MethodPut, path, env.adminToken, map[string]string{"nome_gf": "GF Sul 2"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "GF Sul 2", decodeBody(t, rec)["nome_gf"])

	rec = env.do(t, http.MethodPut, path, env.adminToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/usuarios", env.staffToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 3)

	rec = env.do(t, http.MethodDelete, path, env.adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, path, env.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func jsonNumber(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestCORSPreflight(t *testing.T) {
	env := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodOptions, "/visitantes/1/status", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/visitantes", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebsocketReceivesRegistration(t *testing.T) {
	env := setupTestHandlers(t)
	srv := httptest.NewServer(env.handler)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", http.Header{"Origin": {testOrigin}})
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return env.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := env.do(t, http.MethodPost, "/visitantes", env.staffToken, visitorPayload("GF Centro"))
	require.Equal(t, http.StatusCreated, rec.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev notify.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "Novo visitante cadastrado: Maria Souza", ev.Data.Message)
}

func TestHealth(t *testing.T) {
	env := setupTestHandlers(t)

	rec := env.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", decodeBody(t, rec)["status"])

	rec = env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "up", status.Checks["photos"].Status)
	assert.Equal(t, notConfigured, status.Checks["database"].Message)
	assert.Equal(t, "healthy", status.Status)

	rec = env.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDetermineOverallStatus(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]ComponentCheck
		want   string
	}{
		{"all up", map[string]ComponentCheck{"database": {Status: "up"}, "redis": {Status: "up"}}, "healthy"},
		{"db down", map[string]ComponentCheck{"database": {Status: "down", Message: "ping failed"}}, "unhealthy"},
		{"redis not configured", map[string]ComponentCheck{"database": {Status: "up"}, "redis": {Status: "down", Message: notConfigured}}, "healthy"},
		{"redis down", map[string]ComponentCheck{"database": {Status: "up"}, "redis": {Status: "down", Message: "refused"}}, "degraded"},
		{"slow db", map[string]ComponentCheck{"database": {Status: "degraded"}}, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineOverallStatus(tt.checks))
		})
	}
}

type relayState string

func (s relayState) State() string { return string(s) }

func TestHealthNotificationsReportRelay(t *testing.T) {
	hub := notify.NewHub(1)

	c := NewHealthChecker(nil, nil, nil, hub).checkNotifications()
	assert.Equal(t, "up", c.Status)

	c = NewHealthChecker(nil, nil, nil, hub).WithRelay(relayState(notify.RelaySubscribed)).checkNotifications()
	assert.Equal(t, "up", c.Status)
	assert.Contains(t, c.Message, "relay subscribed")

	c = NewHealthChecker(nil, nil, nil, hub).WithRelay(relayState(notify.RelayStopped)).checkNotifications()
	assert.Equal(t, "degraded", c.Status)
	assert.Contains(t, c.Message, "relay stopped")
}
