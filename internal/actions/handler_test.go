package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	mem "petbook-access/internal/adapters/storage/memory"
	"petbook-access/internal/domain/accessrequests"
	"petbook-access/internal/domain/accesstokens"
	"petbook-access/internal/domain/emergency"
	"petbook-access/internal/domain/grants"
	"petbook-access/internal/domain/records"
	"petbook-access/internal/middleware"
	"petbook-access/internal/platform/logger"
	"petbook-access/internal/realtime"
)

type ownerMap map[string]string

func (o ownerMap) OwnerOf(ctx context.Context, petID string) (string, error) {
	owner, ok := o[petID]
	if !ok {
		return "", errors.New("pet not found")
	}
	return owner, nil
}

type testEnv struct {
	srv    *httptest.Server
	tokens *accesstokens.Service
	grants *grants.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	owners := ownerMap{"pet-1": "guardian-1"}

	tokensSvc := accesstokens.NewService(mem.NewAccessTokensRepo())
	grantsSvc := grants.NewService(mem.NewGrantsRepo(), nil, nil, logger.Nop())
	recordsSvc := records.NewService(mem.NewHealthRecordsRepo())

	requestsSvc := accessrequests.NewService(accessrequests.Deps{
		Repo:     mem.NewAccessRequestsRepo(),
		Tokens:   tokensSvc,
		Granter:  grantsSvc,
		Recorder: recordsSvc,
		Owners:   owners,
		Bus:      realtime.NewMemoryBus(logger.Nop()),
		Log:      logger.Nop(),
	})

	emergencySvc := emergency.NewService(grantsSvc, recordsSvc, nil, nil, logger.Nop())

	r := chi.NewRouter()
	r.Use(middleware.AuthContext(nil))
	NewHandler(requestsSvc, emergencySvc, owners).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, tokens: tokensSvc, grants: grantsSvc}
}

func (e *testEnv) post(t *testing.T, userID string, body map[string]any) (int, map[string]any) {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/actions", bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Debug-User-ID", userID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestActions_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.post(t, "", map[string]any{"action": ActionRequestAccess})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestActions_UnknownAction(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.post(t, "pro-1", map[string]any{"action": "fly_to_the_moon"})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestActions_RequestAccess_HappyPath(t *testing.T) {
	env := newTestEnv(t)

	tok, err := env.tokens.Issue(context.Background(), "pet-1")
	require.NoError(t, err)

	status, out := env.post(t, "pro-1", map[string]any{
		"action": ActionRequestAccess,
		"petId":  "pet-1",
		"token":  tok.Value,
	})
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, out["requestId"])
}

func TestActions_RequestAccess_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	status, out := env.post(t, "pro-1", map[string]any{
		"action": ActionRequestAccess,
		"petId":  "pet-1",
		"token":  "garbage",
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "token_invalid", out["error"])
}

func TestActions_RequestAccess_SpoofedProfessional(t *testing.T) {
	env := newTestEnv(t)

	tok, err := env.tokens.Issue(context.Background(), "pet-1")
	require.NoError(t, err)

	// professionalId del body distinto al caller autenticado
	status, _ := env.post(t, "pro-1", map[string]any{
		"action":         ActionRequestAccess,
		"petId":          "pet-1",
		"token":          tok.Value,
		"professionalId": "pro-2",
	})
	require.Equal(t, http.StatusForbidden, status)
}

func TestActions_ApproveAccess_GuardianOnly(t *testing.T) {
	env := newTestEnv(t)

	tok, err := env.tokens.Issue(context.Background(), "pet-1")
	require.NoError(t, err)

	status, out := env.post(t, "pro-1", map[string]any{
		"action": ActionRequestAccess,
		"petId":  "pet-1",
		"token":  tok.Value,
	})
	require.Equal(t, http.StatusOK, status)
	requestID := out["requestId"].(string)

	// El profesional no puede aprobar su propia solicitud.
	status, _ = env.post(t, "pro-1", map[string]any{
		"action":    ActionApproveAccess,
		"requestId": requestID,
	})
	require.Equal(t, http.StatusForbidden, status)

	// El guardian sí.
	status, out = env.post(t, "guardian-1", map[string]any{
		"action":    ActionApproveAccess,
		"requestId": requestID,
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, out["success"])

	// La aprobación abre el acceso temporal.
	allowed, err := env.grants.CheckAccess(context.Background(), "pet-1", "pro-1")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestActions_RejectAccess(t *testing.T) {
	env := newTestEnv(t)

	tok, err := env.tokens.Issue(context.Background(), "pet-1")
	require.NoError(t, err)

	_, out := env.post(t, "pro-1", map[string]any{
		"action": ActionRequestAccess,
		"petId":  "pet-1",
		"token":  tok.Value,
	})
	requestID := out["requestId"].(string)

	status, out := env.post(t, "guardian-1", map[string]any{
		"action":    ActionRejectAccess,
		"requestId": requestID,
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, out["success"])

	allowed, err := env.grants.CheckAccess(context.Background(), "pet-1", "pro-1")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestActions_EmergencyAlert(t *testing.T) {
	env := newTestEnv(t)

	// Pet inexistente: la emergencia no inventa pets.
	status, out := env.post(t, "pro-1", map[string]any{
		"action": ActionEmergencyAlert,
		"petId":  "ghost",
	})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "pet_not_found", out["error"])

	status, out = env.post(t, "pro-1", map[string]any{
		"action": ActionEmergencyAlert,
		"petId":  "pet-1",
		"emergencyData": map[string]any{
			"reason":    "hemorragia",
			"allergies": []string{"penicilina"},
		},
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, out["success"])

	// Acceso inmediato sin aprobación del guardian.
	allowed, err := env.grants.CheckAccess(context.Background(), "pet-1", "pro-1")
	require.NoError(t, err)
	require.True(t, allowed)
}
