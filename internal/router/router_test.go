package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"petbook-access/internal/platform/config"
	"petbook-access/internal/platform/logger"
	"petbook-access/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(router.NewRouter(router.Options{
		Config: config.Config{PublicOrigin: "https://petbook.test"},
		Log:    logger.Nop(),
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_QRHandshake(t *testing.T) {
	ts := newTestServer(t)

	guardianID := "guardian-1"
	proID := "pro-1"

	// 1) Guardian registra su mascota
	petID := createPet(t, ts.URL, guardianID, map[string]any{
		"name":      "Milo",
		"species":   "dog",
		"breed":     "mestizo",
		"sex":       "male",
		"allergies": []string{"penicilina"},
	})

	// 2) Sin acceso, el profesional no ve el perfil
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID, proID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 before access, got %d", st)
		}
	}

	// 3) Solo el guardian emite tokens QR
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets/"+petID+"/access-tokens", proID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 issuing token as non-owner, got %d", st)
		}
	}

	token := issueToken(t, ts.URL, guardianID, petID)

	// 4) El profesional escanea y pide acceso
	var requestID string
	{
		st, body := doReq(t, ts.URL, "POST", "/actions", proID, map[string]any{
			"action": "request_access",
			"petId":  petID,
			"token":  token,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 request_access, got %d body=%s", st, string(body))
		}
		var resp struct {
			RequestID string `json:"requestId"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.RequestID == "" {
			t.Fatalf("request_access: missing requestId body=%s", string(body))
		}
		requestID = resp.RequestID
	}

	// 5) La solicitud aparece en la bandeja del guardian
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID+"/access-requests", guardianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing requests, got %d body=%s", st, string(body))
		}
		var items []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].ID != requestID || items[0].Status != "pending" {
			t.Fatalf("expected one pending request, got %s", string(body))
		}
	}

	// 6) El wait del profesional con timeout corto devuelve el estado actual
	{
		st, body := doReq(t, ts.URL, "GET", "/access-requests/"+requestID+"/wait?timeout=50ms", proID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 wait, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "pending" {
			t.Fatalf("expected pending after wait timeout, got %s", string(body))
		}
	}

	// 7) Solo el guardian aprueba
	{
		st, _ := doReq(t, ts.URL, "POST", "/access-requests/"+requestID+"/approve", proID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 approving as professional, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/access-requests/"+requestID+"/approve", guardianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "approved" {
			t.Fatalf("expected approved, got %s", string(body))
		}
	}

	// 8) El profesional ya ve perfil e historial
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, proID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get pet after approve, got %d body=%s", st, string(body))
		}
	}

	// 9) La aprobación deja su consulta en el historial
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID+"/records", proID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list records, got %d body=%s", st, string(body))
		}
		var items []struct {
			Type   string `json:"type"`
			Source string `json:"source"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].Type != "CONSULTATION" || items[0].Source != "access_approval" {
			t.Fatalf("expected auto consultation record, got %s", string(body))
		}
	}

	// 10) El grant temporal figura en /me/grants del profesional
	{
		st, body := doReq(t, ts.URL, "GET", "/me/grants", proID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 my grants, got %d body=%s", st, string(body))
		}
		var items []struct {
			Kind   string `json:"kind"`
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].Kind != "temporary" || items[0].Status != "granted" {
			t.Fatalf("expected one temporary granted, got %s", string(body))
		}
	}

	// 11) Al guardian le llegó la notificación de la solicitud
	{
		st, body := doReq(t, ts.URL, "GET", "/me/notifications", guardianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 notifications, got %d body=%s", st, string(body))
		}
		var items []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) == 0 {
			t.Fatalf("expected notifications for guardian, got %s", string(body))
		}
		st, body = doReq(t, ts.URL, "POST", "/notifications/"+items[0].ID+"/read", guardianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 mark read, got %d body=%s", st, string(body))
		}
	}
}

// El long poll de /wait puede durar hasta 2 minutos; con el WriteTimeout
// del server la respuesta se escribiría después del deadline y se
// perdería. El handler corre el deadline de la conexión.
func TestHTTP_WaitLongPollSurvivesWriteTimeout(t *testing.T) {
	ts := httptest.NewUnstartedServer(router.NewRouter(router.Options{
		Config: config.Config{PublicOrigin: "https://petbook.test"},
		Log:    logger.Nop(),
	}))
	ts.Config.WriteTimeout = 150 * time.Millisecond
	ts.Start()
	t.Cleanup(ts.Close)

	guardianID := "guardian-1"
	proID := "pro-1"

	petID := createPet(t, ts.URL, guardianID, map[string]any{"name": "Luna", "species": "cat"})
	token := issueToken(t, ts.URL, guardianID, petID)

	_, body := doReq(t, ts.URL, "POST", "/actions", proID, map[string]any{
		"action": "request_access",
		"petId":  petID,
		"token":  token,
	})
	var created struct {
		RequestID string `json:"requestId"`
	}
	_ = json.Unmarshal(body, &created)
	if created.RequestID == "" {
		t.Fatalf("request_access: missing requestId body=%s", string(body))
	}

	start := time.Now()
	st, body := doReq(t, ts.URL, "GET", "/access-requests/"+created.RequestID+"/wait?timeout=500ms", proID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 wait past WriteTimeout, got %d body=%s", st, string(body))
	}
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Fatalf("expected wait to block past the server WriteTimeout, returned after %v", elapsed)
	}

	var resp struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Status != "pending" {
		t.Fatalf("expected pending after wait expiry, got %s", string(body))
	}
}

func TestHTTP_EndToEnd_RejectKeepsDoorClosed(t *testing.T) {
	ts := newTestServer(t)

	guardianID := "guardian-1"
	proID := "pro-1"

	petID := createPet(t, ts.URL, guardianID, map[string]any{"name": "Nina", "species": "cat"})
	token := issueToken(t, ts.URL, guardianID, petID)

	_, body := doReq(t, ts.URL, "POST", "/actions", proID, map[string]any{
		"action": "request_access",
		"petId":  petID,
		"token":  token,
	})
	var resp struct {
		RequestID string `json:"requestId"`
	}
	_ = json.Unmarshal(body, &resp)

	st, body := doReq(t, ts.URL, "POST", "/access-requests/"+resp.RequestID+"/reject", guardianID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 reject, got %d body=%s", st, string(body))
	}

	// Rechazado: sin perfil, sin historial, sin grants.
	{
		st, _ := doReq(t, ts.URL, "GET", "/pets/"+petID, proID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 after reject, got %d", st)
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/me/grants", proID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 my grants, got %d", st)
		}
		var items []any
		_ = json.Unmarshal(body, &items)
		if len(items) != 0 {
			t.Fatalf("expected no grants after reject, got %s", string(body))
		}
	}
}

func TestHTTP_EndToEnd_PendingRecordCoauthorship(t *testing.T) {
	ts := newTestServer(t)

	guardianID := "guardian-1"
	proID := "pro-1"

	petID := createPet(t, ts.URL, guardianID, map[string]any{"name": "Rocco", "species": "dog"})

	// Sin acceso vigente no se proponen registros.
	{
		st, _ := doReq(t, ts.URL, "POST", "/pets/"+petID+"/pending-records", proID, map[string]any{
			"title": "Vacuna antirrábica",
			"type":  "VACCINE",
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 submit without access, got %d", st)
		}
	}

	// Atajo: emergencia abre acceso temporal inmediato.
	{
		st, body := doReq(t, ts.URL, "POST", "/actions", proID, map[string]any{
			"action": "send_emergency_alert",
			"petId":  petID,
			"emergencyData": map[string]any{
				"reason": "atropellamiento",
			},
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 emergency, got %d body=%s", st, string(body))
		}
	}

	// Ahora sí puede proponer.
	var pendingID string
	{
		st, body := doReq(t, ts.URL, "POST", "/pets/"+petID+"/pending-records", proID, map[string]any{
			"title": "Vacuna antirrábica",
			"type":  "VACCINE",
			"notes": "dosis anual",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 submit pending, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.ID == "" || resp.Status != "pending" {
			t.Fatalf("expected pending record, got %s", string(body))
		}
		pendingID = resp.ID
	}

	// El guardian lo ve en la bandeja del pet y lo aprueba.
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID+"/pending-records", guardianID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list pending, got %d body=%s", st, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "POST", "/pending-records/"+pendingID+"/resolve", guardianID, map[string]any{
			"decision": "approved",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 resolve, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "approved" {
			t.Fatalf("expected approved, got %s", string(body))
		}
	}

	// El profesional ve el desenlace en /me/pending-records.
	{
		st, body := doReq(t, ts.URL, "GET", "/me/pending-records", proID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 my pending, got %d body=%s", st, string(body))
		}
		var items []struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].Status != "approved" {
			t.Fatalf("expected one approved pending, got %s", string(body))
		}
	}
}

func createPet(t *testing.T, baseURL, userID string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create pet: missing id body=%s", string(body))
	}
	return resp.ID
}

func issueToken(t *testing.T, baseURL, ownerID, petID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets/"+petID+"/access-tokens", ownerID, nil)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 issue token, got %d body=%s", st, string(body))
	}

	var resp struct {
		Token    string `json:"token"`
		ShareURL string `json:"share_url"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Token == "" {
		t.Fatalf("issue token: missing token body=%s", string(body))
	}
	if !strings.Contains(resp.ShareURL, "/scan-health?") {
		t.Fatalf("expected deep link in share_url, got %q", resp.ShareURL)
	}
	return resp.Token
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
