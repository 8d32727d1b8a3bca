package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmapos-api/internal/application/dto"
	apphttp "github.com/jhoicas/farmapos-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/farmapos-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testOrgID     = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "farmapos-test"
	testExpMin    = 60
)

// tokenForRole devuelve el header Authorization de un usuario de la organización de prueba.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testOrgID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

// actorApp expone el actor que los handlers del POS reciben tras AuthMiddleware.
func actorApp() *fiber.App {
	app := fiber.New()
	app.Get("/actor", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		actor, ok := apphttp.GetActor(c)
		return c.JSON(fiber.Map{"ok": ok, "user_id": actor.UserID, "organization_id": actor.OrganizationID, "role": actor.Role})
	})
	app.Get("/sin-auth", func(c *fiber.Ctx) error {
		_, ok := apphttp.GetActor(c)
		return c.JSON(fiber.Map{"ok": ok})
	})
	return app
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e.Code
}

// ──────────────────────────────────────────────────────────────────────────────
// Token
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_RechazaTokens(t *testing.T) {
	expired, err := pkgjwt.Generate(testJWTSecret, testUserID, testOrgID, "admin", testIssuer, -1)
	require.NoError(t, err)
	foreign, err := pkgjwt.Generate("secreto-de-otra-instalacion", testUserID, testOrgID, "admin", testIssuer, testExpMin)
	require.NoError(t, err)
	noOrg, err := pkgjwt.Generate(testJWTSecret, testUserID, "", "admin", testIssuer, testExpMin)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"esquema basic", "Basic dXNlcjpwYXNz", "INVALID_TOKEN"},
		{"bearer vacío", "Bearer   ", "MISSING_TOKEN"},
		{"expirado", "Bearer " + expired, "INVALID_TOKEN"},
		{"firmado con otro secreto", "Bearer " + foreign, "INVALID_TOKEN"},
		{"sin organización", "Bearer " + noOrg, "INVALID_TOKEN"},
	}
	app := actorApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/actor", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			var e dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.Equal(t, tc.code, e.Code)
		})
	}
}

func TestGetActor_DesdeToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/actor", nil)
	req.Header.Set("Authorization", tokenForRole(t, "cashier"))
	resp, err := actorApp().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		OK             bool   `json:"ok"`
		UserID         string `json:"user_id"`
		OrganizationID string `json:"organization_id"`
		Role           string `json:"role"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.OK)
	assert.Equal(t, testUserID, body.UserID)
	assert.Equal(t, testOrgID, body.OrganizationID)
	assert.Equal(t, "cashier", body.Role)
}

func TestGetActor_SinMiddlewareNoHayActor(t *testing.T) {
	resp, err := actorApp().Test(httptest.NewRequest(http.MethodGet, "/sin-auth", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body["ok"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Roles sobre el router del POS
// ──────────────────────────────────────────────────────────────────────────────

const unknownID = "00000000-0000-0000-0000-00000000ffff"

// supervisorRoutes sólo admiten admin y pharmacist.
var supervisorRoutes = []struct {
	method string
	path   string
}{
	{http.MethodPost, "/api/sales/" + unknownID + "/void"},
	{http.MethodPost, "/api/inventory/batches"},
	{http.MethodPost, "/api/inventory/batches/" + unknownID + "/adjust"},
	{http.MethodPatch, "/api/inventory/batches/" + unknownID + "/status"},
	{http.MethodPost, "/api/inventory/items/" + unknownID + "/reconcile"},
}

func TestRouter_RutasDeSupervisorRechazanOtrosRoles(t *testing.T) {
	app := buildAPI(t)
	for _, r := range supervisorRoutes {
		for role, want := range map[string]struct {
			status int
			code   string
		}{
			"cashier": {http.StatusForbidden, "FORBIDDEN"},
			"auditor": {http.StatusForbidden, "FORBIDDEN"},
			"":        {http.StatusUnauthorized, "MISSING_ROLE"},
		} {
			resp, body := call(t, app, r.method, r.path, role, map[string]string{})
			assert.Equal(t, want.status, resp.StatusCode, "%s %s rol=%q", r.method, r.path, role)
			assert.Equal(t, want.code, errorCode(t, body), "%s %s rol=%q", r.method, r.path, role)
		}
	}
}

func TestRouter_RutasDeSupervisorAdmitenAdminYFarmaceutico(t *testing.T) {
	app := buildAPI(t)
	for _, r := range supervisorRoutes {
		for _, role := range []string{"admin", "pharmacist"} {
			resp, body := call(t, app, r.method, r.path, role, map[string]string{})
			assert.NotEqual(t, http.StatusUnauthorized, resp.StatusCode, "%s %s rol=%s: %s", r.method, r.path, role, body)
			assert.NotEqual(t, http.StatusForbidden, resp.StatusCode, "%s %s rol=%s: %s", r.method, r.path, role, body)
		}
	}
}

func TestRouter_AnulacionPorAdmin(t *testing.T) {
	app := buildAPI(t)
	receiveViaAPI(t, app, "L-ADM", 5)

	resp, body := call(t, app, http.MethodPost, "/api/sales", "cashier", saleBody(1, "4.00"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var sale map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &sale))
	id, _ := sale["id"].(string)

	resp, body = call(t, app, http.MethodPost, "/api/sales/"+id+"/void", "admin", map[string]string{"reason": "devolución"})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
}

func TestRouter_RutasAbiertasAlCajero(t *testing.T) {
	app := buildAPI(t)
	open := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/inventory/summary?facility_id=" + apiFacilityID},
		{http.MethodGet, "/api/alerts?status=ACTIVE"},
		{http.MethodPost, "/api/alerts/scan/low-stock?facility_id=" + apiFacilityID},
		{http.MethodPost, "/api/alerts/scan/expiring?facility_id=" + apiFacilityID},
	}
	for _, r := range open {
		resp, body := call(t, app, r.method, r.path, "cashier", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "%s %s: %s", r.method, r.path, body)
	}
}
