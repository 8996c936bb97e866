package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"bienesraices/internal/config"
	"bienesraices/internal/database"
	"bienesraices/internal/middleware"
	"bienesraices/internal/notifier"
	"bienesraices/internal/repositories"
	"bienesraices/internal/server"
	"bienesraices/internal/services"
	"bienesraices/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

// outbox records notifications instead of sending them.
type outbox struct {
	mu   sync.Mutex
	sent []notifier.Message
}

func (o *outbox) Send(_ context.Context, msg notifier.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last(kind notifier.Kind, email string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].Kind == kind && o.sent[i].Email == email {
			return o.sent[i].Token
		}
	}
	return ""
}

type testApp struct {
	app       *fiber.App
	auth      *services.AuthService
	outbox    *outbox
	uploadDir string
}

// setupApp wires the real stack over an in-memory SQLite database with CSRF disabled.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	cfg := &config.Config{
		BaseURL:       "http://localhost:3000",
		JWTSecret:     "test_jwt_secret",
		BcryptCost:    10,
		StorageDriver: config.StorageLocal,
		UploadDir:     t.TempDir(),
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.OpenDialector(sqlite.Open(dsn))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(context.Background(), db))

	images, err := storage.NewLocalImageStore(cfg.UploadDir)
	require.NoError(t, err)

	userRepo := repositories.NewGORMUserRepository(db)
	propertyRepo := repositories.NewGORMPropertyRepository(db)
	messageRepo := repositories.NewGORMMessageRepository(db)
	catalogRepo := repositories.NewGORMCatalogRepository(db)

	box := &outbox{}
	authService := services.NewAuthService(userRepo, services.NewTokenService(cfg.JWTSecret), box, cfg.BcryptCost)
	propertyService := services.NewPropertyService(propertyRepo, messageRepo, catalogRepo, images)

	app := server.NewApp(cfg, server.Services{
		Auth:       authService,
		Properties: propertyService,
		Messages:   services.NewMessageService(propertyService, messageRepo),
		Browse:     services.NewBrowseService(propertyRepo, catalogRepo),
	})
	return &testApp{app: app, auth: authService, outbox: box, uploadDir: cfg.UploadDir}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func (a *testApp) do(t *testing.T, req *http.Request, session string) *http.Response {
	t.Helper()
	if session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: session})
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (a *testApp) get(t *testing.T, path, session string) *http.Response {
	return a.do(t, httptest.NewRequest(http.MethodGet, path, nil), session)
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values, session string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(t, req, session)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func firstError(t *testing.T, view map[string]any) string {
	t.Helper()
	errs, ok := view["errores"].([]any)
	require.True(t, ok, "no errores in %v", view)
	require.NotEmpty(t, errs)
	return errs[0].(map[string]any)["msg"].(string)
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookie {
			return c.Value
		}
	}
	return ""
}

// signUp registers, confirms and logs in a user, returning the session credential.
func (a *testApp) signUp(t *testing.T, name, email, password string) string {
	t.Helper()
	resp := a.postForm(t, "/auth/registro", url.Values{
		"nombre":           {name},
		"email":            {email},
		"password":         {password},
		"repetir-password": {password},
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	a.auth.Wait()

	resp = a.get(t, "/auth/confirmar/"+a.outbox.last(notifier.KindRegistration, email), "")
	require.Equal(t, "Cuenta confirmada", decode(t, resp)["pagina"])

	resp = a.postForm(t, "/auth/login", url.Values{"email": {email}, "password": {password}}, "")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	credential := sessionCookie(resp)
	require.NotEmpty(t, credential)
	return credential
}

func TestAuthFlow(t *testing.T) {
	a := setupApp(t)

	resp := a.postForm(t, "/auth/registro", url.Values{
		"nombre":           {"Ana"},
		"email":            {"ana@example.com"},
		"password":         {"secret1"},
		"repetir-password": {"secret1"},
	}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cuenta creada Correctamente", decode(t, resp)["pagina"])
	a.auth.Wait()
	token := a.outbox.last(notifier.KindRegistration, "ana@example.com")
	require.NotEmpty(t, token)

	// Duplicate email and invalid input are shown on the form.
	resp = a.postForm(t, "/auth/registro", url.Values{
		"nombre":           {"Ana"},
		"email":            {"ana@example.com"},
		"password":         {"secret1"},
		"repetir-password": {"secret1"},
	}, "")
	assert.Equal(t, "El Usuario ya esta registrado", firstError(t, decode(t, resp)))

	resp = a.postForm(t, "/auth/registro", url.Values{"email": {"x"}}, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "El nombre no puede estar vacío", firstError(t, decode(t, resp)))

	// Unconfirmed users cannot log in.
	resp = a.postForm(t, "/auth/login", url.Values{"email": {"ana@example.com"}, "password": {"secret1"}}, "")
	assert.Equal(t, "El usuario no está confirmado", firstError(t, decode(t, resp)))

	resp = a.get(t, "/auth/confirmar/"+token, "")
	assert.Equal(t, "Cuenta confirmada", decode(t, resp)["pagina"])

	resp = a.get(t, "/auth/confirmar/"+token, "")
	view := decode(t, resp)
	assert.Equal(t, "Error al confirmar cuenta", view["pagina"])
	assert.Equal(t, true, view["error"])

	resp = a.postForm(t, "/auth/login", url.Values{"email": {"nadie@example.com"}, "password": {"secret1"}}, "")
	assert.Equal(t, "El usuario es incorrecto", firstError(t, decode(t, resp)))

	resp = a.postForm(t, "/auth/login", url.Values{"email": {"ana@example.com"}, "password": {"wrong"}}, "")
	assert.Equal(t, "Contraseña incorrecta", firstError(t, decode(t, resp)))

	resp = a.postForm(t, "/auth/login", url.Values{"email": {"ana@example.com"}, "password": {"secret1"}}, "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/mis-propiedades", resp.Header.Get("Location"))
	setCookie := resp.Header.Get("Set-Cookie")
	assert.Contains(t, strings.ToLower(setCookie), "httponly")
	credential := sessionCookie(resp)
	require.NotEmpty(t, credential)

	resp = a.get(t, "/mis-propiedades?pagina=1", credential)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Mis Propiedades", decode(t, resp)["pagina"])

	resp = a.get(t, "/auth/cerrar-sesion", credential)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))
	assert.Empty(t, sessionCookie(resp))
}

func TestProtectedRoutesRedirect(t *testing.T) {
	a := setupApp(t)

	for _, path := range []string{"/mis-propiedades", "/propiedades/crear", "/mensajes/abc"} {
		resp := a.get(t, path, "")
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/auth/login", resp.Header.Get("Location"), path)

		resp = a.get(t, path, "not.a.jwt")
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/auth/login", resp.Header.Get("Location"), path)
	}

	credential := a.signUp(t, "Ana", "ana@example.com", "secret1")
	resp := a.get(t, "/mis-propiedades", credential)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/mis-propiedades?pagina=1", resp.Header.Get("Location"))
}

func TestPasswordResetFlow(t *testing.T) {
	a := setupApp(t)
	a.signUp(t, "Ana", "ana@example.com", "secret1")

	resp := a.postForm(t, "/auth/olvide-password", url.Values{"email": {"nadie@example.com"}}, "")
	assert.Equal(t, "El email no pertenece a ningun usuario", firstError(t, decode(t, resp)))

	resp = a.postForm(t, "/auth/olvide-password", url.Values{"email": {"ana@example.com"}}, "")
	assert.Equal(t, "Reestablecer", decode(t, resp)["pagina"])
	a.auth.Wait()
	first := a.outbox.last(notifier.KindPasswordReset, "ana@example.com")

	resp = a.postForm(t, "/auth/olvide-password", url.Values{"email": {"ana@example.com"}}, "")
	resp.Body.Close()
	a.auth.Wait()
	second := a.outbox.last(notifier.KindPasswordReset, "ana@example.com")
	require.NotEqual(t, first, second)

	resp = a.get(t, "/auth/olvide-password/"+first, "")
	assert.Equal(t, "Error al recuperar cuenta", decode(t, resp)["pagina"])

	resp = a.get(t, "/auth/olvide-password/"+second, "")
	assert.Equal(t, "Reestablecer password", decode(t, resp)["pagina"])

	resp = a.postForm(t, "/auth/olvide-password/"+second, url.Values{
		"password":         {"nueva123"},
		"repetir-password": {"otra123"},
	}, "")
	assert.Equal(t, "Las contraseñas deben coincidir", firstError(t, decode(t, resp)))

	resp = a.postForm(t, "/auth/olvide-password/"+second, url.Values{
		"password":         {"nueva123"},
		"repetir-password": {"nueva123"},
	}, "")
	assert.Equal(t, "Password reestablecido", decode(t, resp)["pagina"])

	resp = a.postForm(t, "/auth/login", url.Values{"email": {"ana@example.com"}, "password": {"nueva123"}}, "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func propertyForm(title string) url.Values {
	return url.Values{
		"titulo":          {title},
		"descripcion":     {"Casa amplia con jardín"},
		"categoria":       {"1"},
		"precio":          {"2"},
		"habitaciones":    {"3"},
		"estacionamiento": {"1"},
		"wc":              {"2"},
		"calle":           {"Calle Falsa 123"},
		"lat":             {"19.43"},
		"lng":             {"-99.13"},
	}
}

func uploadImage(t *testing.T, a *testApp, id, filename, session string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("imagen", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/propiedades/agregar-imagen/"+id, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return a.do(t, req, session)
}

func TestPropertyLifecycle(t *testing.T) {
	a := setupApp(t)
	owner := a.signUp(t, "Ana", "ana@example.com", "secret1")
	other := a.signUp(t, "Beto", "beto@example.com", "secret2")

	resp := a.get(t, "/propiedades/crear", owner)
	view := decode(t, resp)
	assert.Len(t, view["categorias"], len(database.DefaultCategories))
	assert.Len(t, view["precios"], len(database.DefaultPrices))

	form := propertyForm("")
	resp = a.postForm(t, "/propiedades/crear", form, owner)
	assert.Equal(t, "El titulo del anuncio es obligatorio", firstError(t, decode(t, resp)))

	resp = a.postForm(t, "/propiedades/crear", propertyForm("Casa en Coyoacán"), owner)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/propiedades/agregar-imagen/"))
	id := strings.TrimPrefix(location, "/propiedades/agregar-imagen/")

	// Unpublished listings are not public.
	resp = a.get(t, "/propiedad/"+id, "")
	assert.Equal(t, "/404", resp.Header.Get("Location"))

	// Another user is sent back to their dashboard on every mutation.
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/propiedades/editar/"+id, nil),
		httptest.NewRequest(http.MethodGet, "/propiedades/agregar-imagen/"+id, nil),
		httptest.NewRequest(http.MethodPost, "/propiedades/eliminar/"+id, nil),
		httptest.NewRequest(http.MethodPut, "/propiedades/"+id, nil),
		httptest.NewRequest(http.MethodGet, "/mensajes/"+id, nil),
	} {
		resp = a.do(t, req, other)
		assert.Equal(t, http.StatusFound, resp.StatusCode, req.URL.Path)
		assert.Equal(t, "/mis-propiedades", resp.Header.Get("Location"), req.URL.Path)
	}
	resp = a.postForm(t, "/propiedades/editar/"+id, propertyForm("Robada"), other)
	assert.Equal(t, "/mis-propiedades", resp.Header.Get("Location"))

	resp = uploadImage(t, a, id, "casa.gif", owner)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = uploadImage(t, a, id, "casa.jpg", owner)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/mis-propiedades", resp.Header.Get("Location"))

	resp = a.get(t, "/propiedad/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode(t, resp)
	assert.Equal(t, "Casa en Coyoacán", view["pagina"])
	assert.Equal(t, false, view["esVendedor"])
	property := view["propiedad"].(map[string]any)
	image := property["imagen"].(string)
	assert.True(t, strings.HasSuffix(image, ".jpg"))
	_, err := os.Stat(filepath.Join(a.uploadDir, image))
	assert.NoError(t, err)

	resp = a.get(t, "/propiedad/"+id, owner)
	assert.Equal(t, true, decode(t, resp)["esVendedor"])

	// Buyer messages.
	resp = a.postForm(t, "/propiedad/"+id, url.Values{"mensaje": {"corto"}}, other)
	assert.Equal(t, "El mensaje no puede ir vacío o es muy corto", firstError(t, decode(t, resp)))

	resp = a.postForm(t, "/propiedad/"+id, url.Values{"mensaje": {"Me interesa, ¿sigue disponible?"}}, other)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp = a.get(t, "/mensajes/"+id, owner)
	messages := decode(t, resp)["mensajes"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "Me interesa, ¿sigue disponible?", messages[0].(map[string]any)["mensaje"])

	// Map API and home page list the published listing.
	resp = a.get(t, "/api/propiedades", "")
	var listings []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listings))
	resp.Body.Close()
	require.Len(t, listings, 1)
	assert.Equal(t, id, listings[0]["id"])

	resp = a.get(t, "/", "")
	assert.Len(t, decode(t, resp)["casas"], 1)

	resp = a.postForm(t, "/buscador", url.Values{"termino": {"Coyoacán"}}, "")
	assert.Len(t, decode(t, resp)["propiedades"], 1)

	// Owner edits, unpublishes and finally deletes the listing.
	resp = a.postForm(t, "/propiedades/editar/"+id, propertyForm("Casa en Tlalpan"), owner)
	assert.Equal(t, "/mis-propiedades", resp.Header.Get("Location"))

	req := httptest.NewRequest(http.MethodPut, "/propiedades/"+id, nil)
	resp = a.do(t, req, owner)
	assert.Equal(t, true, decode(t, resp)["resultado"])

	resp = a.get(t, "/propiedad/"+id, "")
	assert.Equal(t, "/404", resp.Header.Get("Location"))

	resp = a.get(t, "/mis-propiedades?pagina=1", owner)
	view = decode(t, resp)
	require.Len(t, view["propiedades"], 1)
	assert.Equal(t, "Casa en Tlalpan", view["propiedades"].([]any)[0].(map[string]any)["titulo"])

	resp = a.postForm(t, "/propiedades/eliminar/"+id, url.Values{}, owner)
	assert.Equal(t, "/mis-propiedades", resp.Header.Get("Location"))
	_, err = os.Stat(filepath.Join(a.uploadDir, image))
	assert.True(t, os.IsNotExist(err))

	resp = a.get(t, "/mis-propiedades?pagina=1", owner)
	assert.Empty(t, decode(t, resp)["propiedades"])
}

func TestPublicPages(t *testing.T) {
	a := setupApp(t)

	resp := a.get(t, "/", "")
	view := decode(t, resp)
	assert.Equal(t, "Inicio", view["pagina"])
	assert.Len(t, view["categorias"], len(database.DefaultCategories))

	resp = a.get(t, "/categorias/2", "")
	assert.Equal(t, "Departamentos en Venta", decode(t, resp)["pagina"])

	resp = a.get(t, "/categorias/99", "")
	assert.Equal(t, "/404", resp.Header.Get("Location"))

	resp = a.get(t, "/404", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.postForm(t, "/buscador", url.Values{"termino": {" "}}, "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	resp = a.get(t, "/health", "")
	assert.Equal(t, "healthy", decode(t, resp)["status"])
}
