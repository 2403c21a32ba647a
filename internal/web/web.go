package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/belzunces/monsieurchef/internal/controller"
	"github.com/belzunces/monsieurchef/internal/middleware"
	"github.com/belzunces/monsieurchef/internal/models"
	"github.com/belzunces/monsieurchef/internal/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	// SessionCookie identifies a browser session.
	SessionCookie = "mcc_session"

	controllerKey  = "web_controller"
	sessionMaxAge  = int(service.DefaultSessionTTL / time.Second)
	maxUploadBytes = 10 << 20
)

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"formatDate": func(ms int64) string {
			return time.UnixMilli(ms).Format("02/01/2006")
		},
	}).ParseFS(templateFS, "templates/*.tmpl")
}

// ErrImageTooLarge is shown when an upload exceeds maxUploadBytes.
var ErrImageTooLarge = errors.New("La imagen es demasiado grande (máximo 10 MB)")

// Handler serves the HTML pages. View state lives in one Controller per
// session cookie.
type Handler struct {
	registry     *controller.Registry
	secureCookie bool
	limiter      *middleware.RateLimiter
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithConvertLimiter rate limits form conversions with limiter.
func WithConvertLimiter(limiter *middleware.RateLimiter) HandlerOption {
	return func(h *Handler) { h.limiter = limiter }
}

func NewHandler(registry *controller.Registry, secureCookie bool, opts ...HandlerOption) *Handler {
	h := &Handler{registry: registry, secureCookie: secureCookie}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes installs the templates and the page routes on router.
func (h *Handler) RegisterRoutes(router *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	router.SetHTMLTemplate(tmpl)

	pages := router.Group("/", h.session)
	{
		pages.GET("/", h.Index)
		pages.POST("/convert", append(h.convertLimit(), h.Convert)...)
		pages.POST("/save", h.Save)
		pages.GET("/saved", h.Saved)
		pages.GET("/saved/:id", h.SavedDetail)
		pages.POST("/saved/:id/delete", h.Delete)
		pages.GET("/auth", h.AuthForm)
		pages.POST("/auth/login", h.Login)
		pages.POST("/auth/register", h.Register)
		pages.POST("/logout", h.Logout)
	}
	return nil
}

type authForm struct {
	Name  string
	Email string
}

type pageData struct {
	Title    string
	State    controller.State
	Flash    string
	Loading  bool
	AuthMode string
	Form     authForm
}

func (h *Handler) convertLimit() []gin.HandlerFunc {
	if h.limiter == nil {
		return nil
	}
	return []gin.HandlerFunc{h.limiter.RateLimitMiddlewareWith(h.rejectConvert)}
}

func (h *Handler) rejectConvert(c *gin.Context, message string, _ int) {
	h.render(c, http.StatusTooManyRequests, "index.tmpl", pageData{Flash: message})
	c.Abort()
}

// session resolves the session cookie, issuing a new one when absent, and
// attaches the session's controller.
func (h *Handler) session(c *gin.Context) {
	sessionID, err := c.Cookie(SessionCookie)
	if err != nil || uuid.Validate(sessionID) != nil {
		sessionID = uuid.New().String()
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sessionID, sessionMaxAge, "/", "", h.secureCookie, true)

	ctrl, err := h.registry.Get(c.Request.Context(), sessionID)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "web: loading session failed", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Set(controllerKey, ctrl)
	c.Next()
}

func ctrlFrom(c *gin.Context) *controller.Controller {
	return c.MustGet(controllerKey).(*controller.Controller)
}

func (h *Handler) render(c *gin.Context, status int, name string, data pageData) {
	data.State = ctrlFrom(c).State()
	data.Loading = data.State.Conversion.Status == models.ConversionLoading
	c.HTML(status, name, data)
}

func (h *Handler) Index(c *gin.Context) {
	_ = ctrlFrom(c).Navigate(c.Request.Context(), controller.ViewConverter)
	h.render(c, http.StatusOK, "index.tmpl", pageData{})
}

func (h *Handler) Convert(c *gin.Context) {
	ctx := c.Request.Context()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+(1<<20))
	if err := parseForm(c.Request); err != nil {
		h.render(c, uploadStatus(err), "index.tmpl", pageData{Flash: err.Error()})
		return
	}

	text := c.PostForm("text")
	image, mimeType, err := readUpload(c)
	if err != nil {
		h.render(c, uploadStatus(err), "index.tmpl", pageData{Flash: err.Error()})
		return
	}

	err = ctrlFrom(c).Submit(ctx, text, image, mimeType)
	if errors.Is(err, service.ErrEmptyInput) {
		h.render(c, http.StatusBadRequest, "index.tmpl", pageData{Flash: err.Error()})
		return
	}
	// Conversion failures are part of the state and shown on the page.
	c.Redirect(http.StatusSeeOther, "/")
}

// parseForm reads the conversion form, multipart or not.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxUploadBytes)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
		return nil
	case errors.As(err, &tooLarge):
		return ErrImageTooLarge
	default:
		return service.ErrUnsupportedImage
	}
}

func uploadStatus(err error) int {
	if errors.Is(err, ErrImageTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// readUpload returns the optional "image" file of a multipart form.
func readUpload(c *gin.Context) ([]byte, string, error) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", service.ErrUnsupportedImage
	}
	if fh.Size == 0 {
		return nil, "", nil
	}
	if fh.Size > maxUploadBytes {
		return nil, "", ErrImageTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}
	mimeType, err := service.DetectImageMIME(data)
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}

func (h *Handler) Save(c *gin.Context) {
	_, err := ctrlFrom(c).SaveCurrent(c.Request.Context())
	switch {
	case errors.Is(err, service.ErrLoginRequired):
		c.Redirect(http.StatusSeeOther, "/auth")
	case errors.Is(err, controller.ErrNothingToSave):
		h.render(c, http.StatusBadRequest, "index.tmpl", pageData{Flash: err.Error()})
	case err != nil:
		_ = c.Error(err)
		h.render(c, middleware.StatusFor(err), "index.tmpl", pageData{Flash: "No se pudo guardar la receta"})
	default:
		c.Redirect(http.StatusSeeOther, "/")
	}
}

func (h *Handler) Saved(c *gin.Context) {
	err := ctrlFrom(c).Navigate(c.Request.Context(), controller.ViewSaved)
	if errors.Is(err, service.ErrLoginRequired) {
		c.Redirect(http.StatusSeeOther, "/auth")
		return
	}
	if err != nil {
		_ = c.Error(err)
		h.render(c, http.StatusInternalServerError, "saved.tmpl", pageData{Title: "Mis Recetas", Flash: "No se pudieron cargar tus recetas"})
		return
	}
	h.render(c, http.StatusOK, "saved.tmpl", pageData{Title: "Mis Recetas"})
}

func (h *Handler) SavedDetail(c *gin.Context) {
	saved, err := ctrlFrom(c).Select(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, service.ErrLoginRequired):
		c.Redirect(http.StatusSeeOther, "/auth")
	case errors.Is(err, service.ErrRecipeNotFound):
		h.render(c, http.StatusNotFound, "saved.tmpl", pageData{Title: "Mis Recetas", Flash: "Receta no encontrada"})
	case err != nil:
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
	default:
		h.render(c, http.StatusOK, "detail.tmpl", pageData{Title: saved.Title})
	}
}

func (h *Handler) Delete(c *gin.Context) {
	err := ctrlFrom(c).Delete(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, service.ErrLoginRequired):
		c.Redirect(http.StatusSeeOther, "/auth")
	case errors.Is(err, service.ErrRecipeNotFound):
		h.render(c, http.StatusNotFound, "saved.tmpl", pageData{Title: "Mis Recetas", Flash: "Receta no encontrada"})
	case err != nil:
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
	default:
		c.Redirect(http.StatusSeeOther, "/saved")
	}
}

func (h *Handler) AuthForm(c *gin.Context) {
	mode := "login"
	if c.Query("mode") == "register" {
		mode = "register"
	}
	h.render(c, http.StatusOK, "auth.tmpl", pageData{Title: "Acceso", AuthMode: mode})
}

func (h *Handler) Login(c *gin.Context) {
	form := authForm{Email: c.PostForm("email")}
	err := ctrlFrom(c).Login(c.Request.Context(), form.Email, c.PostForm("password"))
	h.afterAuth(c, "login", form, err)
}

func (h *Handler) Register(c *gin.Context) {
	form := authForm{Name: c.PostForm("name"), Email: c.PostForm("email")}
	err := ctrlFrom(c).Register(c.Request.Context(), form.Email, c.PostForm("password"), form.Name)
	h.afterAuth(c, "register", form, err)
}

func (h *Handler) afterAuth(c *gin.Context, mode string, form authForm, err error) {
	if err == nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	flash := err.Error()
	if !service.IsAuthError(err) {
		_ = c.Error(err)
		flash = "Error desconocido"
	}
	h.render(c, middleware.StatusFor(err), "auth.tmpl", pageData{Title: "Acceso", AuthMode: mode, Form: form, Flash: flash})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := ctrlFrom(c).Logout(c.Request.Context()); err != nil {
		_ = c.Error(err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}
