package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/belzunces/monsieurchef/internal/models"
	"github.com/belzunces/monsieurchef/internal/service"
)

// View is the page a client is looking at.
type View string

const (
	ViewConverter   View = "converter"
	ViewSaved       View = "saved"
	ViewSavedDetail View = "saved-detail"
)

// ErrNothingToSave is returned by SaveCurrent when there is no converted recipe.
var ErrNothingToSave = errors.New("No hay ninguna receta convertida para guardar")

// State is a snapshot of a client's view state.
type State struct {
	User       *models.User
	View       View
	Conversion models.ConversionState
	Saved      []models.SavedRecipe
	Selected   *models.SavedRecipe
	JustSaved  bool
	InputText  string
}

// LoggedIn reports whether the snapshot has a current user.
func (s State) LoggedIn() bool {
	return s.User != nil
}

// Controller owns the view state of one client session. All methods are safe
// for concurrent use; the lock is released while the model call is in flight.
type Controller struct {
	sessionID string
	store     service.IRecipeStore
	converter service.IConverter
	archive   service.IPhotoArchive

	// saveMu serializes SaveCurrent so a slow upload is not saved twice.
	saveMu sync.Mutex

	mu         sync.Mutex
	user       *models.User
	view       View
	conversion models.ConversionState
	saved      []models.SavedRecipe
	selected   *models.SavedRecipe
	inputText  string

	// generation increments on every Submit; responses for an older
	// generation are dropped.
	generation uint64

	// photo the current result was converted from, if any
	resultImage     []byte
	resultImageMIME string

	justSaved bool
	lastSaved *models.SavedRecipe
}

// New creates a controller for sessionID. archive may be nil.
func New(sessionID string, store service.IRecipeStore, converter service.IConverter, archive service.IPhotoArchive) *Controller {
	return &Controller{
		sessionID:  sessionID,
		store:      store,
		converter:  converter,
		archive:    archive,
		view:       ViewConverter,
		conversion: models.IdleConversion(),
	}
}

// SessionID returns the client session this controller belongs to.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Init loads the session's current user and their saved recipes.
func (c *Controller) Init(ctx context.Context) error {
	user, err := c.store.CurrentUser(ctx, c.sessionID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
	return c.refreshSavedLocked(ctx)
}

// Submit converts text and/or an image. With neither, it returns
// service.ErrEmptyInput and leaves the state untouched. Conversion errors are
// recorded in the state and also returned.
func (c *Controller) Submit(ctx context.Context, text string, image []byte, imageMIME string) error {
	if strings.TrimSpace(text) == "" && len(image) == 0 {
		return service.ErrEmptyInput
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.view = ViewConverter
	c.inputText = text
	c.conversion = models.LoadingConversion()
	c.justSaved = false
	c.lastSaved = nil
	c.resultImage = nil
	c.resultImageMIME = ""
	c.mu.Unlock()

	recipe, err := c.converter.Convert(ctx, models.ConversionRequest{
		Text:          text,
		Image:         image,
		ImageMIMEType: imageMIME,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		slog.DebugContext(ctx, "controller: dropping stale conversion result", "generation", gen, "current", c.generation)
		return nil
	}
	if err != nil {
		c.conversion = models.FailedConversion(err.Error())
		return err
	}
	c.conversion = models.SucceededConversion(recipe)
	if len(image) > 0 {
		c.resultImage = image
		c.resultImageMIME = imageMIME
	}
	return nil
}

// SaveCurrent stores the converted recipe for the current user. Until the
// next conversion, repeated calls return the first saved copy. The photo
// upload runs without holding the state lock.
func (c *Controller) SaveCurrent(ctx context.Context) (*models.SavedRecipe, error) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.user == nil {
		c.mu.Unlock()
		return nil, service.ErrLoginRequired
	}
	if c.conversion.Status != models.ConversionSuccess || c.conversion.Recipe == nil {
		c.mu.Unlock()
		return nil, ErrNothingToSave
	}
	if c.justSaved && c.lastSaved != nil {
		saved := c.lastSaved
		c.mu.Unlock()
		return saved, nil
	}
	userID := c.user.ID
	gen := c.generation
	recipe := *c.conversion.Recipe
	image, imageMIME := c.resultImage, c.resultImageMIME
	c.mu.Unlock()

	var opts []service.SaveOption
	if c.archive != nil && len(image) > 0 {
		url, err := c.archive.Upload(ctx, userID, image, imageMIME)
		if err != nil {
			// The recipe is still worth saving without its photo.
			slog.WarnContext(ctx, "controller: archiving source photo failed", "error", err, "user_id", userID)
		} else {
			opts = append(opts, service.WithSourceImage(url))
		}
	}

	saved, err := c.store.SaveRecipe(ctx, userID, recipe, opts...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil || c.user.ID != userID || gen != c.generation {
		// A new conversion or account took over while uploading.
		return saved, nil
	}
	c.justSaved = true
	c.lastSaved = saved

	if err := c.refreshSavedLocked(ctx); err != nil {
		slog.WarnContext(ctx, "controller: refreshing saved recipes failed", "error", err)
	}
	return saved, nil
}

// Register creates an account and signs this session in.
func (c *Controller) Register(ctx context.Context, email, password, name string) error {
	user, err := c.store.Register(ctx, c.sessionID, email, password, name)
	if err != nil {
		return err
	}
	return c.signedIn(ctx, user)
}

// Login signs this session in.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	user, err := c.store.Login(ctx, c.sessionID, email, password)
	if err != nil {
		return err
	}
	return c.signedIn(ctx, user)
}

func (c *Controller) signedIn(ctx context.Context, user *models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
	c.justSaved = false
	c.lastSaved = nil
	return c.refreshSavedLocked(ctx)
}

// Logout signs the session out and returns to the converter.
func (c *Controller) Logout(ctx context.Context) error {
	if err := c.store.Logout(ctx, c.sessionID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = nil
	c.saved = nil
	c.selected = nil
	c.justSaved = false
	c.lastSaved = nil
	c.view = ViewConverter
	return nil
}

// Navigate switches between the converter and the saved list. The saved
// list requires a user.
func (c *Controller) Navigate(ctx context.Context, view View) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch view {
	case ViewConverter:
		c.selected = nil
	case ViewSaved:
		if c.user == nil {
			return service.ErrLoginRequired
		}
		c.selected = nil
		if err := c.refreshSavedLocked(ctx); err != nil {
			return err
		}
	default:
		return errors.New("controller: unknown view " + string(view))
	}
	c.view = view
	return nil
}

// Select opens one of the user's saved recipes.
func (c *Controller) Select(ctx context.Context, id string) (*models.SavedRecipe, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.user == nil {
		return nil, service.ErrLoginRequired
	}
	if err := c.refreshSavedLocked(ctx); err != nil {
		return nil, err
	}
	for i := range c.saved {
		if c.saved[i].ID == id {
			r := c.saved[i]
			c.selected = &r
			c.view = ViewSavedDetail
			return &r, nil
		}
	}
	return nil, service.ErrRecipeNotFound
}

// Delete removes one of the user's saved recipes and refreshes the list.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.user == nil {
		return service.ErrLoginRequired
	}
	if err := c.refreshSavedLocked(ctx); err != nil {
		return err
	}
	owned := false
	for _, r := range c.saved {
		if r.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		return service.ErrRecipeNotFound
	}

	if err := c.store.DeleteRecipe(ctx, id); err != nil {
		return err
	}
	if c.selected != nil && c.selected.ID == id {
		c.selected = nil
		c.view = ViewSaved
	}
	if c.lastSaved != nil && c.lastSaved.ID == id {
		c.justSaved = false
		c.lastSaved = nil
	}
	return c.refreshSavedLocked(ctx)
}

// State returns a snapshot safe to read without the lock.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{
		View:       c.view,
		Conversion: c.conversion,
		JustSaved:  c.justSaved,
		InputText:  c.inputText,
	}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	if c.selected != nil {
		r := *c.selected
		s.Selected = &r
	}
	s.Saved = append([]models.SavedRecipe(nil), c.saved...)
	return s
}

func (c *Controller) refreshSavedLocked(ctx context.Context) error {
	if c.user == nil {
		c.saved = nil
		return nil
	}
	saved, err := c.store.SavedRecipes(ctx, c.user.ID)
	if err != nil {
		return err
	}
	c.saved = saved
	return nil
}
