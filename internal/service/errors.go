package service

import "errors"

// User-facing errors. Messages are shown verbatim in the UI, hence Spanish.
var (
	// ErrConversionFailed hides every AI-call, parse or validation failure.
	ErrConversionFailed = errors.New("No se pudo convertir la receta. Por favor intenta de nuevo.")
	// ErrEmptyInput is returned before any model call when neither text nor image is given.
	ErrEmptyInput = errors.New("Pega una receta o sube una foto para convertirla.")
	// ErrUnsupportedImage is returned when the uploaded payload is not an image.
	ErrUnsupportedImage = errors.New("Formato de imagen no soportado. Usa JPG o PNG.")

	ErrUserExists         = errors.New("El usuario ya existe")
	ErrInvalidCredentials = errors.New("Credenciales inválidas")
	ErrNameRequired       = errors.New("El nombre es requerido")
	ErrLoginRequired      = errors.New("Inicia sesión para guardar recetas")
	ErrInvalidToken       = errors.New("Sesión no válida")
)

// ErrRecipeNotFound is returned when a saved recipe id does not exist.
var ErrRecipeNotFound = errors.New("recipe not found")

// ErrSessionRequired is returned when a session-scoped call gets an empty session id.
var ErrSessionRequired = errors.New("session id required")
