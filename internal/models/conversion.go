package models

// ConversionStatus tags the variant held by ConversionState.
type ConversionStatus string

const (
	ConversionIdle    ConversionStatus = "idle"
	ConversionLoading ConversionStatus = "loading"
	ConversionSuccess ConversionStatus = "success"
	ConversionError   ConversionStatus = "error"
)

// ConversionState is replaced as a whole on every transition; use the
// constructors below rather than mutating fields.
type ConversionState struct {
	Status ConversionStatus `json:"status"`
	Recipe *Recipe          `json:"recipe,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func IdleConversion() ConversionState {
	return ConversionState{Status: ConversionIdle}
}

func LoadingConversion() ConversionState {
	return ConversionState{Status: ConversionLoading}
}

func SucceededConversion(recipe *Recipe) ConversionState {
	return ConversionState{Status: ConversionSuccess, Recipe: recipe}
}

func FailedConversion(message string) ConversionState {
	return ConversionState{Status: ConversionError, Error: message}
}

// ConversionRequest is the input of a conversion: free text, an optional
// image, or both.
type ConversionRequest struct {
	Text          string
	Image         []byte
	ImageMIMEType string
}

// HasImage reports whether an image payload is attached.
func (r ConversionRequest) HasImage() bool {
	return len(r.Image) > 0
}
