package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ApplianceSettings are the machine parameters of a single robot step.
// All values are free text as returned by the model, e.g. "10 min", "100°C", "Turbo".
type ApplianceSettings struct {
	Time      string `json:"time,omitempty"`
	Temp      string `json:"temp,omitempty"`
	Speed     string `json:"speed,omitempty"`
	Accessory string `json:"accessory,omitempty"`
	Reverse   bool   `json:"reverse,omitempty"`
}

// IsZero reports whether no setting is present, i.e. the step is manual.
func (s *ApplianceSettings) IsZero() bool {
	return s == nil || (s.Time == "" && s.Temp == "" && s.Speed == "" && s.Accessory == "" && !s.Reverse)
}

// Programmed reports whether the step needs the robot to be programmed
// (time, temperature or speed present).
func (s *ApplianceSettings) Programmed() bool {
	return s != nil && (s.Time != "" || s.Temp != "" || s.Speed != "")
}

// RecipeStep is one instruction of a converted recipe.
type RecipeStep struct {
	Instruction string             `json:"instruction" validate:"required"`
	Settings    *ApplianceSettings `json:"settings,omitempty"`
}

// Recipe is the structured result of a conversion.
type Recipe struct {
	Title       string       `json:"title" validate:"required"`
	Description string       `json:"description"`
	PrepTime    string       `json:"prepTime"`
	TotalTime   string       `json:"totalTime"`
	Servings    Servings     `json:"servings"`
	Ingredients []string     `json:"ingredients"`
	Steps       []RecipeStep `json:"steps" validate:"required,min=1,dive"`
}

// SavedRecipe is a Recipe persisted under a specific user.
type SavedRecipe struct {
	Recipe
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	SavedAt     int64  `json:"savedAt"`
	SourceImage string `json:"sourceImage,omitempty"`
}

// Servings is a serving count that tolerates the shapes models tend to
// return: a number, a string holding one ("4", "4 personas", "4-6",
// "unas 4") or null. Strings without digits decode to 0.
type Servings int

func (s *Servings) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = 0
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*s = Servings(math.Round(num))
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Servings(firstNumber(str))
		return nil
	}

	return fmt.Errorf("invalid servings format")
}

// firstNumber returns the first run of digits in str, or 0 when there is none.
func firstNumber(str string) int {
	start := strings.IndexFunc(str, isDigit)
	if start < 0 {
		return 0
	}
	end := start
	for end < len(str) && isDigit(rune(str[end])) {
		end++
	}
	n, err := strconv.Atoi(str[start:end])
	if err != nil {
		return 0
	}
	return n
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
