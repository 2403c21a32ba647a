package service

import "google.golang.org/genai"

// PromptVersion identifies the instruction/schema contract sent to the model.
// Bump it whenever systemInstruction or recipeSchema change shape.
const PromptVersion = "mcc-recipe/v1"

const systemInstruction = `
Eres un chef experto especializado en el robot de cocina "Monsieur Cuisine Connect" (similar a Thermomix).
Tu objetivo es convertir recetas tradicionales (o fotos de recetas) en instrucciones precisas y programables para este robot.

Reglas de conversión:
1. Analiza los ingredientes y cantidades.
2. Divide la receta en pasos lógicos para el robot.
3. Para CADA paso que implique el robot, DEBES especificar:
   - Tiempo (ej. "10 min", "30 seg")
   - Temperatura (ej. "100°C", "120°C", "SF" (Varoma/Vapor), o null si es en frío). Máximo 130°C.
   - Velocidad (1-10, o "Turbo").
   - "Marcha atrás" (Reverse) si es necesario para no triturar la comida (ej. risottos, guisos).
   - Accesorios necesarios (Mezclador/Mariposa, Cesta, Vaporera plana/profunda).

Si el paso es manual (ej. "reservar", "pelar", "servir"), deja los ajustes del robot vacíos.
El idioma de salida debe ser ESPAÑOL.
`

const (
	userPromptPrefix     = "Convierte la siguiente información en una receta para Monsieur Cuisine Connect: "
	imageOnlyPlaceholder = "Ver imagen adjunta"
)

func nullableString() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true)}
}

var settingsSchema = &genai.Schema{
	Type:     genai.TypeObject,
	Nullable: genai.Ptr(true),
	Properties: map[string]*genai.Schema{
		"time":      nullableString(),
		"temp":      nullableString(),
		"speed":     nullableString(),
		"accessory": nullableString(),
		"reverse":   {Type: genai.TypeBoolean, Nullable: genai.Ptr(true)},
	},
}

var recipeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":       {Type: genai.TypeString, Description: "Título de la receta adaptada"},
		"description": {Type: genai.TypeString, Description: "Breve descripción apetitosa"},
		"prepTime":    {Type: genai.TypeString, Description: "Tiempo de preparación estimado"},
		"totalTime":   {Type: genai.TypeString, Description: "Tiempo total estimado"},
		"servings":    {Type: genai.TypeNumber, Description: "Número de porciones"},
		"ingredients": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "Lista de ingredientes con cantidades ajustadas",
		},
		"steps": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"instruction": {Type: genai.TypeString, Description: "Instrucción clara de lo que hay que hacer"},
					"settings":    settingsSchema,
				},
				Required: []string{"instruction"},
			},
		},
	},
	Required: []string{"title", "ingredients", "steps"},
}
