package models

// Persona is a fixed character configuration the user converses with.
// Personas are static catalog data, never mutated by the conversation
// service. SystemPrompt steers the completion backend; the remaining
// fields describe the character to the user.
type Persona struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Title           string `json:"title" yaml:"title"`
	About           string `json:"about,omitempty" yaml:"about,omitempty"`
	Needs           string `json:"needs,omitempty" yaml:"needs,omitempty"`
	Characteristics string `json:"characteristics,omitempty" yaml:"characteristics,omitempty"`
	Quotes          string `json:"quotes,omitempty" yaml:"quotes,omitempty"`
	Challenges      string `json:"challenges,omitempty" yaml:"challenges,omitempty"`
	SystemPrompt    string `json:"system_prompt" yaml:"system_prompt"`
}
