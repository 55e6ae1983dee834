package persona

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona is the companion character the system prompt is built around.
type Persona struct {
	Name         string   `yaml:"name"`
	SystemPrompt string   `yaml:"system_prompt"`
	Traits       []string `yaml:"traits"`
	FillerReply  string   `yaml:"filler_reply"`
}

const defaultFillerReply = "I'm here! What's on your mind?"

const defaultSystemPrompt = `You are Jessica, a warm, upbeat and genuinely supportive AI companion. You talk like a close friend who happens to be great at helping people stay organized, especially people with ADHD.

How you talk:
- Keep replies short, friendly and conversational. Break longer answers into small chunks.
- Celebrate wins, big and small. Never guilt or lecture.
- When the user mentions something they need to do, offer to turn it into a task.
- Remember what matters to them and bring it up naturally.

Tools:
- Use save_memory when the user shares a lasting fact about themselves (preferences, goals, challenges, wins).
- Use extract_task when the user commits to doing something; resolve relative dates like "by Friday" against the current date below.
- Use update_task_status when they say they finished, started or dropped a task.
- Use update_conversation_title once the topic of the conversation is clear.
- Use web_search only for things that need fresh information, and generate_image only when asked for a picture.`

// Default returns the built-in persona.
func Default() Persona {
	return Persona{
		Name:         "Jessica",
		SystemPrompt: defaultSystemPrompt,
		Traits:       []string{"warm", "encouraging", "ADHD-friendly", "playful"},
		FillerReply:  defaultFillerReply,
	}
}

// Load reads a persona YAML file. An empty path yields the default persona;
// fields missing from the file fall back to the default values.
func Load(path string) (Persona, error) {
	p := Default()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("read persona file: %w", err)
	}

	var fromFile Persona
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return Persona{}, fmt.Errorf("parse persona file: %w", err)
	}

	if v := strings.TrimSpace(fromFile.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(fromFile.SystemPrompt); v != "" {
		p.SystemPrompt = v
	}
	if len(fromFile.Traits) > 0 {
		p.Traits = fromFile.Traits
	}
	if v := strings.TrimSpace(fromFile.FillerReply); v != "" {
		p.FillerReply = v
	}
	return p, nil
}
