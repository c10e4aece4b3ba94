package roster

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"gridsandbox.ai/internal/protocol"
)

// Profile is one persona available for assignment to an agent slot.
type Profile struct {
	Title   string `yaml:"title"`
	Icon    string `yaml:"icon"`
	Color   string `yaml:"color"`
	Glow    string `yaml:"glow"`
	Persona string `yaml:"persona"`
}

func (p Profile) Traits() protocol.Traits {
	return protocol.Traits{
		Title:   p.Title,
		Icon:    p.Icon,
		Color:   p.Color,
		Glow:    p.Glow,
		Persona: p.Persona,
	}
}

type Config struct {
	Profiles []Profile `yaml:"profiles"`
	Player   Profile   `yaml:"player"`
}

// Load reads a roster file, falling back to the built-in pool when path is
// empty. Missing fields are filled by Normalize.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("roster.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("roster.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Profiles: []Profile{
			{
				Title:   "Alex",
				Icon:    "🛡️",
				Color:   "#8ecae6",
				Glow:    "rgba(142, 202, 230, 0.6)",
				Persona: "You are Alex, an engineer from Sapporo who loves seaside towns and bustling markets.",
			},
			{
				Title:   "Blair",
				Icon:    "🗡️",
				Color:   "#f9a03f",
				Glow:    "rgba(249, 160, 63, 0.6)",
				Persona: "You are Blair, an adventurer from Kyoto who enjoys mountain hikes, hot springs, and photography.",
			},
			{
				Title:   "Kai",
				Icon:    "🪄",
				Color:   "#bb6bd9",
				Glow:    "rgba(187, 107, 217, 0.6)",
				Persona: "You are Kai, a travelling arcane researcher who studies starlit skies and ancient manuscripts.",
			},
			{
				Title:   "Mira",
				Icon:    "🏹",
				Color:   "#6ee7b7",
				Glow:    "rgba(110, 231, 183, 0.55)",
				Persona: "You are Mira, a ranger honed by the forest with keen insight and swift judgement.",
			},
			{
				Title:   "Ren",
				Icon:    "⚒️",
				Color:   "#f97316",
				Glow:    "rgba(249, 115, 22, 0.5)",
				Persona: "You are Ren, a tinkerer who cannot resist dismantling mysterious devices to learn their secrets.",
			},
		},
		Player: Profile{
			Title:   "Player",
			Icon:    "🧭",
			Color:   "#fef08a",
			Glow:    "rgba(254, 240, 138, 0.6)",
			Persona: "You are the human player guiding the party's plans.",
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	if len(c.Profiles) == 0 {
		c.Profiles = defaults().Profiles
	}
	for i := range c.Profiles {
		p := &c.Profiles[i]
		if strings.TrimSpace(p.Title) == "" {
			p.Title = fmt.Sprintf("Agent %d", i+1)
		}
		if strings.TrimSpace(p.Icon) == "" {
			p.Icon = "★"
		}
		if strings.TrimSpace(p.Color) == "" {
			p.Color = "#7dd3fc"
		}
		if strings.TrimSpace(p.Glow) == "" {
			p.Glow = "rgba(125, 211, 252, 0.55)"
		}
		if strings.TrimSpace(p.Persona) == "" {
			p.Persona = fmt.Sprintf("Speak naturally as %s with your party.", p.Title)
		}
	}
	d := defaults().Player
	if strings.TrimSpace(c.Player.Title) == "" {
		c.Player.Title = d.Title
	}
	if strings.TrimSpace(c.Player.Icon) == "" {
		c.Player.Icon = d.Icon
	}
	if strings.TrimSpace(c.Player.Color) == "" {
		c.Player.Color = d.Color
	}
	if strings.TrimSpace(c.Player.Glow) == "" {
		c.Player.Glow = d.Glow
	}
	if strings.TrimSpace(c.Player.Persona) == "" {
		c.Player.Persona = d.Persona
	}
}

func (c Config) Validate() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("profiles must not be empty")
	}
	seen := map[string]bool{}
	for i, p := range c.Profiles {
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("profiles[%d] title must not be empty", i)
		}
		if seen[p.Title] {
			return fmt.Errorf("duplicate profile title: %s", p.Title)
		}
		seen[p.Title] = true
	}
	return nil
}

// Profile returns the pool entry for agent slot i, cycling when the pool is
// smaller than the agent count.
func (c Config) Profile(i int) Profile {
	return c.Profiles[i%len(c.Profiles)]
}
