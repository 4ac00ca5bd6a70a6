package analysis

// PromptTemplate is one versioned prompt, keyed by (agent, theme, pattern).
// Multiple versions coexist; the current one is the greatest version string.
type PromptTemplate struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Template string `gorm:"column:template;type:text;not null" json:"template"`
	Name     string `gorm:"column:name" json:"name,omitempty"`
	Agent    string `gorm:"column:agent;index" json:"agent,omitempty"`
	Theme    string `gorm:"column:theme;index" json:"theme,omitempty"`
	Pattern  string `gorm:"column:pattern;index" json:"pattern,omitempty"`
	Version  string `gorm:"column:version" json:"version,omitempty"`
}

func (PromptTemplate) TableName() string { return "prompt_templates" }
