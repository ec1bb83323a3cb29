package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/datkingvn/PVOILVUNGANG-GIOTDAUVANG-sub001/internal/models"
)

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDatabaseConfigFromEnv reads DB_* environment variables (with defaults).
func NewDatabaseConfigFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "giotdauvang"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// DSN returns the Postgres connection URL.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// ContentFile is the YAML authoring format the moderator prepares ahead
// of the show: the team roster, question packages, and standalone
// questions.
type ContentFile struct {
	Teams []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"teams"`
	Packages []struct {
		ID     string `yaml:"id"`
		Round  string `yaml:"round"`
		Number int    `yaml:"number"`
		Round2 *struct {
			ImageRef  string `yaml:"image_ref"`
			CNVAnswer string `yaml:"cnv_answer"`
		} `yaml:"round2,omitempty"`
	} `yaml:"packages"`
	Questions []struct {
		ID              string   `yaml:"id"`
		PackageID       string   `yaml:"package_id,omitempty"`
		Round           string   `yaml:"round"`
		Index           int      `yaml:"index"`
		Text            string   `yaml:"text"`
		AnswerText      string   `yaml:"answer_text"`
		AcceptedAnswers []string `yaml:"accepted_answers,omitempty"`
		Type            string   `yaml:"type"`
		Points          int      `yaml:"points,omitempty"`
		VideoURL        string   `yaml:"video_url,omitempty"`
		ArrangeSteps    []string `yaml:"arrange_steps,omitempty"`
	} `yaml:"questions"`
}

func loadContent(path string) (*ContentFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	var content ContentFile
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("parse content file: %w", err)
	}
	return &content, nil
}

// Teams converts the roster section, stamping admission order into
// CreatedAt so turn rotation follows the authored order.
func (c *ContentFile) TeamModels(now time.Time) []models.Team {
	out := make([]models.Team, 0, len(c.Teams))
	for i, t := range c.Teams {
		out = append(out, models.Team{
			ID:        t.ID,
			Name:      t.Name,
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		})
	}
	return out
}

// PackageModels converts the package section.
func (c *ContentFile) PackageModels() []models.Package {
	out := make([]models.Package, 0, len(c.Packages))
	for _, p := range c.Packages {
		pkg := models.Package{
			ID:     p.ID,
			Round:  models.Round(p.Round),
			Number: p.Number,
			Status: models.PackageStatusUnassigned,
		}
		if p.Round2 != nil {
			pkg.Round2Meta = &models.Round2Meta{
				ImageRef:  p.Round2.ImageRef,
				CNVAnswer: p.Round2.CNVAnswer,
			}
		}
		out = append(out, pkg)
	}
	return out
}

// QuestionModels converts the question section.
func (c *ContentFile) QuestionModels() []models.Question {
	out := make([]models.Question, 0, len(c.Questions))
	for _, q := range c.Questions {
		out = append(out, models.Question{
			ID:              q.ID,
			PackageID:       q.PackageID,
			Round:           models.Round(q.Round),
			Index:           q.Index,
			Text:            q.Text,
			AnswerText:      q.AnswerText,
			AcceptedAnswers: q.AcceptedAnswers,
			Type:            models.QuestionType(q.Type),
			Points:          q.Points,
			VideoURL:        q.VideoURL,
			ArrangeSteps:    q.ArrangeSteps,
		})
	}
	return out
}
