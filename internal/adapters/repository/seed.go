package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/venuedraw/internal/domain/model"
)

// Seeder accepts reference data.
type Seeder interface {
	SaveEvent(ctx context.Context, e model.Event) error
	SaveContact(ctx context.Context, c model.Contact) error
	SaveRegistration(ctx context.Context, r model.Registration) error
}

// Fixtures is the YAML layout of a seed file.
type Fixtures struct {
	Events []struct {
		ID                   string `yaml:"id"`
		TenantID             string `yaml:"tenant_id"`
		Code                 string `yaml:"code"`
		Name                 string `yaml:"name"`
		Type                 string `yaml:"type"`
		Status               string `yaml:"status"`
		MaxDisplaySessions   int    `yaml:"max_display_sessions"`
		DisplayPhotoDuration int    `yaml:"display_photo_duration"`
	} `yaml:"events"`
	Contacts []struct {
		ID        string `yaml:"id"`
		TenantID  string `yaml:"tenant_id"`
		FirstName string `yaml:"first_name"`
		LastName  string `yaml:"last_name"`
		Email     string `yaml:"email"`
		Phone     string `yaml:"phone"`
	} `yaml:"contacts"`
	Registrations []struct {
		ID        string         `yaml:"id"`
		EventID   string         `yaml:"event_id"`
		ContactID string         `yaml:"contact_id"`
		Answers   map[string]any `yaml:"answers"`
	} `yaml:"registrations"`
}

// SeedCounts reports how many rows a seed wrote.
type SeedCounts struct {
	Events        int
	Contacts      int
	Registrations int
}

// SeedFile loads fixtures from a YAML file into s.
func SeedFile(ctx context.Context, s Seeder, path string) (SeedCounts, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedCounts{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Seed(ctx, s, f)
}

// Seed decodes fixtures from r and writes them in dependency order.
func Seed(ctx context.Context, s Seeder, r io.Reader) (SeedCounts, error) {
	var fx Fixtures
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil && err != io.EOF {
		return SeedCounts{}, fmt.Errorf("decode seed file: %w", err)
	}

	now := time.Now().UTC()
	var counts SeedCounts
	for _, e := range fx.Events {
		ev := model.Event{
			ID:                   e.ID,
			TenantID:             e.TenantID,
			Code:                 e.Code,
			Name:                 e.Name,
			Type:                 model.EventType(e.Type),
			Status:               model.EventStatus(e.Status),
			MaxDisplaySessions:   e.MaxDisplaySessions,
			DisplayPhotoDuration: e.DisplayPhotoDuration,
			CreatedAt:            now,
		}
		if ev.Type == "" {
			ev.Type = model.EventTypeRaffle
		}
		if ev.Status == "" {
			ev.Status = model.EventDraft
		}
		if ev.MaxDisplaySessions == 0 {
			ev.MaxDisplaySessions = 1
		}
		if err := s.SaveEvent(ctx, ev); err != nil {
			return counts, fmt.Errorf("seed event %s: %w", e.ID, err)
		}
		counts.Events++
	}
	for _, c := range fx.Contacts {
		if err := s.SaveContact(ctx, model.Contact{
			ID:        c.ID,
			TenantID:  c.TenantID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Phone:     c.Phone,
		}); err != nil {
			return counts, fmt.Errorf("seed contact %s: %w", c.ID, err)
		}
		counts.Contacts++
	}
	for i, r := range fx.Registrations {
		var answers json.RawMessage
		if len(r.Answers) > 0 {
			raw, err := json.Marshal(r.Answers)
			if err != nil {
				return counts, fmt.Errorf("seed registration %s answers: %w", r.ID, err)
			}
			answers = raw
		}
		if err := s.SaveRegistration(ctx, model.Registration{
			ID:        r.ID,
			EventID:   r.EventID,
			ContactID: r.ContactID,
			Answers:   answers,
			// Keeps fixture order stable when listing by created_at.
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		}); err != nil {
			return counts, fmt.Errorf("seed registration %s: %w", r.ID, err)
		}
		counts.Registrations++
	}
	return counts, nil
}
