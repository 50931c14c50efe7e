package pbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"

	"support-desk/internal/backend"
	"support-desk/internal/status"
	"support-desk/models"
)

// Store reads and writes through the app's DAO, so record hooks fire for
// every write whether it came from this store or the REST API.
type Store struct {
	app     core.App
	baseURL string
}

func New(app core.App, baseURL string) *Store {
	return &Store{app: app, baseURL: strings.TrimRight(baseURL, "/")}
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, status.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", kind, id, err)
}

func (s *Store) newRecord(collection string) (*core.Record, error) {
	c, err := s.app.FindCachedCollectionByNameOrId(collection)
	if err != nil {
		return nil, fmt.Errorf("finding %s collection: %w", collection, err)
	}
	return core.NewRecord(c), nil
}

func (s *Store) ListTickets(ctx context.Context, q backend.TicketQuery) ([]models.Ticket, error) {
	var exprs []dbx.Expression
	if q.CompanyID != "" {
		exprs = append(exprs, dbx.HashExp{"company": q.CompanyID})
	}

	records, err := s.app.FindAllRecords(backend.CollectionTickets, exprs...)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	return recordsTo(records, TicketFromRecord), nil
}

func (s *Store) GetTicket(ctx context.Context, id string) (models.Ticket, error) {
	r, err := s.app.FindRecordById(backend.CollectionTickets, id)
	if err != nil {
		return models.Ticket{}, notFound("ticket", id, err)
	}
	return TicketFromRecord(r), nil
}

func (s *Store) CreateTicket(ctx context.Context, nt models.NewTicket) (models.Ticket, error) {
	r, err := s.newRecord(backend.CollectionTickets)
	if err != nil {
		return models.Ticket{}, err
	}
	r.Set("company", nt.CompanyID)
	r.Set("name", nt.Name)
	r.Set("organization", nt.Organization)
	r.Set("problem", nt.Problem)
	r.Set("status", string(models.TicketOpen))

	if err := s.app.SaveWithContext(ctx, r); err != nil {
		return models.Ticket{}, fmt.Errorf("saving ticket: %w", err)
	}
	return TicketFromRecord(r), nil
}

func (s *Store) MarkSolved(ctx context.Context, id string) (models.Ticket, error) {
	r, err := s.app.FindRecordById(backend.CollectionTickets, id)
	if err != nil {
		return models.Ticket{}, notFound("ticket", id, err)
	}
	if r.GetString("status") == string(models.TicketSolved) {
		return TicketFromRecord(r), nil
	}

	r.Set("status", string(models.TicketSolved))
	if err := s.app.SaveWithContext(ctx, r); err != nil {
		return models.Ticket{}, fmt.Errorf("saving ticket %s: %w", id, err)
	}
	return TicketFromRecord(r), nil
}

func (s *Store) ListMessages(ctx context.Context, ticketID string) ([]models.Message, error) {
	records, err := s.app.FindRecordsByFilter(
		backend.CollectionMessages,
		"ticket = {:ticket}",
		"created",
		0,
		0,
		dbx.Params{"ticket": ticketID},
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return recordsTo(records, MessageFromRecord), nil
}

func (s *Store) CreateMessage(ctx context.Context, nm models.NewMessage) (models.Message, error) {
	if _, err := s.app.FindRecordById(backend.CollectionTickets, nm.TicketID); err != nil {
		return models.Message{}, notFound("ticket", nm.TicketID, err)
	}

	r, err := s.newRecord(backend.CollectionMessages)
	if err != nil {
		return models.Message{}, err
	}
	r.Set("ticket", nm.TicketID)
	r.Set("sender", nm.SenderID)
	r.Set("body", nm.Body)
	r.Set("kind", string(nm.Kind))
	r.Set("checksum", nm.Checksum)

	if err := s.app.SaveWithContext(ctx, r); err != nil {
		return models.Message{}, fmt.Errorf("saving message: %w", err)
	}
	return MessageFromRecord(r), nil
}

// Upload stores data as a voice_clips record and returns the record id.
func (s *Store) Upload(ctx context.Context, name string, data []byte) (string, error) {
	file, err := filesystem.NewFileFromBytes(data, path.Base(name))
	if err != nil {
		return "", fmt.Errorf("preparing %s: %w", name, err)
	}

	r, err := s.newRecord(backend.CollectionVoice)
	if err != nil {
		return "", err
	}
	r.Set("name", name)
	r.Set("audio", file)

	if err := s.app.SaveWithContext(ctx, r); err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	return r.Id, nil
}

// URL returns the public file URL of an uploaded clip.
func (s *Store) URL(ctx context.Context, ref string) (string, error) {
	r, err := s.app.FindRecordById(backend.CollectionVoice, ref)
	if err != nil {
		return "", notFound("voice clip", ref, err)
	}
	return FileURL(s.baseURL, r, "audio"), nil
}

// FileURL builds the download URL of a record's file field.
func FileURL(baseURL string, r *core.Record, field string) string {
	return baseURL + "/api/files/" + r.BaseFilesPath() + "/" + r.GetString(field)
}
