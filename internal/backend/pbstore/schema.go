// Package pbstore implements the backend contracts on PocketBase: the
// users auth collection extended with profile fields, and the tickets,
// messages and voice_clips collections.
package pbstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"support-desk/internal/backend"
	"support-desk/models"
)

const (
	ruleAdmin       = `@request.auth.role = "admin"`
	ruleOwnTicket   = `@request.auth.role = "admin" || company = @request.auth.id`
	ruleTicketChild = `@request.auth.role = "admin" || ticket.company = @request.auth.id`
)

// ExtendUsers adds the profile fields to the users collection.
func ExtendUsers(users *core.Collection) {
	if users.Fields.GetByName("name") == nil {
		users.Fields.Add(&core.TextField{Name: "name", Max: 100})
	}
	users.Fields.Add(
		&core.SelectField{
			Name:      "role",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{string(models.RoleCompany), string(models.RoleAdmin)},
		},
		&core.TextField{Name: "organization", Max: 100},
		&core.BoolField{Name: "dark_mode"},
	)
}

func TicketsCollection(users *core.Collection) *core.Collection {
	c := core.NewBaseCollection(backend.CollectionTickets)
	c.ListRule = types.Pointer(ruleOwnTicket)
	c.ViewRule = types.Pointer(ruleOwnTicket)
	c.CreateRule = types.Pointer(`@request.auth.role = "company" && company = @request.auth.id && status = "open"`)
	c.UpdateRule = types.Pointer(ruleAdmin)
	c.DeleteRule = nil

	c.Fields.Add(
		&core.RelationField{Name: "company", Required: true, MaxSelect: 1, CollectionId: users.Id},
		&core.TextField{Name: "name", Required: true, Max: 100},
		&core.TextField{Name: "organization", Required: true, Max: 100},
		&core.TextField{Name: "problem", Required: true, Max: 5000},
		&core.SelectField{
			Name:      "status",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{string(models.TicketOpen), string(models.TicketSolved)},
		},
		&core.AutodateField{Name: "created", OnCreate: true},
		&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true},
	)
	c.AddIndex("idx_tickets_company_created", false, "company, created", "")
	return c
}

func MessagesCollection(users, tickets *core.Collection) *core.Collection {
	c := core.NewBaseCollection(backend.CollectionMessages)
	c.ListRule = types.Pointer(ruleTicketChild)
	c.ViewRule = types.Pointer(ruleTicketChild)
	c.CreateRule = types.Pointer(`(` + ruleTicketChild + `) && ticket.status = "open" && sender = @request.auth.id`)
	c.UpdateRule = nil
	c.DeleteRule = nil

	c.Fields.Add(
		&core.RelationField{Name: "ticket", Required: true, MaxSelect: 1, CollectionId: tickets.Id, CascadeDelete: true},
		&core.RelationField{Name: "sender", Required: true, MaxSelect: 1, CollectionId: users.Id},
		&core.TextField{Name: "body", Required: true, Max: 10000},
		&core.SelectField{
			Name:      "kind",
			Required:  true,
			MaxSelect: 1,
			Values:    []string{string(models.MessageText), string(models.MessageVoice)},
		},
		&core.TextField{Name: "checksum", Max: 128},
		&core.AutodateField{Name: "created", OnCreate: true},
	)
	c.AddIndex("idx_messages_ticket_created", false, "ticket, created", "")
	return c
}

// VoiceCollection stores uploaded clips. Clips are written by the server
// only; reads go through the public file URL.
func VoiceCollection() *core.Collection {
	c := core.NewBaseCollection(backend.CollectionVoice)
	c.ViewRule = types.Pointer(`@request.auth.id != ""`)

	c.Fields.Add(
		&core.TextField{Name: "name", Required: true, Max: 255},
		&core.FileField{
			Name:      "audio",
			Required:  true,
			MaxSelect: 1,
			MaxSize:   25 << 20,
		},
		&core.AutodateField{Name: "created", OnCreate: true},
	)
	return c
}

// EnsureSchema creates or extends every collection the store uses.
func EnsureSchema(app core.App) error {
	users, err := app.FindCollectionByNameOrId(backend.CollectionUsers)
	if errors.Is(err, sql.ErrNoRows) {
		users = core.NewAuthCollection(backend.CollectionUsers)
	} else if err != nil {
		return fmt.Errorf("finding users collection: %w", err)
	}
	ExtendUsers(users)
	if err := app.Save(users); err != nil {
		return fmt.Errorf("saving users collection: %w", err)
	}

	tickets, err := ensure(app, backend.CollectionTickets, func() *core.Collection { return TicketsCollection(users) })
	if err != nil {
		return err
	}
	if _, err := ensure(app, backend.CollectionMessages, func() *core.Collection { return MessagesCollection(users, tickets) }); err != nil {
		return err
	}
	if _, err := ensure(app, backend.CollectionVoice, VoiceCollection); err != nil {
		return err
	}
	return nil
}

func ensure(app core.App, name string, build func() *core.Collection) (*core.Collection, error) {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("finding %s collection: %w", name, err)
	}

	c := build()
	if err := app.Save(c); err != nil {
		return nil, fmt.Errorf("creating %s collection: %w", name, err)
	}
	return c, nil
}

// DropSchema removes the support collections, leaving users in place.
func DropSchema(app core.App) error {
	for _, name := range []string{backend.CollectionVoice, backend.CollectionMessages, backend.CollectionTickets} {
		c, err := app.FindCollectionByNameOrId(name)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		} else if err != nil {
			return err
		}
		if err := app.Delete(c); err != nil {
			return fmt.Errorf("deleting %s collection: %w", name, err)
		}
	}
	return nil
}
