package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"

	"support-desk/internal/backend/pbstore"
)

func init() {
	m.Register(func(app core.App) error {
		return pbstore.EnsureSchema(app)
	}, func(app core.App) error {
		return pbstore.DropSchema(app)
	})
}
