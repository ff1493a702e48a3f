package mailbox

import (
	"context"

	"github.com/fekuna/omnipos-till-service/internal/database"
	"github.com/fekuna/omnipos-till-service/internal/model"
)

type Repository interface {
	Insert(ctx context.Context, exec database.Executor, entry *model.MailboxEntry) (int64, error)
	FindAll(ctx context.Context, exec database.Executor) ([]model.MailboxEntry, error)
	DeleteByID(ctx context.Context, exec database.Executor, id int64) (int64, error)
	// DeleteFirstByName removes the oldest row with that product name, if any.
	DeleteFirstByName(ctx context.Context, exec database.Executor, name string) (int64, error)
	DeleteAll(ctx context.Context, exec database.Executor) (int64, error)
}
