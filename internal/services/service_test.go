package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpineda/aichat-be/internal/database"
	"github.com/rpineda/aichat-be/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// stubProvider is a scripted completion provider recording what it was sent.
type stubProvider struct {
	reply models.Message
	err   error
	calls [][]models.Message
}

func (p *stubProvider) Complete(_ context.Context, messages []models.Message) (models.Message, error) {
	p.calls = append(p.calls, messages)
	if p.err != nil {
		return models.Message{}, p.err
	}
	return p.reply, nil
}
