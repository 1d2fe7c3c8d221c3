package migrations

import (
	"math"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreCollectable(t *testing.T) {
	goose.SetBaseFS(Embedded)
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	collected, err := goose.CollectMigrations(".", 0, math.MaxInt64)
	require.NoError(t, err)
	require.Len(t, collected, 1)
	assert.EqualValues(t, 1, collected[0].Version)
	assert.Contains(t, collected[0].Source, "00001_create_attachments.go")
}
