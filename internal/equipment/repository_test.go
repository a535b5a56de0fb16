package equipment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelG-buaa/DB/internal/db/dbtest"
	"github.com/AngelG-buaa/DB/internal/laboratory"
)

func TestPgxRepository(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()

	labs := laboratory.NewPgxRepository(pool)
	chem := &laboratory.Laboratory{Name: "Chemistry 101", Status: laboratory.StatusAvailable}
	require.NoError(t, labs.Create(ctx, chem))
	bio := &laboratory.Laboratory{Name: "Biology 3", Status: laboratory.StatusAvailable}
	require.NoError(t, labs.Create(ctx, bio))

	repo := NewPgxRepository(pool)
	serial := "SP-001"
	spectro := &Equipment{LaboratoryID: chem.ID, Name: "Spectrometer", Model: "UV-2600", SerialNumber: &serial, Status: StatusAvailable}
	require.NoError(t, repo.Create(ctx, spectro))
	burette := &Equipment{LaboratoryID: chem.ID, Name: "Burette", Status: StatusDamaged}
	require.NoError(t, repo.Create(ctx, burette))
	scope := &Equipment{LaboratoryID: bio.ID, Name: "Microscope", Status: StatusAvailable}
	require.NoError(t, repo.Create(ctx, scope))

	t.Run("get joins laboratory name", func(t *testing.T) {
		got, err := repo.GetByID(ctx, spectro.ID)
		require.NoError(t, err)
		assert.Equal(t, "Chemistry 101", got.LaboratoryName)
		require.NotNil(t, got.SerialNumber)
		assert.Equal(t, "SP-001", *got.SerialNumber)

		_, err = repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("write errors", func(t *testing.T) {
		dup := "SP-001"
		err := repo.Create(ctx, &Equipment{LaboratoryID: chem.ID, Name: "Copy", SerialNumber: &dup, Status: StatusAvailable})
		assert.ErrorIs(t, err, ErrSerialTaken)

		err = repo.Create(ctx, &Equipment{LaboratoryID: uuid.NewString(), Name: "Orphan", Status: StatusAvailable})
		assert.ErrorIs(t, err, ErrInvalidLaboratory)
	})

	t.Run("list by laboratory", func(t *testing.T) {
		items, total, err := repo.List(ctx, Filter{LaboratoryID: chem.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, items, 2)
		assert.Equal(t, "Burette", items[0].Name)

		items, total, err = repo.List(ctx, Filter{Keyword: "uv-26"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, spectro.ID, items[0].ID)
	})

	t.Run("count available in laboratory", func(t *testing.T) {
		n, err := repo.CountAvailableInLab(ctx, chem.ID, []string{spectro.ID, burette.ID, scope.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, n, "damaged and foreign equipment do not count")

		n, err = repo.CountAvailableInLab(ctx, bio.ID, []string{scope.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("update and delete", func(t *testing.T) {
		burette.Status = StatusAvailable
		require.NoError(t, repo.Update(ctx, burette))

		n, err := repo.CountAvailableInLab(ctx, chem.ID, []string{spectro.ID, burette.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		require.NoError(t, repo.Delete(ctx, burette.ID))
		assert.ErrorIs(t, repo.Delete(ctx, burette.ID), ErrNotFound)
	})
}
