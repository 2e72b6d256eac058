package universe

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minsukang/momentum-trader/internal/database"
	"github.com/minsukang/momentum-trader/pkg/logger"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "universe.db"),
		Profile: database.ProfileStandard,
		Name:    "universe",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewRepository(db.Conn(), logger.New(logger.Config{Level: "error", Pretty: false}))
	require.NoError(t, err)
	return repo
}

func TestUpsertAndGetEligible(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Upsert([]Instrument{
		{Code: "005930", Name: "삼성전자", Market: "KOSPI", Eligible: true},
		{Code: "035720", Name: "카카오", Market: "KOSPI", Eligible: true},
		{Code: "900310", Name: "컬러레이", Market: "KOSDAQ", Eligible: false},
	}))

	eligible, err := repo.GetEligible()
	require.NoError(t, err)
	require.Len(t, eligible, 2)
	assert.Equal(t, "005930", eligible[0].Code)
	assert.Equal(t, "카카오", eligible[1].Name)
}

func TestUpsert_ReplacesExisting(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Upsert([]Instrument{
		{Code: "005930", Name: "삼성전자", Market: "KOSPI", Eligible: true},
	}))
	require.NoError(t, repo.Upsert([]Instrument{
		{Code: "005930", Name: "삼성전자", Market: "KOSPI", Eligible: false},
	}))

	eligible, err := repo.GetEligible()
	require.NoError(t, err)
	assert.Empty(t, eligible)
}

func TestGetName_FallsBackToCode(t *testing.T) {
	repo := setupRepo(t)

	require.NoError(t, repo.Upsert([]Instrument{
		{Code: "005930", Name: "삼성전자", Market: "KOSPI", Eligible: true},
	}))

	assert.Equal(t, "삼성전자", repo.GetName("005930"))
	assert.Equal(t, "000000", repo.GetName("000000"))
}
