package repository_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-transfer/db"
	"sol-transfer/models"
	"sol-transfer/repository"
)

func openRepo(t *testing.T) *repository.SubmissionRepository {
	t.Helper()
	ldb, err := db.NewLevelDB(filepath.Join(t.TempDir(), "journal"))
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })
	return repository.NewSubmissionRepository(ldb)
}

func TestSubmissionRepository_PutGetUpdate(t *testing.T) {
	repo := openRepo(t)

	sub := &models.Submission{Signature: "sigA", From: "A", To: "B", Lamports: 1000, State: models.SubmissionPending, CreatedAt: 1}
	require.NoError(t, repo.PutSubmission(sub))

	sub.State = models.SubmissionConfirmed
	require.NoError(t, repo.PutSubmission(sub))

	got, err := repo.GetSubmission("sigA")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionConfirmed, got.State)
	assert.Equal(t, uint64(1000), got.Lamports)

	_, err = repo.GetSubmission("missing")
	assert.ErrorIs(t, err, repository.ErrSubmissionNotFound)

	assert.Error(t, repo.PutSubmission(&models.Submission{}))
}

func TestSubmissionRepository_ListNewestFirst(t *testing.T) {
	repo := openRepo(t)

	require.NoError(t, repo.PutSubmission(&models.Submission{Signature: "zzz", CreatedAt: 10}))
	require.NoError(t, repo.PutSubmission(&models.Submission{Signature: "aaa", CreatedAt: 30}))
	require.NoError(t, repo.PutSubmission(&models.Submission{Signature: "mmm", CreatedAt: 20}))

	subs, err := repo.ListSubmissions()
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, []string{"aaa", "mmm", "zzz"}, []string{subs[0].Signature, subs[1].Signature, subs[2].Signature})
}
