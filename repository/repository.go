package repository

import (
	"encoding/json"
	"errors"
	"sort"

	"sol-transfer/db"
	"sol-transfer/models"
)

const submissionPrefix = "submission:"

// ErrSubmissionNotFound is returned when no journal entry exists for a signature
var ErrSubmissionNotFound = errors.New("submission not found")

// It abstracts the journal storage from the transfer pipeline
type SubmissionRepositoryInterface interface {
	PutSubmission(sub *models.Submission) error
	GetSubmission(signature string) (*models.Submission, error)
	ListSubmissions() ([]*models.Submission, error)
}

// SubmissionRepository implements the SubmissionRepositoryInterface using LevelDB as the storage backend
type SubmissionRepository struct {
	db *db.LevelDB
}

// NewSubmissionRepository creates and returns a new SubmissionRepository instance
func NewSubmissionRepository(db *db.LevelDB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// PutSubmission stores or replaces the journal entry for sub.Signature
func (r *SubmissionRepository) PutSubmission(sub *models.Submission) error {
	if sub.Signature == "" {
		return errors.New("submission has no signature")
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return r.db.Put([]byte(submissionPrefix+sub.Signature), data)
}

// GetSubmission retrieves a journal entry by transaction signature
func (r *SubmissionRepository) GetSubmission(signature string) (*models.Submission, error) {
	data, err := r.db.Get([]byte(submissionPrefix + signature))
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sub models.Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubmissions returns every journal entry, newest first
func (r *SubmissionRepository) ListSubmissions() ([]*models.Submission, error) {
	iter := r.db.NewPrefixIterator([]byte(submissionPrefix))
	defer iter.Release()

	var subs []*models.Submission
	for iter.Next() {
		var sub models.Submission
		if err := json.Unmarshal(iter.Value(), &sub); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].CreatedAt > subs[j].CreatedAt
	})
	return subs, nil
}
