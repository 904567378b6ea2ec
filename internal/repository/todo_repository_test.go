package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-api/internal/domain"
	"github.com/Tomlord1122/todo-api/internal/repository"
	"github.com/Tomlord1122/todo-api/internal/testutil"
)

func newRepo(t *testing.T) repository.TodoRepository {
	t.Helper()
	return repository.NewGormTodoRepository(testutil.SetupTestDB(t), testutil.Logger())
}

func seed(t *testing.T, repo repository.TodoRepository, items ...domain.TodoItem) []domain.TodoItem {
	t.Helper()
	ctx := context.Background()
	out := make([]domain.TodoItem, 0, len(items))
	for i := range items {
		item := items[i]
		_, err := repo.Add(ctx, &item)
		require.NoError(t, err)
		out = append(out, item)
	}
	require.NoError(t, repo.SaveChanges(ctx))
	return out
}

func TestAddAssignsIdentityAndPersists(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	item := &domain.TodoItem{Title: "Buy milk", Priority: domain.PriorityHigh}
	got, err := repo.Add(ctx, item)
	require.NoError(t, err)
	assert.Same(t, item, got)
	assert.NotZero(t, item.ID, "identity is assigned while staging")

	require.NoError(t, repo.SaveChanges(ctx))

	stored, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Buy milk", stored.Title)
	assert.Equal(t, domain.PriorityHigh, stored.Priority)
}

func TestAddDefaultsCreatedDate(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	before := time.Now()
	item := &domain.TodoItem{Title: "no date"}
	_, err := repo.Add(ctx, item)
	require.NoError(t, err)
	assert.WithinDuration(t, before, item.CreatedDate, 5*time.Second)

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	dated := &domain.TodoItem{Title: "dated", CreatedDate: fixed}
	_, err = repo.Add(ctx, dated)
	require.NoError(t, err)
	assert.True(t, fixed.Equal(dated.CreatedDate))

	require.NoError(t, repo.SaveChanges(ctx))
}

func TestNilEntityIsInvalidArgument(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.Add(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = repo.Update(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	ok, err := repo.Delete(ctx, nil)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	repo := newRepo(t)

	item, err := repo.GetByID(context.Background(), 999)
	assert.NoError(t, err)
	assert.Nil(t, item)
}

func TestGetAllIsRestartable(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seed(t, repo,
		domain.TodoItem{Title: "a"},
		domain.TodoItem{Title: "b"},
		domain.TodoItem{Title: "c"},
	)

	seq := repo.GetAll(ctx)

	first, err := repository.Collect(seq)
	require.NoError(t, err)
	second, err := repository.Collect(seq)
	require.NoError(t, err)
	assert.Len(t, first, 3)
	assert.Equal(t, first, second)

	// stopping early must release the rows so the next query can run
	for item, err := range seq {
		require.NoError(t, err)
		require.NotNil(t, item)
		break
	}
	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	now := time.Now()
	seed(t, repo,
		domain.TodoItem{Title: "Write report", Priority: domain.PriorityHigh},
		domain.TodoItem{Title: "write tests", Priority: domain.PriorityLow},
		domain.TodoItem{Title: "Review PR", Priority: domain.PriorityHigh, IsCompleted: true, CompletedDate: &now},
	)

	t.Run("GetByTitle is case-sensitive", func(t *testing.T) {
		items, err := repository.Collect(repo.GetByTitle(ctx, "Write"))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Write report", items[0].Title)

		items, err = repository.Collect(repo.GetByTitle(ctx, "rite"))
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("GetByTitle treats wildcards literally", func(t *testing.T) {
		items, err := repository.Collect(repo.GetByTitle(ctx, "%"))
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("GetByPriority", func(t *testing.T) {
		items, err := repository.Collect(repo.GetByPriority(ctx, domain.PriorityHigh))
		require.NoError(t, err)
		assert.Len(t, items, 2)

		items, err = repository.Collect(repo.GetByPriority(ctx, domain.PriorityCritical))
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("GetCompleted and GetPending", func(t *testing.T) {
		done, err := repository.Collect(repo.GetCompleted(ctx))
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, "Review PR", done[0].Title)
		assert.NotNil(t, done[0].CompletedDate)

		pending, err := repository.Collect(repo.GetPending(ctx))
		require.NoError(t, err)
		assert.Len(t, pending, 2)
	})

	t.Run("Find with arbitrary predicate", func(t *testing.T) {
		items, err := repository.Collect(repo.Find(ctx, repository.Where("priority < ?", domain.PriorityHigh)))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "write tests", items[0].Title)
	})

	t.Run("Count", func(t *testing.T) {
		n, err := repo.Count(ctx, repository.Completed)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = repo.Count(ctx, repository.Pending)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("CountByCompletion", func(t *testing.T) {
		completed, pending, err := repo.CountByCompletion(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, completed)
		assert.Equal(t, 2, pending)
	})
}

func TestCountByCompletionEmpty(t *testing.T) {
	completed, pending, err := newRepo(t).CountByCompletion(context.Background())
	require.NoError(t, err)
	assert.Zero(t, completed)
	assert.Zero(t, pending)
}

func TestUpdateWritesZeroValues(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	now := time.Now()
	items := seed(t, repo, domain.TodoItem{
		Title:         "done",
		Description:   "details",
		Priority:      domain.PriorityHigh,
		IsCompleted:   true,
		CompletedDate: &now,
	})

	item := items[0]
	item.IsCompleted = false
	item.CompletedDate = nil
	item.Description = ""
	item.Priority = domain.PriorityNone
	_, err := repo.Update(ctx, &item)
	require.NoError(t, err)
	require.NoError(t, repo.SaveChanges(ctx))

	stored, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.IsCompleted)
	assert.Nil(t, stored.CompletedDate)
	assert.Empty(t, stored.Description)
	assert.Equal(t, domain.PriorityNone, stored.Priority)
}

func TestDeleteByIDTwice(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	items := seed(t, repo, domain.TodoItem{Title: "gone soon"})

	ok, err := repo.DeleteByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, repo.SaveChanges(ctx))

	ok, err = repo.DeleteByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, repo.SaveChanges(ctx))

	stored, err := repo.GetByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Nil(t, stored, "delete is a hard delete")
}

func TestDeleteDetachedEntity(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	items := seed(t, repo, domain.TodoItem{Title: "detached"})

	detached := &domain.TodoItem{ID: items[0].ID}
	ok, err := repo.Delete(ctx, detached)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, repo.SaveChanges(ctx))

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	ok, err = repo.Delete(ctx, &domain.TodoItem{Title: "never added"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveChangesIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	items := seed(t, repo, domain.TodoItem{Title: "existing"})

	_, err := repo.Add(ctx, &domain.TodoItem{Title: "first of batch"})
	require.NoError(t, err)
	// duplicate primary key fails while staging and is reported on commit
	_, err = repo.Add(ctx, &domain.TodoItem{ID: items[0].ID, Title: "duplicate"})
	require.NoError(t, err)

	err = repo.SaveChanges(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the whole batch is rolled back")

	// the unit of work is usable again after a failed commit
	seed(t, repo, domain.TodoItem{Title: "after failure"})
	n, err = repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSaveChangesWithoutStagedWrites(t *testing.T) {
	repo := newRepo(t)
	assert.NoError(t, repo.SaveChanges(context.Background()))
}
