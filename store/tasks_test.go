package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-api/config"
	"task-api/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// openPostgres connects to TEST_DATABASE_URL and skips when it is unset or unreachable.
func openPostgres(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Skipf("Skipping test: database not available: %v", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM tasks WHERE title LIKE 'test-%'"); err != nil {
		db.Close()
		t.Fatalf("failed to clean up test data: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func statusPtr(s models.Status) *models.Status { return &s }

func TestCreateAndGetTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	start := time.Now().Truncate(time.Microsecond)

	task, err := db.CreateTask(ctx, models.TaskInput{Title: "Buy milk", Description: "2%", Status: models.StatusPending})
	require.NoError(t, err)
	assert.Positive(t, task.ID)
	assert.False(t, task.CreatedAt.Before(start))

	got, err := db.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, "2%", got.Description)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.True(t, task.CreatedAt.Equal(got.CreatedAt), "created %v, read back %v", task.CreatedAt, got.CreatedAt)

	second, err := db.CreateTask(ctx, models.TaskInput{Title: "Second", Status: models.StatusCompleted})
	require.NoError(t, err)
	assert.Greater(t, second.ID, task.ID)
}

func TestGetTask_NotFound(t *testing.T) {
	db := openTestDB(t)

	task, err := db.GetTask(context.Background(), 42)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Nil(t, task)
}

func TestListTasks(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tasks, err := db.ListTasks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	for _, title := range []string{"a", "b", "c"} {
		_, err := db.CreateTask(ctx, models.TaskInput{Title: title, Status: models.StatusPending})
		require.NoError(t, err)
	}

	tasks, err = db.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "a", tasks[0].Title)
	assert.Equal(t, "c", tasks[2].Title)
}

func TestUpdateTask_Partial(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task, err := db.CreateTask(ctx, models.TaskInput{Title: "Original", Description: "desc", Status: models.StatusPending})
	require.NoError(t, err)

	t.Run("status only", func(t *testing.T) {
		require.NoError(t, db.UpdateTask(ctx, task.ID, models.TaskPatch{Status: statusPtr(models.StatusInProgress)}))

		got, err := db.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInProgress, got.Status)
		assert.Equal(t, "Original", got.Title)
		assert.Equal(t, "desc", got.Description)
		assert.True(t, task.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("title and description", func(t *testing.T) {
		require.NoError(t, db.UpdateTask(ctx, task.ID, models.TaskPatch{Title: strPtr("Renamed"), Description: strPtr("")}))

		got, err := db.GetTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, "", got.Description)
		assert.Equal(t, models.StatusInProgress, got.Status)
	})

	t.Run("empty patch", func(t *testing.T) {
		assert.NoError(t, db.UpdateTask(ctx, task.ID, models.TaskPatch{}))
	})

	t.Run("missing row is a no-op", func(t *testing.T) {
		assert.NoError(t, db.UpdateTask(ctx, 9999, models.TaskPatch{Title: strPtr("ghost")}))
		_, err := db.GetTask(ctx, 9999)
		assert.ErrorIs(t, err, ErrTaskNotFound)
	})
}

func TestDeleteTask(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	task, err := db.CreateTask(ctx, models.TaskInput{Title: "Doomed", Status: models.StatusPending})
	require.NoError(t, err)

	require.NoError(t, db.DeleteTask(ctx, task.ID))
	_, err = db.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	assert.NoError(t, db.DeleteTask(ctx, task.ID), "deleting twice is not an error")
}

func TestSchemaRejectsInvalidRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateTask(ctx, models.TaskInput{Title: "x", Status: "archived"})
	assert.Error(t, err)

	_, err = db.CreateTask(ctx, models.TaskInput{Title: "", Status: models.StatusPending})
	assert.Error(t, err)

	tasks, err := db.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := t.TempDir() + "/nested/tasks.db"
	ctx := context.Background()

	db, err := Open(ctx, config.Database{Driver: DriverSQLite, Path: path})
	require.NoError(t, err)
	_, err = db.CreateTask(ctx, models.TaskInput{Title: "persisted", Status: models.StatusPending})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, config.Database{Driver: DriverSQLite, Path: path})
	require.NoError(t, err)
	defer db.Close()

	tasks, err := db.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "persisted", tasks[0].Title)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Database{Driver: "oracle"})
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "UPDATE tasks SET title = $1, status = $2 WHERE id = $3",
		pg.rebind("UPDATE tasks SET title = ?, status = ? WHERE id = ?"))

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "DELETE FROM tasks WHERE id = ?", lite.rebind("DELETE FROM tasks WHERE id = ?"))
}

func TestPostgres_Lifecycle(t *testing.T) {
	db := openPostgres(t)
	ctx := context.Background()

	task, err := db.CreateTask(ctx, models.TaskInput{Title: "test-pg", Description: "d", Status: models.StatusPending})
	require.NoError(t, err)

	require.NoError(t, db.UpdateTask(ctx, task.ID, models.TaskPatch{Status: statusPtr(models.StatusCompleted)}))

	got, err := db.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "test-pg", got.Title)
	assert.True(t, task.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, db.DeleteTask(ctx, task.ID))
	_, err = db.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
