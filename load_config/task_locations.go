package load_config

import "sync"

// TaskLocations resolves a task's scratch directory and the global store path
// from task identity. One instance is owned by the execution context and
// shared by the tasks it runs.
type TaskLocations struct {
	mu        sync.RWMutex
	temp      map[string]string
	storePath string
}

func NewTaskLocations() *TaskLocations {
	return &TaskLocations{temp: make(map[string]string)}
}

// TempLocationKey is {database}_{table}_{taskNo}.
func TempLocationKey(database, table, taskNo string) string {
	return database + "_" + table + "_" + taskNo
}

func (tl *TaskLocations) Register(database, table, taskNo, tempLocation, storePath string) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.temp[TempLocationKey(database, table, taskNo)] = tempLocation
	tl.storePath = storePath
}

func (tl *TaskLocations) TempLocation(database, table, taskNo string) (string, bool) {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	loc, ok := tl.temp[TempLocationKey(database, table, taskNo)]
	return loc, ok
}

func (tl *TaskLocations) StorePath() string {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return tl.storePath
}

// Forget drops a finished task's entry.
func (tl *TaskLocations) Forget(database, table, taskNo string) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	delete(tl.temp, TempLocationKey(database, table, taskNo))
}
