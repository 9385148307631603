package service

// Task is a single todo as the backend returned it.
type Task struct {
	// ID is empty when the record carries none of the known ID fields.
	ID string

	Title string
	Done  bool

	// Fields is the normalized record the task was built from.
	Fields map[string]any
}

// HasID reports whether the task can be addressed by the backend.
func (t Task) HasID() bool { return t.ID != "" }
